package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// parseEnv overlays variables from the environment and from a .env file in
// the working directory. Variables already set in the environment win over
// the file. Unset variables leave the field unchanged.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	if err := env.Parse(config); err != nil {
		panic(err)
	}
}
