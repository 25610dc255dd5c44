package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/carddavsync/internal/bootstrap"
	"github.com/dmitrijs2005/carddavsync/internal/config"
	"github.com/dmitrijs2005/carddavsync/internal/daemon"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	env, err := bootstrap.Open(ctx, cfg, os.Stdout)
	if err != nil {
		log.Printf("%v", err)
		return
	}
	defer env.Close()

	daemon.NewApp(env).Run(ctx)

}
