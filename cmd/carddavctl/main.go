package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/carddavsync/internal/bootstrap"
	"github.com/dmitrijs2005/carddavsync/internal/cli"
	"github.com/dmitrijs2005/carddavsync/internal/config"
	"github.com/dmitrijs2005/carddavsync/internal/flagx"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("%v", err)
	}
}

func run() error {
	ctx := context.Background()
	cfg := config.LoadConfig()
	if cfg.UserID == "" {
		return fmt.Errorf("no user given, use -u or CARDDAV_USER")
	}

	env, err := bootstrap.Open(ctx, cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer env.Close()

	m, sess, err := env.Manager(cfg.UserID)
	if err != nil {
		return err
	}
	if err := env.Policy.Init(ctx, m, env.Logger); err != nil {
		env.Logger.Warn(ctx, "preset initialization failed", "error", err)
	}

	var store cli.SecretStore
	if env.Secrets != nil {
		store = env.Secrets
	}
	app := cli.NewApp(m, env.Policy, store, sess, os.Stdin, os.Stdout)

	if args := flagx.Positional(os.Args[1:], config.ValueFlags()); len(args) > 0 {
		return app.Exec(ctx, args)
	}
	app.Root(ctx)
	return nil
}
