package main

import (
	"context"
	"log"
	"os"

	"github.com/norsebooks/norsebooks/internal/admincli"
	"github.com/norsebooks/norsebooks/internal/logging"
	"github.com/norsebooks/norsebooks/internal/server/config"
	"github.com/norsebooks/norsebooks/internal/server/mailer"
	"github.com/norsebooks/norsebooks/internal/server/repositories/repomanager"
	"github.com/norsebooks/norsebooks/internal/server/services"
	"github.com/norsebooks/norsebooks/internal/server/shared/db"
	"github.com/norsebooks/norsebooks/internal/server/tokens"
)

func main() {
	if err := run(context.Background()); err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := config.LoadConfig()
	logger := logging.New(cfg.Env, os.Stderr)

	conn, err := db.Open(ctx, cfg.DatabaseDSN, 2)
	if err != nil {
		return err
	}
	defer conn.Close()

	m := repomanager.NewPostgresRepositoryManager()
	gen := tokens.NewGenerator()
	store := tokens.NewStore(conn, m, gen, tokens.TimeoutsFromConfig(cfg), logger)
	defer store.Close()

	creds := services.NewCredentialService(conn, m, store, gen, mailer.NewSMTPMailer(cfg, logger), cfg, logger)
	admin := services.NewAdminService(conn, m, logger)

	app := admincli.NewApp(admin, creds, cfg.EmailSuffix, os.Stdin, os.Stdout)

	if args := admincli.CommandArgs(os.Args[1:]); args != nil {
		return app.Exec(ctx, args)
	}
	app.Root(ctx)
	return nil
}
