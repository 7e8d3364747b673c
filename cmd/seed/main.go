// Command seed fills a development database with fake users and listings.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/norsebooks/norsebooks/internal/flagx"
	"github.com/norsebooks/norsebooks/internal/logging"
	"github.com/norsebooks/norsebooks/internal/seed"
	"github.com/norsebooks/norsebooks/internal/server/config"
	"github.com/norsebooks/norsebooks/internal/server/repositories/repomanager"
	"github.com/norsebooks/norsebooks/internal/server/services"
	"github.com/norsebooks/norsebooks/internal/server/shared/db"
	"github.com/norsebooks/norsebooks/internal/server/tokens"
)

func main() {
	opts := seed.Options{}
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	fs.IntVar(&opts.Users, "users", 20, "number of users to create")
	fs.IntVar(&opts.BooksPerUser, "books", 3, "books listed per user")
	fs.StringVar(&opts.Password, "password", "Password123!", "password shared by seeded accounts")
	fs.Int64Var(&opts.Seed, "seed", 0, "random seed (0 = random)")
	_ = fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-users", "-books", "-password", "-seed"}))

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.New(cfg.Env, os.Stdout)

	conn, err := db.Open(ctx, cfg.DatabaseDSN, 4)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer conn.Close()

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, conn); err != nil {
		log.Printf("migration error: %v", err)
		return
	}

	gen := tokens.NewGenerator()
	books := services.NewBookService(conn, m, gen, nil, cfg, logger)
	s := seed.NewSeeder(conn, m, books, gen, cfg.BcryptCost, logger)

	res, err := s.Run(ctx, opts)
	if err != nil {
		log.Printf("seeding failed after %d users and %d books: %v", res.Users, res.Books, err)
		return
	}
	log.Printf("created %d users and %d books, password %q", res.Users, res.Books, opts.Password)
}
