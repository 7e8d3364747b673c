// Package server initializes and runs the NorseBooks application server.
// It opens the database and runs migrations, restores pending token
// expiries, wires the mailer, image store and rate limiter into the services,
// handles graceful shutdown and serves the HTTP API.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/norsebooks/norsebooks/internal/logging"
	"github.com/norsebooks/norsebooks/internal/server/config"
	"github.com/norsebooks/norsebooks/internal/server/httpapi"
	"github.com/norsebooks/norsebooks/internal/server/images"
	"github.com/norsebooks/norsebooks/internal/server/mailer"
	"github.com/norsebooks/norsebooks/internal/server/repositories/repomanager"
	"github.com/norsebooks/norsebooks/internal/server/services"
	"github.com/norsebooks/norsebooks/internal/server/shared/db"
	"github.com/norsebooks/norsebooks/internal/server/tokens"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

type App struct {
	config *config.Config
	logger logging.Logger

	db     *sql.DB
	rdb    *redis.Client
	tokens *tokens.Store
	mail   *mailer.Async
	http   *httpapi.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(c.Env, os.Stdout)
	app := &App{config: c, logger: logger}

	conn, err := db.Open(ctx, c.DatabaseDSN, c.DatabaseMaxConns)
	if err != nil {
		return nil, err
	}
	app.db = conn

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, conn); err != nil {
		app.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	gen := tokens.NewGenerator()
	app.tokens = tokens.NewStore(conn, m, gen, tokens.TimeoutsFromConfig(c), logger)
	if err := app.tokens.Reconcile(ctx); err != nil {
		app.Close()
		return nil, fmt.Errorf("token reconcile error: %w", err)
	}

	app.mail = mailer.NewAsync(mailer.NewSMTPMailer(c, logger), logger)

	var img images.Store
	if c.S3Bucket != "" {
		s3, err := images.NewS3Store(ctx, c)
		if err != nil {
			app.Close()
			return nil, err
		}
		img = s3
	} else {
		logger.Warn(ctx, "no image bucket configured, uploads are disabled")
	}

	if c.RedisURL != "" {
		opts, err := redis.ParseURL(c.RedisURL)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("redis url: %w", err)
		}
		app.rdb = redis.NewClient(opts)
	} else {
		logger.Warn(ctx, "no redis configured, rate limits are disabled")
	}

	svc := httpapi.Services{
		Credentials: services.NewCredentialService(conn, m, app.tokens, gen, app.mail, c, logger),
		Books:       services.NewBookService(conn, m, gen, img, c, logger),
		Moderation:  services.NewModerationService(conn, m, img, c, logger),
		Profiles:    services.NewProfileService(conn, m, img, app.mail, c, logger),
		Catalog:     services.NewCatalogService(conn, m),
		Meta:        services.NewMetaService(conn, m),
		Admin:       services.NewAdminService(conn, m, logger),
		Images:      img,
	}
	app.http = httpapi.New(c, svc, app.rdb, prometheus.DefaultRegisterer, logger)

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.http.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until a termination signal arrives or the server fails, then
// releases every resource.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.Close()
	app.logger.Info(context.Background(), "App stopped")
}

// Close stops pending token expiries and in-flight mail, then closes the
// connections. Safe to call on a partially built App.
func (app *App) Close() {
	ctx := context.Background()
	if app.tokens != nil {
		app.tokens.Close()
	}
	if app.mail != nil {
		app.mail.Close()
	}
	if app.rdb != nil {
		if err := app.rdb.Close(); err != nil {
			app.logger.Warn(ctx, "redis close failed", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Warn(ctx, "db close failed", "error", err)
		}
	}
}
