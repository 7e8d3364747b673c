// Package db opens the PostgreSQL pool shared by every repository.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sethvargo/go-retry"
)

// connectAttempts bounds how long startup waits for the database to accept
// connections.
const connectAttempts = 10

var sqlOpen = sql.Open

// Open connects to dsn through the pgx driver and waits until the server
// answers a ping.
func Open(ctx context.Context, dsn string, maxConns int) (*sql.DB, error) {
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(maxConns)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)

	b := retry.WithMaxRetries(connectAttempts-1, retry.NewExponential(250*time.Millisecond))
	b = retry.WithCappedDuration(5*time.Second, b)
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return db, nil
}
