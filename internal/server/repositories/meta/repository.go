// Package meta stores site-wide settings as key/value rows.
package meta

import "context"

type Repository interface {
	// Get returns the value for key. A NULL value reads as "".
	// Missing keys yield common.ErrorNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set upserts key.
	Set(ctx context.Context, key, value string) error
}
