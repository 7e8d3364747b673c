// Package stats computes site-wide counters for the admin dashboard.
package stats

import (
	"context"

	"github.com/norsebooks/norsebooks/internal/server/models"
)

type Repository interface {
	Snapshot(ctx context.Context) (*models.Stats, error)
}
