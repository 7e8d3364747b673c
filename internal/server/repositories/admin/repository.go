// Package admin implements the read-only database tooling exposed to site
// administrators.
package admin

import (
	"context"

	"github.com/norsebooks/norsebooks/internal/server/models"
)

type Repository interface {
	Tables(ctx context.Context) ([]string, error)
	// Columns lists the columns of table in ordinal order; unknown tables
	// yield an empty list.
	Columns(ctx context.Context, table string) ([]string, error)
	RowCounts(ctx context.Context) ([]models.TableRowCount, error)

	// Users lists verified accounts ordered by one of UserOrderColumns.
	Users(ctx context.Context, orderBy string, descending bool) ([]models.AdminUserRow, error)

	// Select runs an ad-hoc read after checking every identifier against the
	// schema. Invalid identifiers or operators yield ErrInvalidQuery.
	Select(ctx context.Context, q models.SelectQuery) (*models.QueryResult, error)
}
