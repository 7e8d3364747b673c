package repomanager

import (
	"context"
	"database/sql"

	"github.com/norsebooks/norsebooks/internal/dbx"
	"github.com/norsebooks/norsebooks/internal/server/repositories/admin"
	"github.com/norsebooks/norsebooks/internal/server/repositories/books"
	"github.com/norsebooks/norsebooks/internal/server/repositories/meta"
	"github.com/norsebooks/norsebooks/internal/server/repositories/reference"
	"github.com/norsebooks/norsebooks/internal/server/repositories/reports"
	"github.com/norsebooks/norsebooks/internal/server/repositories/stats"
	"github.com/norsebooks/norsebooks/internal/server/repositories/tokens"
	"github.com/norsebooks/norsebooks/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same service
// code runs against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Books(db dbx.DBTX) books.Repository
	Tokens(db dbx.DBTX) tokens.Repository
	Reports(db dbx.DBTX) reports.Repository
	Meta(db dbx.DBTX) meta.Repository
	Reference(db dbx.DBTX) reference.Repository
	Stats(db dbx.DBTX) stats.Repository
	Admin(db dbx.DBTX) admin.Repository
}
