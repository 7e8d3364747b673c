package stats

import (
	"context"
	"fmt"

	"github.com/norsebooks/norsebooks/internal/dbx"
	"github.com/norsebooks/norsebooks/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// RowCountsQuery counts rows of every public table without dynamic SQL on
// the client side.
const RowCountsQuery = `
	SELECT table_name,
		(xpath('/row/cnt/text()', query_to_xml(
			format('SELECT COUNT(*) AS cnt FROM %I.%I', table_schema, table_name), false, true, '')))[1]::TEXT::BIGINT
	FROM information_schema.tables
	WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
	ORDER BY table_name
`

func (r *PostgresRepository) Snapshot(ctx context.Context) (*models.Stats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users WHERE verified),
			(SELECT COUNT(*) FROM books),
			(SELECT COALESCE(SUM(items_sold), 0) FROM users),
			(SELECT COALESCE(SUM(items_listed), 0) FROM users),
			(SELECT COALESCE(SUM(money_made), 0) FROM users),
			(SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = 'public' AND table_type = 'BASE TABLE'),
			(SELECT COALESCE(SUM(c.n), 0) FROM (` + RowCountsQuery + `) AS c(name, n)),
			(SELECT COUNT(*) FROM reports)
	`
	s := &models.Stats{}
	err := r.db.QueryRowContext(ctx, query).
		Scan(&s.Users, &s.Books, &s.Sold, &s.Listed, &s.MoneyMade, &s.Tables, &s.Rows, &s.Reports)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}
