package admin

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/norsebooks/norsebooks/internal/dbx"
	"github.com/norsebooks/norsebooks/internal/server/models"
	"github.com/norsebooks/norsebooks/internal/server/repositories/stats"
)

var ErrInvalidQuery = errors.New("invalid query")

// MaxSelectRows caps ad-hoc result sets.
const MaxSelectRows = 1000

// UserOrderColumns maps accepted order keys to columns of the users listing.
var UserOrderColumns = map[string]string{
	"firstname":   "firstname",
	"lastname":    "lastname",
	"email":       "email",
	"joinedAt":    "joined_at",
	"itemsListed": "items_listed",
	"itemsSold":   "items_sold",
	"moneyMade":   "money_made",
}

// Operators accepted in an ad-hoc WHERE clause.
var Operators = []string{"=", "!=", "<", "<=", ">", ">=", "LIKE", "ILIKE"}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) names(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Tables(ctx context.Context) ([]string, error) {
	return r.names(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`)
}

func (r *PostgresRepository) Columns(ctx context.Context, table string) ([]string, error) {
	return r.names(ctx, `
		SELECT column_name FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position
	`, strings.ToLower(table))
}

func (r *PostgresRepository) RowCounts(ctx context.Context) ([]models.TableRowCount, error) {
	rows, err := r.db.QueryContext(ctx, stats.RowCountsQuery)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []models.TableRowCount{}
	for rows.Next() {
		var c models.TableRowCount
		if err := rows.Scan(&c.Table, &c.Rows); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func direction(descending bool) string {
	if descending {
		return "DESC"
	}
	return "ASC"
}

func (r *PostgresRepository) Users(ctx context.Context, orderBy string, descending bool) ([]models.AdminUserRow, error) {
	col, ok := UserOrderColumns[orderBy]
	if !ok {
		col = "joined_at"
	}
	query := `
		SELECT firstname, lastname, email, joined_at, items_listed, items_sold, money_made
		FROM users
		WHERE verified
		ORDER BY ` + col + ` ` + direction(descending) + `, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []models.AdminUserRow{}
	for rows.Next() {
		var u models.AdminUserRow
		if err := rows.Scan(&u.Firstname, &u.Lastname, &u.Email, &u.JoinedAt, &u.ItemsListed, &u.ItemsSold, &u.MoneyMade); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// BuildSelect renders q against the known column set of its table.
func BuildSelect(q models.SelectQuery, known []string) (string, []any, error) {
	if len(known) == 0 {
		return "", nil, fmt.Errorf("%w: unknown table %q", ErrInvalidQuery, q.Table)
	}
	check := func(col string) error {
		if !slices.Contains(known, col) {
			return fmt.Errorf("%w: unknown column %q", ErrInvalidQuery, col)
		}
		return nil
	}

	selectList := "*"
	if len(q.Columns) > 0 {
		quoted := make([]string, 0, len(q.Columns))
		for _, c := range q.Columns {
			if err := check(c); err != nil {
				return "", nil, err
			}
			quoted = append(quoted, pgx.Identifier{c}.Sanitize())
		}
		selectList = strings.Join(quoted, ", ")
	}

	var sb strings.Builder
	var args []any
	sb.WriteString("SELECT " + selectList + " FROM " + pgx.Identifier{"public", strings.ToLower(q.Table)}.Sanitize())

	if q.Where != "" {
		if err := check(q.Where); err != nil {
			return "", nil, err
		}
		op := strings.ToUpper(strings.TrimSpace(q.Operator))
		if !slices.Contains(Operators, op) {
			return "", nil, fmt.Errorf("%w: operator %q", ErrInvalidQuery, q.Operator)
		}
		args = append(args, q.Value)
		// compare as text so one bound parameter works for every column type
		sb.WriteString(" WHERE CAST(" + pgx.Identifier{q.Where}.Sanitize() + " AS TEXT) " + op + " $1")
	}

	if q.OrderBy != "" {
		if err := check(q.OrderBy); err != nil {
			return "", nil, err
		}
		sb.WriteString(" ORDER BY " + pgx.Identifier{q.OrderBy}.Sanitize() + " " + direction(q.Descending))
	}

	sb.WriteString(fmt.Sprintf(" LIMIT %d", MaxSelectRows))
	return sb.String(), args, nil
}

func (r *PostgresRepository) Select(ctx context.Context, q models.SelectQuery) (*models.QueryResult, error) {
	known, err := r.Columns(ctx, q.Table)
	if err != nil {
		return nil, err
	}
	query, args, err := BuildSelect(q, known)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	res := &models.QueryResult{Columns: cols, Rows: [][]*string{}}
	for rows.Next() {
		cells := make([]*string, len(cols))
		dest := make([]any, len(cols))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		res.Rows = append(res.Rows, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return res, nil
}
