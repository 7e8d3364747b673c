package reference

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/norsebooks/norsebooks/internal/common"
	"github.com/norsebooks/norsebooks/internal/dbx"
	"github.com/norsebooks/norsebooks/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// pairs runs a two-column id/name query.
func (r *PostgresRepository) pairs(ctx context.Context, query string, add func(id int, name string)) error {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   int
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		add(id, name)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Departments(ctx context.Context) ([]models.Department, error) {
	out := []models.Department{}
	err := r.pairs(ctx, `SELECT id, name FROM departments ORDER BY name`, func(id int, name string) {
		out = append(out, models.Department{ID: id, Name: name})
	})
	return out, err
}

func (r *PostgresRepository) Conditions(ctx context.Context) ([]models.Condition, error) {
	out := []models.Condition{}
	err := r.pairs(ctx, `SELECT id, name FROM conditions ORDER BY id`, func(id int, name string) {
		out = append(out, models.Condition{ID: id, Name: name})
	})
	return out, err
}

func (r *PostgresRepository) Platforms(ctx context.Context) ([]models.Platform, error) {
	out := []models.Platform{}
	err := r.pairs(ctx, `SELECT id, name FROM platforms ORDER BY id`, func(id int, name string) {
		out = append(out, models.Platform{ID: id, Name: name})
	})
	return out, err
}

func (r *PostgresRepository) SearchSorts(ctx context.Context) ([]models.SearchSort, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, sort_key FROM search_sorts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []models.SearchSort{}
	for rows.Next() {
		var s models.SearchSort
		if err := rows.Scan(&s.ID, &s.Name, &s.SortKey); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) SearchSort(ctx context.Context, id int) (*models.SearchSort, error) {
	s := &models.SearchSort{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name, sort_key FROM search_sorts WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.SortKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) exists(ctx context.Context, query string, id int) (bool, error) {
	var ok bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) DepartmentExists(ctx context.Context, id int) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM departments WHERE id = $1)`, id)
}

func (r *PostgresRepository) ConditionExists(ctx context.Context, id int) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM conditions WHERE id = $1)`, id)
}

func (r *PostgresRepository) PlatformExists(ctx context.Context, id int) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM platforms WHERE id = $1)`, id)
}
