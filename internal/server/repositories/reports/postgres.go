package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/norsebooks/norsebooks/internal/dbx"
	"github.com/norsebooks/norsebooks/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, bookID, userID int64, at time.Time) error {
	query := `INSERT INTO reports (book_id, user_id, reported_at) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, bookID, userID, at); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, bookID, userID int64) error {
	query := `DELETE FROM reports WHERE book_id = $1 AND user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, bookID, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CountForBook(ctx context.Context, bookID int64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports WHERE book_id = $1`, bookID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, bookID, userID int64) (bool, error) {
	var ok bool
	query := `SELECT EXISTS (SELECT 1 FROM reports WHERE book_id = $1 AND user_id = $2)`
	if err := r.db.QueryRowContext(ctx, query, bookID, userID).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) ReportedSince(ctx context.Context, userID int64, since time.Time) (bool, error) {
	var ok bool
	query := `SELECT EXISTS (SELECT 1 FROM reports WHERE user_id = $1 AND reported_at > $2)`
	if err := r.db.QueryRowContext(ctx, query, userID, since).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.ReportView, error) {
	query := `
		SELECT u.firstname, u.lastname, b.book_id, b.title, r.reported_at
		FROM reports r
		JOIN users u ON u.id = r.user_id
		JOIN books b ON b.id = r.book_id
		ORDER BY b.id, r.reported_at
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.ReportView{}
	for rows.Next() {
		var v models.ReportView
		if err := rows.Scan(&v.Firstname, &v.Lastname, &v.BookID, &v.Title, &v.ReportedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
