package books

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/norsebooks/norsebooks/internal/common"
	"github.com/norsebooks/norsebooks/internal/dbx"
	"github.com/norsebooks/norsebooks/internal/server/models"
	"github.com/norsebooks/norsebooks/internal/server/search"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *PostgresRepository) BookIDExists(ctx context.Context, bookID string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM books WHERE book_id = $1)`, bookID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) Create(ctx context.Context, userID int64, bookID string, in models.BookInput) (*models.Book, error) {
	query := `
		INSERT INTO books (book_id, title, author, department_id, course_number, user_id,
			price, condition_id, description, image_url, isbn10, isbn13)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, listed_at
	`
	b := &models.Book{
		BookID:       bookID,
		Title:        in.Title,
		Author:       in.Author,
		DepartmentID: in.DepartmentID,
		CourseNumber: in.CourseNumber,
		UserID:       userID,
		Price:        in.Price,
		ConditionID:  in.ConditionID,
		Description:  in.Description,
		ISBN10:       in.ISBN10,
		ISBN13:       in.ISBN13,
	}
	if in.ImageURL != nil {
		b.ImageURL = *in.ImageURL
	}

	err := r.db.QueryRowContext(ctx, query,
		bookID, in.Title, in.Author, in.DepartmentID, in.CourseNumber, userID,
		in.Price, in.ConditionID, in.Description, nullable(b.ImageURL), nullable(in.ISBN10), nullable(in.ISBN13),
	).Scan(&b.ID, &b.ListedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return b, nil
}

func (r *PostgresRepository) Update(ctx context.Context, bookID string, in models.BookInput) error {
	query := `
		UPDATE books SET title = $1, author = $2, department_id = $3, course_number = $4,
			price = $5, condition_id = $6, description = $7, isbn10 = $8, isbn13 = $9,
			image_url = COALESCE($10, image_url)
		WHERE book_id = $11
	`
	var image any
	if in.ImageURL != nil {
		image = *in.ImageURL
	}

	res, err := r.db.ExecContext(ctx, query,
		in.Title, in.Author, in.DepartmentID, in.CourseNumber,
		in.Price, in.ConditionID, in.Description, nullable(in.ISBN10), nullable(in.ISBN13),
		image, bookID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

const bookColumns = `b.id, b.book_id, b.title, b.author, b.department_id, b.course_number, b.user_id,
		b.price, b.condition_id, b.description, b.listed_at, COALESCE(b.image_url, ''),
		COALESCE(b.isbn10, ''), COALESCE(b.isbn13, '')`

func bookDest(b *models.Book) []any {
	return []any{&b.ID, &b.BookID, &b.Title, &b.Author, &b.DepartmentID, &b.CourseNumber, &b.UserID,
		&b.Price, &b.ConditionID, &b.Description, &b.ListedAt, &b.ImageURL, &b.ISBN10, &b.ISBN13}
}

func scanErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) Get(ctx context.Context, bookID string) (*models.BookDetail, error) {
	query := `
		SELECT ` + bookColumns + `, COALESCE(d.name, 'Other'), c.name
		FROM books b
		LEFT JOIN departments d ON d.id = b.department_id
		JOIN conditions c ON c.id = b.condition_id
		WHERE b.book_id = $1
	`
	d := &models.BookDetail{}
	dest := append(bookDest(&d.Book), &d.Department, &d.Condition)
	if err := r.db.QueryRowContext(ctx, query, bookID).Scan(dest...); err != nil {
		return nil, scanErr(err)
	}
	return d, nil
}

func (r *PostgresRepository) Lock(ctx context.Context, bookID string) (*models.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books b WHERE b.book_id = $1 FOR UPDATE`
	b := &models.Book{}
	if err := r.db.QueryRowContext(ctx, query, bookID).Scan(bookDest(b)...); err != nil {
		return nil, scanErr(err)
	}
	return b, nil
}

func (r *PostgresRepository) Seller(ctx context.Context, bookID string) (*models.Seller, error) {
	query := `
		SELECT u.id, u.user_id, u.firstname, u.lastname, u.contact_platform_id, u.contact_info
		FROM books b
		JOIN users u ON u.id = b.user_id
		WHERE b.book_id = $1
	`
	s := &models.Seller{}
	err := r.db.QueryRowContext(ctx, query, bookID).
		Scan(&s.UserID, &s.PublicID, &s.Firstname, &s.Lastname, &s.ContactPlatformID, &s.ContactInfo)
	if err != nil {
		return nil, scanErr(err)
	}
	return s, nil
}

func (r *PostgresRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]models.BookRow, error) {
	query := `
		SELECT b.book_id, b.title, b.author, b.department_id, COALESCE(d.name, 'Other'), b.course_number,
			b.price, b.condition_id, COALESCE(b.isbn10, ''), COALESCE(b.isbn13, ''),
			COALESCE(b.image_url, ''), b.listed_at,
			ROW_NUMBER() OVER (ORDER BY b.listed_at DESC, b.id DESC) AS idx
		FROM books b
		LEFT JOIN departments d ON d.id = b.department_id
		WHERE b.user_id = $1
		ORDER BY idx
	`
	return r.rows(ctx, query, userID)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Search(ctx context.Context, plan search.Plan) ([]models.BookRow, error) {
	return r.rows(ctx, plan.SQL, plan.Args...)
}

func (r *PostgresRepository) AnchorRank(ctx context.Context, plan search.Plan) (int64, error) {
	var rank int64
	if err := r.db.QueryRowContext(ctx, plan.SQL, plan.Args...).Scan(&rank); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrAnchorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return rank, nil
}

func (r *PostgresRepository) rows(ctx context.Context, query string, args ...any) ([]models.BookRow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.BookRow{}
	for rows.Next() {
		var b models.BookRow
		if err := rows.Scan(&b.BookID, &b.Title, &b.Author, &b.DepartmentID, &b.Department, &b.CourseNumber,
			&b.Price, &b.ConditionID, &b.ISBN10, &b.ISBN13, &b.ImageURL, &b.ListedAt, &b.Index); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
