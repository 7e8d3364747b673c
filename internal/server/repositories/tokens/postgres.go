package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/norsebooks/norsebooks/internal/common"
	"github.com/norsebooks/norsebooks/internal/dbx"
	"github.com/norsebooks/norsebooks/internal/server/models"
)

// table describes where tokens of one kind live. Table and column names come
// from this fixed map only, never from callers.
type table struct {
	name    string
	subject string
	numeric bool
}

var tables = map[models.TokenKind]table{
	models.TokenSession:       {name: "sessions", subject: "user_id", numeric: true},
	models.TokenVerify:        {name: "verify_tokens", subject: "email"},
	models.TokenPasswordReset: {name: "password_resets", subject: "email"},
}

// ErrUnknownKind is returned for a token kind without a table.
var ErrUnknownKind = errors.New("unknown token kind")

func lookup(kind models.TokenKind) (table, error) {
	t, ok := tables[kind]
	if !ok {
		return table{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return t, nil
}

// subjectArg converts a subject to the column's type.
func (t table) subjectArg(subject string) (any, error) {
	if !t.numeric {
		return subject, nil
	}
	id, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s subject %q: %w", t.name, subject, err)
	}
	return id, nil
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, kind models.TokenKind, token, subject string, createdAt time.Time) error {
	t, err := lookup(kind)
	if err != nil {
		return err
	}
	arg, err := t.subjectArg(subject)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`INSERT INTO %s (token, %s, created_at) VALUES ($1, $2, $3)`, t.name, t.subject)
	if _, err := r.db.ExecContext(ctx, query, token, arg, createdAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Exists(ctx context.Context, kind models.TokenKind, token string) (bool, error) {
	t, err := lookup(kind)
	if err != nil {
		return false, err
	}

	var ok bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE token = $1)`, t.name)
	if err := r.db.QueryRowContext(ctx, query, token).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) Subject(ctx context.Context, kind models.TokenKind, token string) (string, error) {
	t, err := lookup(kind)
	if err != nil {
		return "", err
	}

	var subject string
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE token = $1`, t.subject, t.name)
	if err := r.db.QueryRowContext(ctx, query, token).Scan(&subject); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return subject, nil
}

func (r *PostgresRepository) SubjectHasToken(ctx context.Context, kind models.TokenKind, subject string) (bool, error) {
	t, err := lookup(kind)
	if err != nil {
		return false, err
	}
	arg, err := t.subjectArg(subject)
	if err != nil {
		return false, err
	}

	var ok bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)`, t.name, t.subject)
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, kind models.TokenKind, token string) (bool, error) {
	t, err := lookup(kind)
	if err != nil {
		return false, err
	}

	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE token = $1`, t.name), token)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) DeleteBySubject(ctx context.Context, kind models.TokenKind, subject string) error {
	t, err := lookup(kind)
	if err != nil {
		return err
	}
	arg, err := t.subjectArg(subject)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, t.name, t.subject)
	if _, err := r.db.ExecContext(ctx, query, arg); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, kind models.TokenKind) ([]models.Token, error) {
	t, err := lookup(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT token, %s, created_at FROM %s`, t.subject, t.name)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Token
	for rows.Next() {
		tok := models.Token{Kind: kind}
		if err := rows.Scan(&tok.Value, &tok.Subject, &tok.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, tok)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
