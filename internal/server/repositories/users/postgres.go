package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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

const userColumns = `id, user_id, firstname, lastname, email, password_hash, COALESCE(image_url, ''),
		contact_platform_id, contact_info, joined_at, last_login, items_listed, items_sold,
		money_made, verified, last_feedback_at, admin`

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.PublicID, &u.Firstname, &u.Lastname, &u.Email, &u.PasswordHash, &u.ImageURL,
		&u.ContactPlatformID, &u.ContactInfo, &u.JoinedAt, &u.LastLogin, &u.ItemsListed, &u.ItemsSold,
		&u.MoneyMade, &u.Verified, &u.LastFeedbackAt, &u.Admin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (user_id, email, password_hash, firstname, lastname)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, joined_at`

	err := r.db.QueryRowContext(ctx, query,
		user.PublicID, user.Email, user.PasswordHash, user.Firstname, user.Lastname).Scan(&user.ID, &user.JoinedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var ok bool
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) PublicIDExists(ctx context.Context, publicID string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE user_id = $1)`, publicID)
}

func (r *PostgresRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetVerifiedByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND verified`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetNavBySession(ctx context.Context, sessionToken string) (*models.NavUser, error) {
	query :=
		`SELECT u.id, u.user_id, u.firstname, u.admin
		 FROM sessions s
		 JOIN users u ON u.id = s.user_id
		 WHERE s.token = $1`

	nav := &models.NavUser{}
	err := r.db.QueryRowContext(ctx, query, sessionToken).Scan(&nav.ID, &nav.PublicID, &nav.Firstname, &nav.Admin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return nav, nil
}

func (r *PostgresRepository) affected(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetVerified(ctx context.Context, email string) (bool, error) {
	n, err := r.affected(ctx, `UPDATE users SET verified = TRUE WHERE email = $1`, email)
	return n > 0, err
}

func (r *PostgresRepository) DeleteUnverified(ctx context.Context, email string) (int64, error) {
	return r.affected(ctx, `DELETE FROM users WHERE email = $1 AND NOT verified`, email)
}

func (r *PostgresRepository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	return r.exec(ctx, `UPDATE users SET last_login = $1 WHERE id = $2`, at, id)
}

func (r *PostgresRepository) SetPassword(ctx context.Context, id int64, hash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, hash, id)
}

func (r *PostgresRepository) SetName(ctx context.Context, id int64, firstname, lastname string) error {
	return r.exec(ctx, `UPDATE users SET firstname = $1, lastname = $2 WHERE id = $3`, firstname, lastname, id)
}

func (r *PostgresRepository) SetContact(ctx context.Context, id int64, platformID int, info string) error {
	return r.exec(ctx, `UPDATE users SET contact_platform_id = $1, contact_info = $2 WHERE id = $3`, platformID, info, id)
}

func (r *PostgresRepository) SetImage(ctx context.Context, id int64, url string) error {
	return r.exec(ctx, `UPDATE users SET image_url = $1 WHERE id = $2`, url, id)
}

func (r *PostgresRepository) SetAdmin(ctx context.Context, email string, admin bool) (bool, error) {
	n, err := r.affected(ctx, `UPDATE users SET admin = $1 WHERE email = $2`, admin, email)
	return n > 0, err
}

func (r *PostgresRepository) IncrementListed(ctx context.Context, id int64) error {
	return r.exec(ctx, `UPDATE users SET items_listed = items_listed + 1 WHERE id = $1`, id)
}

func (r *PostgresRepository) RecordSale(ctx context.Context, id int64, amount float64) error {
	return r.exec(ctx,
		`UPDATE users SET items_sold = items_sold + 1, money_made = money_made + $1 WHERE id = $2`, amount, id)
}

func (r *PostgresRepository) TouchFeedback(ctx context.Context, id int64, at time.Time) error {
	return r.exec(ctx, `UPDATE users SET last_feedback_at = $1 WHERE id = $2`, at, id)
}
