package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/norsebooks/norsebooks/internal/common"
	"github.com/norsebooks/norsebooks/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var userCols = []string{"id", "user_id", "firstname", "lastname", "email", "password_hash", "image_url",
	"contact_platform_id", "contact_info", "joined_at", "last_login", "items_listed", "items_sold",
	"money_made", "verified", "last_feedback_at", "admin"}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+users\s*\(user_id,\s*email,\s*password_hash,\s*firstname,\s*lastname\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*RETURNING\s+id,\s*joined_at$`

	joined := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(q).
		WithArgs("Ab12Cd34", "jo@luther.edu", "hash", "Jo", "Doe").
		WillReturnRows(sqlmock.NewRows([]string{"id", "joined_at"}).AddRow(int64(42), joined))

	u := &models.User{PublicID: "Ab12Cd34", Email: "jo@luther.edu", PasswordHash: "hash", Firstname: "Jo", Lastname: "Doe"}
	got, err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.ID)
	assert.Equal(t, joined, got.JoinedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestExists(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM users WHERE user_id = \$1\)`).
		WithArgs("Ab12Cd34").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM users WHERE email = \$1\)`).
		WithArgs("jo@luther.edu").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	ok, err := repo.PublicIDExists(context.Background(), "Ab12Cd34")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.EmailExists(context.Background(), "jo@luther.edu")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetVerifiedByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	joined := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(userCols).
		AddRow(int64(7), "Ab12Cd34", "Jo", "Doe", "jo@luther.edu", "hash", "",
			int64(1), "jo@example.com", joined, nil, 3, 1, 25.5, true, nil, false)

	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*user_id,.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1\s+AND\s+verified$`).
		WithArgs("jo@luther.edu").
		WillReturnRows(rows)

	u, err := repo.GetVerifiedByEmail(context.Background(), "jo@luther.edu")
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)
	assert.Equal(t, "Ab12Cd34", u.PublicID)
	require.NotNil(t, u.ContactPlatformID)
	assert.Equal(t, 1, *u.ContactPlatformID)
	assert.True(t, u.HasContactInfo())
	assert.Nil(t, u.LastLogin)
	assert.Equal(t, 25.5, u.MoneyMade)
	assert.True(t, u.Verified)
}

func TestGetVerifiedByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+email`).
		WithArgs("ghost@luther.edu").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetVerifiedByEmail(context.Background(), "ghost@luther.edu")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetByID_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs(int64(1)).
		WillReturnError(errors.New("db err"))

	_, err := repo.GetByID(context.Background(), 1)
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetNavBySession(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+u\.id,\s*u\.user_id,\s*u\.firstname,\s*u\.admin\s+FROM\s+sessions\s+s\s+JOIN\s+users\s+u\s+ON\s+u\.id\s*=\s*s\.user_id\s+WHERE\s+s\.token\s*=\s*\$1$`

	mock.ExpectQuery(q).
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "firstname", "admin"}).AddRow(int64(3), "pub", "Jo", true))
	mock.ExpectQuery(q).
		WithArgs("gone").
		WillReturnError(sql.ErrNoRows)

	nav, err := repo.GetNavBySession(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, &models.NavUser{ID: 3, PublicID: "pub", Firstname: "Jo", Admin: true}, nav)

	_, err = repo.GetNavBySession(context.Background(), "gone")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSetVerified_And_DeleteUnverified(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^UPDATE users SET verified = TRUE WHERE email = \$1$`).
		WithArgs("jo@luther.edu").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`^DELETE FROM users WHERE email = \$1 AND NOT verified$`).
		WithArgs("late@luther.edu").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.SetVerified(context.Background(), "jo@luther.edu")
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := repo.DeleteUnverified(context.Background(), "late@luther.edu")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdates(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()
	ctx := context.Background()
	at := time.Now()

	mock.ExpectExec(`UPDATE users SET last_login = \$1 WHERE id = \$2`).WithArgs(at, int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users SET password_hash = \$1 WHERE id = \$2`).WithArgs("h", int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users SET firstname = \$1, lastname = \$2 WHERE id = \$3`).WithArgs("A", "B", int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users SET contact_platform_id = \$1, contact_info = \$2 WHERE id = \$3`).WithArgs(2, "555", int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users SET image_url = \$1 WHERE id = \$2`).WithArgs("http://img", int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users SET items_listed = items_listed \+ 1 WHERE id = \$1`).WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users SET items_sold = items_sold \+ 1, money_made = money_made \+ \$1 WHERE id = \$2`).WithArgs(12.5, int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users SET last_feedback_at = \$1 WHERE id = \$2`).WithArgs(at, int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users SET admin = \$1 WHERE email = \$2`).WithArgs(true, "a@luther.edu").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.TouchLastLogin(ctx, 1, at))
	require.NoError(t, repo.SetPassword(ctx, 1, "h"))
	require.NoError(t, repo.SetName(ctx, 1, "A", "B"))
	require.NoError(t, repo.SetContact(ctx, 1, 2, "555"))
	require.NoError(t, repo.SetImage(ctx, 1, "http://img"))
	require.NoError(t, repo.IncrementListed(ctx, 1))
	require.NoError(t, repo.RecordSale(ctx, 1, 12.5))
	require.NoError(t, repo.TouchFeedback(ctx, 1, at))
	ok, err := repo.SetAdmin(ctx, "a@luther.edu", true)
	require.NoError(t, err)
	assert.False(t, ok, "no such account")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExec_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE users SET password_hash`).WillReturnError(errors.New("db err"))

	err := repo.SetPassword(context.Background(), 1, "h")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
