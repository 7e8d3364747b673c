// Package users declares and implements persistence for marketplace accounts.
package users

import (
	"context"
	"time"

	"github.com/norsebooks/norsebooks/internal/server/models"
)

type Repository interface {
	// Create inserts an unverified user and fills in ID and JoinedAt.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	PublicIDExists(ctx context.Context, publicID string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)

	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetVerifiedByEmail ignores accounts that have not been verified.
	GetVerifiedByEmail(ctx context.Context, email string) (*models.User, error)
	GetNavBySession(ctx context.Context, sessionToken string) (*models.NavUser, error)

	SetVerified(ctx context.Context, email string) (bool, error)
	// DeleteUnverified removes the account bound to email unless it has been
	// verified, returning the number of rows removed.
	DeleteUnverified(ctx context.Context, email string) (int64, error)

	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
	SetPassword(ctx context.Context, id int64, hash string) error
	SetName(ctx context.Context, id int64, firstname, lastname string) error
	SetContact(ctx context.Context, id int64, platformID int, info string) error
	SetImage(ctx context.Context, id int64, url string) error
	SetAdmin(ctx context.Context, email string, admin bool) (bool, error)

	IncrementListed(ctx context.Context, id int64) error
	// RecordSale bumps items_sold and adds amount to money_made.
	RecordSale(ctx context.Context, id int64, amount float64) error
	TouchFeedback(ctx context.Context, id int64, at time.Time) error
}
