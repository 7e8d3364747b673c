// Package reports stores user reports against book listings.
package reports

import (
	"context"
	"time"

	"github.com/norsebooks/norsebooks/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, bookID, userID int64, at time.Time) error
	// Delete withdraws userID's report on bookID.
	Delete(ctx context.Context, bookID, userID int64) error
	CountForBook(ctx context.Context, bookID int64) (int, error)
	Exists(ctx context.Context, bookID, userID int64) (bool, error)
	// ReportedSince reports whether userID filed any report after since.
	ReportedSince(ctx context.Context, userID int64, since time.Time) (bool, error)
	List(ctx context.Context) ([]models.ReportView, error)
}
