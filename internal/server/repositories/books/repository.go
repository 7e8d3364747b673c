// Package books declares and implements persistence for book listings,
// including the ranked search queries built by the search package.
package books

import (
	"context"

	"github.com/norsebooks/norsebooks/internal/server/models"
	"github.com/norsebooks/norsebooks/internal/server/search"
)

type Repository interface {
	BookIDExists(ctx context.Context, bookID string) (bool, error)

	// Create inserts a listing for userID under the public id bookID.
	Create(ctx context.Context, userID int64, bookID string, in models.BookInput) (*models.Book, error)
	// Update rewrites the listing fields. A nil in.ImageURL keeps the stored image.
	Update(ctx context.Context, bookID string, in models.BookInput) error

	Get(ctx context.Context, bookID string) (*models.BookDetail, error)
	// Lock reads a listing and holds a row lock until the transaction ends.
	Lock(ctx context.Context, bookID string) (*models.Book, error)
	Seller(ctx context.Context, bookID string) (*models.Seller, error)

	CountByUser(ctx context.Context, userID int64) (int, error)
	ListByUser(ctx context.Context, userID int64) ([]models.BookRow, error)

	// Delete removes a listing by internal id. Its reports cascade.
	Delete(ctx context.Context, id int64) error

	// Search runs a first-page or next-page plan.
	Search(ctx context.Context, plan search.Plan) ([]models.BookRow, error)
	// AnchorRank runs an anchor plan and returns the anchor's rank, or
	// common.ErrAnchorNotFound when the book is absent from the ranked set.
	AnchorRank(ctx context.Context, plan search.Plan) (int64, error)
}
