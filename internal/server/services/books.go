package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/norsebooks/norsebooks/internal/common"
	"github.com/norsebooks/norsebooks/internal/dbx"
	"github.com/norsebooks/norsebooks/internal/logging"
	"github.com/norsebooks/norsebooks/internal/server/config"
	"github.com/norsebooks/norsebooks/internal/server/images"
	"github.com/norsebooks/norsebooks/internal/server/models"
	"github.com/norsebooks/norsebooks/internal/server/repositories/repomanager"
	"github.com/norsebooks/norsebooks/internal/server/search"
	"github.com/norsebooks/norsebooks/internal/server/tokens"
)

// BookView is a listing as shown on its page.
type BookView struct {
	BookID          string   `json:"bookId"`
	Title           string   `json:"title"`
	Author          string   `json:"author"`
	Department      string   `json:"department"`
	CourseNumber    *int     `json:"courseNumber"`
	Price           float64  `json:"price"`
	Condition       string   `json:"condition"`
	ISBN10          string   `json:"ISBN10"`
	ISBN13          string   `json:"ISBN13"`
	ImageURL        string   `json:"imageUrl"`
	Description     string   `json:"description"`
	Firstname       string   `json:"firstname"`
	Lastname        string   `json:"lastname"`
	ContactPlatform string   `json:"contactPlatform"`
	ContactInfo     *string  `json:"contactInfo"`
	BookOwner       bool     `json:"bookOwner"`
	CanReport       bool     `json:"canReport"`
	ListedAt        JSONTime `json:"listedAt"`
}

// JSONTime renders as unix seconds.
type JSONTime time.Time

func (t JSONTime) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprint(time.Time(t).Unix())), nil
}

// BookService manages listings: create, edit, sell, delete, view and search.
type BookService struct {
	db             *sql.DB
	repomanager    repomanager.RepositoryManager
	gen            *tokens.Generator
	images         images.Store
	logger         logging.Logger
	reportCooldown time.Duration
	now            func() time.Time
}

func NewBookService(db *sql.DB, m repomanager.RepositoryManager, gen *tokens.Generator, img images.Store,
	cfg *config.Config, logger logging.Logger) *BookService {
	return &BookService{
		db:             db,
		repomanager:    m,
		gen:            gen,
		images:         img,
		logger:         logger.With("module", "books"),
		reportCooldown: cfg.ReportCooldown,
		now:            time.Now,
	}
}

// CanList reports why userID may not list another book: common.ErrTooManyBooks
// at the listing limit, common.ErrNoContactInfo without a way to be reached.
func (s *BookService) CanList(ctx context.Context, userID int64) error {
	return s.canList(ctx, s.db, userID)
}

func (s *BookService) canList(ctx context.Context, db dbx.DBTX, userID int64) error {
	limit, err := metaInt(ctx, s.repomanager, db, models.MetaMaxBooks)
	if err != nil {
		return err
	}
	n, err := s.repomanager.Books(db).CountByUser(ctx, userID)
	if err != nil {
		return err
	}
	if n >= limit {
		return common.ErrTooManyBooks
	}

	u, err := s.repomanager.Users(db).GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !u.HasContactInfo() {
		return common.ErrNoContactInfo
	}
	return nil
}

// List creates a listing for userID under a fresh public id.
func (s *BookService) List(ctx context.Context, userID int64, in models.BookInput) (*models.Book, error) {
	b, err := dbx.WithTxResult(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.Book, error) {
		if err := s.canList(ctx, tx, userID); err != nil {
			return nil, err
		}
		repo := s.repomanager.Books(tx)
		bookID, err := s.gen.NewBase64(ctx, tokens.BookIDLength, repo.BookIDExists)
		if err != nil {
			return nil, fmt.Errorf("book id: %w", err)
		}
		b, err := repo.Create(ctx, userID, bookID, in)
		if err != nil {
			return nil, err
		}
		if err := s.repomanager.Users(tx).IncrementListed(ctx, userID); err != nil {
			return nil, err
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "book listed", "book_id", b.BookID)
	return b, nil
}

// owned locks bookID inside tx and checks that userID listed it.
func (s *BookService) owned(ctx context.Context, tx dbx.DBTX, userID int64, bookID string) (*models.Book, error) {
	b, err := s.repomanager.Books(tx).Lock(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, common.ErrorForbidden
	}
	return b, nil
}

// Edit rewrites a listing owned by userID. A nil in.ImageURL keeps the
// current image; a replaced image is removed from storage.
func (s *BookService) Edit(ctx context.Context, userID int64, bookID string, in models.BookInput) error {
	var oldImage string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		b, err := s.owned(ctx, tx, userID, bookID)
		if err != nil {
			return err
		}
		if in.ImageURL != nil && *in.ImageURL != b.ImageURL {
			oldImage = b.ImageURL
		}
		return s.repomanager.Books(tx).Update(ctx, bookID, in)
	})
	if err != nil {
		return err
	}
	s.dropImage(ctx, oldImage)
	return nil
}

// Get returns the page view of bookID for viewerID, who is 0 when
// anonymous.
func (s *BookService) Get(ctx context.Context, bookID string, viewerID int64) (*BookView, error) {
	books := s.repomanager.Books(s.db)

	d, err := books.Get(ctx, bookID)
	if err != nil {
		return nil, err
	}
	seller, err := books.Seller(ctx, bookID)
	if err != nil {
		return nil, err
	}

	v := &BookView{
		BookID:       d.BookID,
		Title:        d.Title,
		Author:       d.Author,
		Department:   d.Department,
		CourseNumber: d.CourseNumber,
		Price:        d.Price,
		Condition:    d.Condition,
		ISBN10:       d.ISBN10,
		ISBN13:       d.ISBN13,
		ImageURL:     d.ImageURL,
		Description:  d.Description,
		Firstname:    seller.Firstname,
		Lastname:     seller.Lastname,
		ContactInfo:  seller.ContactInfo,
		BookOwner:    viewerID != 0 && viewerID == seller.UserID,
		ListedAt:     JSONTime(d.ListedAt),
	}

	if seller.ContactPlatformID != nil {
		platforms, err := s.repomanager.Reference(s.db).Platforms(ctx)
		if err != nil {
			return nil, err
		}
		for _, p := range platforms {
			if p.ID == *seller.ContactPlatformID {
				v.ContactPlatform = p.Name
			}
		}
	}

	if viewerID != 0 {
		reports := s.repomanager.Reports(s.db)
		already, err := reports.Exists(ctx, d.ID, viewerID)
		if err != nil {
			return nil, err
		}
		recent, err := reports.ReportedSince(ctx, viewerID, s.now().Add(-s.reportCooldown))
		if err != nil {
			return nil, err
		}
		v.CanReport = !already && !recent
	}
	return v, nil
}

// Delete removes a listing owned by userID.
func (s *BookService) Delete(ctx context.Context, userID int64, bookID string) error {
	var image string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		b, err := s.owned(ctx, tx, userID, bookID)
		if err != nil {
			return err
		}
		image = b.ImageURL
		return s.repomanager.Books(tx).Delete(ctx, b.ID)
	})
	if err != nil {
		return err
	}
	s.dropImage(ctx, image)
	return nil
}

// MarkSold removes a listing owned by userID and credits the sale to the
// user's counters, in one transaction.
func (s *BookService) MarkSold(ctx context.Context, userID int64, bookID string) error {
	var image string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		b, err := s.owned(ctx, tx, userID, bookID)
		if err != nil {
			return err
		}
		image = b.ImageURL
		if err := s.repomanager.Users(tx).RecordSale(ctx, userID, b.Price); err != nil {
			return err
		}
		return s.repomanager.Books(tx).Delete(ctx, b.ID)
	})
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "book sold", "book_id", bookID)
	s.dropImage(ctx, image)
	return nil
}

func (s *BookService) UserBooks(ctx context.Context, userID int64) ([]models.BookRow, error) {
	return s.repomanager.Books(s.db).ListByUser(ctx, userID)
}

// dropImage removes an image that is no longer referenced. Failures only
// leave an orphaned object behind, so they are logged.
func (s *BookService) dropImage(ctx context.Context, url string) {
	if url == "" || s.images == nil {
		return
	}
	if err := s.images.Delete(ctx, url); err != nil {
		s.logger.Warn(ctx, "image cleanup failed", "error", err)
	}
}

// SortKey resolves a user-facing sort id. Unknown ids fall back to the
// default ordering.
func (s *BookService) SortKey(ctx context.Context, sortID int) (string, error) {
	if sortID == 0 {
		return search.DefaultSort, nil
	}
	sort, err := s.repomanager.Reference(s.db).SearchSort(ctx, sortID)
	if errors.Is(err, common.ErrorNotFound) {
		return search.DefaultSort, nil
	}
	if err != nil {
		return "", err
	}
	return sort.SortKey, nil
}

// Search returns one page of listings matching crit. With an empty
// lastBookID it returns the first page; otherwise the page that follows
// lastBookID in the same ordering, or common.ErrAnchorNotFound when that
// book no longer matches.
func (s *BookService) Search(ctx context.Context, crit search.Criteria, sortID int, lastBookID string) ([]models.BookRow, error) {
	sortKey, err := s.SortKey(ctx, sortID)
	if err != nil {
		return nil, err
	}
	limit, err := metaInt(ctx, s.repomanager, s.db, models.MetaBooksPerQuery)
	if err != nil {
		return nil, err
	}

	b := search.New(crit, sortKey)
	if lastBookID == "" {
		return s.repomanager.Books(s.db).Search(ctx, b.FirstPage(limit))
	}

	// anchor and page must see the same snapshot or ranks can shift between them
	return dbx.WithTxResult(ctx, s.db, dbx.Snapshot, func(ctx context.Context, tx dbx.DBTX) ([]models.BookRow, error) {
		repo := s.repomanager.Books(tx)
		rank, err := repo.AnchorRank(ctx, b.Anchor(lastBookID))
		if err != nil {
			return nil, err
		}
		return repo.Search(ctx, b.NextPage(rank, limit))
	})
}
