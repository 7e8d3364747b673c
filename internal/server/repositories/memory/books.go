package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/norsebooks/norsebooks/internal/common"
	"github.com/norsebooks/norsebooks/internal/server/models"
	"github.com/norsebooks/norsebooks/internal/server/search"
)

type booksRepo Store

func (r *booksRepo) byPublicID(bookID string) *models.Book {
	for _, b := range r.books {
		if b.BookID == bookID {
			return b
		}
	}
	return nil
}

func (r *booksRepo) departmentName(id int) string {
	for _, d := range r.departments {
		if d.ID == id {
			return d.Name
		}
	}
	return "Other"
}

func (r *booksRepo) BookIDExists(_ context.Context, bookID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byPublicID(bookID) != nil, nil
}

func (r *booksRepo) Create(_ context.Context, userID int64, bookID string, in models.BookInput) (*models.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextBook++
	b := &models.Book{
		ID:           r.nextBook,
		BookID:       bookID,
		Title:        in.Title,
		Author:       in.Author,
		DepartmentID: in.DepartmentID,
		CourseNumber: in.CourseNumber,
		UserID:       userID,
		Price:        in.Price,
		ConditionID:  in.ConditionID,
		Description:  in.Description,
		ListedAt:     time.Now(),
		ISBN10:       in.ISBN10,
		ISBN13:       in.ISBN13,
	}
	if in.ImageURL != nil {
		b.ImageURL = *in.ImageURL
	}
	r.books[b.ID] = b
	cp := *b
	return &cp, nil
}

// Put stores b as-is, keeping its ListedAt. Tests use it to build listings
// with controlled timestamps.
func (s *Store) Put(b models.Book) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextBook++
	b.ID = s.nextBook
	s.books[b.ID] = &b
	return b.ID
}

func (r *booksRepo) Update(_ context.Context, bookID string, in models.BookInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := r.byPublicID(bookID)
	if b == nil {
		return common.ErrorNotFound
	}
	b.Title, b.Author = in.Title, in.Author
	b.DepartmentID, b.CourseNumber = in.DepartmentID, in.CourseNumber
	b.Price, b.ConditionID, b.Description = in.Price, in.ConditionID, in.Description
	b.ISBN10, b.ISBN13 = in.ISBN10, in.ISBN13
	if in.ImageURL != nil {
		b.ImageURL = *in.ImageURL
	}
	return nil
}

func (r *booksRepo) Get(_ context.Context, bookID string) (*models.BookDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := r.byPublicID(bookID)
	if b == nil {
		return nil, common.ErrorNotFound
	}
	d := &models.BookDetail{Book: *b, Department: r.departmentName(b.DepartmentID)}
	for _, c := range r.conditions {
		if c.ID == b.ConditionID {
			d.Condition = c.Name
		}
	}
	return d, nil
}

func (r *booksRepo) Lock(_ context.Context, bookID string) (*models.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := r.byPublicID(bookID)
	if b == nil {
		return nil, common.ErrorNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *booksRepo) Seller(_ context.Context, bookID string) (*models.Seller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := r.byPublicID(bookID)
	if b == nil {
		return nil, common.ErrorNotFound
	}
	u, ok := r.users[b.UserID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &models.Seller{
		UserID: u.ID, PublicID: u.PublicID, Firstname: u.Firstname, Lastname: u.Lastname,
		ContactPlatformID: u.ContactPlatformID, ContactInfo: u.ContactInfo,
	}, nil
}

func (r *booksRepo) CountByUser(_ context.Context, userID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, b := range r.books {
		if b.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *booksRepo) ListByUser(_ context.Context, userID int64) ([]models.BookRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var mine []*models.Book
	for _, b := range r.books {
		if b.UserID == userID {
			mine = append(mine, b)
		}
	}
	sort.Slice(mine, func(i, j int) bool { return less(search.DefaultSort, mine[i], mine[j]) })
	return r.toRows(mine, 0), nil
}

func (r *booksRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	(*Store)(r).deleteBookLocked(id)
	return nil
}

func (s *Store) deleteBookLocked(id int64) {
	delete(s.books, id)
	kept := s.reports[:0]
	for _, rep := range s.reports {
		if rep.BookID != id {
			kept = append(kept, rep)
		}
	}
	s.reports = kept
}

func (r *booksRepo) Search(_ context.Context, plan search.Plan) ([]models.BookRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ranked := r.rank(plan)
	start := int(plan.After)
	if start > len(ranked) {
		start = len(ranked)
	}
	end := start + plan.Limit
	if end > len(ranked) {
		end = len(ranked)
	}
	return r.toRows(ranked[start:end], int64(start)), nil
}

func (r *booksRepo) AnchorRank(_ context.Context, plan search.Plan) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, b := range r.rank(plan) {
		if b.BookID == plan.AnchorID {
			return int64(i + 1), nil
		}
	}
	return 0, common.ErrAnchorNotFound
}

// rank filters and orders the books the way the plan's SQL would.
func (r *booksRepo) rank(plan search.Plan) []*models.Book {
	var out []*models.Book
	for _, b := range r.books {
		if matches(plan.Criteria, b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(plan.SortKey, out[i], out[j]) })
	return out
}

func (r *booksRepo) toRows(list []*models.Book, offset int64) []models.BookRow {
	rows := make([]models.BookRow, 0, len(list))
	for i, b := range list {
		rows = append(rows, models.BookRow{
			BookID: b.BookID, Title: b.Title, Author: b.Author,
			DepartmentID: b.DepartmentID, Department: r.departmentName(b.DepartmentID),
			CourseNumber: b.CourseNumber, Price: b.Price, ConditionID: b.ConditionID,
			ISBN10: b.ISBN10, ISBN13: b.ISBN13, ImageURL: b.ImageURL, ListedAt: b.ListedAt,
			Index: offset + int64(i) + 1,
		})
	}
	return rows
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func matches(c search.Criteria, b *models.Book) bool {
	if c.Title != "" && !containsFold(b.Title, c.Title) {
		return false
	}
	if c.Author != "" && !containsFold(b.Author, c.Author) {
		return false
	}
	if c.DepartmentID != nil && *c.DepartmentID != models.DepartmentOther && b.DepartmentID != *c.DepartmentID {
		return false
	}
	if c.CourseNumber != nil && (b.CourseNumber == nil || *b.CourseNumber != *c.CourseNumber) {
		return false
	}
	if c.ISBN != "" && b.ISBN10 != c.ISBN && b.ISBN13 != c.ISBN {
		return false
	}
	return true
}

// less mirrors search.OrderBy: the sort column, then id descending.
func less(sortKey string, a, b *models.Book) bool {
	switch sortKey {
	case "oldest":
		if !a.ListedAt.Equal(b.ListedAt) {
			return a.ListedAt.Before(b.ListedAt)
		}
	case "price_asc":
		if a.Price != b.Price {
			return a.Price < b.Price
		}
	case "price_desc":
		if a.Price != b.Price {
			return a.Price > b.Price
		}
	case "title_asc", "title_desc":
		ta, tb := strings.ToLower(a.Title), strings.ToLower(b.Title)
		if ta != tb {
			return (ta < tb) == (sortKey == "title_asc")
		}
	case "course_asc":
		switch {
		case a.CourseNumber == nil && b.CourseNumber != nil:
			return false
		case a.CourseNumber != nil && b.CourseNumber == nil:
			return true
		case a.CourseNumber != nil && *a.CourseNumber != *b.CourseNumber:
			return *a.CourseNumber < *b.CourseNumber
		}
	default:
		if !a.ListedAt.Equal(b.ListedAt) {
			return a.ListedAt.After(b.ListedAt)
		}
	}
	return a.ID > b.ID
}
