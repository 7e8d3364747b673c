// Package memory provides map-backed implementations of every repository,
// vended through a RepositoryManager like the PostgreSQL ones. All views
// share one Store, so a manager behaves like a single database. DBTX
// arguments are ignored: writes are visible immediately and never roll back.
package memory

import (
	"context"
	"database/sql"
	"sync"

	"github.com/norsebooks/norsebooks/internal/dbx"
	"github.com/norsebooks/norsebooks/internal/server/models"
	"github.com/norsebooks/norsebooks/internal/server/repositories/admin"
	"github.com/norsebooks/norsebooks/internal/server/repositories/books"
	"github.com/norsebooks/norsebooks/internal/server/repositories/meta"
	"github.com/norsebooks/norsebooks/internal/server/repositories/reference"
	"github.com/norsebooks/norsebooks/internal/server/repositories/repomanager"
	"github.com/norsebooks/norsebooks/internal/server/repositories/reports"
	"github.com/norsebooks/norsebooks/internal/server/repositories/stats"
	"github.com/norsebooks/norsebooks/internal/server/repositories/tokens"
	"github.com/norsebooks/norsebooks/internal/server/repositories/users"
)

// Store is the shared state behind all in-memory repositories.
type Store struct {
	mu sync.Mutex

	users    map[int64]*models.User
	nextUser int64

	books    map[int64]*models.Book
	nextBook int64

	tokens map[models.TokenKind]map[string]models.Token

	reports    []models.Report
	nextReport int64

	meta map[string]*string

	departments []models.Department
	conditions  []models.Condition
	platforms   []models.Platform
	sorts       []models.SearchSort
}

func strPtr(s string) *string { return &s }

// NewStore returns a store seeded with the same reference data and settings
// as the SQL migrations.
func NewStore() *Store {
	return &Store{
		users: map[int64]*models.User{},
		books: map[int64]*models.Book{},
		tokens: map[models.TokenKind]map[string]models.Token{
			models.TokenSession:       {},
			models.TokenVerify:        {},
			models.TokenPasswordReset: {},
		},
		meta: map[string]*string{
			models.MetaMaxBooks:      strPtr("20"),
			models.MetaMaxReports:    strPtr("3"),
			models.MetaBooksPerQuery: strPtr("24"),
			models.MetaVersion:       strPtr("1.0.0"),
			models.MetaTerms:         strPtr(""),
			models.MetaAlert:         nil,
			models.MetaAlertTimeout:  nil,
		},
		departments: []models.Department{
			{ID: 1, Name: "Accounting"}, {ID: 4, Name: "Biology"}, {ID: 8, Name: "Computer Science"},
			{ID: 11, Name: "English"}, {ID: 13, Name: "History"}, {ID: 14, Name: "Mathematics"},
			{ID: 18, Name: "Physics"},
		},
		conditions: []models.Condition{
			{ID: 1, Name: "New"}, {ID: 2, Name: "Like new"}, {ID: 3, Name: "Very good"},
			{ID: 4, Name: "Good"}, {ID: 5, Name: "Acceptable"},
		},
		platforms: []models.Platform{
			{ID: 1, Name: "Email"}, {ID: 2, Name: "Phone"}, {ID: 3, Name: "Facebook"},
			{ID: 4, Name: "Instagram"}, {ID: 5, Name: "Snapchat"},
		},
		sorts: []models.SearchSort{
			{ID: 1, Name: "Newest", SortKey: "newest"},
			{ID: 2, Name: "Oldest", SortKey: "oldest"},
			{ID: 3, Name: "Price (low to high)", SortKey: "price_asc"},
			{ID: 4, Name: "Price (high to low)", SortKey: "price_desc"},
			{ID: 5, Name: "Title (A to Z)", SortKey: "title_asc"},
			{ID: 6, Name: "Title (Z to A)", SortKey: "title_desc"},
			{ID: 7, Name: "Course number", SortKey: "course_asc"},
		},
	}
}

// RepositoryManager vends views over one Store.
type RepositoryManager struct {
	store *Store
}

var _ repomanager.RepositoryManager = (*RepositoryManager)(nil)

func NewRepositoryManager() *RepositoryManager {
	return &RepositoryManager{store: NewStore()}
}

// Store exposes the shared state, mainly for test assertions.
func (m *RepositoryManager) Store() *Store { return m.store }

func (m *RepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *RepositoryManager) Users(dbx.DBTX) users.Repository         { return (*usersRepo)(m.store) }
func (m *RepositoryManager) Books(dbx.DBTX) books.Repository         { return (*booksRepo)(m.store) }
func (m *RepositoryManager) Tokens(dbx.DBTX) tokens.Repository       { return (*tokensRepo)(m.store) }
func (m *RepositoryManager) Reports(dbx.DBTX) reports.Repository     { return (*reportsRepo)(m.store) }
func (m *RepositoryManager) Meta(dbx.DBTX) meta.Repository           { return (*metaRepo)(m.store) }
func (m *RepositoryManager) Reference(dbx.DBTX) reference.Repository { return (*referenceRepo)(m.store) }
func (m *RepositoryManager) Stats(dbx.DBTX) stats.Repository         { return (*statsRepo)(m.store) }
func (m *RepositoryManager) Admin(dbx.DBTX) admin.Repository         { return (*adminRepo)(m.store) }
