package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"regexp"
	"sync"
	"testing"

	"github.com/norsebooks/norsebooks/internal/common"
	"github.com/norsebooks/norsebooks/internal/logging"
	"github.com/norsebooks/norsebooks/internal/server/config"
	"github.com/norsebooks/norsebooks/internal/server/mailer"
	"github.com/norsebooks/norsebooks/internal/server/models"
	"github.com/norsebooks/norsebooks/internal/server/repositories/repomanager"
	"github.com/norsebooks/norsebooks/internal/server/search"
	"github.com/norsebooks/norsebooks/internal/server/services"
	"github.com/norsebooks/norsebooks/internal/server/shared/db"
	"github.com/norsebooks/norsebooks/internal/server/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// These tests run against a disposable PostgreSQL database named by
// NORSEBOOKS_TEST_DSN. Every table except the reference data is truncated.

type outbox struct {
	mu   sync.Mutex
	msgs []mailer.Message
}

func (o *outbox) Send(_ context.Context, msg mailer.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, msg)
	return nil
}

var mailedToken = regexp.MustCompile(`/verify/([0-9a-f]{64})`)

func (o *outbox) verifyToken(t *testing.T) string {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.msgs)
	m := mailedToken.FindStringSubmatch(o.msgs[len(o.msgs)-1].Text)
	require.Len(t, m, 2)
	return m[1]
}

type pg struct {
	db    *sql.DB
	m     repomanager.RepositoryManager
	cfg   *config.Config
	gen   *tokens.Generator
	store *tokens.Store
	mail  *outbox
}

func openPG(t *testing.T) *pg {
	t.Helper()
	dsn := os.Getenv("NORSEBOOKS_TEST_DSN")
	if dsn == "" {
		t.Skip("NORSEBOOKS_TEST_DSN not set")
	}
	ctx := context.Background()

	conn, err := db.Open(ctx, dsn, 4)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	m := repomanager.NewPostgresRepositoryManager()
	require.NoError(t, m.RunMigrations(ctx, conn))
	_, err = conn.ExecContext(ctx,
		`TRUNCATE reports, sessions, verify_tokens, password_resets, books, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.BcryptCost = bcrypt.MinCost

	gen := tokens.NewGenerator()
	store := tokens.NewStore(conn, m, gen, tokens.TimeoutsFromConfig(cfg), logging.NewNop())
	t.Cleanup(store.Close)

	p := &pg{db: conn, m: m, cfg: cfg, gen: gen, store: store, mail: &outbox{}}

	meta := services.NewMetaService(conn, m)
	for key, v := range map[string]int{models.MetaMaxBooks: 20, models.MetaMaxReports: 3, models.MetaBooksPerQuery: 24} {
		require.NoError(t, meta.SetInt(ctx, key, v))
		t.Cleanup(func() { _ = meta.SetInt(context.Background(), key, v) })
	}
	return p
}

func (p *pg) credentials() *services.CredentialService {
	return services.NewCredentialService(p.db, p.m, p.store, p.gen, p.mail, p.cfg, logging.NewNop())
}

func (p *pg) books() *services.BookService {
	return services.NewBookService(p.db, p.m, p.gen, nil, p.cfg, logging.NewNop())
}

// member registers and verifies an account with contact info.
func (p *pg) member(t *testing.T, email string) *models.User {
	t.Helper()
	ctx := context.Background()
	creds := p.credentials()
	u, err := creds.Register(ctx, email, "Tr0ub4dor&3x", "First", "Last")
	require.NoError(t, err)
	ok, err := creds.Verify(ctx, p.mail.verifyToken(t))
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, p.m.Users(p.db).SetContact(ctx, u.ID, 1, email+"@example.com"))
	return u
}

func TestPostgres_RegisterVerifyLogin(t *testing.T) {
	p := openPG(t)
	ctx := context.Background()
	creds := p.credentials()

	_, err := creds.Register(ctx, "jo", "Tr0ub4dor&3x", "Jo", "Doe")
	require.NoError(t, err)

	ok, _, err := creds.Login(ctx, "jo", "Tr0ub4dor&3x")
	require.NoError(t, err)
	assert.False(t, ok, "unverified accounts cannot sign in")

	ok, err = creds.Verify(ctx, p.mail.verifyToken(t))
	require.NoError(t, err)
	require.True(t, ok)

	ok, first, err := creds.Login(ctx, "jo", "Tr0ub4dor&3x")
	require.NoError(t, err)
	require.True(t, ok)
	nav, err := creds.Authenticate(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "Jo", nav.Firstname)

	// a second login replaces the first session
	ok, second, err := creds.Login(ctx, "jo", "Tr0ub4dor&3x")
	require.NoError(t, err)
	require.True(t, ok)
	_, err = creds.Authenticate(ctx, first)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	_, err = creds.Authenticate(ctx, second)
	assert.NoError(t, err)
}

func TestPostgres_PaginationIsComplete(t *testing.T) {
	p := openPG(t)
	ctx := context.Background()
	require.NoError(t, services.NewMetaService(p.db, p.m).SetInt(ctx, models.MetaBooksPerQuery, 3))

	owner := p.member(t, "seller")
	books := p.books()
	want := map[string]bool{}
	for i := 0; i < 8; i++ {
		// duplicate prices and titles exercise the tiebreaker
		b, err := books.List(ctx, owner.ID, models.BookInput{
			Title: fmt.Sprintf("Book %d", i%3), Author: "A", DepartmentID: 14, ConditionID: 1,
			Description: "d", Price: float64(10 + i%2),
		})
		require.NoError(t, err)
		want[b.BookID] = true
	}

	cat, err := services.NewCatalogService(p.db, p.m).All(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, cat.SearchSorts)
	for _, sort := range cat.SearchSorts {
		t.Run(sort.Name, func(t *testing.T) {
			seen := map[string]bool{}
			last := ""
			for pages := 0; pages < 10; pages++ {
				rows, err := books.Search(ctx, search.Criteria{}, sort.ID, last)
				require.NoError(t, err)
				if len(rows) == 0 {
					break
				}
				again, err := books.Search(ctx, search.Criteria{}, sort.ID, last)
				require.NoError(t, err)
				assert.Equal(t, rows, again, "same request, same page")

				for _, r := range rows {
					assert.False(t, seen[r.BookID], "duplicate %s", r.BookID)
					seen[r.BookID] = true
				}
				last = rows[len(rows)-1].BookID
			}
			assert.Equal(t, want, seen)
		})
	}

	_, err = books.Search(ctx, search.Criteria{}, 0, "zzzz")
	assert.ErrorIs(t, err, common.ErrAnchorNotFound)
}

func TestPostgres_ReportThresholdRemovesBook(t *testing.T) {
	p := openPG(t)
	ctx := context.Background()

	owner := p.member(t, "owner")
	b, err := p.books().List(ctx, owner.ID, models.BookInput{
		Title: "Physics", Author: "A", DepartmentID: 18, ConditionID: 1, Description: "d", Price: 20,
	})
	require.NoError(t, err)

	mod := services.NewModerationService(p.db, p.m, nil, p.cfg, logging.NewNop())
	for i := 0; i < 3; i++ {
		reporter := p.member(t, fmt.Sprintf("reporter%d", i))
		removed, err := mod.Report(ctx, reporter.ID, b.BookID)
		require.NoError(t, err)
		assert.Equal(t, i == 2, removed)
	}

	_, err = p.books().Get(ctx, b.BookID, 0)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	reports, err := mod.Reports(ctx)
	require.NoError(t, err)
	assert.Empty(t, reports)
}
