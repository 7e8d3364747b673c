package services

import (
	"context"
	"database/sql"
	"io"
	"regexp"
	"sync"
	"testing"

	"github.com/norsebooks/norsebooks/internal/logging"
	"github.com/norsebooks/norsebooks/internal/server/config"
	"github.com/norsebooks/norsebooks/internal/server/mailer"
	"github.com/norsebooks/norsebooks/internal/server/models"
	"github.com/norsebooks/norsebooks/internal/server/repositories/memory"
	"github.com/norsebooks/norsebooks/internal/server/tokens"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

type recordingMailer struct {
	mu   sync.Mutex
	msgs []mailer.Message
}

func (r *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

func (r *recordingMailer) sent() []mailer.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]mailer.Message(nil), r.msgs...)
}

type fakeImages struct {
	uploaded []string
	deleted  []string
}

func (f *fakeImages) Upload(_ context.Context, _ io.Reader) (string, error) {
	url := "http://cdn.example/img/" + string(rune('a'+len(f.uploaded)))
	f.uploaded = append(f.uploaded, url)
	return url, nil
}

func (f *fakeImages) Delete(_ context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}

// testEnv wires services over the in-memory repositories. The sqlite
// database only provides transactions.
type testEnv struct {
	db     *sql.DB
	m      *memory.RepositoryManager
	cfg    *config.Config
	gen    *tokens.Generator
	store  *tokens.Store
	mail   *recordingMailer
	images *fakeImages
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.BcryptCost = bcrypt.MinCost

	m := memory.NewRepositoryManager()
	gen := tokens.NewGenerator()
	store := tokens.NewStore(db, m, gen, tokens.TimeoutsFromConfig(cfg), logging.NewNop())
	t.Cleanup(store.Close)

	return &testEnv{db: db, m: m, cfg: cfg, gen: gen, store: store, mail: &recordingMailer{}, images: &fakeImages{}}
}

func (e *testEnv) credentials() *CredentialService {
	return NewCredentialService(e.db, e.m, e.store, e.gen, e.mail, e.cfg, logging.NewNop())
}

func (e *testEnv) books() *BookService {
	return NewBookService(e.db, e.m, e.gen, e.images, e.cfg, logging.NewNop())
}

func (e *testEnv) moderation() *ModerationService {
	return NewModerationService(e.db, e.m, e.images, e.cfg, logging.NewNop())
}

// seller creates a verified account that can list books.
func (e *testEnv) seller(t *testing.T, email string) *models.User {
	t.Helper()
	ctx := context.Background()
	repo := e.m.Users(nil)
	u, err := repo.Create(ctx, &models.User{PublicID: email, Email: email, Firstname: "F-" + email, Lastname: "L"})
	require.NoError(t, err)
	_, err = repo.SetVerified(ctx, email)
	require.NoError(t, err)
	require.NoError(t, repo.SetContact(ctx, u.ID, 1, email+"@example.com"))
	return u
}

func (e *testEnv) setMeta(t *testing.T, key, value string) {
	t.Helper()
	require.NoError(t, e.m.Meta(nil).Set(context.Background(), key, value))
}

var tokenInLink = regexp.MustCompile(`/(?:verify|password-reset)/([0-9a-f]{64})`)

// linkToken extracts the token from the last mailed link.
func (e *testEnv) linkToken(t *testing.T) string {
	t.Helper()
	sent := e.mail.sent()
	require.NotEmpty(t, sent)
	m := tokenInLink.FindStringSubmatch(sent[len(sent)-1].Text)
	require.Len(t, m, 2)
	return m[1]
}

func book(title string, price float64) models.BookInput {
	return models.BookInput{
		Title:        title,
		Author:       "Author",
		DepartmentID: 14,
		ConditionID:  2,
		Description:  "desc",
		Price:        price,
	}
}
