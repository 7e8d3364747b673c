package seed

import (
	"context"
	"database/sql"
	"testing"

	"github.com/norsebooks/norsebooks/internal/logging"
	"github.com/norsebooks/norsebooks/internal/server/config"
	"github.com/norsebooks/norsebooks/internal/server/repositories/memory"
	"github.com/norsebooks/norsebooks/internal/server/services"
	"github.com/norsebooks/norsebooks/internal/server/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

func TestSeeder_Run(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{}
	cfg.LoadDefaults()

	m := memory.NewRepositoryManager()
	gen := tokens.NewGenerator()
	books := services.NewBookService(db, m, gen, nil, cfg, logging.NewNop())
	s := NewSeeder(db, m, books, gen, bcrypt.MinCost, logging.NewNop())

	ctx := context.Background()
	res, err := s.Run(ctx, Options{Users: 4, BooksPerUser: 3, Password: "Tr0ub4dor&3x", Seed: 42})
	require.NoError(t, err)
	assert.Equal(t, Result{Users: 4, Books: 12}, res)

	st, err := services.NewAdminService(db, m, logging.NewNop()).Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, st.Users)
	assert.EqualValues(t, 12, st.Books)

	rows, err := services.NewAdminService(db, m, logging.NewNop()).Users(ctx, "email", false)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	for _, r := range rows {
		assert.Equal(t, 3, r.ItemsListed)
	}

	// seeded accounts can sign in with the shared password
	store := tokens.NewStore(db, m, gen, tokens.TimeoutsFromConfig(cfg), logging.NewNop())
	t.Cleanup(store.Close)
	creds := services.NewCredentialService(db, m, store, gen, nil, cfg, logging.NewNop())
	ok, _, err := creds.Login(ctx, rows[0].Email, "Tr0ub4dor&3x")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSeeder_RespectsListingLimit(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{}
	cfg.LoadDefaults()

	m := memory.NewRepositoryManager()
	gen := tokens.NewGenerator()
	books := services.NewBookService(db, m, gen, nil, cfg, logging.NewNop())
	s := NewSeeder(db, m, books, gen, bcrypt.MinCost, logging.NewNop())

	_, err = s.Run(context.Background(), Options{Users: 1, BooksPerUser: 21, Password: "x", Seed: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed book")
}
