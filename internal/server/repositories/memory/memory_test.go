package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/norsebooks/norsebooks/internal/common"
	"github.com/norsebooks/norsebooks/internal/server/models"
	"github.com/norsebooks/norsebooks/internal/server/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func seedBooks(t *testing.T, m *RepositoryManager, n int) {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		m.Store().Put(models.Book{
			BookID:       fmt.Sprintf("b%03d", i),
			Title:        fmt.Sprintf("Title %d", i%7),
			Author:       "Author",
			DepartmentID: 14,
			UserID:       1,
			Price:        float64(i % 5),
			ConditionID:  1,
			// every third listing shares a timestamp to exercise the tiebreaker
			ListedAt: base.Add(time.Duration(i/3) * time.Hour),
		})
	}
}

func TestSearch_PaginationVisitsEveryRowOnce(t *testing.T) {
	for _, sortKey := range []string{"newest", "oldest", "price_asc", "price_desc", "title_asc", "title_desc", "course_asc"} {
		t.Run(sortKey, func(t *testing.T) {
			m := NewRepositoryManager()
			seedBooks(t, m, 50)
			repo := m.Books(nil)
			ctx := context.Background()
			b := search.New(search.Criteria{}, sortKey)

			seen := map[string]bool{}
			page, err := repo.Search(ctx, b.FirstPage(7))
			require.NoError(t, err)
			for len(page) > 0 {
				for _, row := range page {
					assert.False(t, seen[row.BookID], "duplicate %s", row.BookID)
					seen[row.BookID] = true
				}
				rank, err := repo.AnchorRank(ctx, b.Anchor(page[len(page)-1].BookID))
				require.NoError(t, err)
				page, err = repo.Search(ctx, b.NextPage(rank, 7))
				require.NoError(t, err)
			}
			assert.Len(t, seen, 50)
		})
	}
}

func TestSearch_OrderIsDeterministic(t *testing.T) {
	m := NewRepositoryManager()
	seedBooks(t, m, 20)
	repo := m.Books(nil)
	plan := search.New(search.Criteria{}, "price_asc").FirstPage(20)

	first, err := repo.Search(context.Background(), plan)
	require.NoError(t, err)
	second, err := repo.Search(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	for i := 1; i < len(first); i++ {
		assert.LessOrEqual(t, first[i-1].Price, first[i].Price)
		assert.Equal(t, int64(i+1), first[i].Index)
	}
}

func TestSearch_Criteria(t *testing.T) {
	m := NewRepositoryManager()
	s := m.Store()
	s.Put(models.Book{BookID: "a", Title: "Calculus I", Author: "Stewart", DepartmentID: 14, CourseNumber: intPtr(151), ISBN13: "9781285740621"})
	s.Put(models.Book{BookID: "b", Title: "Organic Chemistry", Author: "Klein", DepartmentID: 5})
	s.Put(models.Book{BookID: "c", Title: "CALCULUS II", Author: "stewart", DepartmentID: 14, CourseNumber: intPtr(152)})

	repo := m.Books(nil)
	ids := func(c search.Criteria) []string {
		rows, err := repo.Search(context.Background(), search.New(c, "title_asc").FirstPage(10))
		require.NoError(t, err)
		var out []string
		for _, r := range rows {
			out = append(out, r.BookID)
		}
		return out
	}

	assert.Equal(t, []string{"a", "c"}, ids(search.Criteria{Title: "calculus"}))
	assert.Equal(t, []string{"a", "c"}, ids(search.Criteria{Author: "STEW"}))
	assert.Equal(t, []string{"c"}, ids(search.Criteria{CourseNumber: intPtr(152)}))
	assert.Equal(t, []string{"a"}, ids(search.Criteria{ISBN: "9781285740621"}))
	assert.Equal(t, []string{"a", "c", "b"}, ids(search.Criteria{DepartmentID: intPtr(models.DepartmentOther)}))
	assert.Empty(t, ids(search.Criteria{DepartmentID: intPtr(14), Title: "chem"}))
}

func TestAnchorRank_MissingAnchor(t *testing.T) {
	m := NewRepositoryManager()
	seedBooks(t, m, 3)

	_, err := m.Books(nil).AnchorRank(context.Background(), search.New(search.Criteria{}, "").Anchor("gone"))
	assert.True(t, errors.Is(err, common.ErrAnchorNotFound))
}

func TestDeleteUnverified_Cascades(t *testing.T) {
	m := NewRepositoryManager()
	ctx := context.Background()

	u, err := m.Users(nil).Create(ctx, &models.User{PublicID: "p", Email: "x@luther.edu"})
	require.NoError(t, err)
	require.NoError(t, m.Tokens(nil).Insert(ctx, models.TokenSession, "s", formatID(u.ID), time.Now()))
	_, err = m.Books(nil).Create(ctx, u.ID, "bk", models.BookInput{Title: "T"})
	require.NoError(t, err)

	n, err := m.Users(nil).DeleteUnverified(ctx, "x@luther.edu")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ok, _ := m.Tokens(nil).Exists(ctx, models.TokenSession, "s")
	assert.False(t, ok)
	ok, _ = m.Books(nil).BookIDExists(ctx, "bk")
	assert.False(t, ok)
}

func TestMeta_NullReadsEmpty(t *testing.T) {
	m := NewRepositoryManager()
	v, err := m.Meta(nil).Get(context.Background(), models.MetaAlert)
	require.NoError(t, err)
	assert.Equal(t, "", v)

	_, err = m.Meta(nil).Get(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
