package search

import (
	"regexp"
	"strings"
	"testing"

	"github.com/norsebooks/norsebooks/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestOrderBy(t *testing.T) {
	tests := []struct {
		key    string
		want   string
		wantOK bool
	}{
		{key: "newest", want: "b.listed_at DESC, b.id DESC", wantOK: true},
		{key: "oldest", want: "b.listed_at ASC, b.id DESC", wantOK: true},
		{key: "price_asc", want: "b.price ASC, b.id DESC", wantOK: true},
		{key: "title_desc", want: "LOWER(b.title) DESC, b.id DESC", wantOK: true},
		{key: "", want: "b.listed_at DESC, b.id DESC", wantOK: false},
		{key: "listed_at; DROP TABLE books", want: "b.listed_at DESC, b.id DESC", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := OrderBy(tt.key)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestFirstPage_NoCriteria(t *testing.T) {
	p := New(Criteria{}, "newest").FirstPage(24)

	assert.NotContains(t, p.SQL, "WHERE")
	assert.Contains(t, p.SQL, "ROW_NUMBER() OVER (ORDER BY b.listed_at DESC, b.id DESC) AS idx")
	assert.Contains(t, p.SQL, "LEFT JOIN departments d ON d.id = b.department_id")
	assert.Regexp(t, `ORDER BY idx\s+LIMIT \$1$`, p.SQL)
	assert.Equal(t, []any{24}, p.Args)
}

func TestFirstPage_AllCriteria(t *testing.T) {
	c := Criteria{
		Title:        "calc",
		Author:       "Stew",
		DepartmentID: intPtr(14),
		CourseNumber: intPtr(151),
		ISBN:         "9781285740621",
	}
	p := New(c, "price_desc").FirstPage(10)

	assert.Contains(t, p.SQL, `b.title ILIKE $1 ESCAPE '\'`)
	assert.Contains(t, p.SQL, `b.author ILIKE $2 ESCAPE '\'`)
	assert.Contains(t, p.SQL, `b.department_id = $3`)
	assert.Contains(t, p.SQL, `b.course_number = $4`)
	assert.Contains(t, p.SQL, `(b.isbn10 = $5 OR b.isbn13 = $5)`)
	assert.Contains(t, p.SQL, "ORDER BY b.price DESC, b.id DESC")
	assert.Equal(t, 4, strings.Count(p.SQL, "\n      AND "), "five predicates joined with AND")
	assert.Equal(t, []any{"%calc%", "%Stew%", 14, 151, "9781285740621", 10}, p.Args)
}

func TestPredicates_OtherDepartmentAddsNothing(t *testing.T) {
	p := New(Criteria{DepartmentID: intPtr(models.DepartmentOther)}, "").FirstPage(5)

	assert.NotContains(t, p.SQL, "department_id =")
	assert.NotContains(t, p.SQL, "WHERE")
	assert.Equal(t, []any{5}, p.Args)
}

func TestPredicates_LikeMetacharactersEscaped(t *testing.T) {
	p := New(Criteria{Title: `100%_off\`}, "").FirstPage(5)
	require.Len(t, p.Args, 2)
	assert.Equal(t, `%100\%\_off\\%`, p.Args[0])
}

func TestUserInputNeverInSQL(t *testing.T) {
	evil := `'; DELETE FROM books; --`
	c := Criteria{Title: evil, Author: evil, ISBN: evil}
	b := New(c, evil)

	for _, p := range []Plan{b.FirstPage(3), b.Anchor(evil), b.NextPage(9, 3)} {
		assert.NotContains(t, p.SQL, "DELETE")
	}
}

func TestAnchor(t *testing.T) {
	p := New(Criteria{Title: "calc"}, "newest").Anchor("Ab-_")

	assert.Regexp(t, regexp.MustCompile(`(?s)SELECT idx\s+FROM ranked\s+WHERE book_id = \$2$`), p.SQL)
	assert.Equal(t, []any{"%calc%", "Ab-_"}, p.Args)
}

func TestNextPage(t *testing.T) {
	p := New(Criteria{Title: "calc"}, "newest").NextPage(2, 2)

	assert.Regexp(t, regexp.MustCompile(`(?s)FROM ranked\s+WHERE idx > \$2\s+ORDER BY idx\s+LIMIT \$3$`), p.SQL)
	assert.Equal(t, []any{"%calc%", int64(2), 2}, p.Args)
}

func TestAnchorAndNextPage_ShareRanking(t *testing.T) {
	b := New(Criteria{Author: "Knuth", CourseNumber: intPtr(245)}, "title_asc")

	anchor := b.Anchor("x")
	next := b.NextPage(1, 5)

	cut := func(sql string) string { return sql[:strings.Index(sql, "\n)")] }
	assert.Equal(t, cut(anchor.SQL), cut(next.SQL), "both queries must rank the same filtered set")
}

func TestPlan_CarriesStructuredRequest(t *testing.T) {
	c := Criteria{Title: "calc"}
	b := New(c, "bogus")

	first := b.FirstPage(24)
	assert.Equal(t, DefaultSort, first.SortKey, "unknown sort resolves to the default")
	assert.Equal(t, c, first.Criteria)
	assert.Equal(t, 24, first.Limit)
	assert.False(t, first.IsAnchor())

	anchor := b.Anchor("Ab-_")
	assert.True(t, anchor.IsAnchor())
	assert.Equal(t, "Ab-_", anchor.AnchorID)

	next := b.NextPage(48, 24)
	assert.Equal(t, int64(48), next.After)
	assert.Equal(t, 24, next.Limit)
}
