// Package search turns book search criteria and a sort option into
// parameterized SQL for keyset pagination.
//
// Every query ranks the filtered rows with ROW_NUMBER() over the active sort
// order. A page after a given book is fetched in two steps: the anchor query
// finds that book's rank inside the current filtered set, then the page query
// returns rows ranked strictly after it. Both must run in one snapshot so
// the two rankings agree.
package search

import (
	"strconv"
	"strings"

	"github.com/norsebooks/norsebooks/internal/server/models"
)

// DefaultSort is used when the requested sort is absent or unknown.
const DefaultSort = "newest"

// tiebreaker makes every ordering total so ranks are reproducible.
const tiebreaker = "b.id DESC"

var orders = map[string]string{
	"newest":     "b.listed_at DESC",
	"oldest":     "b.listed_at ASC",
	"price_asc":  "b.price ASC",
	"price_desc": "b.price DESC",
	"title_asc":  "LOWER(b.title) ASC",
	"title_desc": "LOWER(b.title) DESC",
	"course_asc": "b.course_number ASC NULLS LAST",
}

// OrderBy returns the ORDER BY expression for sortKey, tiebreaker included.
// Unknown keys resolve to DefaultSort and report false.
func OrderBy(sortKey string) (string, bool) {
	expr, ok := orders[sortKey]
	if !ok {
		expr = orders[DefaultSort]
	}
	return expr + ", " + tiebreaker, ok
}

// Criteria are the optional search filters. Zero values impose no predicate.
type Criteria struct {
	Title  string
	Author string
	// DepartmentID nil or models.DepartmentOther means no department filter.
	DepartmentID *int
	CourseNumber *int
	// ISBN matches either the ISBN-10 or the ISBN-13 column.
	ISBN string
}

// Plan is a ready-to-run statement. Besides the SQL it keeps the structured
// request it was built from, for stores that evaluate plans without SQL.
type Plan struct {
	SQL  string
	Args []any

	Criteria Criteria
	SortKey  string
	// AnchorID is set on anchor plans only.
	AnchorID string
	// After is the rank a next-page plan resumes from; 0 on first pages.
	After int64
	Limit int
}

// IsAnchor reports whether p resolves a rank rather than returning rows.
func (p Plan) IsAnchor() bool { return p.AnchorID != "" }

// Builder holds one query shape: a set of criteria under one ordering.
type Builder struct {
	criteria Criteria
	sortKey  string
	order    string
}

func New(c Criteria, sortKey string) *Builder {
	order, ok := OrderBy(sortKey)
	if !ok {
		sortKey = DefaultSort
	}
	return &Builder{criteria: c, sortKey: sortKey, order: order}
}

func (b *Builder) plan(sql string, a argList) Plan {
	return Plan{SQL: sql, Args: a.values, Criteria: b.criteria, SortKey: b.sortKey}
}

// FirstPage returns the top limit rows of the ranked set.
func (b *Builder) FirstPage(limit int) Plan {
	var a argList
	with := b.ranked(&a)
	sql := with + `
SELECT ` + rowColumns + `
FROM ranked
ORDER BY idx
LIMIT ` + a.add(limit)
	p := b.plan(sql, a)
	p.Limit = limit
	return p
}

// Anchor returns the rank of lastBookID within the ranked set. No row means
// the book is gone or no longer matches the criteria.
func (b *Builder) Anchor(lastBookID string) Plan {
	var a argList
	with := b.ranked(&a)
	sql := with + `
SELECT idx
FROM ranked
WHERE book_id = ` + a.add(lastBookID)
	p := b.plan(sql, a)
	p.AnchorID = lastBookID
	return p
}

// NextPage returns up to limit rows ranked strictly after rank.
func (b *Builder) NextPage(rank int64, limit int) Plan {
	var a argList
	with := b.ranked(&a)
	sql := with + `
SELECT ` + rowColumns + `
FROM ranked
WHERE idx > ` + a.add(rank) + `
ORDER BY idx
LIMIT ` + a.add(limit)
	p := b.plan(sql, a)
	p.After = rank
	p.Limit = limit
	return p
}

const rowColumns = `book_id, title, author, department_id, department, course_number,
       price, condition_id, isbn10, isbn13, image_url, listed_at, idx`

func (b *Builder) ranked(a *argList) string {
	var sb strings.Builder
	sb.WriteString(`WITH ranked AS (
    SELECT b.book_id, b.title, b.author, b.department_id,
           COALESCE(d.name, 'Other') AS department, b.course_number,
           b.price, b.condition_id,
           COALESCE(b.isbn10, '') AS isbn10, COALESCE(b.isbn13, '') AS isbn13,
           COALESCE(b.image_url, '') AS image_url, b.listed_at,
           ROW_NUMBER() OVER (ORDER BY `)
	sb.WriteString(b.order)
	sb.WriteString(`) AS idx
    FROM books b
    LEFT JOIN departments d ON d.id = b.department_id`)

	if where := b.predicates(a); len(where) > 0 {
		sb.WriteString("\n    WHERE ")
		sb.WriteString(strings.Join(where, "\n      AND "))
	}
	sb.WriteString("\n)")
	return sb.String()
}

func (b *Builder) predicates(a *argList) []string {
	c := b.criteria
	var where []string

	if c.Title != "" {
		where = append(where, `b.title ILIKE `+a.add(containsPattern(c.Title))+` ESCAPE '\'`)
	}
	if c.Author != "" {
		where = append(where, `b.author ILIKE `+a.add(containsPattern(c.Author))+` ESCAPE '\'`)
	}
	if c.DepartmentID != nil && *c.DepartmentID != models.DepartmentOther {
		where = append(where, `b.department_id = `+a.add(*c.DepartmentID))
	}
	if c.CourseNumber != nil {
		where = append(where, `b.course_number = `+a.add(*c.CourseNumber))
	}
	if c.ISBN != "" {
		p := a.add(c.ISBN)
		where = append(where, `(b.isbn10 = `+p+` OR b.isbn13 = `+p+`)`)
	}
	return where
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching s anywhere, with LIKE
// metacharacters in s taken literally.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// argList numbers bind parameters in the order they are added.
type argList struct {
	values []any
}

func (a *argList) add(v any) string {
	a.values = append(a.values, v)
	return "$" + strconv.Itoa(len(a.values))
}
