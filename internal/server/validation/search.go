package validation

import (
	"context"
	"strconv"

	"github.com/norsebooks/norsebooks/internal/server/search"
)

// SearchForm is the query string of a book search.
type SearchForm struct {
	Title        string `query:"title"`
	Author       string `query:"author"`
	Department   string `query:"department"`
	CourseNumber string `query:"courseNumber"`
	ISBN         string `query:"ISBN"`
	Sort         string `query:"sort"`
	LastBook     string `query:"lastBook"`
}

// SearchCriteria turns f into search criteria. Unlike the listing form, a
// search never fails: each filter that is out of range is dropped. The sort
// id is returned separately, or 0 when absent or malformed.
func SearchCriteria(ctx context.Context, c Catalog, f SearchForm) (search.Criteria, int, error) {
	var crit search.Criteria

	if t := Trim(f.Title); within(t, 1, MaxTitleLength) {
		crit.Title = t
	}
	if a := Trim(f.Author); within(a, 1, MaxAuthorLength) {
		crit.Author = a
	}

	if dept, err := strconv.Atoi(Trim(f.Department)); err == nil {
		ok, err := ValidDepartment(ctx, c, dept)
		if err != nil {
			return crit, 0, err
		}
		if ok {
			crit.DepartmentID = &dept
		}
	}

	if n, err := strconv.Atoi(Trim(f.CourseNumber)); err == nil && CourseNumberInRange(n) {
		crit.CourseNumber = &n
	}

	if isbn := NormalizeISBN(f.ISBN); ISBN(isbn) {
		crit.ISBN = isbn
	}

	sortID, err := strconv.Atoi(Trim(f.Sort))
	if err != nil {
		sortID = 0
	}
	return crit, sortID, nil
}
