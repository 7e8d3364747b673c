package validation

import (
	"context"
	"strconv"

	"github.com/norsebooks/norsebooks/internal/server/models"
)

// Catalog answers the reference-table lookups the forms depend on.
type Catalog interface {
	DepartmentExists(ctx context.Context, id int) (bool, error)
	ConditionExists(ctx context.Context, id int) (bool, error)
}

// BookForm is a listing form as submitted.
type BookForm struct {
	Title        string `json:"title" form:"title"`
	Author       string `json:"author" form:"author"`
	Department   string `json:"department" form:"department"`
	CourseNumber string `json:"courseNumber" form:"courseNumber"`
	Price        string `json:"price" form:"price"`
	Condition    string `json:"condition" form:"condition"`
	ImageURL     string `json:"imageUrl" form:"imageUrl"`
	Description  string `json:"description" form:"description"`
	ISBN10       string `json:"ISBN10" form:"ISBN10"`
	ISBN13       string `json:"ISBN13" form:"ISBN13"`
}

// ValidDepartment accepts the synthetic Other department and any stored one.
func ValidDepartment(ctx context.Context, c Catalog, id int) (bool, error) {
	if id == models.DepartmentOther {
		return true, nil
	}
	return c.DepartmentExists(ctx, id)
}

// Book checks f field by field and stops at the first problem. On success
// the returned input holds the cleaned values; ImageURL is set only when the
// form carried one.
func Book(ctx context.Context, c Catalog, f BookForm) (models.BookInput, Result, error) {
	var in models.BookInput

	in.Title = Trim(f.Title)
	if !within(in.Title, 1, MaxTitleLength) {
		return in, fail("Please enter the title of the book. It must be at most 128 characters long."), nil
	}

	in.Author = Trim(f.Author)
	if !within(in.Author, 1, MaxAuthorLength) {
		return in, fail("Please enter the author's name. It must be at most 64 characters long."), nil
	}

	dept, err := strconv.Atoi(Trim(f.Department))
	if err != nil {
		return in, fail("Please select a valid department."), nil
	}
	ok, err := ValidDepartment(ctx, c, dept)
	if err != nil {
		return in, Result{}, err
	}
	if !ok {
		return in, fail("Please select a valid department."), nil
	}
	in.DepartmentID = dept

	course, ok := ParseCourseNumber(f.CourseNumber)
	if !ok {
		return in, fail("Please enter a valid course number."), nil
	}
	in.CourseNumber = course

	price, ok := ParsePrice(f.Price)
	if !ok {
		return in, fail("Please enter a valid price less than $1000."), nil
	}
	in.Price = price

	cond, err := strconv.Atoi(Trim(f.Condition))
	if err != nil {
		return in, fail("Please select a valid book condition."), nil
	}
	ok, err = c.ConditionExists(ctx, cond)
	if err != nil {
		return in, Result{}, err
	}
	if !ok {
		return in, fail("Please select a valid book condition."), nil
	}
	in.ConditionID = cond

	if img := Trim(f.ImageURL); img != "" {
		if length(img) > MaxImageURLLength {
			return in, fail("Please enter a valid image URL or leave the box blank. The URL must be less than 256 characters."), nil
		}
		in.ImageURL = &img
	}

	in.Description = Trim(f.Description)
	if !within(in.Description, 1, MaxDescriptionLength) {
		return in, fail("Please enter a description of at most 1024 characters."), nil
	}

	in.ISBN10 = NormalizeISBN(f.ISBN10)
	if in.ISBN10 != "" && !ISBN10(in.ISBN10) {
		return in, fail("Please enter a valid ISBN-10."), nil
	}
	in.ISBN13 = NormalizeISBN(f.ISBN13)
	if in.ISBN13 != "" && !ISBN13(in.ISBN13) {
		return in, fail("Please enter a valid ISBN-13."), nil
	}

	return in, Valid, nil
}
