package validation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/norsebooks/norsebooks/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	departments map[int]bool
	conditions  map[int]bool
	err         error
}

func (f fakeCatalog) DepartmentExists(_ context.Context, id int) (bool, error) {
	return f.departments[id], f.err
}

func (f fakeCatalog) ConditionExists(_ context.Context, id int) (bool, error) {
	return f.conditions[id], f.err
}

var catalog = fakeCatalog{
	departments: map[int]bool{14: true},
	conditions:  map[int]bool{1: true, 2: true},
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jo", NormalizeEmail("  Jo@Luther.EDU ", "@luther.edu"))
	assert.Equal(t, "jo", NormalizeEmail("jo", "@luther.edu"))
	assert.Equal(t, "jo@gmail.com", NormalizeEmail("jo@gmail.com", "@luther.edu"))
}

func TestEmail(t *testing.T) {
	assert.True(t, Email("jo").OK)
	assert.False(t, Email("").OK)
	assert.False(t, Email("jo@gmail.com").OK)
	assert.Equal(t, "Email address is too long", Email(strings.Repeat("a", 65)).Message)
	assert.True(t, Email(strings.Repeat("a", 64)).OK)
}

func TestName(t *testing.T) {
	assert.True(t, Name("Jo", "Doe").OK)
	assert.False(t, Name("", "Doe").OK)
	assert.False(t, Name("Jo", strings.Repeat("x", 65)).OK)
}

func TestContactInfo(t *testing.T) {
	assert.True(t, ContactInfo("@jo").OK)
	assert.False(t, ContactInfo("").OK)
	assert.False(t, ContactInfo(strings.Repeat("x", 129)).OK)
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw    string
		want   float64
		wantOK bool
	}{
		{raw: "12", want: 12, wantOK: true},
		{raw: "$12.499", want: 12.49, wantOK: true},
		{raw: " 0.29 ", want: 0.29, wantOK: true},
		{raw: "0", want: 0, wantOK: true},
		{raw: "999.99", want: 999.99, wantOK: true},
		{raw: "999.999", want: 999.99, wantOK: true},
		{raw: "1000", wantOK: false},
		{raw: "-1", wantOK: false},
		{raw: "", wantOK: false},
		{raw: "free", wantOK: false},
		{raw: "NaN", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParsePrice(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestParseCourseNumber(t *testing.T) {
	n, ok := ParseCourseNumber("")
	assert.True(t, ok)
	assert.Nil(t, n)

	n, ok = ParseCourseNumber("151")
	require.True(t, ok)
	assert.Equal(t, 151, *n)

	for _, raw := range []string{"100", "500", "abc"} {
		_, ok = ParseCourseNumber(raw)
		assert.False(t, ok, raw)
	}
}

func TestISBN(t *testing.T) {
	assert.Equal(t, "097522980X", NormalizeISBN(" 0-9752298-0-x "))
	assert.True(t, ISBN10("097522980X"))
	assert.False(t, ISBN13("097522980X"))
	assert.True(t, ISBN13("9781285740621"))
	assert.True(t, ISBN("9781285740621"))
	assert.False(t, ISBN("97812857406"))
	assert.False(t, ISBN("978128574062Y"))
}

func TestPasswordProblems(t *testing.T) {
	assert.Empty(t, PasswordProblems("Tr0ub4dor&3x"))
	assert.Empty(t, PasswordProblems("correct horse battery staple"), "long passphrases skip class tests")

	p := PasswordProblems("short")
	assert.Contains(t, p, "The password must be at least 10 characters long.")
	assert.Contains(t, p, "The password must contain at least one uppercase letter.")

	assert.Contains(t, PasswordProblems("Abc1!aaaXyz"),
		"The password may not contain sequences of three or more repeated characters.")
	assert.Contains(t, PasswordProblems(strings.Repeat("Ab1!", 33)), "The password must be fewer than 128 characters.")
}

func TestPassword(t *testing.T) {
	assert.Equal(t, "Passwords do not match", Password("Tr0ub4dor&3x", "other").Message)
	assert.True(t, Password("Tr0ub4dor&3x", "Tr0ub4dor&3x").OK)

	r := Password("password", "password")
	assert.False(t, r.OK)
	assert.Contains(t, r.Message, "\n")
}

func validForm() BookForm {
	return BookForm{
		Title:        " Calculus ",
		Author:       "Stewart",
		Department:   "14",
		CourseNumber: "151",
		Price:        "$45.999",
		Condition:    "2",
		Description:  "Lightly used.",
		ISBN10:       "0-534-39339-X",
		ISBN13:       "978 1285740621",
	}
}

func TestBook_Valid(t *testing.T) {
	in, res, err := Book(context.Background(), catalog, validForm())
	require.NoError(t, err)
	require.True(t, res.OK, res.Message)

	assert.Equal(t, "Calculus", in.Title)
	assert.Equal(t, 14, in.DepartmentID)
	require.NotNil(t, in.CourseNumber)
	assert.Equal(t, 151, *in.CourseNumber)
	assert.InDelta(t, 45.99, in.Price, 1e-9)
	assert.Equal(t, 2, in.ConditionID)
	assert.Nil(t, in.ImageURL)
	assert.Equal(t, "053439339X", in.ISBN10)
	assert.Equal(t, "9781285740621", in.ISBN13)
}

func TestBook_OtherDepartmentAndOptionalFields(t *testing.T) {
	f := validForm()
	f.Department = "-1"
	f.CourseNumber = ""
	f.ISBN10, f.ISBN13 = "", ""
	f.ImageURL = "https://img.example/x.png"

	in, res, err := Book(context.Background(), catalog, f)
	require.NoError(t, err)
	require.True(t, res.OK, res.Message)
	assert.Equal(t, models.DepartmentOther, in.DepartmentID)
	assert.Nil(t, in.CourseNumber)
	require.NotNil(t, in.ImageURL)
	assert.Equal(t, "https://img.example/x.png", *in.ImageURL)
}

func TestBook_FirstProblemWins(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*BookForm)
		want   string
	}{
		{"title", func(f *BookForm) { f.Title = "  " }, "Please enter the title"},
		{"author", func(f *BookForm) { f.Author = strings.Repeat("a", 65) }, "Please enter the author's name"},
		{"department", func(f *BookForm) { f.Department = "99" }, "Please select a valid department."},
		{"department not a number", func(f *BookForm) { f.Department = "math" }, "Please select a valid department."},
		{"course", func(f *BookForm) { f.CourseNumber = "600" }, "Please enter a valid course number."},
		{"price", func(f *BookForm) { f.Price = "1000" }, "Please enter a valid price"},
		{"condition", func(f *BookForm) { f.Condition = "9" }, "Please select a valid book condition."},
		{"image", func(f *BookForm) { f.ImageURL = strings.Repeat("u", 257) }, "Please enter a valid image URL"},
		{"description", func(f *BookForm) { f.Description = "" }, "Please enter a description"},
		{"isbn10", func(f *BookForm) { f.ISBN10 = "12345" }, "Please enter a valid ISBN-10."},
		{"isbn13", func(f *BookForm) { f.ISBN13 = "097522980X" }, "Please enter a valid ISBN-13."},
		{"title before author", func(f *BookForm) { f.Title = ""; f.Author = "" }, "Please enter the title"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm()
			tt.mutate(&f)
			_, res, err := Book(context.Background(), catalog, f)
			require.NoError(t, err)
			assert.False(t, res.OK)
			assert.True(t, strings.HasPrefix(res.Message, tt.want), res.Message)
		})
	}
}

func TestBook_LookupError(t *testing.T) {
	c := catalog
	c.err = errors.New("db err")
	_, _, err := Book(context.Background(), c, validForm())
	assert.EqualError(t, err, "db err")
}

func TestSearchCriteria(t *testing.T) {
	f := SearchForm{
		Title:        " calc ",
		Author:       strings.Repeat("a", 65),
		Department:   "14",
		CourseNumber: "151",
		ISBN:         "978-1285740621",
		Sort:         "3",
	}
	crit, sortID, err := SearchCriteria(context.Background(), catalog, f)
	require.NoError(t, err)
	assert.Equal(t, "calc", crit.Title)
	assert.Empty(t, crit.Author, "over-long author is dropped")
	require.NotNil(t, crit.DepartmentID)
	assert.Equal(t, 14, *crit.DepartmentID)
	require.NotNil(t, crit.CourseNumber)
	assert.Equal(t, 151, *crit.CourseNumber)
	assert.Equal(t, "9781285740621", crit.ISBN)
	assert.Equal(t, 3, sortID)
}

func TestSearchCriteria_DropsInvalid(t *testing.T) {
	f := SearchForm{Department: "99", CourseNumber: "42", ISBN: "nope", Sort: "newest"}
	crit, sortID, err := SearchCriteria(context.Background(), catalog, f)
	require.NoError(t, err)
	assert.Nil(t, crit.DepartmentID)
	assert.Nil(t, crit.CourseNumber)
	assert.Empty(t, crit.ISBN)
	assert.Zero(t, sortID)
}
