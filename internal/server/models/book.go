package models

import "time"

// Book is a listing. BookID is the short public identifier, unique and
// immutable once assigned; ID is the internal surrogate key and also the
// search tiebreaker.
type Book struct {
	ID           int64
	BookID       string
	Title        string
	Author       string
	DepartmentID int
	CourseNumber *int
	UserID       int64
	Price        float64
	ConditionID  int
	Description  string
	ListedAt     time.Time
	ImageURL     string
	ISBN10       string
	ISBN13       string
}

// BookDetail is a book joined with its reference names.
type BookDetail struct {
	Book
	Department string
	Condition  string
}

// BookRow is one search result. Index is the row's rank within the filtered
// and sorted set it was fetched from.
type BookRow struct {
	BookID       string    `json:"bookId"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	DepartmentID int       `json:"departmentId"`
	Department   string    `json:"department"`
	CourseNumber *int      `json:"courseNumber"`
	Price        float64   `json:"price"`
	ConditionID  int       `json:"conditionId"`
	ISBN10       string    `json:"ISBN10,omitempty"`
	ISBN13       string    `json:"ISBN13,omitempty"`
	ImageURL     string    `json:"imageUrl"`
	ListedAt     time.Time `json:"listedAt"`
	Index        int64     `json:"index"`
}

// Seller is the contact view of the user who listed a book.
type Seller struct {
	UserID            int64
	PublicID          string
	Firstname         string
	Lastname          string
	ContactPlatformID *int
	ContactInfo       *string
}

// BookInput carries validated listing fields for create and update.
// A nil ImageURL on update keeps the stored image.
type BookInput struct {
	Title        string
	Author       string
	DepartmentID int
	CourseNumber *int
	ConditionID  int
	Description  string
	Price        float64
	ImageURL     *string
	ISBN10       string
	ISBN13       string
}
