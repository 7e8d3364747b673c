// Package validation checks user-submitted forms before they reach the
// services. Every check returns a Result; failures are ordinary outcomes
// carrying a message for the user, never errors.
package validation

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Result is the outcome of a check. Message is empty when OK is set.
type Result struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// Valid is the successful Result.
var Valid = Result{OK: true}

func fail(msg string) Result {
	return Result{Message: msg}
}

// Length bounds shared by the forms.
const (
	MaxEmailLength       = 64
	MaxNameLength        = 64
	MaxTitleLength       = 128
	MaxAuthorLength      = 64
	MaxImageURLLength    = 256
	MaxDescriptionLength = 1024
	MaxContactLength     = 128
	MaxFeedbackLength    = 4096

	MinCourseNumber = 101
	MaxCourseNumber = 499

	MaxPrice = 999.99
)

// Trim strips leading and trailing whitespace.
func Trim(s string) string {
	return strings.TrimSpace(s)
}

func length(s string) int {
	return utf8.RuneCountInString(s)
}

func within(s string, lo, hi int) bool {
	n := length(s)
	return n >= lo && n <= hi
}

// NormalizeEmail lowercases address and strips the campus domain suffix, so
// "Jo@Luther.edu" and "jo" both yield "jo". Accounts are stored under the
// local part only.
func NormalizeEmail(address, suffix string) string {
	e := strings.ToLower(Trim(address))
	if suffix != "" {
		e = strings.TrimSuffix(e, strings.ToLower(suffix))
	}
	return e
}

// Email checks a normalized address. It must be a bare local part: another
// domain, or none at all after an '@', is refused.
func Email(local string) Result {
	switch {
	case local == "":
		return fail("Please enter an email address")
	case strings.ContainsAny(local, "@ \t\r\n"):
		return fail("Please use your campus email address")
	case length(local) > MaxEmailLength:
		return fail("Email address is too long")
	}
	return Valid
}

// Name checks a first and last name pair.
func Name(firstname, lastname string) Result {
	if !within(firstname, 1, MaxNameLength) || !within(lastname, 1, MaxNameLength) {
		return fail("Please enter a valid name")
	}
	return Valid
}

// ContactInfo checks the free-text contact handle shown to buyers.
func ContactInfo(info string) Result {
	if !within(info, 1, MaxContactLength) {
		return fail("Contact info must be between 1 and 128 characters")
	}
	return Valid
}

// Feedback checks a feedback message.
func Feedback(text string) Result {
	if !within(text, 1, MaxFeedbackLength) {
		return fail("Feedback must be between 1 and 4096 characters")
	}
	return Valid
}

// ParsePrice reads a price such as "$12.499", dropping a leading dollar sign
// and flooring to whole cents. ok is false for anything that is not a
// number between 0 and MaxPrice.
func ParsePrice(raw string) (price float64, ok bool) {
	s := strings.ReplaceAll(Trim(raw), "$", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	// round first so 0.29*100 = 28.999999999999996 floors to 29 cents
	v = math.Floor(math.Round(v*1e6)/1e4) / 100
	if v < 0 || v > MaxPrice {
		return 0, false
	}
	return v, true
}

// ParseCourseNumber reads an optional course number. An empty string is a
// valid absence.
func ParseCourseNumber(raw string) (n *int, ok bool) {
	s := Trim(raw)
	if s == "" {
		return nil, true
	}
	v, err := strconv.Atoi(s)
	if err != nil || !CourseNumberInRange(v) {
		return nil, false
	}
	return &v, true
}

func CourseNumberInRange(v int) bool {
	return v >= MinCourseNumber && v <= MaxCourseNumber
}
