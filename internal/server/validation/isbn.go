package validation

import "strings"

const isbnChars = "0123456789X"

var isbnSeparators = strings.NewReplacer("-", "", " ", "")

// NormalizeISBN uppercases raw and removes dashes and spaces.
func NormalizeISBN(raw string) string {
	return isbnSeparators.Replace(strings.ToUpper(Trim(raw)))
}

// ISBN reports whether a normalized value has the shape of an ISBN-10 or
// ISBN-13. Check digits are not verified.
func ISBN(isbn string) bool {
	return ISBN10(isbn) || ISBN13(isbn)
}

func ISBN10(isbn string) bool {
	return len(isbn) == 10 && onlyISBNChars(isbn)
}

func ISBN13(isbn string) bool {
	return len(isbn) == 13 && onlyISBNChars(isbn)
}

func onlyISBNChars(s string) bool {
	for _, r := range s {
		if !strings.ContainsRune(isbnChars, r) {
			return false
		}
	}
	return true
}
