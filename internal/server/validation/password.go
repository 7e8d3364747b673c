package validation

import (
	"strings"
	"unicode"
)

// Password policy. Passphrases of MinPhraseLength or more skip the
// character-class tests.
const (
	MinPasswordLength = 10
	MaxPasswordLength = 128
	MinPhraseLength   = 20
)

// PasswordProblems lists every rule password breaks, in a fixed order.
// An empty result means the password is acceptable.
func PasswordProblems(password string) []string {
	var problems []string
	n := length(password)

	if n < MinPasswordLength {
		problems = append(problems, "The password must be at least 10 characters long.")
	}
	if n > MaxPasswordLength {
		problems = append(problems, "The password must be fewer than 128 characters.")
	}
	if hasTripleRepeat(password) {
		problems = append(problems, "The password may not contain sequences of three or more repeated characters.")
	}
	if n >= MinPhraseLength {
		return problems
	}

	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsSpace(r) && !unicode.IsLetter(r):
			special = true
		}
	}
	if !lower {
		problems = append(problems, "The password must contain at least one lowercase letter.")
	}
	if !upper {
		problems = append(problems, "The password must contain at least one uppercase letter.")
	}
	if !digit {
		problems = append(problems, "The password must contain at least one number.")
	}
	if !special {
		problems = append(problems, "The password must contain at least one special character.")
	}
	return problems
}

func hasTripleRepeat(s string) bool {
	run := 0
	var prev rune
	for i, r := range s {
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		if run >= 3 {
			return true
		}
		prev = r
	}
	return false
}

// Password checks a new password and its confirmation.
func Password(password, confirm string) Result {
	if password != confirm {
		return fail("Passwords do not match")
	}
	if p := PasswordProblems(password); len(p) > 0 {
		return fail(strings.Join(p, "\n"))
	}
	return Valid
}
