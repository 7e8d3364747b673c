package models

import "time"

type TokenKind string

const (
	TokenSession       TokenKind = "session"
	TokenVerify        TokenKind = "verify"
	TokenPasswordReset TokenKind = "password_reset"
)

// Token is a live row of one of the token tables. Subject is the user id for
// sessions and the email address for verify and reset tokens.
type Token struct {
	Kind      TokenKind
	Value     string
	Subject   string
	CreatedAt time.Time
}
