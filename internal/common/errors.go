// Package common defines sentinel errors and small helpers shared by the
// server layers of NorseBooks. Callers should use errors.Is to match the
// error values.
package common

import "errors"

var (

	// repository specific errors
	ErrorNotFound = errors.New("not found")

	// service specific errors
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")

	// search errors
	ErrAnchorNotFound = errors.New("pagination anchor not found")

	// moderation errors
	ErrAlreadyReported  = errors.New("book already reported by user")
	ErrReportedRecently = errors.New("user reported a book recently")

	// listing errors
	ErrTooManyBooks  = errors.New("listing limit reached")
	ErrNoContactInfo = errors.New("contact info required to list books")

	ErrFeedbackTooSoon = errors.New("feedback already provided recently")

	ErrInvalidToken = errors.New("invalid token")
	ErrEmailTaken   = errors.New("email address already registered")

	// ErrUnsupported is returned by storage backends that cannot run an
	// operation, such as ad-hoc queries without a SQL engine.
	ErrUnsupported = errors.New("operation not supported by this store")
)
