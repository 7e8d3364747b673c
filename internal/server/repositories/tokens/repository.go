// Package tokens declares the persistence contract for the expiring token
// tables: sessions, verify_tokens and password_resets.
package tokens

import (
	"context"
	"time"

	"github.com/norsebooks/norsebooks/internal/server/models"
)

// Repository stores tokens of every kind. The subject is a user id for
// sessions and an email address for verify and reset tokens.
type Repository interface {
	Insert(ctx context.Context, kind models.TokenKind, token, subject string, createdAt time.Time) error
	Exists(ctx context.Context, kind models.TokenKind, token string) (bool, error)

	// Subject returns the subject bound to token, or common.ErrorNotFound.
	Subject(ctx context.Context, kind models.TokenKind, token string) (string, error)

	// SubjectHasToken reports whether any live token of kind is bound to subject.
	SubjectHasToken(ctx context.Context, kind models.TokenKind, subject string) (bool, error)

	// Delete removes one token. Deleting a missing token is not an error;
	// the result reports whether a row was removed.
	Delete(ctx context.Context, kind models.TokenKind, token string) (bool, error)

	// DeleteBySubject removes every token of kind bound to subject.
	DeleteBySubject(ctx context.Context, kind models.TokenKind, subject string) error

	// List returns every live token of kind.
	List(ctx context.Context, kind models.TokenKind) ([]models.Token, error)
}
