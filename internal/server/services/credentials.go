// Package services contains the server-side business logic of NorseBooks.
// Services receive validated input from the HTTP layer, run their database
// work through a repomanager.RepositoryManager and report expected outcomes
// as values or sentinel errors from package common.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/norsebooks/norsebooks/internal/common"
	"github.com/norsebooks/norsebooks/internal/dbx"
	"github.com/norsebooks/norsebooks/internal/logging"
	"github.com/norsebooks/norsebooks/internal/server/config"
	"github.com/norsebooks/norsebooks/internal/server/mailer"
	"github.com/norsebooks/norsebooks/internal/server/metrics"
	"github.com/norsebooks/norsebooks/internal/server/models"
	"github.com/norsebooks/norsebooks/internal/server/repositories/repomanager"
	"github.com/norsebooks/norsebooks/internal/server/tokens"
	"golang.org/x/crypto/bcrypt"
)

// CredentialService owns passwords and the tokens derived from them:
// registration, verification, login sessions and password resets.
//
// Emails are handled as the local part only; mail goes to that part plus
// the configured campus suffix.
type CredentialService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *tokens.Store
	gen         *tokens.Generator
	mail        mailer.Sender
	logger      logging.Logger

	cost        int
	emailSuffix string
	publicURL   string
	now         func() time.Time
}

func NewCredentialService(db *sql.DB, m repomanager.RepositoryManager, store *tokens.Store, gen *tokens.Generator,
	mail mailer.Sender, cfg *config.Config, logger logging.Logger) *CredentialService {
	return &CredentialService{
		db:          db,
		repomanager: m,
		tokens:      store,
		gen:         gen,
		mail:        mail,
		logger:      logger.With("module", "credentials"),
		cost:        cfg.BcryptCost,
		emailSuffix: cfg.EmailSuffix,
		publicURL:   cfg.PublicURL,
		now:         time.Now,
	}
}

func (s *CredentialService) address(email string) string {
	return email + s.emailSuffix
}

func (s *CredentialService) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// matches compares password with hash. Only a mismatch is a false result;
// malformed hashes and other bcrypt failures are errors.
func matches(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("compare password: %w", err)
	}
	return true, nil
}

// Register creates an unverified account and mails its verification link.
// The account and its verify token are stored together; the account is
// removed again if the link is not followed in time.
func (s *CredentialService) Register(ctx context.Context, email, password, firstname, lastname string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	taken, err := repo.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, common.ErrEmailTaken
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}
	publicID, err := s.gen.NewBase64(ctx, tokens.UserIDLength, repo.PublicIDExists)
	if err != nil {
		return nil, fmt.Errorf("user id: %w", err)
	}

	var u *models.User
	token, err := s.tokens.IssueWith(ctx, models.TokenVerify, email, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := s.repomanager.Users(tx).Create(ctx, &models.User{
			PublicID:     publicID,
			Email:        email,
			PasswordHash: hash,
			Firstname:    firstname,
			Lastname:     lastname,
		})
		if err != nil {
			return fmt.Errorf("error creating user: %w", err)
		}
		u = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "user registered", "user_id", u.PublicID)

	if err := s.sendVerification(ctx, email, token); err != nil {
		return nil, err
	}
	return u, nil
}

// RequestVerification issues a fresh verify token for email, replacing any
// earlier one, and mails the link.
func (s *CredentialService) RequestVerification(ctx context.Context, email string) error {
	token, err := s.tokens.Issue(ctx, models.TokenVerify, email)
	if err != nil {
		return err
	}
	return s.sendVerification(ctx, email, token)
}

func (s *CredentialService) sendVerification(ctx context.Context, email, token string) error {
	msg, err := mailer.Verification(s.address(email), s.publicURL, token)
	if err != nil {
		return err
	}
	return s.mail.Send(ctx, msg)
}

// Verify marks the account bound to token as verified and consumes the
// token. Unknown or expired tokens yield false.
func (s *CredentialService) Verify(ctx context.Context, token string) (bool, error) {
	email, err := s.tokens.Subject(ctx, models.TokenVerify, token)
	if errors.Is(err, common.ErrInvalidToken) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if _, err := s.repomanager.Users(s.db).SetVerified(ctx, email); err != nil {
		return false, err
	}
	if _, err := s.tokens.Consume(ctx, models.TokenVerify, token); err != nil {
		return false, err
	}
	return true, nil
}

// Login checks a verified account's password and opens a session, closing
// any session the account had before. Bad credentials yield false with no
// error.
func (s *CredentialService) Login(ctx context.Context, email, password string) (bool, string, error) {
	repo := s.repomanager.Users(s.db)

	u, err := repo.GetVerifiedByEmail(ctx, email)
	if errors.Is(err, common.ErrorNotFound) {
		metrics.Logins.WithLabelValues("rejected").Inc()
		return false, "", nil
	}
	if err != nil {
		return false, "", err
	}

	ok, err := matches(u.PasswordHash, password)
	if err != nil {
		return false, "", err
	}
	if !ok {
		metrics.Logins.WithLabelValues("rejected").Inc()
		return false, "", nil
	}

	if err := repo.TouchLastLogin(ctx, u.ID, s.now()); err != nil {
		return false, "", err
	}
	token, err := s.tokens.Issue(ctx, models.TokenSession, strconv.FormatInt(u.ID, 10))
	if err != nil {
		return false, "", err
	}

	metrics.Logins.WithLabelValues("accepted").Inc()
	return true, token, nil
}

// Authenticate resolves a session token to its user and records the
// activity as a login. Unknown tokens yield common.ErrorUnauthorized.
func (s *CredentialService) Authenticate(ctx context.Context, sessionToken string) (*models.NavUser, error) {
	if sessionToken == "" {
		return nil, common.ErrorUnauthorized
	}
	repo := s.repomanager.Users(s.db)

	nav, err := repo.GetNavBySession(ctx, sessionToken)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrorUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if err := repo.TouchLastLogin(ctx, nav.ID, s.now()); err != nil {
		return nil, err
	}
	return nav, nil
}

func (s *CredentialService) Logout(ctx context.Context, sessionToken string) error {
	_, err := s.tokens.Consume(ctx, models.TokenSession, sessionToken)
	return err
}

// ChangePassword replaces the password of userID after checking the
// current one. A wrong current password yields false.
func (s *CredentialService) ChangePassword(ctx context.Context, userID int64, current, next string) (bool, error) {
	repo := s.repomanager.Users(s.db)

	u, err := repo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	ok, err := matches(u.PasswordHash, current)
	if err != nil || !ok {
		return false, err
	}

	hash, err := s.hash(next)
	if err != nil {
		return false, err
	}
	if err := repo.SetPassword(ctx, userID, hash); err != nil {
		return false, err
	}
	return true, nil
}

// RequestPasswordReset mails a reset link to email. Nothing is sent while
// an earlier reset for the address is outstanding, or when no verified
// account uses it. Callers should answer the same way in every case.
func (s *CredentialService) RequestPasswordReset(ctx context.Context, email string) error {
	if _, err := s.repomanager.Users(s.db).GetVerifiedByEmail(ctx, email); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return err
	}

	pending, err := s.tokens.HasActive(ctx, models.TokenPasswordReset, email)
	if err != nil || pending {
		return err
	}

	token, err := s.tokens.Issue(ctx, models.TokenPasswordReset, email)
	if err != nil {
		return err
	}
	msg, err := mailer.PasswordReset(s.address(email), s.publicURL, token)
	if err != nil {
		return err
	}
	return s.mail.Send(ctx, msg)
}

// CheckPasswordReset reports whether a reset token is still live.
func (s *CredentialService) CheckPasswordReset(ctx context.Context, token string) (bool, error) {
	return s.tokens.Validate(ctx, models.TokenPasswordReset, token)
}

// ResetPassword sets a new password for the account the reset token was
// issued to, consumes the token and ends the account's session. Unknown or
// expired tokens yield false.
func (s *CredentialService) ResetPassword(ctx context.Context, token, newPassword string) (bool, error) {
	email, err := s.tokens.Subject(ctx, models.TokenPasswordReset, token)
	if errors.Is(err, common.ErrInvalidToken) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	repo := s.repomanager.Users(s.db)
	u, err := repo.GetByEmail(ctx, email)
	if errors.Is(err, common.ErrorNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	hash, err := s.hash(newPassword)
	if err != nil {
		return false, err
	}
	if err := repo.SetPassword(ctx, u.ID, hash); err != nil {
		return false, err
	}
	if _, err := s.tokens.Consume(ctx, models.TokenPasswordReset, token); err != nil {
		return false, err
	}
	if err := s.tokens.RevokeAll(ctx, models.TokenSession, strconv.FormatInt(u.ID, 10)); err != nil {
		return false, err
	}
	s.logger.Info(ctx, "password reset", "user_id", u.PublicID)
	return true, nil
}

// SetPassword overwrites the password of the account at email without
// checking the old one. It is meant for operators.
func (s *CredentialService) SetPassword(ctx context.Context, email, password string) error {
	repo := s.repomanager.Users(s.db)
	u, err := repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	return repo.SetPassword(ctx, u.ID, hash)
}
