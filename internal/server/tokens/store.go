package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/norsebooks/norsebooks/internal/common"
	"github.com/norsebooks/norsebooks/internal/dbx"
	"github.com/norsebooks/norsebooks/internal/logging"
	"github.com/norsebooks/norsebooks/internal/server/metrics"
	"github.com/norsebooks/norsebooks/internal/server/models"
	"github.com/norsebooks/norsebooks/internal/server/repositories/repomanager"
)

// reapTimeout bounds the database work of one expiry callback.
const reapTimeout = 30 * time.Second

// Store manages the lifecycle of stored tokens: issue, validate, consume and
// expire. Expiry is enforced by deleting rows when their timeout elapses,
// not by filtering reads, so Reconcile must run before serving to cover
// tokens whose timers were lost with a previous process.
type Store struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	gen         *Generator
	timeouts    Timeouts
	sched       *scheduler
	logger      logging.Logger
	now         func() time.Time
}

func NewStore(db *sql.DB, m repomanager.RepositoryManager, gen *Generator, timeouts Timeouts, logger logging.Logger) *Store {
	return &Store{
		db:          db,
		repomanager: m,
		gen:         gen,
		timeouts:    timeouts,
		sched:       newScheduler(),
		logger:      logger.With("module", "tokens"),
		now:         time.Now,
	}
}

func (s *Store) timeout(kind models.TokenKind) (time.Duration, error) {
	d, ok := s.timeouts[kind]
	if !ok {
		return 0, fmt.Errorf("no timeout configured for token kind %q", kind)
	}
	return d, nil
}

// Issue creates a token of kind bound to subject and schedules its deletion.
// For single-active kinds the subject's previous tokens are deleted in the
// same transaction as the insert.
func (s *Store) Issue(ctx context.Context, kind models.TokenKind, subject string) (string, error) {
	return s.IssueWith(ctx, kind, subject, nil)
}

// IssueWith is Issue with extra work run first in the same transaction.
// If before fails, or the token cannot be stored, neither is committed.
// The deletion is scheduled only after commit.
func (s *Store) IssueWith(ctx context.Context, kind models.TokenKind, subject string,
	before func(ctx context.Context, tx dbx.DBTX) error) (string, error) {
	timeout, err := s.timeout(kind)
	if err != nil {
		return "", err
	}

	token, err := dbx.WithTxResult(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (string, error) {
		if before != nil {
			if err := before(ctx, tx); err != nil {
				return "", err
			}
		}
		repo := s.repomanager.Tokens(tx)
		if singleActive(kind) {
			if err := repo.DeleteBySubject(ctx, kind, subject); err != nil {
				return "", err
			}
		}
		token, err := s.gen.NewHex(ctx, func(ctx context.Context, c string) (bool, error) {
			return repo.Exists(ctx, kind, c)
		})
		if err != nil {
			return "", err
		}
		if err := repo.Insert(ctx, kind, token, subject, s.now()); err != nil {
			return "", err
		}
		return token, nil
	})
	if err != nil {
		return "", fmt.Errorf("issue %s token: %w", kind, err)
	}

	s.schedule(kind, token, timeout)
	metrics.TokensIssued.WithLabelValues(string(kind)).Inc()
	return token, nil
}

// Validate reports whether token is live. Expired tokens are gone once their
// deletion has run, so no timestamp check happens here.
func (s *Store) Validate(ctx context.Context, kind models.TokenKind, token string) (bool, error) {
	return s.repomanager.Tokens(s.db).Exists(ctx, kind, token)
}

// Subject returns the subject bound to a live token, or common.ErrInvalidToken.
func (s *Store) Subject(ctx context.Context, kind models.TokenKind, token string) (string, error) {
	subject, err := s.repomanager.Tokens(s.db).Subject(ctx, kind, token)
	if errors.Is(err, common.ErrorNotFound) {
		return "", common.ErrInvalidToken
	}
	return subject, err
}

// HasActive reports whether subject holds any live token of kind.
func (s *Store) HasActive(ctx context.Context, kind models.TokenKind, subject string) (bool, error) {
	return s.repomanager.Tokens(s.db).SubjectHasToken(ctx, kind, subject)
}

// Consume deletes token now and drops its pending expiry. It reports whether
// the token was still live.
func (s *Store) Consume(ctx context.Context, kind models.TokenKind, token string) (bool, error) {
	removed, err := s.repomanager.Tokens(s.db).Delete(ctx, kind, token)
	if err != nil {
		return false, err
	}
	s.sched.Cancel(timerKey{kind: kind, token: token})
	return removed, nil
}

// RevokeAll deletes every token of kind bound to subject. Their pending
// expiries fire later against missing rows and do nothing.
func (s *Store) RevokeAll(ctx context.Context, kind models.TokenKind, subject string) error {
	return s.repomanager.Tokens(s.db).DeleteBySubject(ctx, kind, subject)
}

// Reconcile reaps every stored token whose lifetime has elapsed and
// schedules deletion of the rest for the time they have left.
func (s *Store) Reconcile(ctx context.Context) error {
	now := s.now()
	repo := s.repomanager.Tokens(s.db)

	for _, kind := range Kinds {
		timeout, err := s.timeout(kind)
		if err != nil {
			return err
		}
		live, err := repo.List(ctx, kind)
		if err != nil {
			return fmt.Errorf("list %s tokens: %w", kind, err)
		}

		reaped, scheduled := 0, 0
		for _, t := range live {
			remaining := t.CreatedAt.Add(timeout).Sub(now)
			if remaining <= 0 {
				if err := s.reap(ctx, kind, t.Value); err != nil {
					return err
				}
				reaped++
				continue
			}
			s.schedule(kind, t.Value, remaining)
			scheduled++
		}
		s.logger.Info(ctx, "tokens reconciled", "kind", kind, "reaped", reaped, "scheduled", scheduled)
	}
	return nil
}

// Pending returns the number of scheduled deletions.
func (s *Store) Pending() int {
	return s.sched.Pending()
}

// Close stops all scheduled deletions. Tokens stay in the database and are
// picked up by the next Reconcile.
func (s *Store) Close() {
	s.sched.Close()
}

func (s *Store) schedule(kind models.TokenKind, token string, after time.Duration) {
	s.sched.Schedule(timerKey{kind: kind, token: token}, after, func() {
		ctx, cancel := context.WithTimeout(context.Background(), reapTimeout)
		defer cancel()
		if err := s.reap(ctx, kind, token); err != nil {
			s.logger.Error(ctx, "token expiry failed", "kind", kind, "error", err)
		}
	})
}

// reap deletes an expired token. An expired verify token also takes the
// account it was meant to verify, unless that account was verified already.
// A token that is already gone is not counted.
func (s *Store) reap(ctx context.Context, kind models.TokenKind, token string) error {
	found, pruned := false, false
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Tokens(tx)

		subject, err := repo.Subject(ctx, kind, token)
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true

		if kind == models.TokenVerify {
			n, err := s.repomanager.Users(tx).DeleteUnverified(ctx, subject)
			if err != nil {
				return err
			}
			pruned = n > 0
		}
		_, err = repo.Delete(ctx, kind, token)
		return err
	})
	if err != nil {
		return fmt.Errorf("reap %s token: %w", kind, err)
	}

	if !found {
		return nil
	}
	metrics.TokensReaped.WithLabelValues(string(kind)).Inc()
	if pruned {
		metrics.UnverifiedPruned.Inc()
		s.logger.Info(ctx, "unverified account removed")
	}
	return nil
}
