package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/norsebooks/norsebooks/internal/common"
	"github.com/norsebooks/norsebooks/internal/dbx"
	"github.com/norsebooks/norsebooks/internal/logging"
	"github.com/norsebooks/norsebooks/internal/server/config"
	"github.com/norsebooks/norsebooks/internal/server/images"
	"github.com/norsebooks/norsebooks/internal/server/metrics"
	"github.com/norsebooks/norsebooks/internal/server/models"
	"github.com/norsebooks/norsebooks/internal/server/repositories/repomanager"
)

// ModerationService counts user reports against listings and removes a
// listing once its reports reach the "Max reports" setting.
type ModerationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	images      images.Store
	logger      logging.Logger
	cooldown    time.Duration
	now         func() time.Time
}

func NewModerationService(db *sql.DB, m repomanager.RepositoryManager, img images.Store, cfg *config.Config,
	logger logging.Logger) *ModerationService {
	return &ModerationService{
		db:          db,
		repomanager: m,
		images:      img,
		logger:      logger.With("module", "moderation"),
		cooldown:    cfg.ReportCooldown,
		now:         time.Now,
	}
}

// AlreadyReported reports whether userID has a report on the listing.
func (s *ModerationService) AlreadyReported(ctx context.Context, userID int64, bookID string) (bool, error) {
	b, err := s.repomanager.Books(s.db).Get(ctx, bookID)
	if err != nil {
		return false, err
	}
	return s.repomanager.Reports(s.db).Exists(ctx, b.ID, userID)
}

// ReportedRecently reports whether userID filed any report within the
// cool-down window.
func (s *ModerationService) ReportedRecently(ctx context.Context, userID int64) (bool, error) {
	return s.repomanager.Reports(s.db).ReportedSince(ctx, userID, s.now().Add(-s.cooldown))
}

// Report files userID's report on bookID. It refuses with
// common.ErrAlreadyReported or common.ErrReportedRecently, and reports
// whether the listing was removed because the threshold was reached.
//
// The book row stays locked from insert to count so that concurrent reports
// cannot both fall one short of the threshold.
func (s *ModerationService) Report(ctx context.Context, userID int64, bookID string) (bool, error) {
	already, err := s.AlreadyReported(ctx, userID, bookID)
	if err != nil {
		return false, err
	}
	if already {
		return false, common.ErrAlreadyReported
	}
	recent, err := s.ReportedRecently(ctx, userID)
	if err != nil {
		return false, err
	}
	if recent {
		return false, common.ErrReportedRecently
	}

	var image string
	removed, err := dbx.WithTxResult(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (bool, error) {
		books := s.repomanager.Books(tx)
		reports := s.repomanager.Reports(tx)

		b, err := books.Lock(ctx, bookID)
		if err != nil {
			return false, err
		}
		if err := reports.Create(ctx, b.ID, userID, s.now()); err != nil {
			return false, err
		}
		n, err := reports.CountForBook(ctx, b.ID)
		if err != nil {
			return false, err
		}
		threshold, err := metaInt(ctx, s.repomanager, tx, models.MetaMaxReports)
		if err != nil {
			return false, err
		}
		if n < threshold {
			return false, nil
		}
		image = b.ImageURL
		return true, books.Delete(ctx, b.ID)
	})
	if err != nil {
		return false, err
	}

	metrics.ReportsFiled.Inc()
	if removed {
		metrics.BooksRemoved.Inc()
		s.logger.Info(ctx, "book removed by reports", "book_id", bookID)
		s.dropImage(ctx, image)
	}
	return removed, nil
}

// Unreport withdraws userID's report on bookID, if any.
func (s *ModerationService) Unreport(ctx context.Context, userID int64, bookID string) error {
	b, err := s.repomanager.Books(s.db).Get(ctx, bookID)
	if err != nil {
		return err
	}
	return s.repomanager.Reports(s.db).Delete(ctx, b.ID, userID)
}

// Reports lists every open report for moderators.
func (s *ModerationService) Reports(ctx context.Context) ([]models.ReportView, error) {
	return s.repomanager.Reports(s.db).List(ctx)
}

// RemoveBook deletes a listing on a moderator's behalf.
func (s *ModerationService) RemoveBook(ctx context.Context, bookID string) error {
	var image string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		b, err := s.repomanager.Books(tx).Lock(ctx, bookID)
		if err != nil {
			return err
		}
		image = b.ImageURL
		return s.repomanager.Books(tx).Delete(ctx, b.ID)
	})
	if err != nil {
		return err
	}
	s.dropImage(ctx, image)
	return nil
}

func (s *ModerationService) dropImage(ctx context.Context, url string) {
	if url == "" || s.images == nil {
		return
	}
	if err := s.images.Delete(ctx, url); err != nil {
		s.logger.Warn(ctx, "image cleanup failed", "error", err)
	}
}
