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
	"github.com/norsebooks/norsebooks/internal/server/models"
	"github.com/norsebooks/norsebooks/internal/server/repositories/repomanager"
)

// Alert is the site-wide banner and the moment it stops showing.
type Alert struct {
	Text    string    `json:"alertValue"`
	Expires time.Time `json:"alertTimeout"`
}

// MetaService reads and writes site settings.
type MetaService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewMetaService(db *sql.DB, m repomanager.RepositoryManager) *MetaService {
	return &MetaService{db: db, repomanager: m, now: time.Now}
}

func (s *MetaService) Get(ctx context.Context, key string) (string, error) {
	return s.repomanager.Meta(s.db).Get(ctx, key)
}

func (s *MetaService) Set(ctx context.Context, key, value string) error {
	return s.repomanager.Meta(s.db).Set(ctx, key, value)
}

// metaInt reads an integer setting through db, which may be a transaction.
func metaInt(ctx context.Context, m repomanager.RepositoryManager, db dbx.DBTX, key string) (int, error) {
	raw, err := m.Meta(db).Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("meta %q: %w", key, err)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("meta %q is not a number: %w", key, err)
	}
	return n, nil
}

func (s *MetaService) Int(ctx context.Context, key string) (int, error) {
	return metaInt(ctx, s.repomanager, s.db, key)
}

// SetInt stores a positive integer setting.
func (s *MetaService) SetInt(ctx context.Context, key string, value int) error {
	if value < 1 {
		return fmt.Errorf("meta %q must be positive, got %d", key, value)
	}
	return s.Set(ctx, key, strconv.Itoa(value))
}

func (s *MetaService) Version(ctx context.Context) (string, error) {
	return s.Get(ctx, models.MetaVersion)
}

func (s *MetaService) Terms(ctx context.Context) (string, error) {
	return s.Get(ctx, models.MetaTerms)
}

// Alert returns the banner while it is live, or nil.
func (s *MetaService) Alert(ctx context.Context) (*Alert, error) {
	a, err := s.StoredAlert(ctx)
	if err != nil || a == nil {
		return nil, err
	}
	if !a.Expires.After(s.now()) {
		return nil, nil
	}
	return a, nil
}

// StoredAlert returns the banner as stored, expired or not, for moderators.
func (s *MetaService) StoredAlert(ctx context.Context) (*Alert, error) {
	repo := s.repomanager.Meta(s.db)

	text, err := repo.Get(ctx, models.MetaAlert)
	if errors.Is(err, common.ErrorNotFound) || (err == nil && text == "") {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	raw, err := repo.Get(ctx, models.MetaAlertTimeout)
	if errors.Is(err, common.ErrorNotFound) || (err == nil && raw == "") {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("alert timeout %q: %w", raw, err)
	}
	return &Alert{Text: text, Expires: time.Unix(secs, 0)}, nil
}

// SetAlert shows text for the next d.
func (s *MetaService) SetAlert(ctx context.Context, text string, d time.Duration) error {
	if text == "" || d <= 0 {
		return fmt.Errorf("alert needs text and a positive duration")
	}
	expires := s.now().Add(d).Unix()
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Meta(tx)
		if err := repo.Set(ctx, models.MetaAlert, text); err != nil {
			return err
		}
		return repo.Set(ctx, models.MetaAlertTimeout, strconv.FormatInt(expires, 10))
	})
}

func (s *MetaService) RemoveAlert(ctx context.Context) error {
	return s.Set(ctx, models.MetaAlert, "")
}
