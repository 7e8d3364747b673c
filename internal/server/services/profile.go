package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/norsebooks/norsebooks/internal/common"
	"github.com/norsebooks/norsebooks/internal/logging"
	"github.com/norsebooks/norsebooks/internal/server/config"
	"github.com/norsebooks/norsebooks/internal/server/images"
	"github.com/norsebooks/norsebooks/internal/server/mailer"
	"github.com/norsebooks/norsebooks/internal/server/models"
	"github.com/norsebooks/norsebooks/internal/server/repositories/repomanager"
)

// Profile is the owner's view of an account.
type Profile struct {
	UserID            string           `json:"userId"`
	Firstname         string           `json:"firstname"`
	Lastname          string           `json:"lastname"`
	Email             string           `json:"email"`
	ImageURL          string           `json:"imageUrl"`
	JoinedAt          JSONTime         `json:"joinTimestamp"`
	ItemsListed       int              `json:"itemsListed"`
	ItemsSold         int              `json:"itemsSold"`
	MoneyMade         float64          `json:"moneyMade"`
	ContactPlatformID *int             `json:"contactPlatform"`
	ContactInfo       *string          `json:"contactInfo"`
	Books             []models.BookRow `json:"booksListed"`
}

// ProfileService lets users maintain their account details and send
// feedback.
type ProfileService struct {
	db               *sql.DB
	repomanager      repomanager.RepositoryManager
	images           images.Store
	mail             mailer.Sender
	logger           logging.Logger
	emailSuffix      string
	feedbackAddress  string
	feedbackCooldown time.Duration
	now              func() time.Time
}

func NewProfileService(db *sql.DB, m repomanager.RepositoryManager, img images.Store, mail mailer.Sender,
	cfg *config.Config, logger logging.Logger) *ProfileService {
	return &ProfileService{
		db:               db,
		repomanager:      m,
		images:           img,
		mail:             mail,
		logger:           logger.With("module", "profile"),
		emailSuffix:      cfg.EmailSuffix,
		feedbackAddress:  cfg.FeedbackAddress,
		feedbackCooldown: cfg.FeedbackCooldown,
		now:              time.Now,
	}
}

func (s *ProfileService) Get(ctx context.Context, userID int64) (*Profile, error) {
	u, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	books, err := s.repomanager.Books(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Profile{
		UserID:            u.PublicID,
		Firstname:         u.Firstname,
		Lastname:          u.Lastname,
		Email:             u.Email + s.emailSuffix,
		ImageURL:          u.ImageURL,
		JoinedAt:          JSONTime(u.JoinedAt),
		ItemsListed:       u.ItemsListed,
		ItemsSold:         u.ItemsSold,
		MoneyMade:         u.MoneyMade,
		ContactPlatformID: u.ContactPlatformID,
		ContactInfo:       u.ContactInfo,
		Books:             books,
	}, nil
}

func (s *ProfileService) SetName(ctx context.Context, userID int64, firstname, lastname string) error {
	return s.repomanager.Users(s.db).SetName(ctx, userID, firstname, lastname)
}

// SetContact stores how buyers reach userID. It reports false for an
// unknown platform.
func (s *ProfileService) SetContact(ctx context.Context, userID int64, platformID int, info string) (bool, error) {
	ok, err := s.repomanager.Reference(s.db).PlatformExists(ctx, platformID)
	if err != nil || !ok {
		return false, err
	}
	return true, s.repomanager.Users(s.db).SetContact(ctx, userID, platformID, info)
}

// SetImage uploads a new profile picture and drops the previous one.
func (s *ProfileService) SetImage(ctx context.Context, userID int64, body io.Reader) (string, error) {
	if s.images == nil {
		return "", fmt.Errorf("image storage is not configured")
	}
	repo := s.repomanager.Users(s.db)
	u, err := repo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	url, err := s.images.Upload(ctx, body)
	if err != nil {
		return "", err
	}
	if err := repo.SetImage(ctx, userID, url); err != nil {
		return "", err
	}
	if u.ImageURL != "" {
		if err := s.images.Delete(ctx, u.ImageURL); err != nil {
			s.logger.Warn(ctx, "image cleanup failed", "error", err)
		}
	}
	return url, nil
}

// CanSendFeedback reports whether userID is outside the feedback cool-down.
func (s *ProfileService) CanSendFeedback(ctx context.Context, userID int64) (bool, error) {
	u, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return u.LastFeedbackAt == nil || !u.LastFeedbackAt.Add(s.feedbackCooldown).After(s.now()), nil
}

// SendFeedback forwards text to the site's feedback address, at most once
// per cool-down; otherwise it returns common.ErrFeedbackTooSoon.
func (s *ProfileService) SendFeedback(ctx context.Context, userID int64, text string) error {
	repo := s.repomanager.Users(s.db)
	u, err := repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.LastFeedbackAt != nil && u.LastFeedbackAt.Add(s.feedbackCooldown).After(s.now()) {
		return common.ErrFeedbackTooSoon
	}

	msg, err := mailer.Feedback(s.feedbackAddress, u.Firstname+" "+u.Lastname, u.Email+s.emailSuffix, text)
	if err != nil {
		return err
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		return err
	}
	return repo.TouchFeedback(ctx, userID, s.now())
}
