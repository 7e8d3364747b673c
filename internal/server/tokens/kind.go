package tokens

import (
	"time"

	"github.com/norsebooks/norsebooks/internal/server/config"
	"github.com/norsebooks/norsebooks/internal/server/models"
)

// Kinds lists every stored token kind in reconciliation order.
var Kinds = []models.TokenKind{models.TokenSession, models.TokenVerify, models.TokenPasswordReset}

// Timeouts is the lifetime of each token kind.
type Timeouts map[models.TokenKind]time.Duration

func TimeoutsFromConfig(cfg *config.Config) Timeouts {
	return Timeouts{
		models.TokenSession:       cfg.SessionTimeout,
		models.TokenVerify:        cfg.VerifyTimeout,
		models.TokenPasswordReset: cfg.PasswordResetTimeout,
	}
}

// singleActive reports whether issuing a token of kind replaces the
// subject's previous ones. Password resets may be outstanding in parallel.
func singleActive(kind models.TokenKind) bool {
	return kind == models.TokenSession || kind == models.TokenVerify
}
