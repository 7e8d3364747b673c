// Package metrics holds the application-level Prometheus collectors.
// HTTP request metrics are recorded separately by the fiber middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TokensIssued counts tokens issued by kind.
	TokensIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "norsebooks_tokens_issued_total",
		Help: "Total number of tokens issued by kind",
	}, []string{"kind"})

	// TokensReaped counts tokens deleted on expiry by kind.
	TokensReaped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "norsebooks_tokens_reaped_total",
		Help: "Total number of tokens deleted on expiry",
	}, []string{"kind"})

	// TokenCollisions counts generated tokens that were already taken.
	TokenCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "norsebooks_token_collisions_total",
		Help: "Total number of generated identifiers discarded as duplicates",
	})

	// PendingExpiries is the number of scheduled token deletions.
	PendingExpiries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "norsebooks_token_pending_expiries",
		Help: "Number of token deletions currently scheduled",
	})

	// UnverifiedPruned counts accounts removed because verification expired.
	UnverifiedPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "norsebooks_unverified_accounts_pruned_total",
		Help: "Total number of accounts deleted after their verification window",
	})

	// ReportsFiled counts book reports.
	ReportsFiled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "norsebooks_reports_filed_total",
		Help: "Total number of book reports filed",
	})

	// BooksRemoved counts listings removed by the report threshold.
	BooksRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "norsebooks_books_removed_by_reports_total",
		Help: "Total number of listings removed after reaching the report threshold",
	})

	// Logins counts login attempts by outcome.
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "norsebooks_logins_total",
		Help: "Total number of login attempts by outcome",
	}, []string{"outcome"})

	// MailFailures counts messages dropped after all retries.
	MailFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "norsebooks_mail_failures_total",
		Help: "Total number of emails that could not be delivered",
	})
)
