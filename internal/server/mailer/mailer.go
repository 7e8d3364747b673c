// Package mailer delivers account and feedback email over SMTP.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"

	"github.com/norsebooks/norsebooks/internal/logging"
	"github.com/norsebooks/norsebooks/internal/server/config"
	"github.com/norsebooks/norsebooks/internal/server/metrics"
	"github.com/sethvargo/go-retry"
)

// Message is one email. Text is optional.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// RetryDelays are the pauses between delivery attempts.
var RetryDelays = []time.Duration{time.Minute, 10 * time.Minute}

// sendMail is a seam for tests.
var sendMail = smtp.SendMail

// SMTPMailer sends mail through one SMTP relay, retrying failed deliveries
// after each of its delays.
type SMTPMailer struct {
	addr   string
	auth   smtp.Auth
	from   string
	delays []time.Duration
	logger logging.Logger
}

func NewSMTPMailer(cfg *config.Config, logger logging.Logger) *SMTPMailer {
	var auth smtp.Auth
	if cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return &SMTPMailer{
		addr:   net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort)),
		auth:   auth,
		from:   cfg.MailFrom,
		delays: RetryDelays,
		logger: logger.With("module", "mailer"),
	}
}

// backoff yields delays in order, then stops.
func backoff(delays []time.Duration) retry.Backoff {
	i := 0
	return retry.BackoffFunc(func() (time.Duration, bool) {
		if i >= len(delays) {
			return 0, true
		}
		d := delays[i]
		i++
		return d, false
	})
}

// Send delivers msg, blocking through the retry delays. The last error is
// returned once every attempt has failed.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	body, err := m.compose(msg)
	if err != nil {
		return err
	}

	attempt := 0
	err = retry.Do(ctx, backoff(m.delays), func(ctx context.Context) error {
		attempt++
		if err := sendMail(m.addr, m.auth, address(m.from), []string{msg.To}, body); err != nil {
			m.logger.Warn(ctx, "mail delivery failed", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		metrics.MailFailures.Inc()
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

// address extracts the bare address from a "Name <addr>" header value.
func address(from string) string {
	if a, err := mail.ParseAddress(from); err == nil {
		return a.Address
	}
	return from
}

func (m *SMTPMailer) compose(msg Message) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", m.from)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", mw.Boundary())

	parts := []struct{ ctype, body string }{
		{"text/plain; charset=utf-8", msg.Text},
		{"text/html; charset=utf-8", msg.HTML},
	}
	for _, p := range parts {
		if p.body == "" {
			continue
		}
		w, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {p.ctype}})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(p.body)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
