package mailer

import (
	"context"
	"sync"

	"github.com/norsebooks/norsebooks/internal/logging"
)

// Async hands messages to a background goroutine so callers never wait on
// the relay or its retry delays. Delivery failures are logged.
type Async struct {
	next   Sender
	logger logging.Logger
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewAsync(next Sender, logger logging.Logger) *Async {
	ctx, cancel := context.WithCancel(context.Background())
	return &Async{next: next, logger: logger.With("module", "mailer"), ctx: ctx, cancel: cancel}
}

// Send queues msg and returns immediately. The request context is not used
// for delivery, which outlives the request.
func (a *Async) Send(_ context.Context, msg Message) error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.next.Send(a.ctx, msg); err != nil {
			a.logger.Error(a.ctx, "mail not delivered", "subject", msg.Subject, "error", err)
		}
	}()
	return nil
}

// Close abandons pending retries and waits for in-flight deliveries.
func (a *Async) Close() {
	a.cancel()
	a.wg.Wait()
}

// Wait blocks until every queued message has been handled.
func (a *Async) Wait() {
	a.wg.Wait()
}
