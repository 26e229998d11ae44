package journal

import (
	"context"
	"time"

	"folio/internal/messaging"

	"github.com/rs/zerolog"
)

// Journaled records every send of the wrapped messenger. Journal write
// failures are logged and never change the send result.
type Journaled struct {
	next    messaging.Messenger
	journal *Journal
	logger  *zerolog.Logger
	now     func() time.Time
}

// NewJournaled wraps next.
func NewJournaled(next messaging.Messenger, j *Journal, logger *zerolog.Logger) *Journaled {
	return &Journaled{next: next, journal: j, logger: logger, now: time.Now}
}

func (m *Journaled) Send(ctx context.Context, msg messaging.Message) error {
	started := m.now()
	err := m.next.Send(ctx, msg)

	e := Entry{
		Kind:      string(msg.Kind),
		Name:      msg.Get("name"),
		Email:     msg.Get("email"),
		Detail:    detailOf(msg),
		Status:    StatusSent,
		Duration:  m.now().Sub(started),
		CreatedAt: started,
	}
	if err != nil {
		e.Status = StatusFailed
		e.Error = err.Error()
	}

	// The caller's ctx may already be past its deadline.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if _, jErr := m.journal.Record(recordCtx, e); jErr != nil && m.logger != nil {
		m.logger.Warn().Err(jErr).Str("kind", e.Kind).Msg("journal write failed")
	}
	return err
}

func detailOf(msg messaging.Message) string {
	if msg.Kind == messaging.KindBooking {
		return msg.Get("datetime")
	}
	return msg.Get("subject")
}
