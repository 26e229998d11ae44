package messaging

import (
	"context"

	"github.com/rs/zerolog"
)

// Fanout delivers to a primary relay and best-effort mirrors. Only the
// primary decides the outcome; mirrors run after a primary success.
type Fanout struct {
	primary Messenger
	mirrors []Messenger
	logger  *zerolog.Logger
}

// NewFanout creates a fan-out messenger. Nil mirrors are skipped.
func NewFanout(primary Messenger, logger *zerolog.Logger, mirrors ...Messenger) *Fanout {
	kept := make([]Messenger, 0, len(mirrors))
	for _, m := range mirrors {
		if m != nil {
			kept = append(kept, m)
		}
	}
	return &Fanout{primary: primary, mirrors: kept, logger: logger}
}

func (f *Fanout) Send(ctx context.Context, msg Message) error {
	if err := f.primary.Send(ctx, msg); err != nil {
		return err
	}

	for i, m := range f.mirrors {
		if err := m.Send(ctx, msg); err != nil && f.logger != nil {
			f.logger.Warn().Err(err).
				Int("mirror", i).
				Str("kind", string(msg.Kind)).
				Msg("mirror delivery failed")
		}
	}
	return nil
}
