// Package contact handles the site's general contact form.
package contact

import (
	"context"
	"fmt"
	"strings"
	"time"

	"folio/internal/booking"
	"folio/internal/messaging"
	"folio/internal/metrics"

	"github.com/rs/zerolog"
)

// Form is one contact form submission.
type Form struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// ValidationError rejects a form before anything is sent.
type ValidationError struct {
	Field  string
	Notice booking.Notice
}

func (e *ValidationError) Error() string {
	return "contact validation: " + e.Field
}

// Service sends contact messages through a messenger.
type Service struct {
	messenger messaging.Messenger
	timeout   time.Duration
	logger    zerolog.Logger
}

// NewService creates a contact service. A zero timeout uses the booking
// default.
func NewService(messenger messaging.Messenger, timeout time.Duration, logger *zerolog.Logger) *Service {
	if timeout <= 0 {
		timeout = booking.DefaultSubmitTimeout
	}
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &Service{
		messenger: messenger,
		timeout:   timeout,
		logger:    l.With().Str("component", "contact").Logger(),
	}
}

// Validate checks that every field is filled and the email is well formed.
func (f Form) Validate() *ValidationError {
	required := []struct {
		field string
		label string
		value string
	}{
		{"name", "name", f.Name},
		{"email", "email address", f.Email},
		{"subject", "subject", f.Subject},
		{"message", "message", f.Message},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{
				Field: r.field,
				Notice: booking.Notice{
					Variant:     booking.VariantDestructive,
					Title:       "Missing Details",
					Description: fmt.Sprintf("Please fill in your %s.", r.label),
				},
			}
		}
	}
	if !booking.ValidEmail(f.Email) {
		return &ValidationError{
			Field: "email",
			Notice: booking.Notice{
				Variant:     booking.VariantDestructive,
				Title:       "Invalid Email",
				Description: "Please enter a valid email address.",
			},
		}
	}
	return nil
}

// Submit validates and sends the form. A failed send returns a
// *booking.DeliveryError with the generic failure notice.
func (s *Service) Submit(ctx context.Context, f Form) (booking.Notice, error) {
	if vErr := f.Validate(); vErr != nil {
		metrics.IncContactMessage("invalid")
		return vErr.Notice, vErr
	}

	msg := messaging.ContactMessage(
		strings.TrimSpace(f.Name),
		strings.TrimSpace(f.Email),
		strings.TrimSpace(f.Subject),
		f.Message,
	)

	started := time.Now()
	err := s.send(ctx, msg)
	metrics.ObserveDelivery(string(messaging.KindContact), time.Since(started))

	if err != nil {
		s.logger.Error().Err(err).Msg("contact message delivery failed")
		metrics.IncContactMessage("failed")
		return failureNotice, &booking.DeliveryError{Err: err}
	}

	s.logger.Info().Str("subject", msg.Get("subject")).Msg("contact message sent")
	metrics.IncContactMessage("sent")
	return successNotice, nil
}

func (s *Service) send(ctx context.Context, msg messaging.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("messenger panic: %v", r)
		}
	}()

	if s.messenger == nil {
		return messaging.ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.messenger.Send(ctx, msg)
}

var (
	successNotice = booking.Notice{
		Variant:     booking.VariantDefault,
		Title:       "Message sent successfully!",
		Description: "Your message has entered my inbox galaxy. I'll get back to you soon! 🚀",
	}
	failureNotice = booking.Notice{
		Variant:     booking.VariantDestructive,
		Title:       "Error sending message",
		Description: "Something went wrong. Please try again.",
	}
)
