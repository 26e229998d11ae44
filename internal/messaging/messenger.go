// Package messaging delivers booking requests and contact messages to the
// site owner through external relays.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Kind selects the message template.
type Kind string

const (
	KindBooking Kind = "booking"
	KindContact Kind = "contact"
)

// Message is a flat key-value payload plus its kind.
type Message struct {
	Kind   Kind
	Params map[string]string
}

// Messenger delivers a message. Implementations must honor ctx.
type Messenger interface {
	Send(ctx context.Context, msg Message) error
}

// MessengerFunc adapts a function to Messenger.
type MessengerFunc func(ctx context.Context, msg Message) error

func (f MessengerFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// BookingMessage builds the call-booking payload.
func BookingMessage(name, email, datetime, callType, message string) Message {
	return Message{
		Kind: KindBooking,
		Params: map[string]string{
			"name":     name,
			"email":    email,
			"datetime": datetime,
			"callType": callType,
			"message":  message,
		},
	}
}

// ContactMessage builds the contact-form payload.
func ContactMessage(name, email, subject, message string) Message {
	return Message{
		Kind: KindContact,
		Params: map[string]string{
			"name":    name,
			"email":   email,
			"subject": subject,
			"message": message,
		},
	}
}

// Get returns a param or "".
func (m Message) Get(key string) string {
	return m.Params[key]
}

// Keys returns param keys in a stable order.
func (m Message) Keys() []string {
	keys := make([]string, 0, len(m.Params))
	for k := range m.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HTTPError is a non-2xx response from a relay.
type HTTPError struct {
	Code int
	Body string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http %d", e.Code)
	}
	return fmt.Sprintf("http %d: %s", e.Code, e.Body)
}

// IsHTTPError checks if the error is an HTTPError.
func IsHTTPError(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

// ErrNotConfigured is returned by relays missing credentials.
var ErrNotConfigured = errors.New("messaging: relay not configured")
