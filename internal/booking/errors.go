package booking

import (
	"errors"
	"fmt"
)

var (
	ErrWrongStep        = errors.New("booking: operation not allowed in current step")
	ErrUnknownSlot      = errors.New("booking: unknown time slot")
	ErrUnknownField     = errors.New("booking: unknown contact field")
	ErrFieldNotEditable = errors.New("booking: field is not editable")
	ErrUnknownCallType  = errors.New("booking: unknown call type")
	ErrSubmitInProgress = errors.New("booking: submission already in progress")
	ErrClosed           = errors.New("booking: dialog closed")
)

// Validation failure reasons.
const (
	ReasonMissingDateTime = "missing_date_time"
	ReasonMissingCallType = "missing_call_type"
	ReasonMissingField    = "missing_field"
	ReasonInvalidEmail    = "invalid_email"
)

// ValidationError is a local, recoverable submit rejection. The messenger is
// never called when one is returned.
type ValidationError struct {
	Reason string
	Field  Field // set for missing_field and invalid_email
	Notice Notice
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("booking validation: %s (%s)", e.Reason, e.Field)
	}
	return "booking validation: " + e.Reason
}

// DeliveryError wraps a failed outbound send. Err carries the technical
// cause, which is for logs only.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("booking delivery failed: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// IsValidationError checks if the error is a ValidationError.
func IsValidationError(err error) (*ValidationError, bool) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr, true
	}
	return nil, false
}

// IsDeliveryError checks if the error is a DeliveryError.
func IsDeliveryError(err error) (*DeliveryError, bool) {
	var dErr *DeliveryError
	if errors.As(err, &dErr) {
		return dErr, true
	}
	return nil, false
}
