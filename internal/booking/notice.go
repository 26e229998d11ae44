package booking

import (
	"fmt"
	"time"
)

// Variant mirrors the toast styles of the host view.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Notice is a user-facing notification.
type Notice struct {
	Variant     Variant `json:"variant"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
}

const longDateLayout = "Monday, January 2, 2006"

// FormatDate renders a date as "Monday, October 26, 2026".
func FormatDate(d time.Time) string {
	return d.Format(longDateLayout)
}

// FormatDateTime renders the booking datetime sent to the site owner.
func FormatDateTime(d time.Time, slot, timezone string) string {
	return fmt.Sprintf("%s at %s (%s)", FormatDate(d), slot, timezone)
}

func successNotice(d time.Time, slot string) Notice {
	return Notice{
		Variant: VariantDefault,
		Title:   "Call Request Sent Successfully! 🎉",
		Description: fmt.Sprintf(
			"We’ve received your request for a call on %s at %s. You’ll receive an official invite once it’s confirmed.",
			FormatDate(d), slot),
	}
}

func failureNotice() Notice {
	return Notice{
		Variant:     VariantDestructive,
		Title:       "Failed to Schedule Call",
		Description: "Something went wrong while sending your request. Please try again.",
	}
}

func missingDateTime() *ValidationError {
	return &ValidationError{
		Reason: ReasonMissingDateTime,
		Notice: Notice{
			Variant:     VariantDestructive,
			Title:       "Missing Date/Time",
			Description: "Please select both date and time before submitting.",
		},
	}
}

func missingCallType() *ValidationError {
	return &ValidationError{
		Reason: ReasonMissingCallType,
		Field:  FieldCallType,
		Notice: Notice{
			Variant:     VariantDestructive,
			Title:       "Missing Call Type",
			Description: "Please select a call type.",
		},
	}
}

var fieldLabels = map[Field]string{
	FieldName:    "full name",
	FieldEmail:   "email address",
	FieldMessage: "message",
}

func missingField(f Field) *ValidationError {
	return &ValidationError{
		Reason: ReasonMissingField,
		Field:  f,
		Notice: Notice{
			Variant:     VariantDestructive,
			Title:       "Missing Details",
			Description: fmt.Sprintf("Please fill in your %s.", fieldLabels[f]),
		},
	}
}

func invalidEmail() *ValidationError {
	return &ValidationError{
		Reason: ReasonInvalidEmail,
		Field:  FieldEmail,
		Notice: Notice{
			Variant:     VariantDestructive,
			Title:       "Invalid Email",
			Description: "Please enter a valid email address.",
		},
	}
}
