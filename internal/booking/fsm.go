// Package booking implements the call-scheduling dialog: a three-step wizard
// (date, time, details) that ends in one outbound booking request.
package booking

import "fmt"

// Step represents the current stage of the booking dialog.
type Step string

const (
	StepDate    Step = "date"
	StepTime    Step = "time"
	StepDetails Step = "details"
)

// FSM holds the allowed step transitions.
type FSM struct {
	transitions map[Step][]Step
}

// NewFSM creates a new FSM with predefined transitions.
func NewFSM() *FSM {
	return &FSM{
		transitions: map[Step][]Step{
			StepDate:    {StepTime},
			StepTime:    {StepDetails, StepDate},
			StepDetails: {StepTime, StepDate},
		},
	}
}

// CanTransition checks if transition is allowed.
func (f *FSM) CanTransition(from, to Step) bool {
	for _, s := range f.transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// previous returns the step Back leads to.
func previous(s Step) Step {
	switch s {
	case StepTime:
		return StepDate
	case StepDetails:
		return StepTime
	default:
		return s
	}
}

// StepTitles are the headings shown for each step.
var StepTitles = map[Step]string{
	StepDate:    "Select a Date",
	StepTime:    "Select a Time",
	StepDetails: "Your Details",
}

// CallType is the requested kind of call.
type CallType string

const (
	CallTypeNone     CallType = ""
	CallTypeVideo    CallType = "Video Call"
	CallTypeAudio    CallType = "Audio Call"
	CallTypeInPerson CallType = "In-Person"
)

// CallTypes lists selectable call types in display order.
var CallTypes = []CallType{CallTypeVideo, CallTypeAudio, CallTypeInPerson}

// ParseCallType accepts a display label. An empty value clears the choice.
func ParseCallType(s string) (CallType, error) {
	if s == "" {
		return CallTypeNone, nil
	}
	for _, ct := range CallTypes {
		if string(ct) == s {
			return ct, nil
		}
	}
	return CallTypeNone, fmt.Errorf("%w: %q", ErrUnknownCallType, s)
}
