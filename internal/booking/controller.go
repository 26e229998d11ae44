package booking

import (
	"context"
	"fmt"
	"net/mail"
	"os"
	"strings"
	"sync"
	"time"

	"folio/internal/messaging"
	"folio/internal/metrics"
	"folio/internal/slots"

	"github.com/rs/zerolog"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// Locale supplies the visitor's IANA timezone name.
type Locale interface {
	Timezone() string
}

// StaticLocale is a fixed timezone name.
type StaticLocale string

func (l StaticLocale) Timezone() string { return string(l) }

// SystemLocale returns the process timezone.
func SystemLocale() Locale {
	name := time.Local.String()
	if name == "Local" {
		name = os.Getenv("TZ")
	}
	if name == "" {
		name = "UTC"
	}
	return StaticLocale(name)
}

// Field identifies an editable contact field.
type Field string

const (
	FieldName     Field = "name"
	FieldEmail    Field = "email"
	FieldCallType Field = "callType"
	FieldMessage  Field = "message"
	FieldTimezone Field = "timezone"
)

// Contact holds the details entered in the last step.
type Contact struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	CallType CallType `json:"callType"`
	Message  string   `json:"message"`
	Timezone string   `json:"timezone"`
}

// Snapshot is the state exposed to the host view.
type Snapshot struct {
	Step         Step    `json:"step"`
	SelectedDate string  `json:"selectedDate,omitempty"` // YYYY-MM-DD
	SelectedTime string  `json:"selectedTime,omitempty"`
	Contact      Contact `json:"contact"`
	IsSubmitting bool    `json:"isSubmitting"`
	Closed       bool    `json:"closed"`
}

// Options configures a Controller.
type Options struct {
	Clock         Clock
	Locale        Locale
	Messenger     messaging.Messenger
	Slots         []string
	SubmitTimeout time.Duration
	Logger        *zerolog.Logger
}

// DefaultSubmitTimeout bounds a single outbound booking request.
const DefaultSubmitTimeout = 20 * time.Second

// Controller owns one booking dialog.
type Controller struct {
	mu sync.Mutex

	fsm       *FSM
	clock     Clock
	loc       *time.Location
	messenger messaging.Messenger
	slots     []string
	timeout   time.Duration
	logger    zerolog.Logger

	step       Step
	date       time.Time // zero until picked
	slot       string
	contact    Contact
	submitting bool
	closed     bool
}

// NewController opens a dialog. The timezone is read from the locale once.
func NewController(opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	if opts.Locale == nil {
		opts.Locale = SystemLocale()
	}
	if len(opts.Slots) == 0 {
		opts.Slots = slots.MustLabels(slots.DefaultSchedule())
	}
	if opts.SubmitTimeout <= 0 {
		opts.SubmitTimeout = DefaultSubmitTimeout
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	tz := opts.Locale.Timezone()
	loc, err := time.LoadLocation(tz)
	if err != nil || tz == "" {
		loc = opts.Clock.Now().Location()
	}

	c := &Controller{
		fsm:       NewFSM(),
		clock:     opts.Clock,
		loc:       loc,
		messenger: opts.Messenger,
		slots:     opts.Slots,
		timeout:   opts.SubmitTimeout,
		logger:    logger.With().Str("component", "booking").Logger(),
	}
	c.resetLocked(tz)
	return c
}

func (c *Controller) resetLocked(tz string) {
	c.step = StepDate
	c.date = time.Time{}
	c.slot = ""
	c.contact = Contact{Timezone: tz}
}

// Slots returns the selectable time labels.
func (c *Controller) Slots() []string {
	return append([]string(nil), c.slots...)
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Step:         c.step,
		SelectedTime: c.slot,
		Contact:      c.contact,
		IsSubmitting: c.submitting,
		Closed:       c.closed,
	}
	if !c.date.IsZero() {
		s.SelectedDate = c.date.Format("2006-01-02")
	}
	return s
}

// SelectedDate returns the picked date, if any.
func (c *Controller) SelectedDate() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.date, !c.date.IsZero()
}

// Step returns the current step.
func (c *Controller) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// IsSubmitting reports whether a submission is in flight.
func (c *Controller) IsSubmitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

// Closed reports whether the dialog was submitted or cancelled.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// SelectDate records d's calendar date and advances to time selection.
// Weekends and dates before today are ignored; the result reports whether
// the date was taken.
func (c *Controller) SelectDate(d time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.submitting || c.step != StepDate || d.IsZero() {
		return false
	}

	y, m, day := d.Date()
	date := time.Date(y, m, day, 0, 0, 0, 0, c.loc)
	if !slots.IsSelectableDate(date, c.clock.Now().In(c.loc)) {
		return false
	}

	c.date = date
	c.step = StepTime
	return true
}

// SelectTime records a slot and advances to the details step. Slots are
// never checked against earlier bookings.
func (c *Controller) SelectTime(slot string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.mutableLocked(); err != nil {
		return err
	}
	if c.step != StepTime || !c.fsm.CanTransition(c.step, StepDetails) {
		return ErrWrongStep
	}
	if !slots.Contains(c.slots, slot) {
		return fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
	}

	c.slot = slot
	c.step = StepDetails
	return nil
}

// Back returns to the previous step. Leaving the time step discards the
// selected slot; leaving details keeps everything.
func (c *Controller) Back() Step {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mutableLocked() != nil {
		return c.step
	}

	prev := previous(c.step)
	if prev == c.step || !c.fsm.CanTransition(c.step, prev) {
		return c.step
	}
	if c.step == StepTime {
		c.slot = ""
	}
	c.step = prev
	return c.step
}

// UpdateContactField merges a value into the contact details. Values are
// validated on submit, except call type which must be a known label.
func (c *Controller) UpdateContactField(field Field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.mutableLocked(); err != nil {
		return err
	}

	switch field {
	case FieldName:
		c.contact.Name = value
	case FieldEmail:
		c.contact.Email = value
	case FieldMessage:
		c.contact.Message = value
	case FieldCallType:
		ct, err := ParseCallType(value)
		if err != nil {
			return err
		}
		c.contact.CallType = ct
	case FieldTimezone:
		return fmt.Errorf("%w: %s", ErrFieldNotEditable, field)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// Cancel discards the dialog without contacting anyone.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resetLocked(c.contact.Timezone)
	c.closed = true
}

func (c *Controller) mutableLocked() error {
	if c.closed {
		return ErrClosed
	}
	if c.submitting {
		return ErrSubmitInProgress
	}
	return nil
}

// validateLocked checks submit preconditions in order.
func (c *Controller) validateLocked() *ValidationError {
	if c.date.IsZero() || c.slot == "" {
		return missingDateTime()
	}
	if c.contact.CallType == CallTypeNone {
		return missingCallType()
	}
	required := []struct {
		field Field
		value string
	}{
		{FieldName, c.contact.Name},
		{FieldEmail, c.contact.Email},
		{FieldMessage, c.contact.Message},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return missingField(r.field)
		}
	}
	if !ValidEmail(c.contact.Email) {
		return invalidEmail()
	}
	return nil
}

// checkLocked reports why a submit would be rejected without sending.
func (c *Controller) checkLocked() error {
	if err := c.mutableLocked(); err != nil {
		return err
	}
	if c.step != StepDetails {
		return ErrWrongStep
	}
	if vErr := c.validateLocked(); vErr != nil {
		return vErr
	}
	return nil
}

// Check runs the submit preconditions without sending anything. It returns
// the same notice and error Submit would return for a rejected dialog, and
// counts validation failures the same way.
func (c *Controller) Check() (Notice, error) {
	c.mu.Lock()
	err := c.checkLocked()
	c.mu.Unlock()
	return rejected(err)
}

func rejected(err error) (Notice, error) {
	if err == nil {
		return Notice{}, nil
	}
	if vErr, ok := IsValidationError(err); ok {
		metrics.IncBookingValidationFailure(vErr.Reason)
		return vErr.Notice, vErr
	}
	return Notice{}, err
}

// Submit validates the dialog and sends one booking request. It is only
// accepted in the details step. Validation failures return a
// *ValidationError; a failed send returns a *DeliveryError and keeps the
// state for a retry. On success the dialog is reset and closed.
func (c *Controller) Submit(ctx context.Context) (Notice, error) {
	c.mu.Lock()
	if err := c.checkLocked(); err != nil {
		c.mu.Unlock()
		return rejected(err)
	}

	date, slot, contact := c.date, c.slot, c.contact
	msg := messaging.BookingMessage(
		strings.TrimSpace(contact.Name),
		strings.TrimSpace(contact.Email),
		FormatDateTime(date, slot, contact.Timezone),
		string(contact.CallType),
		contact.Message,
	)
	c.submitting = true
	c.mu.Unlock()

	started := time.Now()
	err := c.dispatch(ctx, msg)
	metrics.ObserveDelivery(string(messaging.KindBooking), time.Since(started))

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false

	if err != nil {
		c.logger.Error().Err(err).
			Str("date", date.Format("2006-01-02")).
			Str("slot", slot).
			Msg("booking request delivery failed")
		metrics.IncBookingSubmission("failed")
		return failureNotice(), &DeliveryError{Err: err}
	}

	c.logger.Info().
		Str("date", date.Format("2006-01-02")).
		Str("slot", slot).
		Str("call_type", string(contact.CallType)).
		Msg("booking request sent")
	metrics.IncBookingSubmission("sent")

	c.resetLocked(contact.Timezone)
	c.closed = true
	return successNotice(date, slot), nil
}

// dispatch calls the messenger with a deadline, turning panics into errors.
func (c *Controller) dispatch(ctx context.Context, msg messaging.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("messenger panic: %v", r)
		}
	}()

	if c.messenger == nil {
		return messaging.ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.messenger.Send(ctx, msg)
}

// ValidEmail reports whether s is a bare address such as a@b.com.
func ValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
