package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"folio/internal/booking"
	"folio/internal/slots"

	"github.com/gin-gonic/gin"
)

type sessionResponse struct {
	ID string `json:"id"`
	booking.Snapshot
}

type dateResponse struct {
	Accepted bool `json:"accepted"`
	sessionResponse
}

func (s *Server) handleSlots(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"slots": s.slots})
}

func (s *Server) handleCalendar(c *gin.Context) {
	loc, err := s.location(c.Query("timezone"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid timezone"})
		return
	}
	now := s.clock.Now().In(loc)

	year, month := now.Year(), int(now.Month())
	if v := c.Query("year"); v != "" {
		if year, err = strconv.Atoi(v); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
			return
		}
	}
	if v := c.Query("month"); v != "" {
		if month, err = strconv.Atoi(v); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month"})
			return
		}
	}

	grid, err := slots.BuildMonth(year, month, now)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, grid)
}

func (s *Server) handleOpenSession(c *gin.Context) {
	var input struct {
		Timezone string `json:"timezone"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
			return
		}
	}

	tz := input.Timezone
	if tz == "" {
		tz = s.timezone
	}
	var locale booking.Locale
	if tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid timezone"})
			return
		}
		locale = booking.StaticLocale(tz)
	}

	id, ctrl := s.store.Open(locale)
	c.JSON(http.StatusCreated, sessionResponse{ID: id, Snapshot: ctrl.Snapshot()})
}

// session loads the dialog named in the path or writes a 404.
func (s *Server) session(c *gin.Context) (string, *booking.Controller, bool) {
	id := c.Param("id")
	ctrl, ok := s.store.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "booking session not found or expired"})
		return id, nil, false
	}
	return id, ctrl, true
}

func (s *Server) handleGetSession(c *gin.Context) {
	id, ctrl, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sessionResponse{ID: id, Snapshot: ctrl.Snapshot()})
}

func (s *Server) handleSelectDate(c *gin.Context) {
	id, ctrl, ok := s.session(c)
	if !ok {
		return
	}
	var input struct {
		Date string `json:"date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	d, err := time.Parse("2006-01-02", input.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	accepted := ctrl.SelectDate(d)
	c.JSON(http.StatusOK, dateResponse{
		Accepted:        accepted,
		sessionResponse: sessionResponse{ID: id, Snapshot: ctrl.Snapshot()},
	})
}

func (s *Server) handleSelectTime(c *gin.Context) {
	id, ctrl, ok := s.session(c)
	if !ok {
		return
	}
	var input struct {
		Slot string `json:"slot" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if err := ctrl.SelectTime(input.Slot); err != nil {
		writeControllerError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{ID: id, Snapshot: ctrl.Snapshot()})
}

func (s *Server) handleBack(c *gin.Context) {
	id, ctrl, ok := s.session(c)
	if !ok {
		return
	}
	ctrl.Back()
	c.JSON(http.StatusOK, sessionResponse{ID: id, Snapshot: ctrl.Snapshot()})
}

func (s *Server) handleUpdateContact(c *gin.Context) {
	id, ctrl, ok := s.session(c)
	if !ok {
		return
	}
	var input struct {
		Field string `json:"field" binding:"required"`
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if err := ctrl.UpdateContactField(booking.Field(input.Field), input.Value); err != nil {
		writeControllerError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{ID: id, Snapshot: ctrl.Snapshot()})
}

// handleSubmit only charges the rate limit for dialogs that pass validation,
// so correcting a rejected form never locks the visitor out.
func (s *Server) handleSubmit(c *gin.Context) {
	id, ctrl, ok := s.session(c)
	if !ok {
		return
	}

	if notice, err := ctrl.Check(); err != nil {
		writeSubmitError(c, notice, err)
		return
	}
	if !s.allow(c, "booking") {
		return
	}

	notice, err := ctrl.Submit(c.Request.Context())
	if err != nil {
		writeSubmitError(c, notice, err)
		return
	}
	s.store.Forget(id)
	c.JSON(http.StatusOK, gin.H{"notice": notice})
}

func writeSubmitError(c *gin.Context, notice booking.Notice, err error) {
	if vErr, ok := booking.IsValidationError(err); ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"notice": notice,
			"reason": vErr.Reason,
			"field":  vErr.Field,
		})
		return
	}
	if _, ok := booking.IsDeliveryError(err); ok {
		c.JSON(http.StatusBadGateway, gin.H{"notice": notice})
		return
	}
	writeControllerError(c, err)
}

func (s *Server) handleCancel(c *gin.Context) {
	if !s.store.Close(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "booking session not found or expired"})
		return
	}
	c.Status(http.StatusNoContent)
}

func writeControllerError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, booking.ErrUnknownSlot),
		errors.Is(err, booking.ErrUnknownField),
		errors.Is(err, booking.ErrFieldNotEditable),
		errors.Is(err, booking.ErrUnknownCallType):
		status = http.StatusBadRequest
	case errors.Is(err, booking.ErrWrongStep),
		errors.Is(err, booking.ErrSubmitInProgress):
		status = http.StatusConflict
	case errors.Is(err, booking.ErrClosed):
		status = http.StatusGone
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *Server) location(tz string) (*time.Location, error) {
	if tz == "" {
		tz = s.timezone
	}
	if tz == "" {
		return s.clock.Now().Location(), nil
	}
	return time.LoadLocation(tz)
}
