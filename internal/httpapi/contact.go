package httpapi

import (
	"errors"
	"net/http"

	"folio/internal/booking"
	"folio/internal/contact"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleContact(c *gin.Context) {
	var form contact.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	// Rejected forms are answered without touching the rate limit.
	if form.Validate() == nil && !s.allow(c, "contact") {
		return
	}

	notice, err := s.contact.Submit(c.Request.Context(), form)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"notice": notice})
		return
	}

	var vErr *contact.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"notice": notice, "field": vErr.Field})
		return
	}
	if _, ok := booking.IsDeliveryError(err); ok {
		c.JSON(http.StatusBadGateway, gin.H{"notice": notice})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"notice": notice})
}
