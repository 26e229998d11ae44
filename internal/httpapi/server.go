// Package httpapi exposes the booking dialog and contact form as a JSON API
// for the site front end.
package httpapi

import (
	"net/http"
	"time"

	"folio/internal/booking"
	"folio/internal/contact"
	"folio/internal/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Deps are the services behind the API.
type Deps struct {
	Store           *booking.Store
	Contact         *contact.Service
	Limiter         *ratelimit.Limiter
	Slots           []string
	Clock           booking.Clock
	DefaultTimezone string
	CORSOrigins     []string
	Logger          *zerolog.Logger
}

type Server struct {
	store    *booking.Store
	contact  *contact.Service
	limiter  *ratelimit.Limiter
	slots    []string
	clock    booking.Clock
	timezone string
	logger   zerolog.Logger
}

// New builds the gin engine with all routes registered.
func New(d Deps) *gin.Engine {
	s := &Server{
		store:    d.Store,
		contact:  d.Contact,
		limiter:  d.Limiter,
		slots:    d.Slots,
		clock:    d.Clock,
		timezone: d.DefaultTimezone,
		logger:   zerolog.Nop(),
	}
	if s.clock == nil {
		s.clock = booking.SystemClock
	}
	if d.Logger != nil {
		s.logger = d.Logger.With().Str("component", "httpapi").Logger()
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  d.CORSOrigins,
			AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type"},
			ExposeHeaders: []string{"Content-Length"},
			MaxAge:        12 * time.Hour,
		}))
	}

	s.registerBookingRoutes(r)
	s.registerContactRoutes(r)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return r
}

func (s *Server) registerBookingRoutes(r *gin.Engine) {
	api := r.Group("/api/booking")
	{
		api.GET("/slots", s.handleSlots)
		api.GET("/calendar", s.handleCalendar)
		api.POST("/sessions", s.handleOpenSession)

		session := api.Group("/sessions/:id")
		session.GET("", s.handleGetSession)
		session.POST("/date", s.handleSelectDate)
		session.POST("/time", s.handleSelectTime)
		session.POST("/back", s.handleBack)
		session.PATCH("/contact", s.handleUpdateContact)
		session.POST("/submit", s.handleSubmit)
		session.DELETE("", s.handleCancel)
	}
}

func (s *Server) registerContactRoutes(r *gin.Engine) {
	r.POST("/api/contact", s.handleContact)
}
