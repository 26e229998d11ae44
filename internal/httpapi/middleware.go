package httpapi

import (
	"net/http"
	"time"

	"folio/internal/booking"
	"folio/internal/metrics"

	"github.com/gin-gonic/gin"
)

var rateLimitedNotice = booking.Notice{
	Variant:     booking.VariantDestructive,
	Title:       "Too Many Requests",
	Description: "You've sent several requests in a short time. Please try again later.",
}

// allow charges one attempt against the client IP within scope and writes a
// 429 when the budget is spent. Limiter errors let the request through.
func (s *Server) allow(c *gin.Context, scope string) bool {
	ip := c.ClientIP()
	ok, err := s.limiter.Allow(c.Request.Context(), scope, ip)
	if err != nil {
		s.logger.Warn().Err(err).Str("scope", scope).Msg("rate limiter unavailable")
	}
	if !ok {
		metrics.IncRateLimited(scope)
		s.logger.Warn().Str("scope", scope).Str("ip", ip).Msg("rate limit exceeded")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"notice": rateLimitedNotice})
		return false
	}
	return true
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		ev := s.logger.Debug()
		if c.Writer.Status() >= http.StatusInternalServerError {
			ev = s.logger.Warn()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(started)).
			Msg("request")
	}
}
