package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "folio",
			Name:      "booking_submissions_total",
			Help:      "Count of call booking submissions by result.",
		},
		[]string{"result"},
	)

	bookingValidationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "folio",
			Name:      "booking_validation_failures_total",
			Help:      "Count of rejected booking submissions by reason.",
		},
		[]string{"reason"},
	)

	bookingSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "folio",
			Name:      "booking_sessions_open",
			Help:      "Number of open booking dialogs.",
		},
	)

	contactMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "folio",
			Name:      "contact_messages_total",
			Help:      "Count of contact form submissions by result.",
		},
		[]string{"result"},
	)

	deliveryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "folio",
			Name:      "delivery_duration_seconds",
			Help:      "Time spent delivering messages to the relay.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2, 5, 10, 30},
		},
		[]string{"kind"},
	)

	rateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "folio",
			Name:      "rate_limited_total",
			Help:      "Count of submissions rejected by the rate limiter.",
		},
		[]string{"scope"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			bookingSubmissions,
			bookingValidationFailures,
			bookingSessions,
			contactMessages,
			deliveryDuration,
			rateLimited,
		)
	})
}

func IncBookingSubmission(result string) {
	bookingSubmissions.WithLabelValues(result).Inc()
}

func IncBookingValidationFailure(reason string) {
	bookingValidationFailures.WithLabelValues(reason).Inc()
}

func SetBookingSessions(n int) {
	bookingSessions.Set(float64(n))
}

func IncContactMessage(result string) {
	contactMessages.WithLabelValues(result).Inc()
}

func ObserveDelivery(kind string, d time.Duration) {
	deliveryDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func IncRateLimited(scope string) {
	rateLimited.WithLabelValues(scope).Inc()
}
