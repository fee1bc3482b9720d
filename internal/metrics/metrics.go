package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	reservationCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roombook",
			Name:      "reservation_created_total",
			Help:      "Count of reservation create attempts by status.",
		},
		[]string{"status"},
	)

	reservationCancelled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roombook",
			Name:      "reservation_cancelled_total",
			Help:      "Count of reservation cancel attempts by status.",
		},
		[]string{"status"},
	)

	invalidRange = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "roombook",
			Name:      "invalid_range_total",
			Help:      "Count of selections rejected for covering an unavailable slot.",
		},
	)

	fetchFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "roombook",
			Name:      "fetch_failures_total",
			Help:      "Count of failed page loads.",
		},
	)

	staleResponses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "roombook",
			Name:      "stale_responses_total",
			Help:      "Count of page loads discarded because a newer date was selected.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roombook",
			Name:      "http_requests_total",
			Help:      "Count of handled HTTP requests by route and status code.",
		},
		[]string{"route", "code"},
	)

	apiDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "roombook",
			Name:      "booking_api_request_duration_seconds",
			Help:      "Latency of booking service calls.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "roombook",
			Name:      "active_sessions",
			Help:      "Number of live page sessions.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			reservationCreated,
			reservationCancelled,
			invalidRange,
			fetchFailures,
			staleResponses,
			httpRequests,
			apiDuration,
			activeSessions,
		)
	})
}

func IncReservationCreated(status string) {
	reservationCreated.WithLabelValues(status).Inc()
}

func IncReservationCancelled(status string) {
	reservationCancelled.WithLabelValues(status).Inc()
}

func IncInvalidRange() {
	invalidRange.Inc()
}

func IncFetchFailure() {
	fetchFailures.Inc()
}

func IncStaleResponse() {
	staleResponses.Inc()
}

func IncHTTPRequest(route, code string) {
	httpRequests.WithLabelValues(route, code).Inc()
}

// ObserveAPI records the duration of a booking service call started at start.
func ObserveAPI(endpoint string, start time.Time) {
	apiDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}
