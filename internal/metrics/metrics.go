package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	codesIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "runease_otp_issued_total",
			Help: "Total number of verification codes persisted",
		},
	)

	verifyAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runease_otp_verify_total",
			Help: "Verification attempts by outcome",
		},
		[]string{"outcome"},
	)

	emailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runease_email_sent_total",
			Help: "Verification emails by transport and result",
		},
		[]string{"transport", "result"},
	)

	emailSendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "runease_email_send_duration_seconds",
			Help:    "Email sending duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"transport"},
	)
)

// Verify outcomes.
const (
	OutcomeVerified    = "verified"
	OutcomeInvalidCode = "invalid_code"
	OutcomeExpired     = "expired"
	OutcomeNotFound    = "not_found"
	OutcomeRejected    = "rejected"
	OutcomeError       = "error"
)

// RecordCodeIssued counts a code written to storage.
func RecordCodeIssued() {
	codesIssuedTotal.Inc()
}

// RecordVerify counts a verification attempt.
func RecordVerify(outcome string) {
	verifyAttemptsTotal.WithLabelValues(outcome).Inc()
}

// RecordEmail records an email send attempt and how long it took.
func RecordEmail(transport string, err error, took time.Duration) {
	result := "ok"
	if err != nil {
		result = "failed"
	}
	emailsSentTotal.WithLabelValues(transport, result).Inc()
	emailSendDuration.WithLabelValues(transport).Observe(took.Seconds())
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
