package fetch

import "time"

// Attempt outcomes reported to a Recorder.
const (
	OutcomeOK             = "ok"
	OutcomeTransport      = "transport"
	OutcomeClientError    = "http_4xx"
	OutcomeServerError    = "http_5xx"
	OutcomeUnusable       = "unusable"
	OutcomeSessionExpired = "session_expired"
	OutcomeExhausted      = "exhausted"
	OutcomeCanceled       = "canceled"
)

// Recorder observes every network attempt and every mock substitution.
type Recorder interface {
	ObserveAttempt(tier, resource, outcome string, d time.Duration)
	ObserveMock(resource string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAttempt(string, string, string, time.Duration) {}
func (nopRecorder) ObserveMock(string)                                   {}
