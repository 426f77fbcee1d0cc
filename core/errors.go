package core

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrUnusableBody is returned when a response body cannot be normalized into a page of records.
	ErrUnusableBody = errors.New("unusable response body")

	// ErrStaleResponse is returned alongside a result when a newer request for the same view was issued
	// before this one completed. The result should be discarded.
	ErrStaleResponse = errors.New("stale response discarded")

	// ErrNotFound is returned when a single record was requested and none matched.
	ErrNotFound = errors.New("record not found")
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is a rejection of a write by the backend (4xx), or of a request
// that failed local validation before it was sent.
type ValidationError struct {
	Err     error
	Status  int
	Message string
	Fields  []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (err ValidationError) Error() string {
	if err.Message != "" {
		return err.Message
	}
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

func (err ValidationError) Unwrap() error { return err.Err }

// FieldMap returns the field errors keyed by field name.
func (err ValidationError) FieldMap() map[string]string {
	m := make(map[string]string, len(err.Fields))
	for _, f := range err.Fields {
		m[f.Field] = f.Error
	}
	return m
}

// TransportError is a failed network call on a single tier (timeout, DNS, connection refused).
type TransportError struct {
	Tier string
	URL  string
	Err  error
}

func (err *TransportError) Error() string {
	return fmt.Sprintf("%s transport %s: %v", err.Tier, err.URL, err.Err)
}

func (err *TransportError) Unwrap() error { return err.Err }

// HTTPError is a non-2xx response that is not classified as any other error kind.
// Status and the backend provided message are preserved.
type HTTPError struct {
	Status  int
	Message string
	Body    []byte
}

func (err *HTTPError) Error() string {
	msg := err.Message
	if msg == "" {
		msg = http.StatusText(err.Status)
	}
	return fmt.Sprintf("http %d: %s", err.Status, msg)
}

// TierFailure is the last error seen on one tier of the read chain.
type TierFailure struct {
	Tier string
	Err  error
}

// AllTransportsFailedError is returned when every tier failed and no fallback data was supplied.
type AllTransportsFailedError struct {
	Resource string
	Failures []TierFailure
}

func (err *AllTransportsFailedError) Error() string {
	parts := make([]string, 0, len(err.Failures))
	for _, f := range err.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Tier, f.Err))
	}
	return fmt.Sprintf("all transports failed for %s [%s]", err.Resource, strings.Join(parts, "; "))
}

// Last returns the error of the last attempted tier.
func (err *AllTransportsFailedError) Last() error {
	if len(err.Failures) == 0 {
		return nil
	}
	return err.Failures[len(err.Failures)-1].Err
}

// ConnectionExhaustedError is returned when the backend signals it ran out of database connections.
// It is never retried by the engine.
type ConnectionExhaustedError struct {
	Err error
}

func (err *ConnectionExhaustedError) Error() string {
	return "backend connections exhausted, try again later: " + err.Err.Error()
}

func (err *ConnectionExhaustedError) Unwrap() error { return err.Err }

// SessionExpiredError is returned when a credentialed request is answered with 401.
// The session is left untouched: deciding to log out is up to the caller.
type SessionExpiredError struct {
	Err error
}

func (err *SessionExpiredError) Error() string {
	return "session expired: " + err.Err.Error()
}

func (err *SessionExpiredError) Unwrap() error { return err.Err }

// ConfigurationError is a programming error: a resource or action missing from the endpoint registry.
type ConfigurationError struct {
	Profile  string
	Resource string
	Action   string
	Msg      string
}

func (err *ConfigurationError) Error() string {
	msg := err.Msg
	if msg == "" {
		msg = "not registered"
	}
	return fmt.Sprintf("endpoint %s.%s (profile %q): %s", err.Resource, err.Action, err.Profile, msg)
}

func IsTransport(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

func IsSessionExpired(err error) bool {
	var target *SessionExpiredError
	return errors.As(err, &target)
}

func IsConnectionExhausted(err error) bool {
	var target *ConnectionExhaustedError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

func IsAllTransportsFailed(err error) bool {
	var target *AllTransportsFailedError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is ErrNotFound or an HTTP 404.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var herr *HTTPError
	return errors.As(err, &herr) && herr.Status == http.StatusNotFound
}
