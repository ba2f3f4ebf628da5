package core

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrConfiguration is matched by every ConfigurationError
	ErrConfiguration = errors.New("invalid configuration")
	// ErrBackendUnavailable is matched by every BackendUnavailableError
	ErrBackendUnavailable = errors.New("verification backend unavailable")
)

// TransportError is returned when the request never produced an HTTP response
// (connection refused, DNS failure, reset)
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// TimeoutError is returned when an attempt exceeded its deadline
type TimeoutError struct {
	Op    string
	After time.Duration
	Err   error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timed out after %s", e.Op, e.After)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// BackendError is returned for a non-2xx response
type BackendError struct {
	Email      string
	StatusCode int
	Status     string
	Body       string
}

func (e *BackendError) Error() string {
	if e.Email == "" {
		return fmt.Sprintf("backend responded with status %s: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("backend responded with status %s for %q: %s", e.Status, e.Email, e.Body)
}

// ExhaustedRetriesError is the terminal failure of the retry policy
type ExhaustedRetriesError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedRetriesError) Unwrap() error {
	return e.Last
}

// ConfigurationError reports an invalid or missing run setting
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// BackendUnavailableError is returned when the availability gate ran out of probes
type BackendUnavailableError struct {
	Probes int
}

func (e *BackendUnavailableError) Error() string {
	return fmt.Sprintf("verification backend not ready after %d health probes", e.Probes)
}

func (e *BackendUnavailableError) Is(target error) bool {
	return target == ErrBackendUnavailable
}

// IncompleteRunError is returned when the run was interrupted before every item started
type IncompleteRunError struct {
	Skipped int
	Err     error
}

func (e *IncompleteRunError) Error() string {
	return fmt.Sprintf("run interrupted with %d items not started: %v", e.Skipped, e.Err)
}

func (e *IncompleteRunError) Unwrap() error {
	return e.Err
}
