package collectors

import (
	"errors"
	"fmt"
)

// Error taxonomy for the acquisition framework. Collectors classify every
// failure into exactly one of these categories so callers can tell a fatal
// misconfiguration apart from a transient provider outage or bad input.

// ConfigError reports missing or invalid configuration (credentials, tokens).
// Never retried; surfaced before any network call.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// NewConfigError builds a ConfigError for a missing/invalid setting.
func NewConfigError(field, reason string) *ConfigError {
	return &ConfigError{Field: field, Reason: reason}
}

// TransientError marks a provider failure worth retrying: network errors,
// 5xx responses, rate-limit responses, failed remote jobs.
type TransientError struct {
	Provider string
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient: %v", e.Provider, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as retryable, attributed to provider.
func Transient(provider string, err error) *TransientError {
	return &TransientError{Provider: provider, Err: err}
}

// RetryExhaustedError is the terminal failure after all retry attempts.
type RetryExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("exhausted retries after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Last }

// NormalizationError reports a raw payload that could not be mapped into the
// canonical schema. Not retried; the affected record is dropped and siblings
// continue.
type NormalizationError struct {
	Source  string
	Missing []string
	Reason  string
}

func (e *NormalizationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("normalize %s: %s (missing fields: %v)", e.Source, e.Reason, e.Missing)
	}
	return fmt.Sprintf("normalize %s: %s", e.Source, e.Reason)
}

// ValidationError reports a schema mismatch on a normalized mapping.
type ValidationError struct {
	Table string
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate %s: field %q failed schema check", e.Table, e.Field)
}

// DomainError rejects invalid caller input before any I/O happens.
type DomainError struct {
	Reason string
}

func (e *DomainError) Error() string { return "invalid input: " + e.Reason }

// IsRetryable reports whether err should go through another retry attempt.
// Only transient provider failures qualify; configuration, normalization,
// validation and domain errors abort immediately.
func IsRetryable(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
