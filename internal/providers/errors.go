package providers

import (
	"errors"
	"fmt"

	dErrors "socialkyc/pkg/domain-errors"
)

// ErrorCategory is the normalized failure taxonomy for upstream identity
// providers. Adapters classify failures into these categories so the
// dispatcher can translate them without inspecting provider payloads.
type ErrorCategory string

const (
	// ErrorTimeout indicates the provider took too long to respond
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorBadData indicates the provider returned invalid/malformed data
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorAuthentication indicates the authorization code or token was rejected
	ErrorAuthentication ErrorCategory = "authentication"

	// ErrorProviderOutage indicates the provider is unavailable or the circuit is open
	ErrorProviderOutage ErrorCategory = "provider_outage"

	// ErrorNotFound indicates the account lacks the requested resource (e.g. no channel)
	ErrorNotFound ErrorCategory = "not_found"

	// ErrorRateLimited indicates too many requests
	ErrorRateLimited ErrorCategory = "rate_limited"

	// ErrorInternal indicates an unexpected internal error
	ErrorInternal ErrorCategory = "internal"
)

// ProviderError wraps provider failures with normalized categorization.
type ProviderError struct {
	Category   ErrorCategory
	Provider   ProviderType
	Message    string
	Underlying error
	Retryable  bool // set for timeout, outage and rate-limited
}

func (e *ProviderError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("provider %s [%s]: %s: %v", e.Provider, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("provider %s [%s]: %s", e.Provider, e.Category, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

// NewProviderError creates a provider error with automatic retry classification.
// Nothing in this service retries locally; the flag tells the client whether
// starting over is worthwhile.
func NewProviderError(category ErrorCategory, provider ProviderType, message string, underlying error) *ProviderError {
	retryable := category == ErrorTimeout ||
		category == ErrorProviderOutage ||
		category == ErrorRateLimited

	return &ProviderError{
		Category:   category,
		Provider:   provider,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// IsRetryable checks if an error is worth retrying
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error
func GetCategory(err error) ErrorCategory {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ErrorInternal
}

// IsClientError reports failures caused by the caller's input rather than
// the provider's health. Circuit breakers do not count them.
func IsClientError(err error) bool {
	switch GetCategory(err) {
	case ErrorAuthentication, ErrorNotFound:
		return true
	}
	return false
}

// toDomainError translates provider failures into domain errors carrying a
// generic message. Every upstream failure is internal except a timeout.
// Domain errors pass through unchanged.
func toDomainError(err error) error {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		var de *dErrors.Error
		if errors.As(err, &de) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "provider confirmation failed")
	}
	if pe.Category == ErrorTimeout {
		return dErrors.New(dErrors.CodeTimeout, "provider did not respond in time")
	}
	return dErrors.New(dErrors.CodeInternal, "provider confirmation failed")
}
