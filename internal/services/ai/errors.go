// File: internal/services/ai/errors.go
package ai

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrTypeProviderUnavailable ErrorType = "PROVIDER_UNAVAILABLE"
	ErrTypeEmptyCompletion     ErrorType = "EMPTY_COMPLETION"
	ErrTypeTimeout             ErrorType = "TIMEOUT"
)

// ErrNoContent is returned by providers when a call succeeded but produced no text.
var ErrNoContent = errors.New("completion has no content")

// GatewayError is the only error type Gateway.Complete returns.
type GatewayError struct {
	Type     ErrorType
	Provider string
	Message  string
	Cause    error
}

func (e *GatewayError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("AI %s error from %s: %s (caused by: %v)",
			e.Type, e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("AI %s error from %s: %s", e.Type, e.Provider, e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.Cause
}

// StatusCode maps the error onto the HTTP status returned to chat clients.
func (e *GatewayError) StatusCode() int {
	if e.Type == ErrTypeEmptyCompletion {
		return http.StatusInternalServerError
	}
	return http.StatusServiceUnavailable
}

func NewProviderUnavailableError(provider string, cause error) *GatewayError {
	return &GatewayError{Type: ErrTypeProviderUnavailable, Provider: provider, Message: "provider request failed", Cause: cause}
}

func NewEmptyCompletionError(provider string) *GatewayError {
	return &GatewayError{Type: ErrTypeEmptyCompletion, Provider: provider, Message: "provider returned an empty completion"}
}

func NewTimeoutError(provider string, cause error) *GatewayError {
	return &GatewayError{Type: ErrTypeTimeout, Provider: provider, Message: "provider did not answer in time", Cause: cause}
}
