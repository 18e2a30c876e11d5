package translate

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyResult is returned when the service answered with no text.
	ErrEmptyResult = errors.New("translate: empty result")

	// ErrUnsupportedLanguage is returned for codes the service cannot parse.
	ErrUnsupportedLanguage = errors.New("translate: unsupported language")
)

// APIError represents a non-2xx response from a translation endpoint.
type APIError struct {
	StatusCode int
	Message    string
	Provider   string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("translate [%s]: API error %d: %s", e.Provider, e.StatusCode, e.Message)
}

// IsRateLimited returns true for HTTP 429.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == 429
}

// ProviderError wraps an error with provider context.
type ProviderError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("translate [%s]: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// WrapError wraps err with provider context. Errors already carrying
// context are returned unchanged.
func WrapError(provider string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	var ae *APIError
	if errors.As(err, &pe) || errors.As(err, &ae) {
		return err
	}
	return &ProviderError{Provider: provider, Err: err}
}
