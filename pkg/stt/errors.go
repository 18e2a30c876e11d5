package stt

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrNoSpeech is returned when audio was received but nothing
	// intelligible was recognized.
	ErrNoSpeech = errors.New("stt: no speech detected")

	// ErrNoAudio is returned for an empty upload.
	ErrNoAudio = errors.New("stt: no audio")

	// ErrListenTimeout is returned when nobody started speaking before the
	// listen timeout.
	ErrListenTimeout = errors.New("stt: timed out waiting for speech")

	// ErrUnsupportedEncoding is returned when a provider cannot accept the
	// audio format.
	ErrUnsupportedEncoding = errors.New("stt: unsupported audio encoding")

	// ErrNoAPIKey is returned when the API key is missing.
	ErrNoAPIKey = errors.New("stt: API key required")
)

// ServiceError reports that the recognition service could not be reached
// or failed.
type ServiceError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("stt [%s]: service error: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// IsNoSpeech reports whether err means nothing intelligible was heard,
// including a listen timeout.
func IsNoSpeech(err error) bool {
	return errors.Is(err, ErrNoSpeech) || errors.Is(err, ErrListenTimeout)
}

// IsServiceError reports whether err came from the recognition service.
func IsServiceError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}

func serviceError(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ServiceError{Provider: provider, Err: err}
}
