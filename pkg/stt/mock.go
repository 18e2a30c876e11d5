package stt

import (
	"context"
	"sync"
)

// MockCall records one Recognize call.
type MockCall struct {
	Audio  Audio
	Locale string
}

// Mock is a Recognizer for tests. By default it returns Transcript.
type Mock struct {
	mu    sync.Mutex
	calls []MockCall

	// Transcript is returned when RecognizeFunc is nil.
	Transcript string

	// RecognizeFunc overrides Recognize when set.
	RecognizeFunc func(ctx context.Context, audio Audio, locale string) (string, error)
}

// NewMock creates a mock that always hears transcript.
func NewMock(transcript string) *Mock {
	return &Mock{Transcript: transcript}
}

// WithError makes every call fail with err.
func (m *Mock) WithError(err error) *Mock {
	m.RecognizeFunc = func(context.Context, Audio, string) (string, error) {
		return "", err
	}
	return m
}

// Recognize records the call.
func (m *Mock) Recognize(ctx context.Context, audio Audio, locale string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Audio: audio, Locale: locale})
	m.mu.Unlock()

	if m.RecognizeFunc != nil {
		return m.RecognizeFunc(ctx, audio, locale)
	}
	if audio.Empty() {
		return "", ErrNoAudio
	}
	if m.Transcript == "" {
		return "", ErrNoSpeech
	}
	return m.Transcript, nil
}

// Calls returns a copy of the recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// Name returns "mock".
func (m *Mock) Name() string {
	return "mock"
}

// Close is a no-op.
func (m *Mock) Close() error {
	return nil
}

var _ Recognizer = (*Mock)(nil)
