package tts

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MockCall records one request made to a Mock.
type MockCall struct {
	Method string
	Text   string
	Voice  Voice
}

// Mock is a Provider for tests. The produced audio is an ID3-prefixed
// byte sequence that embeds the voice and text, so tests can assert on it.
type Mock struct {
	mu    sync.Mutex
	calls []MockCall

	// SynthesizeFunc overrides Synthesize when set.
	SynthesizeFunc func(ctx context.Context, text string, voice Voice) (*AudioResult, error)

	// StreamFunc overrides Stream when set.
	StreamFunc func(ctx context.Context, text string, voice Voice) (AudioStream, error)

	// HealthFunc overrides Health when set.
	HealthFunc func(ctx context.Context) error

	closed bool
}

// NewMock creates a mock provider.
func NewMock() *Mock {
	return &Mock{}
}

// WithError makes every call fail with err.
func (m *Mock) WithError(err error) *Mock {
	m.SynthesizeFunc = func(context.Context, string, Voice) (*AudioResult, error) { return nil, err }
	m.StreamFunc = func(context.Context, string, Voice) (AudioStream, error) { return nil, err }
	m.HealthFunc = func(context.Context) error { return err }
	return m
}

// MockAudio returns the bytes the mock produces for text and voice.
func MockAudio(text string, voice Voice) []byte {
	return []byte("ID3" + voice.Name + "|" + text)
}

// Synthesize records the call and returns MockAudio.
func (m *Mock) Synthesize(ctx context.Context, text string, voice Voice) (*AudioResult, error) {
	m.record("Synthesize", text, voice)
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, text, voice)
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	return &AudioResult{
		Audio:     MockAudio(text, voice),
		Format:    mp3Format,
		CharCount: len(text),
		Latency:   time.Millisecond,
	}, nil
}

// Stream records the call and streams MockAudio.
func (m *Mock) Stream(ctx context.Context, text string, voice Voice) (AudioStream, error) {
	m.record("Stream", text, voice)
	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, text, voice)
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	return NewBufferStream(MockAudio(text, voice), mp3Format), nil
}

// Health records the call.
func (m *Mock) Health(ctx context.Context) error {
	m.record("Health", "", Voice{})
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

// Close marks the mock closed.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Calls returns a copy of the recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// CallCount returns the number of calls to method.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Reset clears recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

func (m *Mock) record(method, text string, voice Voice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, Text: text, Voice: voice})
}

var _ Provider = (*Mock)(nil)
