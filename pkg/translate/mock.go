package translate

import (
	"context"
	"sync"
)

// Mock is a Provider for tests. By default it tags text with the target
// code, e.g. "[hi] hello".
type Mock struct {
	TranslateFunc func(ctx context.Context, text, target, source string) (string, error)

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records one Translate call.
type MockCall struct {
	Text   string
	Target string
	Source string
}

// NewMock creates a mock provider.
func NewMock() *Mock {
	return &Mock{
		TranslateFunc: func(_ context.Context, text, target, _ string) (string, error) {
			return "[" + target + "] " + text, nil
		},
	}
}

// WithError makes every call fail with err.
func (m *Mock) WithError(err error) *Mock {
	m.TranslateFunc = func(context.Context, string, string, string) (string, error) {
		return "", err
	}
	return m
}

// Translate implements Provider.
func (m *Mock) Translate(ctx context.Context, text, target, source string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Text: text, Target: target, Source: source})
	m.mu.Unlock()
	return m.TranslateFunc(ctx, text, target, source)
}

// Calls returns a copy of recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of Translate calls.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Name returns "mock".
func (m *Mock) Name() string {
	return "mock"
}

// Close is a no-op.
func (m *Mock) Close() error {
	return nil
}

var _ Provider = (*Mock)(nil)
