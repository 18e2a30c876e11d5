// Package translate converts text between the user's language and English.
//
// Providers talk to a machine-translation service and return errors.
// Service wraps a Provider with the pipeline's fail-open policy: a failed
// translation logs a warning and hands back the original text.
package translate

import (
	"context"
	"log/slog"
	"strings"
)

// AutoDetect asks the provider to detect the source language.
const AutoDetect = "auto"

// Provider is a machine-translation backend.
type Provider interface {
	// Translate converts text into target. An empty or AutoDetect source
	// lets the service detect the input language.
	Translate(ctx context.Context, text, target, source string) (string, error)

	// Name returns the provider identifier for logs.
	Name() string

	// Close releases provider resources.
	Close() error
}

// Service applies identity and fail-open rules on top of a Provider.
type Service struct {
	provider Provider
	cfg      *Config
	logger   *slog.Logger
}

// NewService wraps provider. Only Timeout and Logger are read from opts.
// A nil provider disables translation: every text passes through.
func NewService(provider Provider, opts ...Option) *Service {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	return &Service{
		provider: provider,
		cfg:      cfg,
		logger:   cfg.Logger.With("component", "translate"),
	}
}

// Translate returns text in the target language.
// It never fails: identical source and target, blank text, or any provider
// error all yield the original text.
func (s *Service) Translate(ctx context.Context, text, target, source string) string {
	if source == "" {
		source = AutoDetect
	}
	if s.provider == nil || strings.EqualFold(source, target) || strings.TrimSpace(text) == "" {
		return text
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	out, err := s.provider.Translate(ctx, text, target, source)
	if err != nil {
		s.logger.Warn("translation failed, using original text",
			"provider", s.provider.Name(),
			"source", source,
			"target", target,
			"error", err,
		)
		return text
	}
	if strings.TrimSpace(out) == "" {
		s.logger.Warn("translation returned empty text, using original",
			"provider", s.provider.Name(),
			"target", target,
		)
		return text
	}
	return out
}

// Name returns the underlying provider name.
func (s *Service) Name() string {
	if s.provider == nil {
		return "none"
	}
	return s.provider.Name()
}

// Close closes the underlying provider.
func (s *Service) Close() error {
	if s.provider == nil {
		return nil
	}
	return s.provider.Close()
}
