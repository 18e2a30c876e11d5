package stt

import (
	"log/slog"
	"time"

	"github.com/teslashibe/go-sahayak/internal/gcp"
)

// Config holds recognizer configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// APIKey authenticates the Whisper endpoint.
	APIKey  string
	BaseURL string
	Model   string

	// Credentials for Google Cloud Speech-to-Text.
	Credentials gcp.Credentials

	Timeout    time.Duration
	MaxRetries int

	Logger *slog.Logger
}

// Option is a functional option for configuring recognizers.
type Option func(*Config)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithBaseURL overrides the default endpoint.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithModel sets the recognition model.
func WithModel(model string) Option {
	return func(c *Config) {
		c.Model = model
	}
}

// WithCredentials sets Google Cloud credentials.
func WithCredentials(creds gcp.Credentials) Option {
	return func(c *Config) {
		c.Credentials = creds
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithMaxRetries sets how often a failed request is retried.
func WithMaxRetries(n int) Option {
	return func(c *Config) {
		c.MaxRetries = n
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timeout:    30 * time.Second,
		MaxRetries: 2,
		Logger:     slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
