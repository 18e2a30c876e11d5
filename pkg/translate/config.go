package translate

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/teslashibe/go-sahayak/internal/gcp"
)

// Config holds translation provider configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// BaseURL overrides the web endpoint.
	BaseURL string

	// Credentials for the Cloud Translation provider.
	Credentials gcp.Credentials

	// HTTPClient is used by the web provider.
	HTTPClient *http.Client

	// Timeout bounds a single translation call. Zero disables it.
	Timeout time.Duration

	Logger *slog.Logger
}

// Option is a functional option for configuring translation.
type Option func(*Config)

// WithBaseURL overrides the default web endpoint.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithCredentials sets Google Cloud credentials.
func WithCredentials(creds gcp.Credentials) Option {
	return func(c *Config) {
		c.Credentials = creds
	}
}

// WithHTTPClient sets the HTTP client for web requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
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
		BaseURL: DefaultWebURL,
		Timeout: 15 * time.Second,
		Logger:  slog.Default(),
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
