package tts

import (
	"log/slog"
	"time"

	"github.com/teslashibe/go-sahayak/internal/gcp"
)

// Config holds TTS provider configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// HTTP provider credentials
	APIKey  string
	BaseURL string
	ModelID string

	// Credentials for Google Cloud Text-to-Speech.
	Credentials gcp.Credentials

	// DefaultVoice is used when a request carries no usable voice name.
	DefaultVoice string

	// Binary is the synthesis engine executable for the Edge provider.
	Binary string

	// ExtraArgs are appended to every engine invocation, e.g. "--rate=-10%".
	ExtraArgs []string

	// TempDir holds per-request audio files. Empty means os.TempDir().
	TempDir string

	// Timeouts
	Timeout time.Duration

	// Retry configuration
	MaxRetries int
	RetryDelay time.Duration

	Logger *slog.Logger
}

// Option is a functional option for configuring TTS providers.
type Option func(*Config)

// WithAPIKey sets the API key for HTTP providers.
func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithModel sets the model ID.
func WithModel(modelID string) Option {
	return func(c *Config) {
		c.ModelID = modelID
	}
}

// WithCredentials sets Google Cloud credentials.
func WithCredentials(creds gcp.Credentials) Option {
	return func(c *Config) {
		c.Credentials = creds
	}
}

// WithDefaultVoice sets the fallback voice.
func WithDefaultVoice(voice string) Option {
	return func(c *Config) {
		c.DefaultVoice = voice
	}
}

// WithBinary sets the synthesis engine executable.
func WithBinary(path string) Option {
	return func(c *Config) {
		c.Binary = path
	}
}

// WithExtraArgs appends engine arguments.
func WithExtraArgs(args ...string) Option {
	return func(c *Config) {
		c.ExtraArgs = append(c.ExtraArgs, args...)
	}
}

// WithTempDir sets the directory for temporary audio files.
func WithTempDir(dir string) Option {
	return func(c *Config) {
		c.TempDir = dir
	}
}

// WithTimeout sets the request timeout for buffered synthesis.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithRetry configures retry behavior for failed requests.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

// WithLogger sets the structured logger for the provider.
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
		RetryDelay: 100 * time.Millisecond,
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

// Validate checks that the API key is present.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	return nil
}
