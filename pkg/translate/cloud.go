package translate

import (
	"context"
	"fmt"

	gtranslate "cloud.google.com/go/translate"
	"golang.org/x/text/language"

	"github.com/teslashibe/go-sahayak/internal/gcp"
)

// CloudClient is the subset of the Cloud Translation client used here.
type CloudClient interface {
	Translate(ctx context.Context, inputs []string, target language.Tag, opts *gtranslate.Options) ([]gtranslate.Translation, error)
	Close() error
}

// Cloud translates with the Google Cloud Translation API.
type Cloud struct {
	client CloudClient
	cfg    *Config
}

// NewCloud creates a Cloud Translation provider using the configured
// credentials (API key, credentials file or application defaults).
func NewCloud(ctx context.Context, opts ...Option) (*Cloud, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	clientOpts, err := gcp.ClientOptions(ctx, cfg.Credentials)
	if err != nil {
		return nil, err
	}
	client, err := gtranslate.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("translate: create cloud client: %w", err)
	}
	return &Cloud{client: client, cfg: cfg}, nil
}

// NewCloudWithClient wraps an existing client.
func NewCloudWithClient(client CloudClient, opts ...Option) *Cloud {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	return &Cloud{client: client, cfg: cfg}
}

// Translate implements Provider.
func (c *Cloud) Translate(ctx context.Context, text, target, source string) (string, error) {
	tl, err := language.Parse(target)
	if err != nil {
		return "", WrapError(c.Name(), fmt.Errorf("%w: %q", ErrUnsupportedLanguage, target))
	}

	opts := &gtranslate.Options{Format: gtranslate.Text}
	if source != "" && source != AutoDetect {
		sl, err := language.Parse(source)
		if err != nil {
			return "", WrapError(c.Name(), fmt.Errorf("%w: %q", ErrUnsupportedLanguage, source))
		}
		opts.Source = sl
	}

	res, err := c.client.Translate(ctx, []string{text}, tl, opts)
	if err != nil {
		return "", WrapError(c.Name(), err)
	}
	if len(res) == 0 {
		return "", WrapError(c.Name(), ErrEmptyResult)
	}
	return res[0].Text, nil
}

// Name returns "cloud".
func (c *Cloud) Name() string {
	return "cloud"
}

// Close closes the underlying client.
func (c *Cloud) Close() error {
	return c.client.Close()
}

var _ Provider = (*Cloud)(nil)
