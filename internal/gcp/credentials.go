// Package gcp resolves Google Cloud credentials into client options shared by
// the translation, speech and text-to-speech adapters.
package gcp

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// CloudPlatformScope is requested when falling back to service credentials.
const CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// ErrNoCredentials is returned when no API key, credentials file or
// application default credentials are available.
var ErrNoCredentials = errors.New("gcp: no credentials configured")

// Credentials selects how Google clients authenticate.
// APIKey wins over CredentialsFile; with neither set, application default
// credentials are looked up.
type Credentials struct {
	APIKey          string `yaml:"api_key"`
	CredentialsFile string `yaml:"credentials_file"`
}

// IsZero reports whether neither an API key nor a credentials file is set.
func (c Credentials) IsZero() bool {
	return c.APIKey == "" && c.CredentialsFile == ""
}

// ClientOptions turns creds into options for a cloud.google.com/go client.
func ClientOptions(ctx context.Context, creds Credentials, scopes ...string) ([]option.ClientOption, error) {
	if len(scopes) == 0 {
		scopes = []string{CloudPlatformScope}
	}

	if creds.APIKey != "" {
		return []option.ClientOption{option.WithAPIKey(creds.APIKey)}, nil
	}

	if creds.CredentialsFile != "" {
		data, err := os.ReadFile(creds.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("gcp: read credentials: %w", err)
		}
		c, err := google.CredentialsFromJSON(ctx, data, scopes...)
		if err != nil {
			return nil, fmt.Errorf("gcp: parse credentials: %w", err)
		}
		return []option.ClientOption{option.WithCredentials(c)}, nil
	}

	c, err := google.FindDefaultCredentials(ctx, scopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoCredentials, err)
	}
	return []option.ClientOption{option.WithCredentials(c)}, nil
}
