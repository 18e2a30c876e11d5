package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/teslashibe/go-sahayak/internal/httpc"
)

// DefaultWebURL is Google's keyless translation endpoint.
const DefaultWebURL = "https://translate.googleapis.com"

// Web translates through Google's public web endpoint. It needs no
// credentials, which makes it the default provider.
type Web struct {
	cfg    *Config
	client *http.Client
}

// NewWeb creates a web translation provider.
func NewWeb(opts ...Option) *Web {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	return &Web{
		cfg:    cfg,
		client: httpc.OrDefault(cfg.HTTPClient),
	}
}

// Translate implements Provider.
func (w *Web) Translate(ctx context.Context, text, target, source string) (string, error) {
	if source == "" {
		source = AutoDetect
	}

	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", source)
	q.Set("tl", target)
	q.Set("dt", "t")
	endpoint := strings.TrimRight(w.cfg.BaseURL, "/") + "/translate_a/single?" + q.Encode()

	form := url.Values{"q": {text}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", WrapError(w.Name(), err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")

	resp, err := w.client.Do(req)
	if err != nil {
		return "", WrapError(w.Name(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", WrapError(w.Name(), err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body)), Provider: w.Name()}
	}

	out, err := parseWebResponse(body)
	if err != nil {
		return "", WrapError(w.Name(), err)
	}
	return out, nil
}

// parseWebResponse extracts the translated segments from the nested array
// payload: [[["translated","original",...],...],null,"en",...].
func parseWebResponse(body []byte) (string, error) {
	var payload []json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(payload) == 0 {
		return "", ErrEmptyResult
	}

	var segments [][]any
	if err := json.Unmarshal(payload[0], &segments); err != nil {
		return "", fmt.Errorf("decode segments: %w", err)
	}

	var sb strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		if s, ok := seg[0].(string); ok {
			sb.WriteString(s)
		}
	}
	if sb.Len() == 0 {
		return "", ErrEmptyResult
	}
	return sb.String(), nil
}

// Name returns "web".
func (w *Web) Name() string {
	return "web"
}

// Close is a no-op.
func (w *Web) Close() error {
	return nil
}

var _ Provider = (*Web)(nil)
