package translate_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	gtranslate "cloud.google.com/go/translate"
	"golang.org/x/text/language"

	"github.com/teslashibe/go-sahayak/internal/log"
	"github.com/teslashibe/go-sahayak/pkg/translate"
)

func newService(p translate.Provider) *translate.Service {
	return translate.NewService(p, translate.WithLogger(log.Discard()))
}

func TestService_Identity(t *testing.T) {
	mock := translate.NewMock()
	svc := newService(mock)

	for _, code := range []string{"en", "hi", "ta", "xx"} {
		t.Run(code, func(t *testing.T) {
			text := "anything at all"
			if got := svc.Translate(context.Background(), text, code, code); got != text {
				t.Errorf("Translate(%q, %s, %s) = %q, want unchanged", text, code, code, got)
			}
		})
	}
	if mock.CallCount() != 0 {
		t.Errorf("provider called %d times for identity translations", mock.CallCount())
	}
}

func TestService_FailOpen(t *testing.T) {
	mock := translate.NewMock().WithError(errors.New("connection refused"))
	svc := newService(mock)

	got := svc.Translate(context.Background(), "बाढ़ आ गई है", "en", "hi")
	if got != "बाढ़ आ गई है" {
		t.Errorf("expected original text on failure, got %q", got)
	}
	if mock.CallCount() != 1 {
		t.Errorf("CallCount = %d, want 1", mock.CallCount())
	}
}

func TestService_Delegates(t *testing.T) {
	mock := translate.NewMock()
	svc := newService(mock)

	got := svc.Translate(context.Background(), "hello", "hi", "")
	if got != "[hi] hello" {
		t.Errorf("Translate = %q, want %q", got, "[hi] hello")
	}

	calls := mock.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if calls[0].Source != translate.AutoDetect {
		t.Errorf("Source = %q, want auto", calls[0].Source)
	}
}

func TestService_BlankText(t *testing.T) {
	mock := translate.NewMock()
	svc := newService(mock)

	if got := svc.Translate(context.Background(), "   ", "hi", "en"); got != "   " {
		t.Errorf("blank text changed: %q", got)
	}
	if mock.CallCount() != 0 {
		t.Error("provider should not be called for blank text")
	}
}

func TestService_EmptyResult(t *testing.T) {
	mock := translate.NewMock()
	mock.TranslateFunc = func(context.Context, string, string, string) (string, error) {
		return "", nil
	}
	if got := newService(mock).Translate(context.Background(), "hello", "hi", "en"); got != "hello" {
		t.Errorf("expected original text for empty result, got %q", got)
	}
}

func TestWeb_Translate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/translate_a/single" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		q := r.URL.Query()
		if q.Get("tl") != "hi" || q.Get("sl") != "en" || q.Get("client") != "gtx" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.PostForm.Get("q") != "Stay safe. Move up." {
			t.Errorf("q = %q", r.PostForm.Get("q"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[[["सुरक्षित रहें। ","Stay safe. ",null,null,10],["ऊपर जाएं।","Move up.",null,null,10]],null,"en"]`))
	}))
	defer server.Close()

	web := translate.NewWeb(translate.WithBaseURL(server.URL))
	got, err := web.Translate(context.Background(), "Stay safe. Move up.", "hi", "en")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got != "सुरक्षित रहें। ऊपर जाएं।" {
		t.Errorf("Translate = %q", got)
	}
}

func TestWeb_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"rate limited", http.StatusTooManyRequests, "slow down"},
		{"garbage", http.StatusOK, "<html>"},
		{"empty", http.StatusOK, "[]"},
		{"no segments", http.StatusOK, "[[],null,\"en\"]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			web := translate.NewWeb(translate.WithBaseURL(server.URL))
			if _, err := web.Translate(context.Background(), "hello", "hi", "en"); err == nil {
				t.Error("expected error")
			}
		})
	}

	t.Run("api error type", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		_, err := translate.NewWeb(translate.WithBaseURL(server.URL)).Translate(context.Background(), "hello", "hi", "en")
		var apiErr *translate.APIError
		if !errors.As(err, &apiErr) || !apiErr.IsRateLimited() {
			t.Errorf("expected rate limited APIError, got %v", err)
		}
	})
}

func TestService_UnreachableService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	svc := newService(translate.NewWeb(translate.WithBaseURL(url)))
	if got := svc.Translate(context.Background(), "help", "ta", "en"); got != "help" {
		t.Errorf("expected passthrough when unreachable, got %q", got)
	}
}

type fakeCloudClient struct {
	target language.Tag
	opts   *gtranslate.Options
	err    error
	closed bool
}

func (f *fakeCloudClient) Translate(_ context.Context, inputs []string, target language.Tag, opts *gtranslate.Options) ([]gtranslate.Translation, error) {
	f.target = target
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	return []gtranslate.Translation{{Text: "translated:" + inputs[0]}}, nil
}

func (f *fakeCloudClient) Close() error {
	f.closed = true
	return nil
}

func TestCloud_Translate(t *testing.T) {
	t.Run("auto source", func(t *testing.T) {
		fake := &fakeCloudClient{}
		cloud := translate.NewCloudWithClient(fake)

		got, err := cloud.Translate(context.Background(), "hello", "hi", translate.AutoDetect)
		if err != nil {
			t.Fatalf("Translate failed: %v", err)
		}
		if got != "translated:hello" {
			t.Errorf("got %q", got)
		}
		if fake.target != language.Hindi {
			t.Errorf("target = %v, want hi", fake.target)
		}
		if fake.opts.Source != language.Und {
			t.Errorf("source should be undetermined for auto, got %v", fake.opts.Source)
		}
		if fake.opts.Format != gtranslate.Text {
			t.Errorf("format = %v, want text", fake.opts.Format)
		}
	})

	t.Run("explicit source", func(t *testing.T) {
		fake := &fakeCloudClient{}
		cloud := translate.NewCloudWithClient(fake)
		if _, err := cloud.Translate(context.Background(), "नमस्ते", "en", "hi"); err != nil {
			t.Fatal(err)
		}
		if fake.opts.Source != language.Hindi {
			t.Errorf("source = %v, want hi", fake.opts.Source)
		}
	})

	t.Run("bad target", func(t *testing.T) {
		cloud := translate.NewCloudWithClient(&fakeCloudClient{})
		_, err := cloud.Translate(context.Background(), "hello", "not a tag!", "en")
		if !errors.Is(err, translate.ErrUnsupportedLanguage) {
			t.Errorf("err = %v, want ErrUnsupportedLanguage", err)
		}
	})

	t.Run("client error", func(t *testing.T) {
		cloud := translate.NewCloudWithClient(&fakeCloudClient{err: errors.New("quota")})
		_, err := cloud.Translate(context.Background(), "hello", "hi", "en")
		var pe *translate.ProviderError
		if !errors.As(err, &pe) || pe.Provider != "cloud" {
			t.Errorf("expected ProviderError from cloud, got %v", err)
		}
	})

	t.Run("close", func(t *testing.T) {
		fake := &fakeCloudClient{}
		if err := translate.NewCloudWithClient(fake).Close(); err != nil {
			t.Fatal(err)
		}
		if !fake.closed {
			t.Error("client not closed")
		}
	})
}

func TestServiceWithoutProvider(t *testing.T) {
	s := translate.NewService(nil)
	if got := s.Translate(context.Background(), "नमस्ते", "en", "hi"); got != "नमस्ते" {
		t.Errorf("Translate = %q", got)
	}
	if s.Name() != "none" || s.Close() != nil {
		t.Error("nil provider should be inert")
	}
}
