package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/teslashibe/go-sahayak/internal/config"
)

// fakeGroq answers every chat completion with a fixed reply.
func fakeGroq(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"data":[]}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"1","model":"llama3-70b-8192","choices":[{"index":0,"message":{"role":"assistant","content":"` + reply + `"},"finish_reason":"stop"}],"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(baseURL string) *config.Config {
	cfg := config.Default()
	cfg.LLM.APIKey = "test-key"
	cfg.LLM.BaseURL = baseURL
	cfg.Translator.Provider = config.ProviderNone
	cfg.TTS.Provider = config.ProviderNone
	cfg.STT.Provider = config.ProviderNone
	return cfg
}

func TestNewValidates(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("expected error for nil config")
	}

	cfg := config.Default()
	_, err := New(cfg)
	var cerr *config.Error
	if !errors.As(err, &cerr) || cerr.Field != "llm.api_key" {
		t.Errorf("error = %v, want missing api key", err)
	}
}

func TestInitTextOnly(t *testing.T) {
	groq := fakeGroq(t, "Move to the relief camp")
	a, err := New(testConfig(groq.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer a.Shutdown()

	p := a.Pipeline()
	if p.CanSpeak() || p.CanListen() {
		t.Error("speech should be disabled")
	}
	if _, ok := a.health["llm.groq"]; !ok {
		t.Errorf("health = %v", a.health)
	}

	turn, err := p.Reply(context.Background(), "where do I go", "hi")
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if turn.Response != "Move to the relief camp" {
		t.Errorf("response = %q", turn.Response)
	}
}

func TestInitWithOnlyGroqKey(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("CLOUDSDK_CONFIG", home)
	for _, key := range []string{
		"SAHAYAK_CONFIG", "GOOGLE_API_KEY", "GOOGLE_APPLICATION_CREDENTIALS",
		"GEMINI_API_KEY", "OPENAI_API_KEY", "SAHAYAK_TTS", "SAHAYAK_TRANSLATOR",
		"SAHAYAK_STT", "PORT",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("GROQ_API_KEY", "gsk-test")

	cfg, err := config.Load(config.Options{EnvFile: filepath.Join(home, ".env")})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.STT.Microphone = false

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer a.Shutdown()

	p := a.Pipeline()
	if p == nil {
		t.Fatal("pipeline not built")
	}
	if !p.CanSpeak() {
		t.Error("default synthesizer should be enabled")
	}
	if _, ok := a.health["llm.groq"]; !ok {
		t.Errorf("health = %v", a.health)
	}
	if got := a.Catalog().Names()["en"]; got != "English" {
		t.Errorf("catalog en = %q", got)
	}
}

func TestInitProviders(t *testing.T) {
	groq := fakeGroq(t, "ok")
	cfg := testConfig(groq.URL)
	cfg.TTS.Provider = config.ProviderEdge
	cfg.TTS.Fallbacks = []string{config.ProviderOpenAI}
	cfg.OpenAI.APIKey = "sk-test"
	cfg.Translator.Provider = config.ProviderWeb
	cfg.STT.Provider = config.ProviderWhisper
	cfg.STT.AudioBackend = "mock"

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer a.Shutdown()

	p := a.Pipeline()
	if !p.CanSpeak() || !p.CanListen() {
		t.Errorf("speak = %v, listen = %v", p.CanSpeak(), p.CanListen())
	}
	for _, key := range []string{"llm.groq", "tts.edge", "tts.openai"} {
		if _, ok := a.health[key]; !ok {
			t.Errorf("missing health check %q", key)
		}
	}
}

func TestConsole(t *testing.T) {
	groq := fakeGroq(t, "Stay on high ground")
	a, err := New(testConfig(groq.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer a.Shutdown()

	var out bytes.Buffer
	err = a.Console(context.Background(), strings.NewReader("is the river rising\nexit\n"), &out, "en", true)
	if err != nil {
		t.Fatalf("Console: %v", err)
	}
	if !strings.Contains(out.String(), "Stay on high ground") {
		t.Errorf("output:\n%s", out.String())
	}
}

func TestServeBeforeInit(t *testing.T) {
	a, err := New(testConfig("http://127.0.0.1:1"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.Serve(context.Background()); err == nil {
		t.Error("expected error before Init")
	}
}
