package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv unsets every variable Load reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "LOG_LEVEL", "GROQ_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY",
		"GOOGLE_APPLICATION_CREDENTIALS", "OPENAI_API_KEY", "SAHAYAK_TTS",
		"SAHAYAK_TRANSLATOR", "SAHAYAK_STT", "SAHAYAK_CONFIG",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Port != "5000" || cfg.Addr() != ":5000" {
		t.Errorf("port = %q", cfg.Port)
	}
	if cfg.LLM.Model != "llama3-70b-8192" || cfg.LLM.Temperature != 0.3 {
		t.Errorf("llm = %+v", cfg.LLM)
	}
	if cfg.STT.AmbientDuration != 1500*time.Millisecond || cfg.STT.ListenTimeout != 10*time.Second || cfg.STT.PhraseLimit != 15*time.Second {
		t.Errorf("stt = %+v", cfg.STT)
	}
	if cfg.Translator.Provider != ProviderWeb || cfg.TTS.Provider != ProviderEdge {
		t.Errorf("providers = %s %s", cfg.Translator.Provider, cfg.TTS.Provider)
	}
}

func TestLoadEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("PORT", "8080")
	t.Setenv("SAHAYAK_TTS", "Google")

	cfg, err := Load(Options{EnvFile: filepath.Join(t.TempDir(), "missing.env")})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.APIKey != "gsk-test" || cfg.Port != "8080" || cfg.TTS.Provider != ProviderGoogle {
		t.Errorf("cfg = %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	envFile := writeFile(t, ".env", "GROQ_API_KEY=from-dotenv\nPORT=7000\n")
	t.Cleanup(func() {
		os.Unsetenv("GROQ_API_KEY")
		os.Unsetenv("PORT")
	})

	cfg, err := Load(Options{EnvFile: envFile})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.APIKey != "from-dotenv" || cfg.Port != "7000" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("GROQ_API_KEY", "from-env")
	envFile := writeFile(t, ".env", "GROQ_API_KEY=from-dotenv\n")

	cfg, err := Load(Options{EnvFile: envFile})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.APIKey != "from-env" {
		t.Errorf("api key = %q, want from-env", cfg.LLM.APIKey)
	}
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	file := writeFile(t, "sahayak.yaml", `
port: "9000"
default_language: hi
llm:
  api_key: yaml-key
  temperature: 0.5
  native_script: true
  fallbacks: [gemini]
  gemini_api_key: gem-key
tts:
  provider: google
  fallbacks: [edge]
stt:
  provider: whisper
  listen_timeout: 5s
languages:
  - code: hi
    name: Hindi
    voice: hi-IN-MadhurNeural
  - code: en
    name: English
    voice: en-IN-PrabhatNeural
`)
	t.Setenv("PORT", "9100")

	cfg, err := Load(Options{File: file, EnvFile: filepath.Join(t.TempDir(), "none")})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9100" {
		t.Errorf("environment should override the file, port = %q", cfg.Port)
	}
	if cfg.LLM.APIKey != "yaml-key" || cfg.LLM.Temperature != 0.5 || !cfg.LLM.NativeScript {
		t.Errorf("llm = %+v", cfg.LLM)
	}
	if cfg.LLM.Model != DefaultModel {
		t.Errorf("unset fields keep defaults, model = %q", cfg.LLM.Model)
	}
	if cfg.STT.ListenTimeout != 5*time.Second || cfg.STT.PhraseLimit != 15*time.Second {
		t.Errorf("stt = %+v", cfg.STT)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	catalog, err := cfg.Catalog()
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if got := catalog.Resolve("xx"); got.Code != "hi" {
		t.Errorf("default = %q, want hi", got.Code)
	}
	if got := catalog.Resolve("en"); got.Voice != "en-IN-PrabhatNeural" {
		t.Errorf("voice = %q", got.Voice)
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	clearEnv(t)
	file := writeFile(t, "c.yaml", "port: \"6000\"\n")
	t.Setenv("SAHAYAK_CONFIG", file)

	cfg, err := Load(Options{EnvFile: filepath.Join(t.TempDir(), "none")})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "6000" {
		t.Errorf("port = %q", cfg.Port)
	}
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)

	if _, err := Load(Options{File: filepath.Join(t.TempDir(), "absent.yaml")}); err == nil {
		t.Error("expected error for missing config file")
	}

	bad := writeFile(t, "bad.yaml", "port: [unclosed\n")
	if _, err := Load(Options{File: bad, EnvFile: filepath.Join(t.TempDir(), "none")}); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.LLM.APIKey = "key"
		return cfg
	}

	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"valid", func(*Config) {}, ""},
		{"empty port", func(c *Config) { c.Port = "" }, "port"},
		{"bad port", func(c *Config) { c.Port = "http" }, "port"},
		{"missing groq key", func(c *Config) { c.LLM.APIKey = "" }, "llm.api_key"},
		{"unknown llm", func(c *Config) { c.LLM.Provider = "claude" }, "llm.provider"},
		{"gemini without key", func(c *Config) { c.LLM.Fallbacks = []string{ProviderGemini} }, "llm.gemini_api_key"},
		{"temperature", func(c *Config) { c.LLM.Temperature = 3 }, "llm.temperature"},
		{"unknown translator", func(c *Config) { c.Translator.Provider = "deepl" }, "translator.provider"},
		{"unknown tts", func(c *Config) { c.TTS.Provider = "gtts" }, "tts.provider"},
		{"openai without key", func(c *Config) { c.TTS.Fallbacks = []string{ProviderOpenAI} }, "openai.api_key"},
		{"unknown stt", func(c *Config) { c.STT.Provider = "vosk" }, "stt.provider"},
		{"unknown backend", func(c *Config) { c.STT.AudioBackend = "alsa" }, "stt.audio_backend"},
		{"catalog without default", func(c *Config) { c.DefaultLanguage = "fr" }, "languages"},
		{"speech disabled", func(c *Config) {
			c.TTS.Provider = ProviderNone
			c.STT.Provider = ProviderNone
			c.Translator.Provider = ProviderNone
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.field == "" {
				if err != nil {
					t.Errorf("Validate: %v", err)
				}
				return
			}
			var cerr *Error
			if !errors.As(err, &cerr) {
				t.Fatalf("error = %v, want *Error", err)
			}
			if cerr.Field != tt.field {
				t.Errorf("field = %q, want %q", cerr.Field, tt.field)
			}
		})
	}
}
