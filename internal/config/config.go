// Package config loads sahayak settings from defaults, an optional YAML
// file, a .env file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	"github.com/teslashibe/go-sahayak/pkg/language"
)

// Defaults.
const (
	DefaultPort        = "5000"
	DefaultModel       = "llama3-70b-8192"
	DefaultTemperature = 0.3
	DefaultEnvFile     = ".env"
)

// Provider names accepted in the llm, tts, translator and stt sections.
const (
	ProviderNone    = "none"
	ProviderGroq    = "groq"
	ProviderGemini  = "gemini"
	ProviderEdge    = "edge"
	ProviderGoogle  = "google"
	ProviderOpenAI  = "openai"
	ProviderWeb     = "web"
	ProviderCloud   = "cloud"
	ProviderWhisper = "whisper"
)

// Config is the full application configuration.
type Config struct {
	// Port the HTTP server binds on every interface.
	Port string `yaml:"port"`

	LogLevel string `yaml:"log_level"`

	// DefaultLanguage is the fallback for unknown language codes.
	DefaultLanguage string `yaml:"default_language"`

	// Languages replaces the built-in catalog when non-empty.
	Languages []language.Language `yaml:"languages"`

	LLM        LLMConfig        `yaml:"llm"`
	Translator TranslatorConfig `yaml:"translator"`
	TTS        TTSConfig        `yaml:"tts"`
	STT        STTConfig        `yaml:"stt"`
	Google     GoogleConfig     `yaml:"google"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
}

// LLMConfig selects the completion backends.
type LLMConfig struct {
	// Provider is groq or gemini.
	Provider string `yaml:"provider"`

	// Fallbacks are tried in order when Provider fails.
	Fallbacks []string `yaml:"fallbacks"`

	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`

	// NativeScript asks the model to answer in the user's language.
	NativeScript bool `yaml:"native_script"`

	GeminiAPIKey string `yaml:"gemini_api_key"`
	GeminiModel  string `yaml:"gemini_model"`
}

// TranslatorConfig selects the translation backend.
type TranslatorConfig struct {
	// Provider is web, cloud or none.
	Provider string        `yaml:"provider"`
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
}

// TTSConfig selects the speech synthesizers.
type TTSConfig struct {
	// Provider is edge, google, openai or none.
	Provider  string   `yaml:"provider"`
	Fallbacks []string `yaml:"fallbacks"`

	// Binary is the edge engine executable.
	Binary  string        `yaml:"binary"`
	Timeout time.Duration `yaml:"timeout"`

	// Player is the command used by the console to play speech.
	Player []string `yaml:"player"`
}

// STTConfig selects the recognizer and microphone.
type STTConfig struct {
	// Provider is google, whisper or none.
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`

	// Microphone enables server-side capture for /voice and the console.
	Microphone bool `yaml:"microphone"`

	// AudioBackend is auto, portaudio or mock.
	AudioBackend string `yaml:"audio_backend"`

	AmbientDuration time.Duration `yaml:"ambient_duration"`
	ListenTimeout   time.Duration `yaml:"listen_timeout"`
	PhraseLimit     time.Duration `yaml:"phrase_limit"`
}

// GoogleConfig holds Google Cloud credentials shared by the cloud providers.
type GoogleConfig struct {
	APIKey          string `yaml:"api_key"`
	CredentialsFile string `yaml:"credentials_file"`
}

// OpenAIConfig holds the key for the OpenAI speech endpoint.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:            DefaultPort,
		LogLevel:        "info",
		DefaultLanguage: language.DefaultCode,
		LLM: LLMConfig{
			Provider:    ProviderGroq,
			Model:       DefaultModel,
			Temperature: DefaultTemperature,
			Timeout:     60 * time.Second,
		},
		Translator: TranslatorConfig{
			Provider: ProviderWeb,
			Timeout:  10 * time.Second,
		},
		TTS: TTSConfig{
			Provider: ProviderEdge,
			Binary:   "edge-tts",
			Timeout:  30 * time.Second,
		},
		STT: STTConfig{
			Provider:        ProviderGoogle,
			Microphone:      true,
			AudioBackend:    "auto",
			AmbientDuration: 1500 * time.Millisecond,
			ListenTimeout:   10 * time.Second,
			PhraseLimit:     15 * time.Second,
		},
	}
}

// Error reports an invalid setting.
type Error struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// Options controls where Load reads from.
type Options struct {
	// File is a YAML file. Empty uses SAHAYAK_CONFIG, if set.
	File string

	// EnvFile is loaded into the environment when it exists.
	// Empty uses ".env".
	EnvFile string
}

// Load builds the configuration: defaults, then the YAML file, then the
// .env file, then environment variables. A missing .env is ignored; a
// missing YAML file that was asked for is an error.
func Load(opts Options) (*Config, error) {
	cfg := Default()

	file := opts.File
	if file == "" {
		file = os.Getenv("SAHAYAK_CONFIG")
	}
	if file != "" {
		if err := cfg.loadFile(file); err != nil {
			return nil, err
		}
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load %s: %w", envFile, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides settings from environment variables.
func (c *Config) applyEnv() {
	setString(&c.Port, "PORT")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LLM.APIKey, "GROQ_API_KEY")
	setString(&c.LLM.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&c.Google.APIKey, "GOOGLE_API_KEY")
	setString(&c.Google.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")
	setString(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	setLower(&c.TTS.Provider, "SAHAYAK_TTS")
	setLower(&c.Translator.Provider, "SAHAYAK_TRANSLATOR")
	setLower(&c.STT.Provider, "SAHAYAK_STT")
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setLower(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = strings.ToLower(v)
	}
}

// Catalog builds the language catalog from the configuration.
func (c *Config) Catalog() (*language.Catalog, error) {
	entries := c.Languages
	if len(entries) == 0 {
		entries = language.Builtin
	}
	return language.New(entries, c.DefaultLanguage)
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Validate checks the configuration, including the credentials each
// selected provider needs.
func (c *Config) Validate() error {
	if c.Port == "" {
		return &Error{Field: "port", Message: "must not be empty"}
	}
	for _, r := range c.Port {
		if r < '0' || r > '9' {
			return &Error{Field: "port", Message: fmt.Sprintf("%q is not a number", c.Port)}
		}
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return &Error{Field: "llm.temperature", Message: "must be between 0 and 2"}
	}

	llms := append([]string{c.LLM.Provider}, c.LLM.Fallbacks...)
	for _, p := range llms {
		switch p {
		case ProviderGroq:
			if c.LLM.APIKey == "" {
				return &Error{Field: "llm.api_key", Message: "GROQ_API_KEY is required"}
			}
		case ProviderGemini:
			if c.LLM.GeminiAPIKey == "" {
				return &Error{Field: "llm.gemini_api_key", Message: "GEMINI_API_KEY is required"}
			}
		default:
			return &Error{Field: "llm.provider", Message: fmt.Sprintf("unknown provider %q", p)}
		}
	}

	switch c.Translator.Provider {
	case ProviderWeb, ProviderCloud, ProviderNone:
	default:
		return &Error{Field: "translator.provider", Message: fmt.Sprintf("unknown provider %q", c.Translator.Provider)}
	}

	ttsProviders := append([]string{c.TTS.Provider}, c.TTS.Fallbacks...)
	for _, p := range ttsProviders {
		switch p {
		case ProviderEdge, ProviderGoogle, ProviderNone:
		case ProviderOpenAI:
			if c.OpenAI.APIKey == "" {
				return &Error{Field: "openai.api_key", Message: "OPENAI_API_KEY is required for openai speech"}
			}
		default:
			return &Error{Field: "tts.provider", Message: fmt.Sprintf("unknown provider %q", p)}
		}
	}

	switch c.STT.Provider {
	case ProviderGoogle, ProviderNone:
	case ProviderWhisper:
		if c.LLM.APIKey == "" {
			return &Error{Field: "llm.api_key", Message: "GROQ_API_KEY is required for whisper"}
		}
	default:
		return &Error{Field: "stt.provider", Message: fmt.Sprintf("unknown provider %q", c.STT.Provider)}
	}
	switch c.STT.AudioBackend {
	case "auto", "portaudio", "mock":
	default:
		return &Error{Field: "stt.audio_backend", Message: fmt.Sprintf("unknown backend %q", c.STT.AudioBackend)}
	}

	if _, err := c.Catalog(); err != nil {
		return &Error{Field: "languages", Message: err.Error()}
	}
	return nil
}
