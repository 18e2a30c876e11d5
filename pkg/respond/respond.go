// Package respond turns an English user query into an English answer from a
// chat completion provider. Failures here abort the turn.
package respond

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/teslashibe/go-sahayak/pkg/inference"
	"github.com/teslashibe/go-sahayak/pkg/language"
)

// ContextPrefix frames short, ambiguous queries for the model.
const ContextPrefix = "This is a disaster-related question: "

// ShortInputTokens is the token count below which ContextPrefix is added.
const ShortInputTokens = 3

// ErrEmptyCompletion is returned when the model answered with blank text.
var ErrEmptyCompletion = errors.New("respond: empty completion")

// Prompt returns the text sent to the model for an English query.
// Queries with fewer than ShortInputTokens whitespace-separated tokens are
// prefixed with ContextPrefix.
func Prompt(english string) string {
	english = strings.TrimSpace(english)
	if len(strings.Fields(english)) < ShortInputTokens {
		return ContextPrefix + english
	}
	return english
}

// Config controls completion requests.
type Config struct {
	// Model overrides the provider's default model.
	Model string

	// Temperature for every request.
	Temperature float64

	// MaxTokens caps the answer length. Zero uses the provider default.
	MaxTokens int

	// NativeScript adds a system instruction asking the model to answer
	// directly in the user's language and script.
	NativeScript bool

	Logger *slog.Logger
}

// Option configures a Generator.
type Option func(*Config)

// WithModel overrides the model.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *Config) { c.Temperature = t }
}

// WithMaxTokens caps the answer length.
func WithMaxTokens(n int) Option {
	return func(c *Config) { c.MaxTokens = n }
}

// WithNativeScript toggles the native-script system instruction.
func WithNativeScript(enabled bool) Option {
	return func(c *Config) { c.NativeScript = enabled }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns temperature 0.3 and no system instruction.
func DefaultConfig() *Config {
	return &Config{
		Temperature: 0.3,
		Logger:      slog.Default(),
	}
}

// Generator produces answers through an inference.Provider.
type Generator struct {
	provider inference.Provider
	cfg      *Config
	logger   *slog.Logger
}

// New creates a Generator.
func New(provider inference.Provider, opts ...Option) *Generator {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Generator{
		provider: provider,
		cfg:      cfg,
		logger:   cfg.Logger.With("component", "respond"),
	}
}

// NativeScript reports whether answers come back in the user's language.
func (g *Generator) NativeScript() bool {
	return g.cfg.NativeScript
}

// Complete sends prompt to the model and returns the trimmed answer.
// lang is only used when the native-script instruction is enabled.
func (g *Generator) Complete(ctx context.Context, prompt string, lang language.Language) (string, error) {
	var messages []inference.Message
	if g.cfg.NativeScript {
		messages = append(messages, inference.NewSystemMessage(nativeScriptInstruction(lang)))
	}
	messages = append(messages, inference.NewUserMessage(prompt))

	resp, err := g.provider.Chat(ctx, &inference.ChatRequest{
		Messages:    messages,
		Model:       g.cfg.Model,
		Temperature: inference.Float(g.cfg.Temperature),
		MaxTokens:   g.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("respond: completion failed: %w", err)
	}

	answer := strings.TrimSpace(resp.Message.Content)
	if answer == "" {
		return "", ErrEmptyCompletion
	}

	g.logger.Debug("completion",
		"model", resp.Model,
		"tokens", resp.Usage.TotalTokens,
		"latency_ms", resp.LatencyMs,
	)
	return answer, nil
}

func nativeScriptInstruction(lang language.Language) string {
	return fmt.Sprintf("You are a disaster-assistance helper. Reply only in %s, written in the native %s script. "+
		"Use plain, complete sentences. Do not use markdown, bullet points, headings or emoji.",
		lang.Name, lang.Name)
}
