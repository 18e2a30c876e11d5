package inference

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

const providerGemini = "gemini"

// DefaultGeminiModel is used when no model is configured for Gemini.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiModels is the subset of the genai Models service used here.
type GeminiModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	Get(ctx context.Context, model string, config *genai.GetModelConfig) (*genai.Model, error)
}

// Gemini implements Provider on Google's Gemini API.
type Gemini struct {
	models GeminiModels
	config *Config
	logger *slog.Logger
}

// NewGemini creates a Gemini provider with the Gemini API backend.
func NewGemini(ctx context.Context, opts ...Option) (*Gemini, error) {
	cfg := DefaultConfig()
	cfg.Model = DefaultGeminiModel
	cfg.Apply(opts...)

	if cfg.APIKey == "" {
		return nil, WrapError(providerGemini, ErrNoAPIKey)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, WrapError(providerGemini, fmt.Errorf("create client: %w", err))
	}
	return NewGeminiWithModels(client.Models, opts...), nil
}

// NewGeminiWithModels wraps an existing models service.
func NewGeminiWithModels(models GeminiModels, opts ...Option) *Gemini {
	cfg := DefaultConfig()
	cfg.Model = DefaultGeminiModel
	cfg.Apply(opts...)
	return &Gemini{
		models: models,
		config: cfg,
		logger: cfg.Logger.With("component", "inference.gemini"),
	}
}

// Chat generates a completion. System messages become the system
// instruction; assistant turns map to the "model" role.
func (g *Gemini) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = g.config.Model
	}

	gc := &genai.GenerateContentConfig{}

	temp := float32(g.config.Temperature)
	if req.Temperature != nil {
		temp = float32(*req.Temperature)
	}
	gc.Temperature = &temp
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = g.config.MaxTokens
	}
	gc.MaxOutputTokens = int32(maxTokens)
	if len(req.Stop) > 0 {
		gc.StopSequences = req.Stop
	}

	var system []*genai.Part
	var contents []*genai.Content
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			system = append(system, genai.NewPartFromText(msg.Content))
		case RoleAssistant:
			contents = append(contents, &genai.Content{Role: "model", Parts: []*genai.Part{genai.NewPartFromText(msg.Content)}})
		default:
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{genai.NewPartFromText(msg.Content)}})
		}
	}
	if len(system) > 0 {
		gc.SystemInstruction = &genai.Content{Parts: system}
	}

	resp, err := g.models.GenerateContent(ctx, model, contents, gc)
	if err != nil {
		return nil, WrapError(providerGemini, err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, WrapError(providerGemini, ErrNoChoices)
	}

	cand := resp.Candidates[0]
	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		sb.WriteString(part.Text)
	}

	out := &ChatResponse{
		Message:      NewAssistantMessage(sb.String()),
		FinishReason: strings.ToLower(string(cand.FinishReason)),
		Model:        model,
		LatencyMs:    time.Since(start).Milliseconds(),
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return out, nil
}

// Health fetches the configured model's metadata.
func (g *Gemini) Health(ctx context.Context) error {
	if _, err := g.models.Get(ctx, g.config.Model, nil); err != nil {
		return WrapError(providerGemini, fmt.Errorf("health check: %w", err))
	}
	return nil
}

// Close is a no-op; the genai client holds no closable resources.
func (g *Gemini) Close() error {
	return nil
}

var _ Provider = (*Gemini)(nil)
