// Package inference provides chat completion behind a single Provider
// interface.
//
// Client talks to any OpenAI-compatible endpoint (Groq by default), Gemini
// uses Google's genai SDK, and Chain falls back across providers in order.
//
// Example usage:
//
//	client, _ := inference.NewClient(
//	    inference.WithAPIKey(os.Getenv("GROQ_API_KEY")),
//	)
//	defer client.Close()
//
//	resp, _ := client.Chat(ctx, &inference.ChatRequest{
//	    Messages:    []inference.Message{inference.NewUserMessage("Is the river safe to cross?")},
//	    Temperature: inference.Float(0.3),
//	})
package inference

import "context"

// Float returns a pointer to v, for optional request fields.
func Float(v float64) *float64 {
	return &v
}

// Provider generates chat completions.
type Provider interface {
	// Chat generates a response from a sequence of messages.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// ChatRequest for chat completions.
type ChatRequest struct {
	// Messages is the conversation history.
	Messages []Message

	// Model overrides the default model.
	Model string

	// MaxTokens limits the response length.
	MaxTokens int

	// Temperature controls randomness (0.0-2.0). Nil uses the client's
	// configured temperature; a pointer to 0 is sent as 0.
	Temperature *float64

	// Stop sequences that halt generation.
	Stop []string
}

// ChatResponse from chat completion.
type ChatResponse struct {
	// Message is the assistant's response.
	Message Message

	// FinishReason indicates why generation stopped.
	FinishReason string

	// Usage tracks token consumption.
	Usage Usage

	// Model used for generation.
	Model string

	// LatencyMs is the response time in milliseconds.
	LatencyMs int64
}

// Usage tracks token consumption for billing and limits.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
