package tts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/googleapis/gax-go/v2"

	"github.com/teslashibe/go-sahayak/internal/gcp"
)

const providerGoogle = "google"

// GoogleClient is the subset of the Cloud Text-to-Speech client used here.
type GoogleClient interface {
	SynthesizeSpeech(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest, opts ...gax.CallOption) (*texttospeechpb.SynthesizeSpeechResponse, error)
	ListVoices(ctx context.Context, req *texttospeechpb.ListVoicesRequest, opts ...gax.CallOption) (*texttospeechpb.ListVoicesResponse, error)
	Close() error
}

// Google synthesizes MP3 with Google Cloud Text-to-Speech. Voices are
// picked by locale; engine-specific voice names from the catalog are not
// Google voices and are ignored.
type Google struct {
	client GoogleClient
	config *Config
	logger *slog.Logger
}

// NewGoogle creates a Cloud Text-to-Speech provider.
func NewGoogle(ctx context.Context, opts ...Option) (*Google, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	clientOpts, err := gcp.ClientOptions(ctx, cfg.Credentials)
	if err != nil {
		return nil, WrapError(providerGoogle, err)
	}
	client, err := texttospeech.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, WrapError(providerGoogle, fmt.Errorf("create client: %w", err))
	}
	return NewGoogleWithClient(client, opts...), nil
}

// NewGoogleWithClient wraps an existing client.
func NewGoogleWithClient(client GoogleClient, opts ...Option) *Google {
	cfg := DefaultConfig()
	cfg.DefaultVoice = "en-IN"
	cfg.Apply(opts...)
	return &Google{
		client: client,
		config: cfg,
		logger: cfg.Logger.With("component", "tts.google"),
	}
}

// Synthesize converts text to MP3.
func (g *Google) Synthesize(ctx context.Context, text string, voice Voice) (*AudioResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, WrapError(providerGoogle, ErrEmptyText)
	}
	start := time.Now()

	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	locale := voice.Locale
	if locale == "" {
		locale = g.config.DefaultVoice
	}

	resp, err := g.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: locale,
			SsmlGender:   texttospeechpb.SsmlVoiceGender_FEMALE,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding:   texttospeechpb.AudioEncoding_MP3,
			SampleRateHertz: int32(mp3Format.SampleRate),
		},
	})
	if err != nil {
		return nil, WrapError(providerGoogle, err)
	}
	if len(resp.GetAudioContent()) == 0 {
		return nil, WrapError(providerGoogle, ErrNoAudio)
	}

	g.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(resp.GetAudioContent()),
		"locale", locale,
		"latency_ms", time.Since(start).Milliseconds(),
	)

	return &AudioResult{
		Audio:     resp.GetAudioContent(),
		Format:    mp3Format,
		CharCount: len(text),
		Latency:   time.Since(start),
	}, nil
}

// Stream synthesizes the whole clip and exposes it as a stream; the
// unary API has no incremental output.
func (g *Google) Stream(ctx context.Context, text string, voice Voice) (AudioStream, error) {
	result, err := g.Synthesize(ctx, text, voice)
	if err != nil {
		return nil, err
	}
	return NewBufferStream(result.Audio, result.Format), nil
}

// Health lists voices for the default locale.
func (g *Google) Health(ctx context.Context) error {
	_, err := g.client.ListVoices(ctx, &texttospeechpb.ListVoicesRequest{LanguageCode: g.config.DefaultVoice})
	if err != nil {
		return WrapError(providerGoogle, fmt.Errorf("health check: %w", err))
	}
	return nil
}

// Close closes the underlying client.
func (g *Google) Close() error {
	return g.client.Close()
}

var _ Provider = (*Google)(nil)
