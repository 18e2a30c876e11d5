package stt

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/googleapis/gax-go/v2"

	"github.com/teslashibe/go-sahayak/internal/gcp"
)

const providerGoogle = "google"

// SpeechClient is the subset of the Cloud Speech client used here.
type SpeechClient interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest, opts ...gax.CallOption) (*speechpb.RecognizeResponse, error)
	Close() error
}

// Google recognizes speech with Cloud Speech-to-Text v1.
type Google struct {
	client SpeechClient
	config *Config
	logger *slog.Logger
}

// NewGoogle creates a Cloud Speech recognizer.
func NewGoogle(ctx context.Context, opts ...Option) (*Google, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	clientOpts, err := gcp.ClientOptions(ctx, cfg.Credentials)
	if err != nil {
		return nil, err
	}
	client, err := speech.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("stt: create speech client: %w", err)
	}
	return NewGoogleWithClient(client, opts...), nil
}

// NewGoogleWithClient wraps an existing client.
func NewGoogleWithClient(client SpeechClient, opts ...Option) *Google {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	return &Google{
		client: client,
		config: cfg,
		logger: cfg.Logger.With("component", "stt.google"),
	}
}

// Recognize transcribes audio. Only the best alternative of each result
// is kept.
func (g *Google) Recognize(ctx context.Context, audio Audio, locale string) (string, error) {
	if audio.Empty() {
		return "", ErrNoAudio
	}

	rc, err := recognitionConfig(audio, locale)
	if err != nil {
		return "", err
	}
	if g.config.Model != "" {
		rc.Model = g.config.Model
	}

	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: rc,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio.Data},
		},
	})
	if err != nil {
		return "", serviceError(providerGoogle, err)
	}

	var parts []string
	for _, result := range resp.GetResults() {
		if alts := result.GetAlternatives(); len(alts) > 0 {
			parts = append(parts, alts[0].GetTranscript())
		}
	}
	transcript := joinTranscripts(parts)

	g.logger.Debug("recognized audio",
		"locale", locale,
		"bytes", len(audio.Data),
		"chars", len(transcript),
		"latency_ms", time.Since(start).Milliseconds(),
	)

	if transcript == "" {
		return "", ErrNoSpeech
	}
	return transcript, nil
}

func recognitionConfig(audio Audio, locale string) (*speechpb.RecognitionConfig, error) {
	rc := &speechpb.RecognitionConfig{
		LanguageCode:               locale,
		EnableAutomaticPunctuation: true,
	}

	enc := audio.Encoding
	if enc == EncodingUnknown {
		enc = DetectEncoding(audio.Data, audio.Filename)
	}

	switch enc {
	case EncodingLinear16:
		if audio.SampleRate <= 0 {
			return nil, fmt.Errorf("%w: linear16 without sample rate", ErrUnsupportedEncoding)
		}
		rc.Encoding = speechpb.RecognitionConfig_LINEAR16
		rc.SampleRateHertz = int32(audio.SampleRate)
	case EncodingWAV, EncodingFLAC:
		// Read from the file header.
		rc.Encoding = speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	case EncodingOggOpus:
		rc.Encoding = speechpb.RecognitionConfig_OGG_OPUS
		rc.SampleRateHertz = 48000
	case EncodingWebMOpus:
		rc.Encoding = speechpb.RecognitionConfig_WEBM_OPUS
		rc.SampleRateHertz = 48000
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, enc)
	}
	return rc, nil
}

// Name returns "google".
func (g *Google) Name() string {
	return providerGoogle
}

// Close closes the underlying client.
func (g *Google) Close() error {
	return g.client.Close()
}

var _ Recognizer = (*Google)(nil)
