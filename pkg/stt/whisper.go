package stt

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/teslashibe/go-sahayak/internal/httpc"
)

const providerWhisper = "whisper"

// Whisper defaults target Groq's OpenAI-compatible endpoint.
const (
	DefaultWhisperBaseURL = "https://api.groq.com/openai/v1/"
	DefaultWhisperModel   = "whisper-large-v3"
)

// Whisper recognizes speech through an OpenAI-compatible
// /audio/transcriptions endpoint.
type Whisper struct {
	client openai.Client
	config *Config
	logger *slog.Logger
}

// NewWhisper creates a Whisper recognizer.
func NewWhisper(opts ...Option) (*Whisper, error) {
	cfg := DefaultConfig()
	cfg.BaseURL = DefaultWhisperBaseURL
	cfg.Model = DefaultWhisperModel
	cfg.Apply(opts...)

	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithHTTPClient(httpc.NewClient(cfg.Timeout)),
		option.WithMaxRetries(cfg.MaxRetries),
	)

	return &Whisper{
		client: client,
		config: cfg,
		logger: cfg.Logger.With("component", "stt.whisper"),
	}, nil
}

// Recognize uploads audio for transcription. Raw PCM is wrapped in a WAV
// header first since the endpoint only accepts files.
func (w *Whisper) Recognize(ctx context.Context, audio Audio, locale string) (string, error) {
	if audio.Empty() {
		return "", ErrNoAudio
	}

	data := audio.Data
	enc := audio.Encoding
	if enc == EncodingUnknown {
		enc = DetectEncoding(data, audio.Filename)
	}
	if enc == EncodingLinear16 {
		if audio.SampleRate <= 0 {
			return "", ErrUnsupportedEncoding
		}
		data = WAV(data, audio.SampleRate)
	}

	name := audio.Filename
	if name == "" || enc == EncodingLinear16 {
		name = "speech" + enc.Extension()
	}

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(data), name, enc.ContentType()),
		Model: openai.AudioModel(w.config.Model),
	}
	if lang := LanguageFromLocale(locale); lang != "" {
		params.Language = openai.String(lang)
	}

	start := time.Now()
	resp, err := w.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", serviceError(providerWhisper, err)
	}

	transcript := joinTranscripts([]string{resp.Text})
	w.logger.Debug("recognized audio",
		"locale", locale,
		"bytes", len(data),
		"chars", len(transcript),
		"latency_ms", time.Since(start).Milliseconds(),
	)

	if transcript == "" {
		return "", ErrNoSpeech
	}
	return transcript, nil
}

// Name returns "whisper".
func (w *Whisper) Name() string {
	return providerWhisper
}

// Close is a no-op.
func (w *Whisper) Close() error {
	return nil
}

var _ Recognizer = (*Whisper)(nil)
