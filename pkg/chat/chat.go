// Package chat runs one assistant turn end to end: translate the question
// to English, ask the model, translate the answer back, strip decorative
// symbols, and optionally speak it.
//
// Every transport (HTTP JSON, streaming HTTP, websocket, console) drives
// the same Pipeline.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-sahayak/pkg/language"
	"github.com/teslashibe/go-sahayak/pkg/respond"
	"github.com/teslashibe/go-sahayak/pkg/stt"
	"github.com/teslashibe/go-sahayak/pkg/textclean"
	"github.com/teslashibe/go-sahayak/pkg/translate"
	"github.com/teslashibe/go-sahayak/pkg/tts"
)

// English is the language the model works in.
const English = "en"

// Sentinel errors for common error conditions.
var (
	// ErrEmptyInput is returned for a blank question.
	ErrEmptyInput = errors.New("chat: empty input")

	// ErrEmptyText is returned when asked to speak blank text.
	ErrEmptyText = errors.New("chat: empty text")

	// ErrSpeechDisabled is returned when no synthesizer is configured.
	ErrSpeechDisabled = errors.New("chat: speech synthesis disabled")

	// ErrRecognitionDisabled is returned when no recognizer is configured.
	ErrRecognitionDisabled = errors.New("chat: speech recognition disabled")

	// ErrMicrophoneDisabled is returned when no microphone is configured.
	ErrMicrophoneDisabled = errors.New("chat: microphone disabled")
)

// Turn is one question and its answer.
type Turn struct {
	ID       string
	Input    string
	Language language.Language

	// English is the question after inbound translation.
	English string

	// Prompt is what was sent to the model.
	Prompt string

	// Completion is the model's English answer.
	Completion string

	// Translated is the answer in the user's language before cleaning.
	Translated string

	// Response is the cleaned answer returned to the user.
	Response string

	Duration time.Duration
}

// Config wires the pipeline stages. Catalog, Translator and Generator are
// required; the speech stages are optional.
type Config struct {
	Catalog    *language.Catalog
	Translator *translate.Service
	Generator  *respond.Generator

	Synthesizer tts.Provider
	Recognizer  stt.Recognizer
	Microphone  *stt.Microphone

	Logger *slog.Logger
}

// Validate checks that the required stages are present.
func (c *Config) Validate() error {
	switch {
	case c.Catalog == nil:
		return errors.New("chat: language catalog required")
	case c.Translator == nil:
		return errors.New("chat: translator required")
	case c.Generator == nil:
		return errors.New("chat: response generator required")
	}
	return nil
}

// Pipeline sequences the stages of a turn. It holds no per-turn state and
// is safe for concurrent use.
type Pipeline struct {
	catalog     *language.Catalog
	translator  *translate.Service
	generator   *respond.Generator
	synthesizer tts.Provider
	recognizer  stt.Recognizer
	microphone  *stt.Microphone
	logger      *slog.Logger
}

// New creates a Pipeline.
func New(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Pipeline{
		catalog:     cfg.Catalog,
		translator:  cfg.Translator,
		generator:   cfg.Generator,
		synthesizer: cfg.Synthesizer,
		recognizer:  cfg.Recognizer,
		microphone:  cfg.Microphone,
		logger:      cfg.Logger.With("component", "chat"),
	}, nil
}

// Catalog returns the language catalog.
func (p *Pipeline) Catalog() *language.Catalog {
	return p.catalog
}

// CanSpeak reports whether a synthesizer is configured.
func (p *Pipeline) CanSpeak() bool {
	return p.synthesizer != nil
}

// CanListen reports whether a microphone is configured.
func (p *Pipeline) CanListen() bool {
	return p.microphone != nil
}

// Reply answers input in the language named by langCode. Unknown codes use
// the catalog default. Translation failures degrade to the untranslated
// text; a completion failure fails the turn.
func (p *Pipeline) Reply(ctx context.Context, input, langCode string) (*Turn, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}

	start := time.Now()
	lang := p.catalog.Resolve(langCode)
	turn := &Turn{
		ID:       uuid.NewString(),
		Input:    input,
		Language: lang,
	}
	logger := p.logger.With("turn_id", turn.ID, "lang", lang.Code)

	turn.English = p.translator.Translate(ctx, input, English, lang.Code)
	turn.Prompt = respond.Prompt(turn.English)

	completion, err := p.generator.Complete(ctx, turn.Prompt, lang)
	if err != nil {
		logger.Error("completion failed", "error", err)
		return nil, err
	}
	turn.Completion = completion

	// In native-script mode the model may already answer in the target
	// language, so let the translator detect the source.
	source := English
	if p.generator.NativeScript() {
		source = translate.AutoDetect
	}
	turn.Translated = p.translator.Translate(ctx, completion, lang.Code, source)
	turn.Response = textclean.Clean(turn.Translated)
	turn.Duration = time.Since(start)

	logger.Info("turn complete",
		"input_chars", len(input),
		"response_chars", len(turn.Response),
		"duration_ms", turn.Duration.Milliseconds(),
	)
	return turn, nil
}

// Speak synthesizes text in full with the voice for langCode.
func (p *Pipeline) Speak(ctx context.Context, text, langCode string) (*tts.AudioResult, error) {
	voice, err := p.voiceFor(text, langCode)
	if err != nil {
		return nil, err
	}
	return p.synthesizer.Synthesize(ctx, text, voice)
}

// SpeakStream starts synthesis and returns audio as it is produced.
// The caller must Close the stream.
func (p *Pipeline) SpeakStream(ctx context.Context, text, langCode string) (tts.AudioStream, error) {
	voice, err := p.voiceFor(text, langCode)
	if err != nil {
		return nil, err
	}
	return p.synthesizer.Stream(ctx, text, voice)
}

func (p *Pipeline) voiceFor(text, langCode string) (tts.Voice, error) {
	if p.synthesizer == nil {
		return tts.Voice{}, ErrSpeechDisabled
	}
	if strings.TrimSpace(text) == "" {
		return tts.Voice{}, ErrEmptyText
	}
	return tts.VoiceFor(p.catalog.Resolve(langCode)), nil
}

// Transcribe recognizes uploaded audio spoken in langCode.
func (p *Pipeline) Transcribe(ctx context.Context, audio stt.Audio, langCode string) (string, error) {
	if p.recognizer == nil {
		return "", ErrRecognitionDisabled
	}
	if audio.Empty() {
		return "", stt.ErrNoAudio
	}
	lang := p.catalog.Resolve(langCode)
	return p.recognizer.Recognize(ctx, audio, lang.Locale)
}

// Listen captures one phrase from the microphone and recognizes it.
func (p *Pipeline) Listen(ctx context.Context, langCode string) (string, error) {
	if p.microphone == nil {
		return "", ErrMicrophoneDisabled
	}
	lang := p.catalog.Resolve(langCode)
	return p.microphone.Listen(ctx, lang.Locale)
}

// VoiceTurn is the result of a spoken exchange.
type VoiceTurn struct {
	Transcript string
	Turn       *Turn

	// Audio is nil when no synthesizer is configured.
	Audio *tts.AudioResult
}

// Converse runs a full spoken exchange. With empty audio it listens on the
// microphone; otherwise it transcribes audio. The answer is synthesized
// when a synthesizer is configured.
func (p *Pipeline) Converse(ctx context.Context, audio stt.Audio, langCode string) (*VoiceTurn, error) {
	var transcript string
	var err error
	if audio.Empty() {
		transcript, err = p.Listen(ctx, langCode)
	} else {
		transcript, err = p.Transcribe(ctx, audio, langCode)
	}
	if err != nil {
		return nil, err
	}

	turn, err := p.Reply(ctx, transcript, langCode)
	if err != nil {
		if errors.Is(err, ErrEmptyInput) {
			return nil, stt.ErrNoSpeech
		}
		return nil, err
	}

	result := &VoiceTurn{Transcript: transcript, Turn: turn}
	if p.synthesizer == nil {
		return result, nil
	}
	result.Audio, err = p.Speak(ctx, turn.Response, turn.Language.Code)
	if err != nil {
		return nil, err
	}
	return result, nil
}
