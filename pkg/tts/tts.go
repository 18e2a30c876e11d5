// Package tts converts assistant replies into spoken audio.
//
// Every provider can synthesize a complete buffer (Synthesize) or relay audio
// incrementally as it is produced (Stream). Edge runs the edge-tts engine as
// a subprocess, Google uses Cloud Text-to-Speech, OpenAI talks to any
// OpenAI-compatible /audio/speech endpoint, and Chain falls back across them.
//
// Example usage:
//
//	provider := tts.NewEdge()
//	voice := tts.VoiceFor(catalog.Resolve("hi"))
//
//	result, err := provider.Synthesize(ctx, "सुरक्षित रहें", voice)
//	if err != nil {
//	    return err
//	}
//	payload := result.Base64()
package tts

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/teslashibe/go-sahayak/pkg/language"
)

// ContentTypeMPEG is the MIME type of every audio payload produced here.
const ContentTypeMPEG = "audio/mpeg"

// Provider defines the TTS provider interface.
type Provider interface {
	// Synthesize converts text to audio, returning the complete audio buffer.
	Synthesize(ctx context.Context, text string, voice Voice) (*AudioResult, error)

	// Stream converts text to audio, returning chunks as they are produced.
	// A non-nil error means no audio was produced at all.
	Stream(ctx context.Context, text string, voice Voice) (AudioStream, error)

	// Health checks that the provider can be reached.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// Voice selects the speaker for one synthesis request.
type Voice struct {
	// Language is the short language code, e.g. "hi".
	Language string

	// Locale is the regional tag, e.g. "hi-IN".
	Locale string

	// Name is an engine-specific voice, e.g. "hi-IN-SwaraNeural".
	// Providers that cannot use it fall back to their configured voice.
	Name string
}

// VoiceFor returns the voice for a catalog language.
func VoiceFor(l language.Language) Voice {
	return Voice{Language: l.Code, Locale: l.Locale, Name: l.Voice}
}

// AudioStream represents a streaming audio response.
// Callers should read until Read returns nil, then call Close.
type AudioStream interface {
	// Read returns the next audio chunk.
	// Returns nil when the stream is complete (not an error).
	Read() ([]byte, error)

	// Close stops the stream and releases resources.
	Close() error

	// Format returns the audio format metadata.
	Format() AudioFormat
}

// AudioResult represents a complete audio synthesis result.
type AudioResult struct {
	// Audio contains the encoded audio data.
	Audio []byte

	Format AudioFormat

	// CharCount is the number of characters synthesized.
	CharCount int

	// Latency is the time spent synthesizing.
	Latency time.Duration
}

// Base64 returns the audio as standard base64 for JSON transport.
func (r *AudioResult) Base64() string {
	return base64.StdEncoding.EncodeToString(r.Audio)
}

// AudioFormat describes the audio encoding parameters.
type AudioFormat struct {
	Encoding   Encoding
	SampleRate int
	Channels   int
}

// ContentType returns the MIME type for the format.
func (f AudioFormat) ContentType() string {
	switch f.Encoding {
	case EncodingLinear16:
		return "audio/l16"
	default:
		return ContentTypeMPEG
	}
}

// Encoding represents audio encoding types.
type Encoding string

const (
	// EncodingMP3 is MPEG-1 layer 3.
	EncodingMP3 Encoding = "mp3"

	// EncodingLinear16 is raw little-endian PCM16.
	EncodingLinear16 Encoding = "linear16"
)

// Edge-tts produces 24kHz mono MP3 by default; the cloud engines return
// 24kHz MP3 when asked for it.
var mp3Format = AudioFormat{Encoding: EncodingMP3, SampleRate: 24000, Channels: 1}
