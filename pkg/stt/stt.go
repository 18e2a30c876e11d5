// Package stt turns recorded speech into text.
//
// A Recognizer transcribes one complete utterance. Google uses Cloud
// Speech-to-Text, Whisper uses an OpenAI-compatible transcription endpoint
// (Groq by default). Microphone captures a single phrase from a live input
// device and hands it to a Recognizer.
//
// Failures fall into three groups callers treat differently: nothing
// intelligible was said (ErrNoSpeech), nobody spoke at all
// (ErrListenTimeout), and the service failed (*ServiceError).
package stt

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
)

// Recognizer transcribes a complete utterance.
type Recognizer interface {
	// Recognize returns the transcript of audio spoken in locale ("hi-IN").
	Recognize(ctx context.Context, audio Audio, locale string) (string, error)

	// Name identifies the backend in logs and health reports.
	Name() string

	Close() error
}

// Encoding identifies the audio container or sample format.
type Encoding string

const (
	EncodingUnknown  Encoding = ""
	EncodingLinear16 Encoding = "linear16" // raw little-endian PCM16, mono
	EncodingWAV      Encoding = "wav"
	EncodingFLAC     Encoding = "flac"
	EncodingOggOpus  Encoding = "ogg_opus"
	EncodingWebMOpus Encoding = "webm_opus"
	EncodingMP3      Encoding = "mp3"
)

// Audio is one utterance to transcribe.
type Audio struct {
	Data     []byte
	Encoding Encoding

	// SampleRate is required for EncodingLinear16 and ignored for
	// containers that carry their own header.
	SampleRate int

	// Filename is the upload name, used as a hint for providers that
	// infer the format from it.
	Filename string
}

// Empty reports whether there is no audio at all.
func (a Audio) Empty() bool {
	return len(a.Data) == 0
}

// DetectEncoding sniffs the container from the leading bytes of data,
// falling back to the file extension.
func DetectEncoding(data []byte, filename string) Encoding {
	switch {
	case len(data) >= 12 && bytes.HasPrefix(data, []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return EncodingWAV
	case bytes.HasPrefix(data, []byte("fLaC")):
		return EncodingFLAC
	case bytes.HasPrefix(data, []byte("OggS")):
		return EncodingOggOpus
	case bytes.HasPrefix(data, []byte{0x1A, 0x45, 0xDF, 0xA3}):
		return EncodingWebMOpus
	case bytes.HasPrefix(data, []byte("ID3")), len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return EncodingMP3
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".wav":
		return EncodingWAV
	case ".flac":
		return EncodingFLAC
	case ".ogg", ".opus":
		return EncodingOggOpus
	case ".webm":
		return EncodingWebMOpus
	case ".mp3":
		return EncodingMP3
	case ".pcm", ".raw":
		return EncodingLinear16
	}
	return EncodingUnknown
}

// ContentType returns the MIME type for an encoding.
func (e Encoding) ContentType() string {
	switch e {
	case EncodingWAV, EncodingLinear16:
		return "audio/wav"
	case EncodingFLAC:
		return "audio/flac"
	case EncodingOggOpus:
		return "audio/ogg"
	case EncodingWebMOpus:
		return "audio/webm"
	case EncodingMP3:
		return "audio/mpeg"
	}
	return "application/octet-stream"
}

// Extension returns the file extension for an encoding, with the dot.
func (e Encoding) Extension() string {
	switch e {
	case EncodingWAV, EncodingLinear16:
		return ".wav"
	case EncodingFLAC:
		return ".flac"
	case EncodingOggOpus:
		return ".ogg"
	case EncodingWebMOpus:
		return ".webm"
	case EncodingMP3:
		return ".mp3"
	}
	return ".bin"
}

// LanguageFromLocale returns the language part of a locale: "hi-IN" → "hi".
func LanguageFromLocale(locale string) string {
	lang, _, _ := strings.Cut(locale, "-")
	return strings.ToLower(lang)
}

// joinTranscripts joins recognized segments and trims the result.
func joinTranscripts(parts []string) string {
	var b strings.Builder
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p)
	}
	return b.String()
}
