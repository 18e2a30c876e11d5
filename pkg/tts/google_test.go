package tts

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/googleapis/gax-go/v2"
)

type fakeSpeechClient struct {
	lastRequest *texttospeechpb.SynthesizeSpeechRequest
	audio       []byte
	err         error
	closed      bool
}

func (f *fakeSpeechClient) SynthesizeSpeech(_ context.Context, req *texttospeechpb.SynthesizeSpeechRequest, _ ...gax.CallOption) (*texttospeechpb.SynthesizeSpeechResponse, error) {
	f.lastRequest = req
	if f.err != nil {
		return nil, f.err
	}
	return &texttospeechpb.SynthesizeSpeechResponse{AudioContent: f.audio}, nil
}

func (f *fakeSpeechClient) ListVoices(_ context.Context, _ *texttospeechpb.ListVoicesRequest, _ ...gax.CallOption) (*texttospeechpb.ListVoicesResponse, error) {
	return &texttospeechpb.ListVoicesResponse{}, f.err
}

func (f *fakeSpeechClient) Close() error {
	f.closed = true
	return nil
}

func TestGoogleSynthesize(t *testing.T) {
	client := &fakeSpeechClient{audio: []byte("ID3mp3")}
	g := NewGoogleWithClient(client)

	result, err := g.Synthesize(context.Background(), "namaste", Voice{Language: "hi", Locale: "hi-IN", Name: "hi-IN-SwaraNeural"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(result.Audio) != "ID3mp3" {
		t.Errorf("audio = %q", result.Audio)
	}

	req := client.lastRequest
	if req.GetVoice().GetLanguageCode() != "hi-IN" {
		t.Errorf("language code = %q", req.GetVoice().GetLanguageCode())
	}
	if req.GetAudioConfig().GetAudioEncoding() != texttospeechpb.AudioEncoding_MP3 {
		t.Errorf("encoding = %v", req.GetAudioConfig().GetAudioEncoding())
	}
	if req.GetInput().GetText() != "namaste" {
		t.Errorf("text = %q", req.GetInput().GetText())
	}
}

func TestGoogleDefaultLocale(t *testing.T) {
	client := &fakeSpeechClient{audio: []byte("x")}
	g := NewGoogleWithClient(client)

	if _, err := g.Synthesize(context.Background(), "hello", Voice{}); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if got := client.lastRequest.GetVoice().GetLanguageCode(); got != "en-IN" {
		t.Errorf("language code = %q, want en-IN", got)
	}
}

func TestGoogleErrors(t *testing.T) {
	boom := errors.New("permission denied")
	g := NewGoogleWithClient(&fakeSpeechClient{err: boom})
	if _, err := g.Synthesize(context.Background(), "hello", Voice{}); !errors.Is(err, boom) {
		t.Errorf("error = %v", err)
	}
	if err := g.Health(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Health error = %v", err)
	}

	empty := NewGoogleWithClient(&fakeSpeechClient{})
	if _, err := empty.Synthesize(context.Background(), "hello", Voice{}); !errors.Is(err, ErrNoAudio) {
		t.Errorf("error = %v, want ErrNoAudio", err)
	}
	if _, err := empty.Stream(context.Background(), "", Voice{}); !errors.Is(err, ErrEmptyText) {
		t.Errorf("error = %v, want ErrEmptyText", err)
	}
}

func TestGoogleStreamAndClose(t *testing.T) {
	client := &fakeSpeechClient{audio: []byte("ID3stream")}
	g := NewGoogleWithClient(client)

	stream, err := g.Stream(context.Background(), "hello", Voice{Locale: "ta-IN"})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	audio, _ := ReadAll(stream)
	if string(audio) != "ID3stream" {
		t.Errorf("audio = %q", audio)
	}

	g.Close()
	if !client.closed {
		t.Error("client not closed")
	}
}
