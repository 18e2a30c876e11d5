package stt

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/googleapis/gax-go/v2"
)

type fakeSpeechClient struct {
	last    *speechpb.RecognizeRequest
	results []string
	err     error
	closed  bool
}

func (f *fakeSpeechClient) Recognize(_ context.Context, req *speechpb.RecognizeRequest, _ ...gax.CallOption) (*speechpb.RecognizeResponse, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	resp := &speechpb.RecognizeResponse{}
	for _, text := range f.results {
		resp.Results = append(resp.Results, &speechpb.SpeechRecognitionResult{
			Alternatives: []*speechpb.SpeechRecognitionAlternative{
				{Transcript: text, Confidence: 0.9},
				{Transcript: "ignored alternative"},
			},
		})
	}
	return resp, nil
}

func (f *fakeSpeechClient) Close() error {
	f.closed = true
	return nil
}

func TestGoogleRecognize(t *testing.T) {
	client := &fakeSpeechClient{results: []string{"flood near", " the river "}}
	g := NewGoogleWithClient(client)

	got, err := g.Recognize(context.Background(), Audio{Data: []byte{1, 2, 3, 4}, Encoding: EncodingLinear16, SampleRate: 16000}, "ta-IN")
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if got != "flood near the river" {
		t.Errorf("transcript = %q", got)
	}

	cfg := client.last.GetConfig()
	if cfg.GetLanguageCode() != "ta-IN" {
		t.Errorf("language = %q", cfg.GetLanguageCode())
	}
	if cfg.GetEncoding() != speechpb.RecognitionConfig_LINEAR16 || cfg.GetSampleRateHertz() != 16000 {
		t.Errorf("encoding = %v @ %d", cfg.GetEncoding(), cfg.GetSampleRateHertz())
	}
	if string(client.last.GetAudio().GetContent()) != "\x01\x02\x03\x04" {
		t.Error("audio content not forwarded")
	}
}

func TestGoogleRecognitionConfig(t *testing.T) {
	tests := []struct {
		name  string
		audio Audio
		want  speechpb.RecognitionConfig_AudioEncoding
		rate  int32
		err   bool
	}{
		{"wav from header", Audio{Data: WAV([]byte{0, 0}, 8000)}, speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, 0, false},
		{"ogg opus", Audio{Data: []byte("OggS...")}, speechpb.RecognitionConfig_OGG_OPUS, 48000, false},
		{"webm opus", Audio{Data: []byte{1}, Encoding: EncodingWebMOpus}, speechpb.RecognitionConfig_WEBM_OPUS, 48000, false},
		{"pcm without rate", Audio{Data: []byte{1}, Encoding: EncodingLinear16}, 0, 0, true},
		{"mp3", Audio{Data: []byte("ID3...")}, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc, err := recognitionConfig(tt.audio, "en-IN")
			if tt.err {
				if !errors.Is(err, ErrUnsupportedEncoding) {
					t.Errorf("error = %v, want ErrUnsupportedEncoding", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("recognitionConfig: %v", err)
			}
			if rc.GetEncoding() != tt.want || rc.GetSampleRateHertz() != tt.rate {
				t.Errorf("got %v @ %d, want %v @ %d", rc.GetEncoding(), rc.GetSampleRateHertz(), tt.want, tt.rate)
			}
		})
	}
}

func TestGoogleErrors(t *testing.T) {
	audio := Audio{Data: []byte{1, 2}, Encoding: EncodingLinear16, SampleRate: 16000}

	g := NewGoogleWithClient(&fakeSpeechClient{})
	if _, err := g.Recognize(context.Background(), audio, "en-IN"); !errors.Is(err, ErrNoSpeech) {
		t.Errorf("empty results: error = %v, want ErrNoSpeech", err)
	}
	if _, err := g.Recognize(context.Background(), Audio{}, "en-IN"); !errors.Is(err, ErrNoAudio) {
		t.Errorf("empty audio: error = %v, want ErrNoAudio", err)
	}

	boom := errors.New("connection refused")
	g = NewGoogleWithClient(&fakeSpeechClient{err: boom})
	_, err := g.Recognize(context.Background(), audio, "en-IN")
	if !IsServiceError(err) || !errors.Is(err, boom) {
		t.Errorf("error = %v, want ServiceError wrapping %v", err, boom)
	}
}

func TestGoogleClose(t *testing.T) {
	client := &fakeSpeechClient{}
	NewGoogleWithClient(client).Close()
	if !client.closed {
		t.Error("client not closed")
	}
}
