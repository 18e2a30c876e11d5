package audioio

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Backend = BackendMock
	cfg.BufferDuration = 10 * time.Millisecond
	return cfg
}

func TestMockSource_StartStop(t *testing.T) {
	src := NewMockSource(testConfig(), nil)
	defer src.Close()

	ctx := context.Background()
	if err := src.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := src.Start(ctx); err != nil {
		t.Fatalf("second Start failed: %v", err)
	}
	if err := src.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := src.Stop(); err != nil {
		t.Fatalf("second Stop failed: %v", err)
	}

	if err := src.Start(ctx); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if src.Starts() != 2 {
		t.Errorf("Starts = %d, want 2", src.Starts())
	}
}

func TestMockSource_Read(t *testing.T) {
	cfg := testConfig()
	src := NewMockSource(cfg, nil)
	defer src.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := src.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	chunk, err := src.Read(ctx)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(chunk.Samples) != cfg.BufferSize()*cfg.Channels {
		t.Errorf("samples = %d, want %d", len(chunk.Samples), cfg.BufferSize()*cfg.Channels)
	}
	if chunk.SampleRate != cfg.SampleRate {
		t.Errorf("sample rate = %d", chunk.SampleRate)
	}
	if chunk.Duration() != cfg.BufferDuration {
		t.Errorf("duration = %v, want %v", chunk.Duration(), cfg.BufferDuration)
	}
}

func TestMockSource_ReadAfterStop(t *testing.T) {
	src := NewMockSource(testConfig(), nil, WithUnpaced())
	defer src.Close()

	if err := src.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	src.Stop()

	// Drain anything buffered before the channel closed.
	for {
		_, err := src.Read(context.Background())
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
	}
}

func TestMockSource_Script(t *testing.T) {
	cfg := testConfig()
	src := NewMockSource(cfg, nil, WithUnpaced(), WithScript(
		Segment{Duration: 50 * time.Millisecond},
		Segment{Duration: 50 * time.Millisecond, Amplitude: 0.6},
	))
	defer src.Close()

	ctx := context.Background()
	if err := src.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	var levels []float64
	for i := 0; i < 15; i++ {
		chunk, err := src.Read(ctx)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		levels = append(levels, chunk.RMS())
	}

	for i, rms := range levels {
		loud := rms > 0.1
		wantLoud := i >= 5 && i < 10
		if loud != wantLoud {
			t.Errorf("chunk %d rms = %.3f, loud = %v want %v", i, rms, loud, wantLoud)
		}
	}
}

func TestMockSource_Closed(t *testing.T) {
	src := NewMockSource(testConfig(), nil)
	src.Close()
	if err := src.Start(context.Background()); !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("Start after Close = %v, want ErrClosedPipe", err)
	}
}

func TestMockSource_Stats(t *testing.T) {
	src := NewMockSource(testConfig(), nil, WithUnpaced())
	defer src.Close()

	ctx := context.Background()
	src.Start(ctx)
	for i := 0; i < 3; i++ {
		if _, err := src.Read(ctx); err != nil {
			t.Fatalf("Read: %v", err)
		}
	}

	stats := src.Stats()
	if !stats.Running || stats.Backend != "mock" {
		t.Errorf("stats = %+v", stats)
	}
	if stats.ChunksRead < 3 {
		t.Errorf("ChunksRead = %d, want >= 3", stats.ChunksRead)
	}
}

func TestNewSource(t *testing.T) {
	src, err := NewSource(testConfig(), nil)
	if err != nil {
		t.Fatalf("NewSource(mock): %v", err)
	}
	if src.Name() != "mock" {
		t.Errorf("Name = %q", src.Name())
	}
	src.Close()

	bad := testConfig()
	bad.SampleRate = 0
	if _, err := NewSource(bad, nil); err == nil {
		t.Error("expected validation error")
	}

	unknown := testConfig()
	unknown.Backend = "alsa"
	if _, err := NewSource(unknown, nil); !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("error = %v, want ErrBackendUnavailable", err)
	}
}
