package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-sahayak/pkg/audioio"
)

// MicrophoneConfig tunes phrase detection. Durations are measured in
// captured audio, not wall-clock time.
type MicrophoneConfig struct {
	// AmbientDuration is spent measuring background noise before listening.
	AmbientDuration time.Duration

	// ThresholdFloor is the minimum speech level (normalized RMS).
	ThresholdFloor float64

	// ThresholdFactor scales the ambient level into the speech threshold.
	ThresholdFactor float64

	// Timeout is how long to wait for speech to start.
	Timeout time.Duration

	// PhraseLimit caps the length of one phrase.
	PhraseLimit time.Duration

	// PauseDuration of quiet ends the phrase.
	PauseDuration time.Duration

	Logger *slog.Logger
}

// DefaultMicrophoneConfig returns the standard listening parameters.
func DefaultMicrophoneConfig() MicrophoneConfig {
	return MicrophoneConfig{
		AmbientDuration: 1500 * time.Millisecond,
		ThresholdFloor:  0.01,
		ThresholdFactor: 1.5,
		Timeout:         10 * time.Second,
		PhraseLimit:     15 * time.Second,
		PauseDuration:   800 * time.Millisecond,
		Logger:          slog.Default(),
	}
}

// WithTimeouts returns a copy with the wait and phrase limits set.
func (c MicrophoneConfig) WithTimeouts(timeout, phraseLimit time.Duration) MicrophoneConfig {
	c.Timeout = timeout
	c.PhraseLimit = phraseLimit
	return c
}

// Validate checks the configuration for errors.
func (c *MicrophoneConfig) Validate() error {
	if c.Timeout <= 0 || c.PhraseLimit <= 0 || c.PauseDuration <= 0 {
		return errors.New("stt: microphone timeouts must be positive")
	}
	if c.ThresholdFactor < 1 {
		return errors.New("stt: threshold factor must be at least 1")
	}
	return nil
}

// Microphone captures one phrase at a time from an audio source and
// recognizes it. Concurrent Listen calls are serialized; there is only
// one device.
type Microphone struct {
	source     audioio.Source
	recognizer Recognizer
	config     MicrophoneConfig
	logger     *slog.Logger

	mu sync.Mutex
}

// NewMicrophone creates a listener over source.
func NewMicrophone(source audioio.Source, recognizer Recognizer, cfg MicrophoneConfig) (*Microphone, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Microphone{
		source:     source,
		recognizer: recognizer,
		config:     cfg,
		logger:     cfg.Logger.With("component", "stt.microphone"),
	}, nil
}

// Listen captures a phrase and returns its transcript.
func (m *Microphone) Listen(ctx context.Context, locale string) (string, error) {
	audio, err := m.Capture(ctx)
	if err != nil {
		return "", err
	}
	return m.recognizer.Recognize(ctx, audio, locale)
}

// Capture calibrates against ambient noise, waits for speech, and records
// until a pause or the phrase limit. The result is mono LINEAR16.
func (m *Microphone) Capture(ctx context.Context) (Audio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Guard against a stalled device.
	budget := m.config.AmbientDuration + m.config.Timeout + m.config.PhraseLimit + 5*time.Second
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	if err := m.source.Start(ctx); err != nil {
		return Audio{}, fmt.Errorf("stt: start microphone: %w", err)
	}
	defer m.source.Stop()

	threshold, err := m.calibrate(ctx)
	if err != nil {
		return Audio{}, err
	}

	var pcm []int16
	var waited time.Duration
	for {
		chunk, err := m.read(ctx)
		if err != nil {
			return Audio{}, err
		}
		if chunk.RMS() >= threshold {
			pcm = append(pcm, chunk.Samples...)
			break
		}
		waited += chunk.Duration()
		if waited >= m.config.Timeout {
			m.logger.Debug("no speech before timeout", "waited", waited, "threshold", threshold)
			return Audio{}, ErrListenTimeout
		}
	}

	var silence time.Duration
	phrase := time.Duration(len(pcm)) * time.Second / time.Duration(m.source.Config().SampleRate)
	for phrase < m.config.PhraseLimit {
		chunk, err := m.read(ctx)
		if err != nil {
			return Audio{}, err
		}
		pcm = append(pcm, chunk.Samples...)
		phrase += chunk.Duration()

		if chunk.RMS() < threshold {
			silence += chunk.Duration()
			if silence >= m.config.PauseDuration {
				break
			}
		} else {
			silence = 0
		}
	}

	sampleRate := m.source.Config().SampleRate
	m.logger.Debug("captured phrase",
		"duration", phrase,
		"threshold", threshold,
		"sample_rate", sampleRate,
	)

	return Audio{
		Data:       audioio.SamplesToBytes(pcm),
		Encoding:   EncodingLinear16,
		SampleRate: sampleRate,
	}, nil
}

// calibrate averages the ambient level and derives the speech threshold.
func (m *Microphone) calibrate(ctx context.Context) (float64, error) {
	var sum float64
	var n int
	var elapsed time.Duration
	for elapsed < m.config.AmbientDuration {
		chunk, err := m.read(ctx)
		if err != nil {
			return 0, err
		}
		sum += chunk.RMS()
		n++
		elapsed += chunk.Duration()
	}

	threshold := m.config.ThresholdFloor
	if n > 0 {
		if scaled := sum / float64(n) * m.config.ThresholdFactor; scaled > threshold {
			threshold = scaled
		}
	}
	return threshold, nil
}

// read returns the next non-empty mono chunk.
func (m *Microphone) read(ctx context.Context) (audioio.AudioChunk, error) {
	for {
		chunk, err := m.source.Read(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return chunk, fmt.Errorf("stt: microphone stopped: %w", err)
			}
			return chunk, err
		}
		if len(chunk.Samples) == 0 {
			continue
		}
		if chunk.Channels > 1 {
			chunk.Samples = audioio.Downmix(chunk.Samples, chunk.Channels)
			chunk.Channels = 1
		}
		return chunk, nil
	}
}

// Close releases the audio source.
func (m *Microphone) Close() error {
	return m.source.Close()
}
