// Package audioio captures microphone audio as PCM16 chunks.
//
// Backends:
//   - PortAudio - a real input device, compiled in with the "portaudio" build tag
//   - Mock - scripted synthetic audio for tests and headless servers
//
// The backend is selected from configuration; "auto" picks PortAudio when it
// was compiled in.
package audioio

import (
	"fmt"
	"time"
)

// Backend represents the audio backend type.
type Backend string

const (
	// BackendAuto selects PortAudio when available.
	BackendAuto Backend = "auto"
	// BackendPortAudio captures from a PortAudio input device.
	BackendPortAudio Backend = "portaudio"
	// BackendMock uses a mock implementation for testing.
	BackendMock Backend = "mock"
)

// Config holds audio capture configuration.
type Config struct {
	// Backend specifies which audio backend to use.
	// Default: "auto"
	Backend Backend `yaml:"backend" json:"backend"`

	// SampleRate is the delivered sample rate in Hz. Devices that cannot
	// open at this rate are resampled.
	// Default: 16000 (what the recognizers expect for LINEAR16)
	SampleRate int `yaml:"sample_rate" json:"sample_rate"`

	// Channels is the number of delivered channels.
	// Default: 1 (mono)
	Channels int `yaml:"channels" json:"channels"`

	// BufferDuration is the size of audio buffers.
	// Default: 30ms
	BufferDuration time.Duration `yaml:"buffer_duration" json:"buffer_duration"`

	// Device is a PortAudio device name. Empty selects the default input.
	Device string `yaml:"device" json:"device"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Backend:        BackendAuto,
		SampleRate:     16000,
		Channels:       1,
		BufferDuration: 30 * time.Millisecond,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("channels must be positive, got %d", c.Channels)
	}
	if c.BufferDuration <= 0 {
		return fmt.Errorf("buffer_duration must be positive, got %v", c.BufferDuration)
	}
	return nil
}

// BufferSize returns the number of frames per buffer.
func (c *Config) BufferSize() int {
	return int(float64(c.SampleRate) * c.BufferDuration.Seconds())
}

// BufferBytes returns the size of a buffer in bytes.
func (c *Config) BufferBytes() int {
	return c.BufferSize() * c.Channels * 2
}
