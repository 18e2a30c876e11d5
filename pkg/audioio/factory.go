package audioio

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrBackendUnavailable is returned when the requested backend was not
// compiled into this binary.
var ErrBackendUnavailable = errors.New("audioio: backend unavailable")

// NewSource creates a new audio source with the given configuration.
// If cfg.Backend is BackendAuto, the best available backend is selected.
func NewSource(cfg Config, logger *slog.Logger) (Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "audioio")

	backend := cfg.Backend
	if backend == BackendAuto {
		backend = detectBestBackend()
	}

	logger.Info("creating audio source",
		"backend", backend,
		"sample_rate", cfg.SampleRate,
		"channels", cfg.Channels,
		"buffer_ms", cfg.BufferDuration.Milliseconds(),
	)

	switch backend {
	case BackendMock:
		return NewMockSource(cfg, logger), nil
	case BackendPortAudio:
		return newPortAudioSource(cfg, logger)
	default:
		return nil, fmt.Errorf("%w: %s", ErrBackendUnavailable, backend)
	}
}

// detectBestBackend returns PortAudio when compiled in. There is no silent
// fallback to the mock: a server without a microphone should say so.
func detectBestBackend() Backend {
	if portAudioAvailable {
		return BackendPortAudio
	}
	return Backend("none")
}

// AvailableBackends returns the backends compiled into this binary.
func AvailableBackends() []Backend {
	backends := []Backend{BackendMock}
	if portAudioAvailable {
		backends = append(backends, BackendPortAudio)
	}
	return backends
}
