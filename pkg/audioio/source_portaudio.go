//go:build portaudio

package audioio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
)

const portAudioAvailable = true

// PortAudioSource captures from a PortAudio input device. When the device
// cannot open at the configured rate it captures at its native rate and
// channel count, and chunks are converted before delivery.
type PortAudioSource struct {
	cfg    Config
	logger *slog.Logger
	device *portaudio.DeviceInfo

	mu       sync.Mutex
	running  bool
	closed   bool
	streamCh chan AudioChunk
	stopCh   chan struct{}
	done     chan struct{}

	chunksRead  atomic.Int64
	samplesRead atomic.Int64
	overruns    atomic.Int64
}

func newPortAudioSource(cfg Config, logger *slog.Logger) (Source, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: initialize portaudio: %v", ErrBackendUnavailable, err)
	}

	device, err := findInputDevice(cfg.Device)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}

	logger.Info("portaudio source created",
		"device", device.Name,
		"max_input_channels", device.MaxInputChannels,
		"native_rate", device.DefaultSampleRate,
	)

	return &PortAudioSource{
		cfg:      cfg,
		logger:   logger,
		device:   device,
		streamCh: make(chan AudioChunk, 10),
		stopCh:   make(chan struct{}),
	}, nil
}

func findInputDevice(name string) (*portaudio.DeviceInfo, error) {
	if name == "" {
		device, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("%w: default input device: %v", ErrBackendUnavailable, err)
		}
		return device, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	for _, d := range devices {
		if d.Name == name && d.MaxInputChannels > 0 {
			return d, nil
		}
	}
	return nil, fmt.Errorf("input device %q not found", name)
}

// open tries the configured format first, then the device's native one.
func (s *PortAudioSource) open() (*portaudio.Stream, []int16, int, int, error) {
	params := portaudio.LowLatencyParameters(s.device, nil)
	params.Input.Channels = s.cfg.Channels
	params.SampleRate = float64(s.cfg.SampleRate)
	params.FramesPerBuffer = s.cfg.BufferSize()

	buf := make([]int16, params.FramesPerBuffer*params.Input.Channels)
	stream, err := portaudio.OpenStream(params, buf)
	if err == nil {
		return stream, buf, s.cfg.SampleRate, s.cfg.Channels, nil
	}
	if s.cfg.Channels != 1 {
		return nil, nil, 0, 0, fmt.Errorf("open stream: %w", err)
	}

	rate := int(s.device.DefaultSampleRate)
	channels := s.device.MaxInputChannels
	if channels > 2 {
		channels = 2
	}
	s.logger.Debug("configured format rejected, using native format",
		"error", err,
		"rate", rate,
		"channels", channels,
	)

	params.Input.Channels = channels
	params.SampleRate = float64(rate)
	params.FramesPerBuffer = int(float64(rate) * s.cfg.BufferDuration.Seconds())
	buf = make([]int16, params.FramesPerBuffer*channels)
	stream, err = portaudio.OpenStream(params, buf)
	if err != nil {
		return nil, nil, 0, 0, fmt.Errorf("open stream: %w", err)
	}
	return stream, buf, rate, channels, nil
}

// Start opens the device and begins capture.
func (s *PortAudioSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return io.ErrClosedPipe
	}
	if s.running {
		return nil
	}

	stream, buf, rate, channels, err := s.open()
	if err != nil {
		return err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("start stream: %w", err)
	}

	s.running = true
	s.stopCh = make(chan struct{})
	s.streamCh = make(chan AudioChunk, 10)
	s.done = make(chan struct{})

	go s.captureLoop(ctx, stream, buf, rate, channels)

	s.logger.Debug("portaudio capture started", "rate", rate, "channels", channels)
	return nil
}

func (s *PortAudioSource) captureLoop(ctx context.Context, stream *portaudio.Stream, buf []int16, rate, channels int) {
	defer close(s.done)
	defer close(s.streamCh)
	defer func() {
		stream.Stop()
		stream.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			go s.Stop()
			return
		case <-s.stopCh:
			return
		default:
		}

		if err := stream.Read(); err != nil {
			if errors.Is(err, portaudio.InputOverflowed) {
				s.overruns.Add(1)
				continue
			}
			s.logger.Warn("portaudio read failed", "error", err)
			go s.Stop()
			return
		}

		samples := make([]int16, len(buf))
		copy(samples, buf)
		if channels != s.cfg.Channels {
			samples = Downmix(samples, channels)
		}
		samples = Resample(samples, rate, s.cfg.SampleRate)

		chunk := AudioChunk{Samples: samples, SampleRate: s.cfg.SampleRate, Channels: s.cfg.Channels}
		select {
		case s.streamCh <- chunk:
			s.chunksRead.Add(1)
			s.samplesRead.Add(int64(len(samples)))
		default:
			s.overruns.Add(1)
		}
	}
}

// Stop halts capture and closes the device stream.
func (s *PortAudioSource) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	done := s.done
	s.mu.Unlock()

	<-done
	s.logger.Debug("portaudio capture stopped")
	return nil
}

// Read reads the next audio chunk.
func (s *PortAudioSource) Read(ctx context.Context) (AudioChunk, error) {
	s.mu.Lock()
	ch := s.streamCh
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return AudioChunk{}, ctx.Err()
	case chunk, ok := <-ch:
		if !ok {
			return AudioChunk{}, io.EOF
		}
		return chunk, nil
	}
}

// Stream returns the audio chunk channel.
func (s *PortAudioSource) Stream() <-chan AudioChunk {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamCh
}

// Config returns the audio configuration.
func (s *PortAudioSource) Config() Config {
	return s.cfg
}

// Name returns "portaudio".
func (s *PortAudioSource) Name() string {
	return string(BackendPortAudio)
}

// Close stops capture and terminates PortAudio.
func (s *PortAudioSource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.Stop()
	return portaudio.Terminate()
}

// Stats returns source statistics.
func (s *PortAudioSource) Stats() SourceStats {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	return SourceStats{
		ChunksRead:  s.chunksRead.Load(),
		SamplesRead: s.samplesRead.Load(),
		Overruns:    s.overruns.Load(),
		Running:     running,
		Backend:     string(BackendPortAudio),
	}
}

var _ SourceWithStats = (*PortAudioSource)(nil)
