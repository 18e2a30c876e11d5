package audioio

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// Segment is one stretch of scripted mock audio: a sine tone at the given
// amplitude, or silence when Amplitude is zero.
type Segment struct {
	Duration  time.Duration
	Amplitude float64
}

// MockSource is a mock audio source for testing.
// It generates silence, a continuous tone, or a scripted sequence of
// segments that imitates someone starting and stopping to speak.
type MockSource struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	running  bool
	closed   bool
	streamCh chan AudioChunk
	stopCh   chan struct{}
	done     chan struct{}

	chunksRead  atomic.Int64
	samplesRead atomic.Int64
	overruns    atomic.Int64
	starts      atomic.Int64

	phase     float64
	frequency float64
	amplitude float64
	script    []Segment
	position  int // frames generated since Start
	unpaced   bool
}

// MockSourceOption configures a MockSource.
type MockSourceOption func(*MockSource)

// WithSineWave configures the mock to generate a continuous sine wave.
func WithSineWave(frequency, amplitude float64) MockSourceOption {
	return func(m *MockSource) {
		m.frequency = frequency
		m.amplitude = amplitude
	}
}

// WithScript plays the segments in order after each Start, then silence.
// Tones use 440 Hz unless WithSineWave set another frequency.
func WithScript(segments ...Segment) MockSourceOption {
	return func(m *MockSource) {
		m.script = segments
	}
}

// WithUnpaced generates chunks as fast as they are consumed instead of in
// real time. Chunks are never dropped in this mode.
func WithUnpaced() MockSourceOption {
	return func(m *MockSource) {
		m.unpaced = true
	}
}

// NewMockSource creates a new mock audio source.
func NewMockSource(cfg Config, logger *slog.Logger, opts ...MockSourceOption) *MockSource {
	if logger == nil {
		logger = slog.Default()
	}

	m := &MockSource{
		cfg:       cfg,
		logger:    logger,
		streamCh:  make(chan AudioChunk, 10),
		stopCh:    make(chan struct{}),
		amplitude: 0.5,
	}
	for _, opt := range opts {
		opt(m)
	}
	if len(m.script) > 0 && m.frequency == 0 {
		m.frequency = 440
	}
	return m
}

// Start begins generating audio.
func (m *MockSource) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return io.ErrClosedPipe
	}
	if m.running {
		return nil
	}

	m.running = true
	m.stopCh = make(chan struct{})
	m.streamCh = make(chan AudioChunk, 10)
	m.done = make(chan struct{})
	m.position = 0
	m.phase = 0
	m.starts.Add(1)

	go m.generateLoop(ctx, m.stopCh, m.streamCh, m.done)

	m.logger.Debug("mock audio source started",
		"sample_rate", m.cfg.SampleRate,
		"segments", len(m.script),
	)
	return nil
}

func (m *MockSource) generateLoop(ctx context.Context, stopCh <-chan struct{}, out chan<- AudioChunk, done chan<- struct{}) {
	defer close(done)
	defer close(out)

	var tick <-chan time.Time
	if !m.unpaced {
		ticker := time.NewTicker(m.cfg.BufferDuration)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				go m.Stop()
				return
			case <-stopCh:
				return
			case <-tick:
			}
		}

		chunk := m.generateChunk()

		if m.unpaced {
			select {
			case <-ctx.Done():
				go m.Stop()
				return
			case <-stopCh:
				return
			case out <- chunk:
			}
		} else {
			select {
			case out <- chunk:
			default:
				m.overruns.Add(1)
				continue
			}
		}
		m.chunksRead.Add(1)
		m.samplesRead.Add(int64(len(chunk.Samples)))
	}
}

func (m *MockSource) generateChunk() AudioChunk {
	frames := m.cfg.BufferSize()
	samples := make([]int16, frames*m.cfg.Channels)

	for i := 0; i < frames; i++ {
		amp := m.amplitudeAt(m.position)
		m.position++
		if amp == 0 || m.frequency == 0 {
			continue
		}
		v := int16(amp * 32767 * math.Sin(2*math.Pi*m.frequency*m.phase/float64(m.cfg.SampleRate)))
		for ch := 0; ch < m.cfg.Channels; ch++ {
			samples[i*m.cfg.Channels+ch] = v
		}
		m.phase++
		if m.phase >= float64(m.cfg.SampleRate) {
			m.phase = 0
		}
	}

	return AudioChunk{
		Samples:    samples,
		SampleRate: m.cfg.SampleRate,
		Channels:   m.cfg.Channels,
	}
}

// amplitudeAt returns the amplitude for a frame offset since Start.
func (m *MockSource) amplitudeAt(frame int) float64 {
	if len(m.script) == 0 {
		return m.amplitude
	}
	offset := time.Duration(frame) * time.Second / time.Duration(m.cfg.SampleRate)
	for _, seg := range m.script {
		if offset < seg.Duration {
			return seg.Amplitude
		}
		offset -= seg.Duration
	}
	return 0
}

// Stop halts audio generation and waits for the generator to exit.
func (m *MockSource) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	close(m.stopCh)
	done := m.done
	m.mu.Unlock()

	<-done
	m.logger.Debug("mock audio source stopped")
	return nil
}

// Read reads the next audio chunk.
func (m *MockSource) Read(ctx context.Context) (AudioChunk, error) {
	m.mu.Lock()
	ch := m.streamCh
	m.mu.Unlock()

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
func (m *MockSource) Stream() <-chan AudioChunk {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.streamCh
}

// Config returns the audio configuration.
func (m *MockSource) Config() Config {
	return m.cfg
}

// Name returns "mock".
func (m *MockSource) Name() string {
	return string(BackendMock)
}

// Starts returns how many times the source has been started.
func (m *MockSource) Starts() int {
	return int(m.starts.Load())
}

// Close releases resources.
func (m *MockSource) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	return m.Stop()
}

// Stats returns source statistics.
func (m *MockSource) Stats() SourceStats {
	m.mu.Lock()
	running := m.running
	m.mu.Unlock()

	return SourceStats{
		ChunksRead:  m.chunksRead.Load(),
		SamplesRead: m.samplesRead.Load(),
		Overruns:    m.overruns.Load(),
		Running:     running,
		Backend:     string(BackendMock),
	}
}

var _ SourceWithStats = (*MockSource)(nil)
