package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const providerEdge = "edge"

// Edge engine defaults.
const (
	DefaultEdgeBinary = "edge-tts"
	DefaultEdgeVoice  = "en-IN-NeerjaNeural"
)

// Edge synthesizes speech by running the edge-tts engine as a subprocess.
// Every call starts its own process; nothing is pooled.
type Edge struct {
	config *Config
	logger *slog.Logger
}

// NewEdge creates an Edge provider.
func NewEdge(opts ...Option) *Edge {
	cfg := DefaultConfig()
	cfg.Binary = DefaultEdgeBinary
	cfg.DefaultVoice = DefaultEdgeVoice
	cfg.Apply(opts...)

	return &Edge{
		config: cfg,
		logger: cfg.Logger.With("component", "tts.edge"),
	}
}

// Synthesize renders text into a per-request temporary MP3 file, reads it
// back and removes it. The file is removed on every path, including errors.
func (e *Edge) Synthesize(ctx context.Context, text string, voice Voice) (*AudioResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, WrapError(providerEdge, ErrEmptyText)
	}
	start := time.Now()

	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	dir := e.config.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, "sahayak-"+uuid.NewString()+".mp3")
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			e.logger.Warn("failed to remove temp audio", "path", path, "error", err)
		}
	}()

	name := e.voiceName(voice)
	cmd := exec.CommandContext(ctx, e.config.Binary, e.args(text, name, path)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, WrapError(providerEdge, &EngineError{
			Binary: e.config.Binary,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		})
	}

	audio, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapError(providerEdge, fmt.Errorf("read audio: %w", err))
	}
	if len(audio) == 0 {
		return nil, WrapError(providerEdge, ErrNoAudio)
	}

	e.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(audio),
		"voice", name,
		"latency_ms", time.Since(start).Milliseconds(),
	)

	return &AudioResult{
		Audio:     audio,
		Format:    mp3Format,
		CharCount: len(text),
		Latency:   time.Since(start),
	}, nil
}

// Stream starts the engine writing to stdout and relays its output.
// It blocks until the first chunk arrives so that an engine that fails
// immediately is reported as an error. Cancelling ctx or closing the
// stream kills the process.
func (e *Edge) Stream(ctx context.Context, text string, voice Voice) (AudioStream, error) {
	if strings.TrimSpace(text) == "" {
		return nil, WrapError(providerEdge, ErrEmptyText)
	}

	name := e.voiceName(voice)
	cmd := exec.CommandContext(ctx, e.config.Binary, e.args(text, name, "")...)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, WrapError(providerEdge, fmt.Errorf("stdout pipe: %w", err))
	}
	if err := cmd.Start(); err != nil {
		return nil, WrapError(providerEdge, &EngineError{Binary: e.config.Binary, Err: err})
	}

	e.logger.Debug("engine started", "voice", name, "pid", cmd.Process.Pid)

	waited := false
	wait := func() error {
		if waited {
			return nil
		}
		waited = true
		if err := cmd.Wait(); err != nil {
			return WrapError(providerEdge, &EngineError{
				Binary: e.config.Binary,
				Stderr: strings.TrimSpace(stderr.String()),
				Err:    err,
			})
		}
		return nil
	}

	s := &readerStream{
		body:   stdout,
		format: mp3Format,
		done:   wait,
		closeFn: func() error {
			if !waited && cmd.Process != nil {
				cmd.Process.Kill()
			}
			wait()
			return nil
		},
	}

	if err := s.prime(); err != nil {
		s.Close()
		if errors.Is(err, ErrNoAudio) {
			return nil, WrapError(providerEdge, err)
		}
		return nil, err
	}
	return s, nil
}

// Health checks that the engine binary is on PATH.
func (e *Edge) Health(ctx context.Context) error {
	if _, err := exec.LookPath(e.config.Binary); err != nil {
		return WrapError(providerEdge, err)
	}
	return nil
}

// Close is a no-op; processes live only as long as their request.
func (e *Edge) Close() error {
	return nil
}

func (e *Edge) voiceName(v Voice) string {
	if v.Name != "" {
		return v.Name
	}
	return e.config.DefaultVoice
}

// args builds the engine command line. An empty out streams to stdout.
// Values are joined with "=" so text starting with a dash is not parsed
// as a flag.
func (e *Edge) args(text, voice, out string) []string {
	args := []string{"--voice=" + voice, "--text=" + text}
	if out != "" {
		args = append(args, "--write-media="+out)
	}
	return append(args, e.config.ExtraArgs...)
}

var _ Provider = (*Edge)(nil)
