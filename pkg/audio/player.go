// Package audio plays synthesized speech on the local machine.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/teslashibe/go-sahayak/pkg/tts"
)

// ErrNoPlayer is returned when no player command is installed.
var ErrNoPlayer = errors.New("audio: no MP3 player found")

// DefaultCommands are tried in order; each reads MP3 from stdin.
var DefaultCommands = [][]string{
	{"mpg123", "-q", "-"},
	{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", "-"},
}

// Player pipes MP3 audio into a player subprocess. One clip plays at a
// time; starting a new one waits for the current one.
type Player struct {
	command []string
	logger  *slog.Logger

	// Callbacks
	OnPlaybackStart func()
	OnPlaybackEnd   func()

	mu      sync.Mutex // serializes playback
	stateMu sync.Mutex
	cmd     *exec.Cmd
}

// NewPlayer creates a player using command, or the first installed entry
// of DefaultCommands when command is empty.
func NewPlayer(logger *slog.Logger, command ...string) (*Player, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(command) == 0 {
		for _, c := range DefaultCommands {
			if _, err := exec.LookPath(c[0]); err == nil {
				command = c
				break
			}
		}
		if len(command) == 0 {
			return nil, ErrNoPlayer
		}
	}
	return &Player{
		command: command,
		logger:  logger.With("component", "audio.player"),
	}, nil
}

// Play plays a complete clip and waits for it to finish.
func (p *Player) Play(ctx context.Context, audio []byte) error {
	if len(audio) == 0 {
		return nil
	}
	return p.run(ctx, func(w io.Writer) error {
		_, err := w.Write(audio)
		return err
	})
}

// PlayStream starts playback with the first chunk and feeds the rest as
// they arrive. The stream is closed when playback ends.
func (p *Player) PlayStream(ctx context.Context, s tts.AudioStream) error {
	defer s.Close()
	return p.run(ctx, func(w io.Writer) error {
		_, err := tts.Copy(w, s)
		return err
	})
}

func (p *Player) run(ctx context.Context, feed func(io.Writer) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	cmd := exec.CommandContext(ctx, p.command[0], p.command[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("audio: stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("audio: start %s: %w", p.command[0], err)
	}

	p.stateMu.Lock()
	p.cmd = cmd
	p.stateMu.Unlock()

	if p.OnPlaybackStart != nil {
		p.OnPlaybackStart()
	}
	defer func() {
		p.stateMu.Lock()
		p.cmd = nil
		p.stateMu.Unlock()
		if p.OnPlaybackEnd != nil {
			p.OnPlaybackEnd()
		}
	}()

	feedErr := feed(stdin)
	stdin.Close()
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if feedErr != nil {
		return fmt.Errorf("audio: feed player: %w", feedErr)
	}
	if waitErr != nil {
		return fmt.Errorf("audio: %s: %w: %s", p.command[0], waitErr, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Cancel stops the current clip, if any.
func (p *Player) Cancel() {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	if p.cmd != nil && p.cmd.Process != nil {
		p.logger.Debug("cancelling playback", "pid", p.cmd.Process.Pid)
		p.cmd.Process.Kill()
	}
}

// IsPlaying returns whether a clip is playing.
func (p *Player) IsPlaying() bool {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	return p.cmd != nil
}

// Command returns the player command line.
func (p *Player) Command() []string {
	return append([]string(nil), p.command...)
}
