// Package console runs the interactive terminal assistant.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/teslashibe/go-sahayak/internal/log"
	"github.com/teslashibe/go-sahayak/pkg/chat"
	"github.com/teslashibe/go-sahayak/pkg/stt"
	"github.com/teslashibe/go-sahayak/pkg/tts"
)

// Player plays synthesized speech. PlayStream closes the stream.
type Player interface {
	PlayStream(ctx context.Context, stream tts.AudioStream) error
}

// Config configures a console session.
type Config struct {
	Pipeline *chat.Pipeline

	// Player speaks replies. Nil keeps the session silent.
	Player Player

	In  io.Reader
	Out io.Writer

	// Language skips the language prompt when set.
	Language string

	Theme  Theme
	Logger *slog.Logger
}

// Console is one interactive session.
type Console struct {
	cfg    Config
	chat   *chat.Pipeline
	in     *bufio.Scanner
	out    io.Writer
	styles Styles
	logger *slog.Logger
}

// New creates a console. In and Out default to the process stdio.
func New(cfg Config) (*Console, error) {
	if cfg.Pipeline == nil {
		return nil, errors.New("console: pipeline is required")
	}
	if cfg.In == nil {
		cfg.In = os.Stdin
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Theme == (Theme{}) {
		cfg.Theme = DefaultTheme
	}
	if cfg.Logger == nil {
		cfg.Logger = log.L()
	}
	return &Console{
		cfg:    cfg,
		chat:   cfg.Pipeline,
		in:     bufio.NewScanner(cfg.In),
		out:    cfg.Out,
		styles: NewStyles(cfg.Out, cfg.Theme),
		logger: cfg.Logger.With("component", "console"),
	}, nil
}

// Run selects a language and answers turns until exit, quit, end of input
// or ctx cancellation.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, c.styles.Title.Render("Sahayak disaster assistance"))

	code := c.cfg.Language
	if code == "" {
		c.printLanguages()
		line, ok := c.prompt("Choose a language code: ")
		if !ok {
			return c.in.Err()
		}
		code = line
	}
	lang := c.chat.Catalog().Resolve(code)
	if _, known := c.chat.Catalog().Lookup(code); !known && code != "" {
		fmt.Fprintln(c.out, c.styles.Help.Render(fmt.Sprintf("Unknown language %q, using %s.", code, lang.Name)))
	}
	fmt.Fprintln(c.out, c.styles.Help.Render(fmt.Sprintf("Speaking %s. Type a question, 'v' for voice, 'exit' to quit.", lang.Name)))

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line, ok := c.prompt("You: ")
		if !ok {
			fmt.Fprintln(c.out)
			return c.in.Err()
		}

		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			fmt.Fprintln(c.out, c.styles.Help.Render("Stay safe."))
			return nil
		case "v", "voice":
			text, ok := c.listen(ctx, lang.Code)
			if !ok {
				continue
			}
			fmt.Fprintln(c.out, c.styles.Help.Render("Heard: "+text))
			line = text
		}

		c.turn(ctx, line, lang.Code)
	}
}

func (c *Console) printLanguages() {
	names := c.chat.Catalog().Names()
	codes := make([]string, 0, len(names))
	for code := range names {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	fmt.Fprintln(c.out, c.styles.Label.Render("Languages"))
	for _, code := range codes {
		fmt.Fprintf(c.out, "  %s  %s\n", code, names[code])
	}
}

// prompt prints label and reads one trimmed line.
func (c *Console) prompt(label string) (string, bool) {
	fmt.Fprint(c.out, c.styles.Prompt.Render(label))
	if !c.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.in.Text()), true
}

// listen captures one phrase. Failures are printed and reported as !ok.
func (c *Console) listen(ctx context.Context, code string) (string, bool) {
	if !c.chat.CanListen() {
		c.printError("Voice input is not available on this machine.")
		return "", false
	}
	fmt.Fprintln(c.out, c.styles.Help.Render("Listening..."))

	text, err := c.chat.Listen(ctx, code)
	switch {
	case err == nil:
		return text, true
	case stt.IsNoSpeech(err):
		c.printError("Sorry, I could not understand the audio.")
	case stt.IsServiceError(err):
		c.printError("Speech service is unavailable: " + err.Error())
	default:
		c.printError("Voice input failed: " + err.Error())
	}
	c.logger.Debug("listen failed", "error", err)
	return "", false
}

func (c *Console) turn(ctx context.Context, input, code string) {
	t, err := c.chat.Reply(ctx, input, code)
	if err != nil {
		c.printError("Could not get a response: " + err.Error())
		return
	}

	fmt.Fprintln(c.out, c.styles.Label.Render("Sahayak:"))
	fmt.Fprintln(c.out, c.styles.Reply.Render(t.Response))

	if c.cfg.Player == nil || !c.chat.CanSpeak() {
		return
	}
	stream, err := c.chat.SpeakStream(ctx, t.Response, code)
	if err != nil {
		c.printError("Could not speak the reply: " + err.Error())
		return
	}
	if err := c.cfg.Player.PlayStream(ctx, stream); err != nil {
		c.logger.Warn("playback failed", "error", err)
	}
}

func (c *Console) printError(msg string) {
	fmt.Fprintln(c.out, c.styles.Error.Render(msg))
}
