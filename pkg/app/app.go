// Package app assembles the assistant from configuration and runs it as an
// HTTP server or an interactive console.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/teslashibe/go-sahayak/internal/config"
	"github.com/teslashibe/go-sahayak/internal/log"
	"github.com/teslashibe/go-sahayak/pkg/audio"
	"github.com/teslashibe/go-sahayak/pkg/chat"
	"github.com/teslashibe/go-sahayak/pkg/console"
	"github.com/teslashibe/go-sahayak/pkg/language"
	"github.com/teslashibe/go-sahayak/pkg/respond"
	"github.com/teslashibe/go-sahayak/pkg/translate"
	"github.com/teslashibe/go-sahayak/pkg/web"
)

// shutdownTimeout bounds how long in-flight requests may finish.
const shutdownTimeout = 10 * time.Second

// App owns every provider and the pipeline built on them.
type App struct {
	config *config.Config
	logger *slog.Logger

	catalog  *language.Catalog
	pipeline *chat.Pipeline

	// health is what GET /health checks, keyed by "<kind>.<provider>".
	health  map[string]web.HealthChecker
	closers []io.Closer

	server *web.Server
}

// New validates cfg and creates an uninitialized app.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &App{
		config: cfg,
		logger: log.Component("app"),
		health: make(map[string]web.HealthChecker),
	}, nil
}

// Init builds the providers and the pipeline. Call it after New and before
// Serve or Console.
func (a *App) Init(ctx context.Context) error {
	catalog, err := a.config.Catalog()
	if err != nil {
		return fmt.Errorf("languages: %w", err)
	}
	a.catalog = catalog

	llm, err := a.newLLM(ctx)
	if err != nil {
		return err
	}
	translator, err := a.newTranslator(ctx)
	if err != nil {
		return err
	}
	if translator != nil {
		a.closers = append(a.closers, translator)
	}
	synthesizer, err := a.newSynthesizer(ctx)
	if err != nil {
		return err
	}
	recognizer, err := a.newRecognizer(ctx)
	if err != nil {
		return err
	}
	if recognizer != nil {
		a.closers = append(a.closers, recognizer)
	}
	microphone, err := a.newMicrophone(recognizer)
	if err != nil {
		return err
	}
	if microphone != nil {
		a.closers = append(a.closers, microphone)
	}

	cfg := chat.Config{
		Catalog: catalog,
		Translator: translate.NewService(translator,
			translate.WithTimeout(a.config.Translator.Timeout),
			translate.WithLogger(a.logger),
		),
		// Each provider applies its own configured model.
		Generator: respond.New(llm,
			respond.WithTemperature(a.config.LLM.Temperature),
			respond.WithMaxTokens(a.config.LLM.MaxTokens),
			respond.WithNativeScript(a.config.LLM.NativeScript),
			respond.WithLogger(a.logger),
		),
		Logger: a.logger,
	}
	// Leave interface fields nil rather than holding typed nils.
	if synthesizer != nil {
		cfg.Synthesizer = synthesizer
	}
	if recognizer != nil {
		cfg.Recognizer = recognizer
	}
	if microphone != nil {
		cfg.Microphone = microphone
	}

	a.pipeline, err = chat.New(cfg)
	if err != nil {
		return err
	}

	a.logger.Info("initialized",
		"llm", a.config.LLM.Provider,
		"translator", a.config.Translator.Provider,
		"tts", a.config.TTS.Provider,
		"stt", a.config.STT.Provider,
		"speech_output", a.pipeline.CanSpeak(),
		"voice_input", a.pipeline.CanListen(),
		"languages", len(catalog.Codes()),
	)
	return nil
}

// Pipeline returns the initialized pipeline.
func (a *App) Pipeline() *chat.Pipeline {
	return a.pipeline
}

// Catalog returns the language catalog.
func (a *App) Catalog() *language.Catalog {
	return a.catalog
}

// Serve runs the HTTP server until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	if a.pipeline == nil {
		return errors.New("app: Init must be called before Serve")
	}

	cfg := web.DefaultConfig()
	cfg.Addr = a.config.Addr()
	cfg.Pipeline = a.pipeline
	cfg.Providers = a.health
	cfg.Logger = a.logger

	srv, err := web.NewServer(cfg)
	if err != nil {
		return err
	}
	a.server = srv

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Console runs an interactive session on in and out. lang preselects the
// language; empty asks for one.
func (a *App) Console(ctx context.Context, in io.Reader, out io.Writer, lang string, speak bool) error {
	if a.pipeline == nil {
		return errors.New("app: Init must be called before Console")
	}

	cfg := console.Config{
		Pipeline: a.pipeline,
		In:       in,
		Out:      out,
		Language: lang,
		Logger:   a.logger,
	}
	if speak && a.pipeline.CanSpeak() {
		player, err := audio.NewPlayer(a.logger, a.config.TTS.Player...)
		if err != nil {
			a.logger.Warn("no audio player, replies will not be spoken", "error", err)
		} else {
			cfg.Player = player
		}
	}

	c, err := console.New(cfg)
	if err != nil {
		return err
	}
	return c.Run(ctx)
}

// Shutdown releases every provider.
func (a *App) Shutdown() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}
