// Package web serves the chat pipeline over HTTP and websockets.
package web

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/teslashibe/go-sahayak/internal/log"
	"github.com/teslashibe/go-sahayak/pkg/chat"
	"github.com/teslashibe/go-sahayak/pkg/hub"
)

// HealthChecker is a provider that can report whether it is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Config configures the server.
type Config struct {
	// Addr is the listen address. Default ":5000".
	Addr string

	Pipeline *chat.Pipeline

	// Providers are checked by GET /health, keyed by a display name.
	Providers map[string]HealthChecker

	// HealthTimeout bounds each provider check. Default 5s.
	HealthTimeout time.Duration

	// RequestTimeout bounds a single pipeline call. Default 60s.
	RequestTimeout time.Duration

	// MaxUpload caps request bodies, including audio uploads. Default 10MB.
	MaxUpload int

	// HistorySize is the number of turns kept for GET /turns. Default 100.
	HistorySize int

	// AccessLog receives one line per request. Default os.Stdout.
	AccessLog io.Writer

	Logger *slog.Logger
}

// DefaultConfig returns a config listening on every interface at port 5000.
func DefaultConfig() Config {
	return Config{
		Addr:           ":5000",
		HealthTimeout:  5 * time.Second,
		RequestTimeout: 60 * time.Second,
		MaxUpload:      10 * 1024 * 1024,
		HistorySize:    100,
		AccessLog:      os.Stdout,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Pipeline == nil {
		return errors.New("web: pipeline is required")
	}
	if c.Addr == "" {
		return errors.New("web: listen address is required")
	}
	return nil
}

// TurnEntry is one completed turn in the operator feed.
type TurnEntry struct {
	Time       string `json:"time"`
	TurnID     string `json:"turn_id"`
	Channel    string `json:"channel"` // chat, ws, voice
	Language   string `json:"lang_code"`
	Input      string `json:"input"`
	Response   string `json:"response"`
	DurationMS int64  `json:"duration_ms"`
}

// Server exposes the pipeline over HTTP.
type Server struct {
	app    *fiber.App
	cfg    Config
	chat   *chat.Pipeline
	logger *slog.Logger

	// ctx outlives requests so streamed bodies can finish; cancelled on Shutdown.
	ctx    context.Context
	cancel context.CancelFunc

	turnHub *hub.Hub

	history   []TurnEntry
	historyMu sync.RWMutex
}

// NewServer builds the fiber app and registers every route.
func NewServer(cfg Config) (*Server, error) {
	defaults := DefaultConfig()
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = defaults.HealthTimeout
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaults.RequestTimeout
	}
	if cfg.MaxUpload <= 0 {
		cfg.MaxUpload = defaults.MaxUpload
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = defaults.HistorySize
	}
	if cfg.AccessLog == nil {
		cfg.AccessLog = defaults.AccessLog
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = log.L()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:     cfg,
		chat:    cfg.Pipeline,
		logger:  cfg.Logger.With("component", "web"),
		ctx:     ctx,
		cancel:  cancel,
		history: make([]TurnEntry, 0, cfg.HistorySize),
	}
	s.turnHub = hub.New("turns", cfg.Logger)
	go s.turnHub.Run(ctx)

	app := fiber.New(fiber.Config{
		AppName:               "Sahayak",
		DisableStartupMessage: true,
		BodyLimit:             cfg.MaxUpload,
		ErrorHandler:          s.handleError,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
		Output: cfg.AccessLog,
	}))
	app.Use(cors.New())

	app.Get("/languages", s.handleLanguages)
	app.Get("/health", s.handleHealth)
	app.Post("/chat", s.handleChat)
	app.Post("/speak", s.handleSpeak)
	app.Get("/speak", s.handleSpeakStream)
	app.Post("/transcribe", s.handleTranscribe)
	app.Post("/voice", s.handleVoice)
	app.Get("/turns", s.handleTurns)

	s.registerWebsockets(app)

	s.app = app
	return s, nil
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start listens on the configured address and blocks.
func (s *Server) Start() error {
	s.logger.Info("listening", "addr", s.cfg.Addr)
	return s.app.Listen(s.cfg.Addr)
}

// Serve accepts connections on ln and blocks.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("listening", "addr", ln.Addr().String())
	return s.app.Listener(ln)
}

// Shutdown stops accepting requests, waits for active ones and closes
// websocket subscribers.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.cancel()
	return s.app.ShutdownWithContext(ctx)
}

// TurnHub returns the hub that broadcasts completed turns.
func (s *Server) TurnHub() *hub.Hub {
	return s.turnHub
}

// recordTurn appends a turn to the history and broadcasts it.
func (s *Server) recordTurn(channel string, turn *chat.Turn) {
	entry := TurnEntry{
		Time:       time.Now().Format(time.RFC3339),
		TurnID:     turn.ID,
		Channel:    channel,
		Language:   turn.Language.Code,
		Input:      turn.Input,
		Response:   turn.Response,
		DurationMS: turn.Duration.Milliseconds(),
	}

	s.historyMu.Lock()
	s.history = append(s.history, entry)
	if len(s.history) > s.cfg.HistorySize {
		s.history = s.history[1:]
	}
	s.historyMu.Unlock()

	if err := s.turnHub.BroadcastJSON(entry); err != nil {
		s.logger.Warn("turn broadcast failed", "error", err)
	}
}

// History returns a copy of the recent turns, oldest first.
func (s *Server) History() []TurnEntry {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()
	return append([]TurnEntry(nil), s.history...)
}

// requestContext bounds a pipeline call by RequestTimeout.
func (s *Server) requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), s.cfg.RequestTimeout)
}
