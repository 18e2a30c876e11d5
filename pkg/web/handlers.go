package web

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/teslashibe/go-sahayak/pkg/chat"
	"github.com/teslashibe/go-sahayak/pkg/stt"
)

// Error texts returned to clients.
const (
	msgMissingInput  = "Missing input text"
	msgMissingText   = "Missing text to speak"
	msgMissingAudio  = "Missing audio file"
	msgNoSpeech      = "No speech detected"
	msgListenTimeout = "Listening timed out before speech started"
	msgVoiceFailed   = "Voice input failed: "
)

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Input    string `json:"input"`
	LangCode string `json:"lang_code"`
}

// SpeakRequest is the body of POST /speak.
type SpeakRequest struct {
	Text string `json:"text"`
	Lang string `json:"lang"`
}

// errorStatus maps pipeline errors to a status code and client message.
// Unrecognized errors are upstream failures.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, chat.ErrEmptyInput):
		return fiber.StatusBadRequest, msgMissingInput
	case errors.Is(err, chat.ErrEmptyText):
		return fiber.StatusBadRequest, msgMissingText
	case errors.Is(err, stt.ErrNoAudio):
		return fiber.StatusBadRequest, msgMissingAudio
	case errors.Is(err, stt.ErrListenTimeout):
		return fiber.StatusUnprocessableEntity, msgListenTimeout
	case errors.Is(err, stt.ErrNoSpeech):
		return fiber.StatusUnprocessableEntity, msgNoSpeech
	case errors.Is(err, stt.ErrUnsupportedEncoding):
		return fiber.StatusUnsupportedMediaType, err.Error()
	case errors.Is(err, chat.ErrSpeechDisabled),
		errors.Is(err, chat.ErrRecognitionDisabled),
		errors.Is(err, chat.ErrMicrophoneDisabled):
		return fiber.StatusServiceUnavailable, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout, err.Error()
	default:
		return fiber.StatusBadGateway, err.Error()
	}
}

func (s *Server) fail(c *fiber.Ctx, err error) error {
	status, msg := errorStatus(err)
	if status >= fiber.StatusInternalServerError {
		s.logger.Error("request failed",
			"path", c.Path(),
			"request_id", c.Locals("requestid"),
			"status", status,
			"error", err,
		)
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// handleError renders fiber errors, including recovered panics, as JSON.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}
	if status >= fiber.StatusInternalServerError {
		s.logger.Error("unhandled error", "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// handleLanguages returns the catalog as code → name.
func (s *Server) handleLanguages(c *fiber.Ctx) error {
	return c.JSON(s.chat.Catalog().Names())
}

// handleChat answers a text turn.
func (s *Server) handleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msgMissingInput})
	}
	if req.LangCode == "" {
		req.LangCode = chat.English
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	turn, err := s.chat.Reply(ctx, req.Input, req.LangCode)
	if err != nil {
		return s.fail(c, err)
	}
	s.recordTurn("chat", turn)
	return c.JSON(fiber.Map{"response": turn.Response})
}

// handleSpeak synthesizes text and returns it base64-encoded.
func (s *Server) handleSpeak(c *fiber.Ctx) error {
	var req SpeakRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msgMissingText})
	}
	if req.Lang == "" {
		req.Lang = chat.English
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	result, err := s.chat.Speak(ctx, req.Text, req.Lang)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"audio_base64": result.Base64()})
}

// handleSpeakStream relays synthesized audio as it is produced.
func (s *Server) handleSpeakStream(c *fiber.Ctx) error {
	lang := c.Query("lang", chat.English)

	// The body is written after the handler returns, so the stream is
	// bound to the server lifetime rather than the request.
	stream, err := s.chat.SpeakStream(s.ctx, c.Query("text"), lang)
	if err != nil {
		return s.fail(c, err)
	}

	c.Set(fiber.HeaderContentType, stream.Format().ContentType())
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer stream.Close()
		for {
			chunk, err := stream.Read()
			if err != nil {
				s.logger.Warn("audio stream interrupted", "error", err)
				return
			}
			if chunk == nil {
				return
			}
			if _, err := w.Write(chunk); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	})
	return nil
}

// handleTranscribe recognizes an uploaded recording.
func (s *Server) handleTranscribe(c *fiber.Ctx) error {
	audio, err := formAudio(c)
	if err != nil {
		return s.fail(c, err)
	}
	if audio.Empty() {
		return s.fail(c, stt.ErrNoAudio)
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	transcript, err := s.chat.Transcribe(ctx, audio, c.FormValue("lang_code", chat.English))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"transcript": transcript})
}

// handleVoice runs a spoken turn: the uploaded recording when one is sent,
// otherwise one phrase from the server microphone.
func (s *Server) handleVoice(c *fiber.Ctx) error {
	audio, err := formAudio(c)
	if err != nil {
		return s.fail(c, err)
	}
	lang := c.Query("lang_code", c.FormValue("lang_code", chat.English))

	ctx, cancel := s.requestContext(c)
	defer cancel()

	vt, err := s.chat.Converse(ctx, audio, lang)
	if err != nil {
		status, msg := errorStatus(err)
		if status == fiber.StatusBadGateway {
			s.logger.Error("voice turn failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": msgVoiceFailed + err.Error()})
		}
		if errors.Is(err, stt.ErrNoAudio) {
			msg = msgNoSpeech
			status = fiber.StatusUnprocessableEntity
		}
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}
	s.recordTurn("voice", vt.Turn)

	var audioB64 string
	if vt.Audio != nil {
		audioB64 = base64.StdEncoding.EncodeToString(vt.Audio.Audio)
	}
	return c.JSON(fiber.Map{
		"audio_base64": audioB64,
		"transcript":   vt.Transcript,
		"response":     vt.Turn.Response,
	})
}

// handleTurns returns recent turns, oldest first.
func (s *Server) handleTurns(c *fiber.Ctx) error {
	return c.JSON(s.History())
}

// handleHealth checks every provider concurrently.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	type result struct {
		name string
		err  error
	}
	results := make(chan result, len(s.cfg.Providers))
	for name, p := range s.cfg.Providers {
		go func(name string, p HealthChecker) {
			ctx, cancel := context.WithTimeout(c.UserContext(), s.cfg.HealthTimeout)
			defer cancel()
			results <- result{name: name, err: p.Health(ctx)}
		}(name, p)
	}

	status := "ok"
	providers := make(map[string]string, len(s.cfg.Providers))
	for range s.cfg.Providers {
		r := <-results
		if r.err != nil {
			status = "degraded"
			providers[r.name] = r.err.Error()
			continue
		}
		providers[r.name] = "ok"
	}

	code := fiber.StatusOK
	if status != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{"status": status, "providers": providers})
}

// formAudio reads the optional multipart "audio" part. A request without
// the part yields empty audio.
func formAudio(c *fiber.Ctx) (stt.Audio, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return stt.Audio{}, nil
	}
	header, err := c.FormFile("audio")
	if err != nil {
		return stt.Audio{}, nil
	}
	f, err := header.Open()
	if err != nil {
		return stt.Audio{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return stt.Audio{}, err
	}
	return stt.Audio{
		Data:     data,
		Encoding: stt.DetectEncoding(data, header.Filename),
		Filename: header.Filename,
	}, nil
}
