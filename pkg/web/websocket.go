package web

import (
	"context"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/teslashibe/go-sahayak/pkg/chat"
	"github.com/teslashibe/go-sahayak/pkg/hub"
)

// WSRequest is one client message on /ws/chat.
type WSRequest struct {
	Input    string `json:"input"`
	LangCode string `json:"lang_code"`
	Speak    bool   `json:"speak"`
}

// WSReply is the text reply that precedes any audio frames.
type WSReply struct {
	TurnID   string `json:"turn_id"`
	Response string `json:"response"`
}

// WSDone terminates an answered turn.
type WSDone struct {
	Done bool `json:"done"`
}

// WSError reports a failed turn.
type WSError struct {
	Error string `json:"error"`
}

func (s *Server) registerWebsockets(app *fiber.App) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/chat", websocket.New(s.handleChatWS))
	app.Get("/ws/turns", websocket.New(s.handleTurnsWS))
}

// handleChatWS answers turns until the client disconnects. Each answered
// turn is a WSReply, then binary audio frames when speech was requested,
// then WSDone.
func (s *Server) handleChatWS(conn *websocket.Conn) {
	logger := s.logger.With("channel", "ws")
	logger.Debug("chat client connected")
	defer logger.Debug("chat client disconnected")

	for {
		var req WSRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("chat read failed", "error", err)
			}
			return
		}
		if err := s.chatTurnWS(conn, req); err != nil {
			logger.Debug("chat write failed", "error", err)
			return
		}
	}
}

// chatTurnWS runs one turn. Only write errors are returned.
func (s *Server) chatTurnWS(conn *websocket.Conn, req WSRequest) error {
	if req.LangCode == "" {
		req.LangCode = chat.English
	}
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.RequestTimeout)
	defer cancel()

	turn, err := s.chat.Reply(ctx, req.Input, req.LangCode)
	if err != nil {
		_, msg := errorStatus(err)
		return conn.WriteJSON(WSError{Error: msg})
	}
	s.recordTurn("ws", turn)

	if err := conn.WriteJSON(WSReply{TurnID: turn.ID, Response: turn.Response}); err != nil {
		return err
	}
	if req.Speak {
		if err := s.streamSpeechWS(ctx, conn, turn); err != nil {
			return err
		}
	}
	return conn.WriteJSON(WSDone{Done: true})
}

// streamSpeechWS relays the spoken reply as binary frames. Synthesis
// failures are reported to the client without ending the turn.
func (s *Server) streamSpeechWS(ctx context.Context, conn *websocket.Conn, turn *chat.Turn) error {
	stream, err := s.chat.SpeakStream(ctx, turn.Response, turn.Language.Code)
	if err != nil {
		_, msg := errorStatus(err)
		return conn.WriteJSON(WSError{Error: msg})
	}
	defer stream.Close()

	for {
		chunk, err := stream.Read()
		if err != nil {
			_, msg := errorStatus(err)
			return conn.WriteJSON(WSError{Error: msg})
		}
		if chunk == nil {
			return nil
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
			return err
		}
	}
}

// handleTurnsWS subscribes the connection to the completed-turn feed.
func (s *Server) handleTurnsWS(conn *websocket.Conn) {
	hub.NewClient(s.turnHub, conn).Run()
}
