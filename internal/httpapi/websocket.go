package httpapi

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/park285/cheese-arena/internal/obslog"
	"github.com/park285/cheese-arena/pkg/arenadto"
)

const writeWait = 10 * time.Second

func (s *Server) mountWebsocket(app *fiber.App) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	cfg := websocket.Config{ReadBufferSize: 1024, WriteBufferSize: 1024}
	if len(s.cfg.AllowedOrigins) > 0 {
		cfg.Origins = s.cfg.AllowedOrigins
	}
	app.Get("/ws/games/:id", EnsurePlayerID(), websocket.New(s.stream, cfg))
}

// stream subscribes before taking the snapshot so no committed move can fall
// between the two; the peer drops anything it already has by seq.
func (s *Server) stream(c *websocket.Conn) {
	gameID := c.Params("id")
	player, _ := c.Locals(playerIDKey).(string)
	log := obslog.L().With(zap.String("game_id", gameID), zap.String("player_id", player))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := s.svc.Subscribe(ctx, gameID)
	if err != nil {
		log.Warn("ws_subscribe_error", zap.Error(err))
		s.sendError(c, err)
		return
	}
	defer sub.Close()

	st, err := s.svc.State(ctx, gameID)
	if err != nil {
		s.sendError(c, err)
		return
	}
	if err := s.send(c, arenadto.EnvelopeSnapshot, st); err != nil {
		return
	}
	log.Debug("ws_connected")

	// reader: only used to notice the client going away
	go func() {
		defer cancel()
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(s.cfg.PingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("ws_disconnected")
			return
		case <-ping.C:
			if err := c.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			envs, err := s.svc.EventEnvelopes(ev)
			if err != nil {
				log.Warn("ws_encode_error", zap.Error(err))
				continue
			}
			for _, env := range envs {
				_ = c.SetWriteDeadline(time.Now().Add(writeWait))
				if err := c.WriteJSON(env); err != nil {
					return
				}
			}
		}
	}
}

func (s *Server) send(c *websocket.Conn, typ string, payload any) error {
	env, err := arenadto.NewEnvelope(typ, payload)
	if err != nil {
		return err
	}
	_ = c.SetWriteDeadline(time.Now().Add(writeWait))
	return c.WriteJSON(env)
}

func (s *Server) sendError(c *websocket.Conn, err error) {
	_, body := classify(err)
	_ = s.send(c, arenadto.EnvelopeError, body)
	_ = c.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, body.Code), time.Now().Add(writeWait))
}
