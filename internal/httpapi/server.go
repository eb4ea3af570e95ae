package httpapi

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/park285/cheese-arena/internal/store"
	"github.com/park285/cheese-arena/pkg/arenadto"
)

// Service is the part of arena.Manager the HTTP layer drives.
type Service interface {
	CreateGame(ctx context.Context, req arenadto.CreateGameRequest) (*arenadto.GameState, error)
	State(ctx context.Context, id string) (*arenadto.GameState, error)
	LegalTargets(ctx context.Context, id, from string) ([]string, error)
	PlayMove(ctx context.Context, id, playerID, uci string) (*arenadto.GameState, error)
	Timeout(ctx context.Context, id, playerID, color string) (*arenadto.GameState, error)
	Suggest(ctx context.Context, id string, depth int) (arenadto.SuggestionResponse, error)
	ActiveGames(ctx context.Context, playerID string) ([]arenadto.GameState, error)
	History(ctx context.Context, playerID string, limit int) ([]arenadto.ArchivedGame, error)
	Archived(ctx context.Context, id string) (*arenadto.ArchivedGame, error)
	Subscribe(ctx context.Context, id string) (*store.Subscription, error)
	EventEnvelopes(ev store.Event) ([]arenadto.Envelope, error)
}

type Config struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	PingInterval   time.Duration
}

type Server struct {
	svc Service
	cfg Config
}

// New builds the fiber application with REST routes under /api and the push
// stream under /ws.
func New(svc Service, cfg Config) *fiber.App {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	s := &Server{svc: svc, cfg: cfg}

	app := fiber.New(fiber.Config{
		AppName:               "cheese-arena",
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(corsFor(cfg.AllowedOrigins))
	app.Use(requestLogger())

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })

	s.mountWebsocket(app)

	api := app.Group("/api")
	games := api.Group("/games")
	games.Post("/", s.createGame)
	games.Get("/:id", s.getState)
	games.Get("/:id/legal", s.legalTargets)
	games.Get("/:id/suggestion", s.suggestion)
	games.Get("/:id/archive", s.archived)
	games.Post("/:id/moves", EnsurePlayerID(), s.playMove)
	games.Post("/:id/timeout", EnsurePlayerID(), s.timeout)

	players := api.Group("/players")
	players.Get("/:id/active", s.activeGames)
	players.Get("/:id/games", s.history)

	return app
}

func corsFor(origins []string) fiber.Handler {
	cfg := cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, X-Player-ID",
		AllowMethods: "GET, POST, OPTIONS",
	}
	if len(origins) == 0 {
		cfg.AllowOrigins = "*"
	} else {
		cfg.AllowOrigins = strings.Join(origins, ",")
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

func (s *Server) ctx(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), s.cfg.RequestTimeout)
}

func (s *Server) createGame(c *fiber.Ctx) error {
	var req arenadto.CreateGameRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body: "+err.Error())
	}
	ctx, cancel := s.ctx(c)
	defer cancel()
	st, err := s.svc.CreateGame(ctx, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(st)
}

func (s *Server) getState(c *fiber.Ctx) error {
	ctx, cancel := s.ctx(c)
	defer cancel()
	st, err := s.svc.State(ctx, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(st)
}

func (s *Server) legalTargets(c *fiber.Ctx) error {
	from := strings.ToLower(strings.TrimSpace(c.Query("from")))
	if from == "" {
		return fiber.NewError(fiber.StatusBadRequest, "from is required")
	}
	ctx, cancel := s.ctx(c)
	defer cancel()
	targets, err := s.svc.LegalTargets(ctx, c.Params("id"), from)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(arenadto.LegalTargetsResponse{From: from, Targets: targets})
}

func (s *Server) playMove(c *fiber.Ctx) error {
	var req arenadto.PlayMoveRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body: "+err.Error())
	}
	ctx, cancel := s.ctx(c)
	defer cancel()
	st, err := s.svc.PlayMove(ctx, c.Params("id"), playerID(c), req.UCI)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(st)
}

func (s *Server) timeout(c *fiber.Ctx) error {
	var req arenadto.TimeoutRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body: "+err.Error())
	}
	ctx, cancel := s.ctx(c)
	defer cancel()
	st, err := s.svc.Timeout(ctx, c.Params("id"), playerID(c), strings.ToLower(strings.TrimSpace(req.Color)))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(st)
}

func (s *Server) suggestion(c *fiber.Ctx) error {
	ctx, cancel := s.ctx(c)
	defer cancel()
	sug, err := s.svc.Suggest(ctx, c.Params("id"), c.QueryInt("depth", 0))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(sug)
}

func (s *Server) archived(c *fiber.Ctx) error {
	ctx, cancel := s.ctx(c)
	defer cancel()
	g, err := s.svc.Archived(ctx, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	if c.Query("format") == "pgn" {
		c.Set(fiber.HeaderContentType, "application/x-chess-pgn")
		return c.SendString(g.PGN)
	}
	return c.JSON(g)
}

func (s *Server) activeGames(c *fiber.Ctx) error {
	ctx, cancel := s.ctx(c)
	defer cancel()
	list, err := s.svc.ActiveGames(ctx, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"games": list})
}

func (s *Server) history(c *fiber.Ctx) error {
	ctx, cancel := s.ctx(c)
	defer cancel()
	games, err := s.svc.History(ctx, c.Params("id"), c.QueryInt("limit", 10))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(arenadto.HistoryResponse{Games: games})
}
