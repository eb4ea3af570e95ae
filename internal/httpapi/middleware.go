package httpapi

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/park285/cheese-arena/internal/obslog"
	"github.com/park285/cheese-arena/pkg/arenadto"
)

const playerIDKey = "playerID"

// EnsurePlayerID reads the caller from X-Player-ID or ?playerId=.
func EnsurePlayerID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := c.Locals(playerIDKey).(string); ok {
			return c.Next()
		}
		playerID := strings.TrimSpace(c.Get("X-Player-ID"))
		if playerID == "" {
			playerID = strings.TrimSpace(c.Query("playerId"))
		}
		if playerID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(arenadto.DomainError{
				Code:    arenadto.CodeNotParticipant,
				Message: "player id is required (X-Player-ID header or playerId query)",
			})
		}
		c.Locals(playerIDKey, playerID)
		return c.Next()
	}
}

func playerID(c *fiber.Ctx) string {
	id, _ := c.Locals(playerIDKey).(string)
	return id
}

func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		obslog.L().Debug("http_request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("took", time.Since(start)),
		)
		return err
	}
}
