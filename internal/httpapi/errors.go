package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/park285/cheese-arena/internal/arena"
	"github.com/park285/cheese-arena/internal/game"
	"github.com/park285/cheese-arena/internal/obslog"
	"github.com/park285/cheese-arena/internal/rules"
	"github.com/park285/cheese-arena/internal/store"
	"github.com/park285/cheese-arena/pkg/arenadto"
)

type errorMapping struct {
	target    error
	status    int
	code      string
	retryable bool
}

// order matters: the first matching sentinel wins
var errorTable = []errorMapping{
	{store.ErrNotFound, fiber.StatusNotFound, arenadto.CodeNotFound, false},
	{store.ErrConflict, fiber.StatusConflict, arenadto.CodeConflict, true},
	{store.ErrGameClosed, fiber.StatusConflict, arenadto.CodeGameOver, false},
	{game.ErrGameOver, fiber.StatusConflict, arenadto.CodeGameOver, false},
	{arena.ErrPromotionRequired, fiber.StatusConflict, arenadto.CodePromotionRequired, false},
	{arena.ErrNotYourTurn, fiber.StatusForbidden, arenadto.CodeNotYourTurn, false},
	{arena.ErrNotParticipant, fiber.StatusForbidden, arenadto.CodeNotParticipant, false},
	{game.ErrIllegalMove, fiber.StatusUnprocessableEntity, arenadto.CodeIllegalMove, false},
	{game.ErrNotYourPiece, fiber.StatusUnprocessableEntity, arenadto.CodeIllegalMove, false},
	{arena.ErrInvalidPlayers, fiber.StatusBadRequest, arenadto.CodeBadRequest, false},
	{rules.ErrInvalidFEN, fiber.StatusBadRequest, arenadto.CodeBadRequest, false},
	{rules.ErrInvalidMove, fiber.StatusBadRequest, arenadto.CodeBadRequest, false},
	{arena.ErrOracleMismatch, fiber.StatusInternalServerError, arenadto.CodeOracleMismatch, false},
}

func classify(err error) (int, arenadto.DomainError) {
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			return m.status, arenadto.DomainError{Code: m.code, Message: err.Error(), Retryable: m.retryable}
		}
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := arenadto.CodeBadRequest
		switch {
		case fe.Code == fiber.StatusNotFound:
			code = arenadto.CodeNotFound
		case fe.Code >= 500:
			code = arenadto.CodeInternal
		}
		return fe.Code, arenadto.DomainError{Code: code, Message: fe.Message}
	}
	return fiber.StatusInternalServerError, arenadto.DomainError{Code: arenadto.CodeInternal, Message: "internal error", Retryable: true}
}

func writeError(c *fiber.Ctx, err error) error {
	status, body := classify(err)
	if status >= fiber.StatusInternalServerError {
		obslog.L().Error("http_error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	return c.Status(status).JSON(body)
}

// errorHandler is installed as fiber's ErrorHandler for errors escaping handlers.
func errorHandler(c *fiber.Ctx, err error) error {
	return writeError(c, err)
}
