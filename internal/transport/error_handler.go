package transport

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/viajora/leadnotify/internal/domain"
	"go.uber.org/zap"
)

// ErrorHandler converts errors escaping the handlers into JSON responses.
// Domain sentinels map to their HTTP codes even when a handler forgot to
// translate them.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		switch {
		case errors.Is(err, domain.ErrValidation):
			code = fiber.StatusBadRequest
		case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrTemplateNotFound):
			code = fiber.StatusNotFound
		default:
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
		}

		logger.Error("request error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err),
		)

		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
