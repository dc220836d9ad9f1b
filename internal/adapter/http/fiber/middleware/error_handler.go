package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/slack-relay/internal/domain"
)

// ErrorHandler renders errors that escape the handlers, including those
// raised by Fiber itself, in the API error envelope.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := domain.HTTPStatus(err)

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}

		if code >= fiber.StatusInternalServerError {
			log.Error("Internal Server Error", zap.Error(err), zap.String("path", c.Path()))
		}

		return c.Status(code).JSON(domain.ErrorResponse{
			Success: false,
			Error:   err.Error(),
		})
	}
}
