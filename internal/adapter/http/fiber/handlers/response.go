package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/seu-repo/slack-relay/internal/domain"
)

// writeError renders err as {"success": false, "error": ...} with the status
// its kind maps to.
func writeError(c *fiber.Ctx, err error) error {
	return c.Status(domain.HTTPStatus(err)).JSON(domain.ErrorResponse{
		Success: false,
		Error:   err.Error(),
	})
}
