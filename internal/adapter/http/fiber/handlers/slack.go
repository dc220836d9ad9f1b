package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/slack-relay/internal/domain"
	"github.com/seu-repo/slack-relay/internal/ports"
)

type SlackHandler struct {
	relay ports.RelayService
	log   *zap.Logger
}

func NewSlackHandler(relay ports.RelayService, log *zap.Logger) *SlackHandler {
	return &SlackHandler{
		relay: relay,
		log:   log,
	}
}

// SendMessage handles POST /api/slack-message.
func (h *SlackHandler) SendMessage(c *fiber.Ctx) error {
	var req domain.SlackMessageRequest
	if err := c.BodyParser(&req); err != nil {
		h.log.Debug("Invalid slack message body", zap.Error(err))
		return writeError(c, domain.ErrInvalidBody)
	}

	if err := h.relay.Send(c.UserContext(), req); err != nil {
		return writeError(c, err)
	}

	return c.JSON(domain.SlackMessageResponse{
		Success: true,
		Message: domain.MessageSentText,
	})
}
