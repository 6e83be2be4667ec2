package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/skilldesk/lms-api/internal/dto"
	"github.com/skilldesk/lms-api/internal/middleware"
	"github.com/skilldesk/lms-api/internal/service"
	"github.com/skilldesk/lms-api/internal/utils"
)

// MessageHandler manages direct-messaging endpoints including the live
// websocket delivery channel.
type MessageHandler struct {
	service service.MessageService
	logger  zerolog.Logger
}

// NewMessageHandler builds a message handler instance.
func NewMessageHandler(service service.MessageService, logger zerolog.Logger) *MessageHandler {
	return &MessageHandler{
		service: service,
		logger:  logger.With().Str("component", "message_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *MessageHandler) Register(router fiber.Router) {
	router.Get("/ws", h.upgrade, websocket.New(h.serve))
	router.Post("", h.send)
	router.Get("/:userId", h.conversation)
}

func (h *MessageHandler) send(c *fiber.Ctx) error {
	senderID := userIDFromContext(c)
	if senderID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var payload dto.SendMessageRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	message, err := h.service.Send(c.Context(), senderID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "message sent", message)
}

func (h *MessageHandler) conversation(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	otherID, err := parseUintParam(c, "userId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	messages, err := h.service.Conversation(c.Context(), userID, otherID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "messages retrieved", messages)
}

// upgrade stashes request identity in locals before the websocket
// library takes over the connection.
func (h *MessageHandler) upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return utils.SendError(c, fiber.StatusUpgradeRequired, "websocket upgrade required")
	}

	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	c.Locals("ws_user_id", userID)
	c.Locals("ws_correlation_id", middleware.GetCorrelationID(c))

	return c.Next()
}

func (h *MessageHandler) serve(conn *websocket.Conn) {
	userID, _ := conn.Locals("ws_user_id").(uint)
	correlationID, _ := conn.Locals("ws_correlation_id").(string)

	if userID == 0 {
		_ = conn.Close()
		return
	}

	h.service.ServeConnection(conn, service.MessageConnectionOptions{
		UserID:        userID,
		CorrelationID: correlationID,
	})
}

func (h *MessageHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "user not found")
	case errors.Is(err, service.ErrMessageForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "messaging not allowed between these roles")
	case errors.Is(err, service.ErrEmptyMessage):
		return utils.SendError(c, fiber.StatusBadRequest, "message text must not be empty")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
