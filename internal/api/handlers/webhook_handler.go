package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"expense-bot/internal/dto"
	"expense-bot/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const subscribeMode = "subscribe"

// MessageHandler processes one inbound WhatsApp message.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg dto.Message) (service.Outcome, error)
}

type WebhookHandler struct {
	messages    MessageHandler
	verifyToken string
	timeout     time.Duration
	logger      *zap.Logger
}

func NewWebhookHandler(messages MessageHandler, verifyToken string, timeout time.Duration, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		messages:    messages,
		verifyToken: verifyToken,
		timeout:     timeout,
		logger:      logger,
	}
}

// Handle dispatches on the HTTP method: GET verifies the subscription, POST
// receives message notifications.
func (h *WebhookHandler) Handle(c *fiber.Ctx) error {
	switch c.Method() {
	case fiber.MethodGet:
		return h.Verify(c)
	case fiber.MethodPost:
		return h.Receive(c)
	default:
		return c.Status(fiber.StatusMethodNotAllowed).SendString("Method Not Allowed")
	}
}

// Verify godoc
// @Summary Verify webhook subscription
// @Description Echoes hub.challenge when hub.mode is "subscribe" and hub.verify_token matches the configured token
// @Tags webhook
// @Produce plain
// @Param hub.mode query string true "Subscription mode"
// @Param hub.verify_token query string true "Verify token"
// @Param hub.challenge query string true "Challenge to echo"
// @Success 200 {string} string
// @Failure 403 {object} map[string]string
// @Router /api/webhook [get]
func (h *WebhookHandler) Verify(c *fiber.Ctx) error {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")

	if mode == subscribeMode && token != "" && token == h.verifyToken {
		h.logger.Info("Webhook verified")
		return c.Status(fiber.StatusOK).SendString(c.Query("hub.challenge"))
	}

	h.logger.Warn("Webhook verification failed", zap.String("mode", mode))
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"error": "Verification failed",
	})
}

// Receive godoc
// @Summary Receive WhatsApp notifications
// @Description Acknowledges every well-formed notification with 200; replies to the sender happen over WhatsApp
// @Tags webhook
// @Accept json
// @Produce plain
// @Param request body dto.WebhookEnvelope true "Notification"
// @Success 200 {string} string "EVENT_RECEIVED"
// @Failure 500 {string} string
// @Router /api/webhook [post]
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	var envelope dto.WebhookEnvelope
	if err := json.Unmarshal(c.Body(), &envelope); err != nil {
		// Type mismatches leave the offending field zero and the rest decoded.
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return fmt.Errorf("decode webhook body: %w", err)
		}
		h.logger.Warn("Unexpected webhook body shape", zap.Error(err))
	}

	msg, ok := envelope.FirstMessage()
	if !ok {
		h.logger.Debug("No message in webhook body", zap.String("object", envelope.Object))
		return c.Status(fiber.StatusOK).SendString("No message")
	}
	h.logger.Info("Message received", zap.String("from", msg.From), zap.String("type", string(msg.Type)))

	ctx := c.UserContext()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	outcome, err := h.messages.HandleMessage(ctx, msg)
	if err != nil {
		return fmt.Errorf("handle message from %s: %w", msg.From, err)
	}
	return c.Status(fiber.StatusOK).SendString(string(outcome))
}

// ErrorHandler turns anything a handler could not deal with into a bare 500.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if e, ok := err.(*fiber.Error); ok {
			return c.Status(e.Code).JSON(fiber.Map{
				"error": e.Message,
			})
		}
		logger.Error("Webhook failed", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
	}
}
