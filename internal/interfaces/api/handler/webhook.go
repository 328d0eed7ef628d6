package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/avilar/recordatorio-bot/internal/application/service"
	"github.com/avilar/recordatorio-bot/internal/domain/entity"
	appErrors "github.com/avilar/recordatorio-bot/internal/pkg/errors"
	"github.com/avilar/recordatorio-bot/internal/pkg/logger"

	"github.com/labstack/echo/v4"
)

const emptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

// WebhookHandler handles inbound Twilio WhatsApp messages.
type WebhookHandler struct {
	conversation service.ConversationService
	botNumber    string
	log          logger.Logger
}

// NewWebhookHandler creates a WebhookHandler. botNumber is the bot's own
// WhatsApp number; messages from it are dropped to prevent feedback loops.
func NewWebhookHandler(conversation service.ConversationService, botNumber string, log logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		conversation: conversation,
		botNumber:    botNumber,
		log:          log,
	}
}

// HandleInbound is the webhook entry point. Replies are pushed through the
// outbound transport rather than the TwiML response, because one inbound
// event may produce several messages; the response body stays empty.
func (h *WebhookHandler) HandleInbound(c echo.Context) error {
	from := c.FormValue("From")
	if from == "" {
		h.log.Warn("Inbound webhook without From field")
		return c.XMLBlob(http.StatusOK, []byte(emptyTwiML))
	}

	// Drop the bot's own outbound echoes before any other processing.
	if h.isSelf(from) {
		return c.XMLBlob(http.StatusOK, []byte(emptyTwiML))
	}

	text := extractText(c)
	if text == "" {
		return c.XMLBlob(http.StatusOK, []byte(emptyTwiML))
	}

	if err := h.conversation.HandleMessage(c.Request().Context(), from, text); err != nil {
		// Unauthorized and validation errors already produced a user-visible
		// reply; log the rest. Twilio gets 200 either way so it won't retry.
		if !errors.Is(err, appErrors.ErrUnauthorized) {
			h.log.Error(fmt.Sprintf("Failed to handle message from %s", from), err)
		}
	}

	return c.XMLBlob(http.StatusOK, []byte(emptyTwiML))
}

func (h *WebhookHandler) isSelf(from string) bool {
	return entity.NormalizeUserID(stripChannelPrefix(from)) == entity.NormalizeUserID(stripChannelPrefix(h.botNumber))
}

// extractText pulls the message text out of the inbound payload: the body
// for plain and extended text, the caption for media. Anything else (and
// whitespace-only text) yields "", which drops the event.
func extractText(c echo.Context) string {
	if body := strings.TrimSpace(c.FormValue("Body")); body != "" {
		return body
	}
	// Media without caption, location pins, contacts, reactions.
	return ""
}

// stripChannelPrefix removes Twilio's "whatsapp:" channel marker.
func stripChannelPrefix(number string) string {
	return strings.TrimPrefix(strings.TrimSpace(number), "whatsapp:")
}
