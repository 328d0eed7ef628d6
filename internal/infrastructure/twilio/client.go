package twilio

import (
	"fmt"
	"strings"

	appErrors "github.com/avilar/recordatorio-bot/internal/pkg/errors"
	"github.com/avilar/recordatorio-bot/internal/pkg/logger"

	twilio "github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Client wraps Twilio messaging operations required by the bot.
type Client struct {
	client       *twilio.RestClient
	fromWhatsApp string
	log          logger.Logger
}

// New creates a Twilio client bound to the configured WhatsApp sender number.
func New(accountSID, authToken, fromWhatsApp string, log logger.Logger) *Client {
	return &Client{
		client:       twilio.NewRestClientWithParams(twilio.ClientParams{Username: accountSID, Password: authToken}),
		fromWhatsApp: fromWhatsApp,
		log:          log,
	}
}

// Send delivers a WhatsApp message to the given user. Delivery is best
// effort: the caller logs and moves on when this fails.
func (c *Client) Send(userID, text string) error {
	sender := whatsAppAddress(c.fromWhatsApp)
	if sender == "" {
		return fmt.Errorf("%w: sender number not configured", appErrors.ErrSendMessage)
	}
	recipient := whatsAppAddress(userID)
	if recipient == "" {
		return fmt.Errorf("%w: recipient number missing", appErrors.ErrSendMessage)
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(recipient)
	params.SetFrom(sender)
	params.SetBody(text)

	resp, err := c.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("%w: %v", appErrors.ErrSendMessage, err)
	}
	if resp.Sid != nil {
		c.log.Debug(fmt.Sprintf("Twilio message sent, SID: %s", *resp.Sid))
	}
	return nil
}

// whatsAppAddress converts a user identifier or configured number into the
// whatsapp:+<number> form Twilio expects. JID-style identifiers keep only
// the part before the "@".
func whatsAppAddress(id string) string {
	trimmed := strings.TrimSpace(id)
	if i := strings.Index(trimmed, "@"); i >= 0 {
		trimmed = trimmed[:i]
	}
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "whatsapp:") {
		return trimmed
	}
	if strings.HasPrefix(trimmed, "+") {
		return "whatsapp:" + trimmed
	}
	return "whatsapp:+" + trimmed
}
