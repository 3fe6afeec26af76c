package twilio

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	twilio "github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Client wraps Twilio messaging operations required by the bot.
type Client struct {
	client       *twilio.RestClient
	validator    twilioclient.RequestValidator
	fromWhatsApp string
	log          zerolog.Logger
}

// New creates a Twilio client bound to the configured WhatsApp sender number.
func New(accountSID, authToken, fromWhatsApp string, log zerolog.Logger) *Client {
	return &Client{
		client:       twilio.NewRestClientWithParams(twilio.ClientParams{Username: accountSID, Password: authToken}),
		validator:    twilioclient.NewRequestValidator(authToken),
		fromWhatsApp: fromWhatsApp,
		log:          log.With().Str("component", "twilio").Logger(),
	}
}

// Notify sends a reminder to userID over WhatsApp.
func (c *Client) Notify(ctx context.Context, userID, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.SendWhatsAppMessage(userID, message)
}

// SendWhatsAppMessage sends a WhatsApp message via Twilio's API.
func (c *Client) SendWhatsAppMessage(to, body string) error {
	if c.client == nil {
		return fmt.Errorf("twilio client not initialised")
	}

	sender := normalizeWhatsAppAddress(c.fromWhatsApp)
	if sender == "" {
		return fmt.Errorf("twilio sender WhatsApp number is not configured")
	}

	recipient := normalizeWhatsAppAddress(to)
	if recipient == "" {
		return fmt.Errorf("recipient number missing or invalid")
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(recipient)
	params.SetFrom(sender)
	params.SetBody(body)

	resp, err := c.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send message error: %w", err)
	}

	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	c.log.Debug().Str("to", recipient).Str("sid", sid).Msg("message sent")
	return nil
}

// ValidRequest checks the X-Twilio-Signature of a webhook call made to url with params.
func (c *Client) ValidRequest(url string, params map[string]string, signature string) bool {
	if signature == "" {
		return false
	}
	return c.validator.Validate(url, params, signature)
}

// UserID strips the channel prefix Twilio puts in front of the sender number.
func UserID(from string) string {
	return strings.TrimPrefix(strings.TrimSpace(from), "whatsapp:")
}

func normalizeWhatsAppAddress(number string) string {
	trimmed := strings.TrimSpace(number)
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
