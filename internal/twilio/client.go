package twilio

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/gtm9/remi-ai-v1/internal/model"
	twilio "github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// ErrNotConfigured is returned when a sender number is missing.
var ErrNotConfigured = errors.New("twilio: not configured")

// Client wraps the Twilio calls and messages used for reminders.
type Client struct {
	client       *twilio.RestClient
	fromCaller   string
	fromWhatsApp string
	log          *slog.Logger
}

// New creates a Twilio client bound to the configured caller and WhatsApp sender numbers.
func New(accountSID, authToken, fromCaller, fromWhatsApp string, log *slog.Logger) *Client {
	return &Client{
		client:       twilio.NewRestClientWithParams(twilio.ClientParams{Username: accountSID, Password: authToken}),
		fromCaller:   strings.TrimSpace(fromCaller),
		fromWhatsApp: fromWhatsApp,
		log:          log.With("adapter", "twilio"),
	}
}

// Call dials to and plays the audio at audioURL after speaking intro.
// It returns the call SID.
func (c *Client) Call(to, intro, audioURL string) (string, error) {
	if c.client == nil {
		return "", fmt.Errorf("twilio client not initialised")
	}
	if c.fromCaller == "" {
		return "", fmt.Errorf("caller number: %w", ErrNotConfigured)
	}
	recipient := normalizePhoneNumber(to)
	if !isE164(recipient) {
		return "", fmt.Errorf("recipient number %q is not in E.164 form", to)
	}

	params := &openapi.CreateCallParams{}
	params.SetTo(recipient)
	params.SetFrom(c.fromCaller)
	params.SetTwiml(playTwiML(intro, audioURL))

	resp, err := c.client.Api.CreateCall(params)
	if err != nil {
		return "", fmt.Errorf("twilio create call error: %w", err)
	}

	sid := deref(resp.Sid)
	c.log.Info("twilio call created", slog.String("sid", sid), slog.String("to", recipient))
	return sid, nil
}

// SendWhatsAppMessage sends a WhatsApp message via Twilio's API.
func (c *Client) SendWhatsAppMessage(to, body string) error {
	if c.client == nil {
		return fmt.Errorf("twilio client not initialised")
	}

	sender := normalizeWhatsAppAddress(c.fromWhatsApp)
	if sender == "" {
		return fmt.Errorf("whatsapp sender: %w", ErrNotConfigured)
	}

	if !isE164(normalizePhoneNumber(to)) {
		return fmt.Errorf("recipient number %q is not in E.164 form", to)
	}
	recipient := normalizeWhatsAppAddress(to)

	params := &openapi.CreateMessageParams{}
	params.SetTo(recipient)
	params.SetFrom(sender)
	params.SetBody(body)

	resp, err := c.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send message error: %w", err)
	}

	c.log.Info("twilio message sent", slog.String("sid", deref(resp.Sid)), slog.String("to", recipient))
	return nil
}

// PhoneSource supplies the number to call.
type PhoneSource interface {
	PhoneNumber() string
}

// Caller places reminder calls straight through Twilio.
type Caller struct {
	client *Client
	phone  PhoneSource
}

// NewCaller creates a Caller that dials the number phone currently holds.
func NewCaller(client *Client, phone PhoneSource) *Caller {
	return &Caller{client: client, phone: phone}
}

// PlaceCall speaks the reminder title and plays the generated audio.
func (c *Caller) PlaceCall(ctx context.Context, audioURL string, r model.Reminder) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	to := c.phone.PhoneNumber()
	if to == "" {
		return "", model.NewValidationError("phone_number", "is not set")
	}
	sid, err := c.client.Call(to, "Reminder: "+r.Title, audioURL)
	if err != nil {
		return "", upstreamError(err)
	}
	return "Call initiated (" + sid + ").", nil
}

func playTwiML(intro, audioURL string) string {
	var b strings.Builder
	b.WriteString("<Response>")
	if intro = strings.TrimSpace(intro); intro != "" {
		b.WriteString("<Say>" + html.EscapeString(intro) + "</Say>")
	}
	b.WriteString("<Play>" + html.EscapeString(audioURL) + "</Play>")
	b.WriteString("</Response>")
	return b.String()
}

// upstreamError keeps the HTTP status and message of a Twilio API error.
func upstreamError(err error) *model.UpstreamError {
	var restErr *twilioclient.TwilioRestError
	if errors.As(err, &restErr) {
		return &model.UpstreamError{Service: "twilio", StatusCode: restErr.Status, Message: restErr.Message}
	}
	return &model.UpstreamError{Service: "twilio", Message: err.Error()}
}

// normalizePhoneNumber strips a whatsapp: prefix. Numbers reach this
// package already in E.164 form.
func normalizePhoneNumber(number string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(number), "whatsapp:"))
}

func isE164(number string) bool {
	if len(number) < 3 || number[0] != '+' {
		return false
	}
	for _, r := range number[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func normalizeWhatsAppAddress(number string) string {
	phone := normalizePhoneNumber(number)
	if phone == "" {
		return ""
	}
	return "whatsapp:" + phone
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
