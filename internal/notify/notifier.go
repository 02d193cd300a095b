package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// LogNotifier writes notifications to the log. It is used when no
// messaging channel is configured.
type LogNotifier struct {
	Log *slog.Logger
}

func (l LogNotifier) Notify(ctx context.Context, n Notification) error {
	l.Log.InfoContext(ctx, "notification delivered",
		slog.String("key", n.Key()), slog.String("title", n.Title), slog.String("body", n.Body))
	return nil
}

// MessageSender sends a text message to a phone number.
type MessageSender interface {
	SendWhatsAppMessage(to, body string) error
}

// PhoneSource supplies the number messages go to.
type PhoneSource interface {
	PhoneNumber() string
}

// MessageNotifier delivers notifications as WhatsApp messages.
type MessageNotifier struct {
	sender MessageSender
	phone  PhoneSource
}

// NewMessageNotifier creates a notifier sending to the number phone holds.
func NewMessageNotifier(sender MessageSender, phone PhoneSource) *MessageNotifier {
	return &MessageNotifier{sender: sender, phone: phone}
}

func (m *MessageNotifier) Notify(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to := m.phone.PhoneNumber()
	if to == "" {
		return fmt.Errorf("notify: no phone number set")
	}
	if err := m.sender.SendWhatsAppMessage(to, messageBody(n)); err != nil {
		return fmt.Errorf("notify: send message: %w", err)
	}
	return nil
}

func messageBody(n Notification) string {
	title := strings.TrimSpace(n.Title)
	body := strings.TrimSpace(n.Body)
	switch {
	case body == "":
		return title
	case title == "":
		return body
	default:
		return title + "\n" + body
	}
}
