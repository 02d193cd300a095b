package handler

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gtm9/remi-ai-v1/internal/model"
)

type upcomingLister interface {
	ListUpcoming(ctx context.Context, after time.Time) ([]model.Reminder, error)
}

// WebhookHandler answers inbound WhatsApp messages from Twilio with TwiML.
type WebhookHandler struct {
	Reminders upcomingLister
	Location  *time.Location
	Log       *slog.Logger
	Now       func() time.Time
}

// Incoming handles Twilio's message webhook POST.
func (h *WebhookHandler) Incoming(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.Log.WarnContext(r.Context(), "webhook: parse error", slog.String("error", err.Error()))
		h.writeTwilioResponse(w, "Sorry, I couldn't understand that request.")
		return
	}

	body := strings.ToLower(strings.TrimSpace(r.FormValue("Body")))
	if body == "" {
		h.writeTwilioResponse(w, "I need a message to work with. Please try again.")
		return
	}

	if !isListRequest(body) {
		h.writeTwilioResponse(w, helpResponse())
		return
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	reminders, err := h.Reminders.ListUpcoming(r.Context(), now())
	if err != nil {
		h.Log.ErrorContext(r.Context(), "webhook: list reminders", slog.String("error", err.Error()))
		h.writeTwilioResponse(w, "Hmm, I couldn't load your reminders. Please try again later.")
		return
	}
	if len(reminders) == 0 {
		h.writeTwilioResponse(w, "You have no upcoming reminders.")
		return
	}
	h.writeTwilioResponse(w, h.formatReminders(reminders))
}

func (h *WebhookHandler) formatReminders(reminders []model.Reminder) string {
	loc := h.Location
	if loc == nil {
		loc = time.Local
	}
	var sb strings.Builder
	sb.WriteString("Here are your upcoming reminders:\n")
	for i, r := range reminders {
		call := ""
		if r.RemindWithCall {
			call = " (call)"
		}
		sb.WriteString(fmt.Sprintf("%d. %s, %s%s\n", i+1, r.Title, r.Date.In(loc).Format("Jan 02 15:04"), call))
	}
	return sb.String()
}

func (h *WebhookHandler) writeTwilioResponse(w http.ResponseWriter, message string) {
	twiml := struct {
		XMLName xml.Name `xml:"Response"`
		Message string   `xml:"Message"`
	}{
		Message: message,
	}

	w.Header().Set("Content-Type", "application/xml")
	if err := xml.NewEncoder(w).Encode(twiml); err != nil {
		h.Log.Error("twilio response encode", slog.String("error", err.Error()))
	}
}

func isListRequest(body string) bool {
	return body == "list" ||
		strings.Contains(body, "show my reminders") ||
		strings.Contains(body, "list my reminders") ||
		strings.Contains(body, "show reminders") ||
		(strings.Contains(body, "list") && strings.Contains(body, "reminder"))
}

func helpResponse() string {
	return "Reminders are created in the app. Send \"list reminders\" to see what's coming up."
}
