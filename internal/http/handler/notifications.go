package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gtm9/remi-ai-v1/internal/flow"
	"github.com/gtm9/remi-ai-v1/internal/model"
	"github.com/gtm9/remi-ai-v1/internal/notify"
)

type notificationTrigger interface {
	HandleNotification(ctx context.Context, reminderID string) (flow.TriggerResult, error)
}

type pendingLister interface {
	Pending() []notify.Handle
}

// NotificationHandler serves /notifications.
type NotificationHandler struct {
	Flow      notificationTrigger
	Scheduler pendingLister
	Log       *slog.Logger
}

type deliveredReq struct {
	ReminderID string `json:"reminderId"`
}

// Delivered handles a notification the client received.
func (h *NotificationHandler) Delivered(w http.ResponseWriter, r *http.Request) {
	var req deliveredReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Call Failed", "The request body is not valid JSON.")
		return
	}
	if strings.TrimSpace(req.ReminderID) == "" {
		writeError(w, r, h.Log, "Call Failed", model.NewValidationError("reminderId", "required"))
		return
	}

	res, err := h.Flow.HandleNotification(r.Context(), req.ReminderID)
	if err != nil {
		writeError(w, r, h.Log, "Call Failed", err)
		return
	}
	if res.Alerts == nil {
		res.Alerts = []model.Alert{}
	}
	writeJSON(w, http.StatusOK, res)
}

// Pending lists the armed notifications.
func (h *NotificationHandler) Pending(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"notifications": h.Scheduler.Pending()})
}
