package flow

import (
	"context"
	"log/slog"

	"github.com/gtm9/remi-ai-v1/internal/model"
	"github.com/gtm9/remi-ai-v1/internal/notify"
)

// TriggerResult is the outcome of handling a delivered notification.
type TriggerResult struct {
	ReminderID string        `json:"reminderId"`
	Called     bool          `json:"called"`
	Message    string        `json:"message,omitempty"`
	Alerts     []model.Alert `json:"alerts"`
}

// HandleNotification places the reminder call for a delivered notification
// when calls are enabled and generated audio is attached. The call is
// attempted once; its failure is logged and returned as an alert.
func (f *Flow) HandleNotification(ctx context.Context, reminderID string) (TriggerResult, error) {
	r, err := f.reminders.GetByID(ctx, reminderID)
	if err != nil {
		return TriggerResult{}, err
	}
	res := TriggerResult{ReminderID: r.ID}
	log := f.log.With(slog.String("reminder_id", r.ID))

	switch {
	case !f.callOnNotification || f.caller == nil:
		log.InfoContext(ctx, "notification delivered, calls disabled")
		return res, nil
	case !r.RemindWithCall:
		log.InfoContext(ctx, "notification delivered, no call requested")
		return res, nil
	case r.GeneratedAudio == nil || r.GeneratedAudio.URI == "":
		log.WarnContext(ctx, "notification delivered, no generated audio to play",
			slog.String("enrichment_status", string(r.EnrichmentStatus)))
		res.Alerts = append(res.Alerts, model.Alert{
			Title:   "Call Skipped",
			Message: "No voice message is attached to this reminder.",
		})
		return res, nil
	}

	msg, err := f.caller.PlaceCall(ctx, r.GeneratedAudio.URI, r)
	if err != nil {
		log.ErrorContext(ctx, "call failed", slog.String("error", err.Error()))
		res.Alerts = append(res.Alerts, model.AlertFromError("Call Failed", err))
		return res, nil
	}

	log.InfoContext(ctx, "call initiated", slog.String("message", msg))
	res.Called = true
	res.Message = msg
	return res, nil
}

// OnNotificationDelivered adapts HandleNotification to the scheduler callback.
func (f *Flow) OnNotificationDelivered(ctx context.Context, n notify.Notification) {
	if _, err := f.HandleNotification(ctx, n.Key()); err != nil {
		f.log.ErrorContext(ctx, "handle notification",
			slog.String("reminder_id", n.Key()), slog.String("error", err.Error()))
	}
}

// RestoreSchedules arms the notifications of all reminders still due.
// It returns how many were armed.
func (f *Flow) RestoreSchedules(ctx context.Context) (int, error) {
	reminders, err := f.reminders.ListUpcoming(ctx, f.now())
	if err != nil {
		return 0, err
	}

	armed := 0
	for _, r := range reminders {
		res := Result{Reminder: r}
		f.scheduleNotification(ctx, &res)
		if res.Notification != nil {
			armed++
		}
	}
	f.log.InfoContext(ctx, "notifications restored", slog.Int("armed", armed), slog.Int("upcoming", len(reminders)))
	return armed, nil
}
