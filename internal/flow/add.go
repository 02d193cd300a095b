package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gtm9/remi-ai-v1/internal/model"
	"github.com/gtm9/remi-ai-v1/internal/notify"
	"github.com/gtm9/remi-ai-v1/internal/storage"
)

// AddReminder stores a new reminder, generates its voice message when a
// call was requested, and schedules its notification. Invalid input is
// returned as an error before anything is stored. Later failures do not
// undo the stored reminder; they are reported in Result.Alerts.
func (f *Flow) AddReminder(ctx context.Context, in AddReminderInput) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}

	var source model.AudioAsset
	if in.RemindWithCall {
		asset, err := f.resolveAudio(ctx, strings.TrimSpace(in.SelectedAudioFileID))
		if err != nil {
			return Result{}, err
		}
		source = asset
	}

	r := model.Reminder{
		Title:            strings.TrimSpace(in.Title),
		Description:      in.Description,
		Date:             in.Date,
		RemindWithCall:   in.RemindWithCall,
		EnrichmentStatus: model.EnrichmentNone,
	}
	if in.RemindWithCall {
		id := source.ID
		r.SelectedAudioFileID = &id
	}

	stored, err := f.reminders.Add(ctx, r)
	if err != nil {
		return Result{}, fmt.Errorf("add reminder: %w", err)
	}
	f.log.InfoContext(ctx, "reminder added",
		slog.String("reminder_id", stored.ID), slog.Bool("remind_with_call", stored.RemindWithCall))

	res := Result{Reminder: stored}
	if stored.RemindWithCall && !f.attachGeneratedAudio(ctx, &res, source) {
		return res, nil
	}
	f.scheduleNotification(ctx, &res)
	return res, nil
}

// resolveAudio finds the voice source, refreshing the listing once on a miss.
func (f *Flow) resolveAudio(ctx context.Context, id string) (model.AudioAsset, error) {
	asset, err := f.audio.Get(id)
	if err == nil {
		return asset, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.AudioAsset{}, err
	}

	if err := f.audio.Refresh(ctx); err != nil {
		return model.AudioAsset{}, fmt.Errorf("resolve audio %s: %w", id, err)
	}
	asset, err = f.audio.Get(id)
	if errors.Is(err, model.ErrNotFound) {
		return model.AudioAsset{}, model.NewValidationError("selected_audio_file_id", "does not match any audio file")
	}
	return asset, err
}

// attachGeneratedAudio runs voice generation and stores the result on the
// reminder in res. Failures mark the reminder failed and add an alert.
// It returns false when the reminder no longer exists.
func (f *Flow) attachGeneratedAudio(ctx context.Context, res *Result, source model.AudioAsset) bool {
	id := res.Reminder.ID
	log := f.log.With(slog.String("reminder_id", id))

	generating := model.EnrichmentGenerating
	if r, err := f.reminders.Update(ctx, id, model.ReminderPatch{EnrichmentStatus: &generating}); err == nil {
		res.Reminder = r
	} else {
		log.WarnContext(ctx, "mark generating", slog.String("error", err.Error()))
	}

	text := f.spokenText(ctx, res.Reminder)
	generated, err := f.voice.Generate(ctx, source.URI, text)
	if err != nil {
		log.ErrorContext(ctx, "voice generation failed", slog.String("error", err.Error()))
		f.markFailed(ctx, res, err)
		res.alert(model.AlertFromError("Voice Generation Failed", err))
		return true
	}

	asset := model.AudioAsset{
		ID:        generated.FileKey,
		Name:      generated.FileKey,
		URI:       generated.URL,
		Type:      model.AudioRemote,
		AudioText: text,
	}
	if generated.FileKey != "" {
		asset.URI = storage.PublicURL(f.publicBaseURL, generated.FileKey)
	} else {
		asset.ID = generated.URL
		asset.Name = generated.URL
	}

	attached := model.EnrichmentAttached
	cleared := ""
	updated, err := f.reminders.Update(ctx, id, model.ReminderPatch{
		GeneratedAudio:   &asset,
		EnrichmentStatus: &attached,
		EnrichmentError:  &cleared,
	})
	switch {
	case errors.Is(err, model.ErrNotFound):
		// Deleted while the voice was generated.
		log.WarnContext(ctx, "reminder removed before voice was attached")
		res.alert(model.Alert{
			Title:   "Reminder Removed",
			Message: "The reminder was deleted before its voice message was ready.",
		})
		return false
	case err != nil:
		log.ErrorContext(ctx, "attach generated audio", slog.String("error", err.Error()))
		f.markFailed(ctx, res, err)
		res.alert(model.AlertFromError("Voice Not Saved", err))
		return true
	}
	res.Reminder = updated
	log.InfoContext(ctx, "generated audio attached", slog.String("uri", asset.URI))
	return true
}

// spokenText is the description, or a sentence composed from the title.
func (f *Flow) spokenText(ctx context.Context, r model.Reminder) string {
	if text := strings.TrimSpace(r.Description); text != "" {
		return text
	}
	if f.composer == nil {
		return r.Title
	}
	text, err := f.composer.ComposeSpokenText(ctx, r.Title)
	if err != nil || strings.TrimSpace(text) == "" {
		return r.Title
	}
	return text
}

// markFailed records err on the reminder. It outlives a cancelled ctx so
// the reminder does not stay in the generating state.
func (f *Flow) markFailed(ctx context.Context, res *Result, cause error) {
	failed := model.EnrichmentFailed
	msg := cause.Error()
	r, err := f.reminders.Update(context.WithoutCancel(ctx), res.Reminder.ID, model.ReminderPatch{
		EnrichmentStatus: &failed,
		EnrichmentError:  &msg,
	})
	if err != nil {
		f.log.WarnContext(ctx, "mark failed", slog.String("reminder_id", res.Reminder.ID), slog.String("error", err.Error()))
		return
	}
	res.Reminder = r
}

// scheduleNotification arms the reminder's notification and records the
// handle or an alert in res.
func (f *Flow) scheduleNotification(ctx context.Context, res *Result) {
	h, err := f.scheduler.Schedule(ctx, f.notificationFor(res.Reminder))
	if err != nil {
		f.log.WarnContext(ctx, "schedule notification",
			slog.String("reminder_id", res.Reminder.ID), slog.String("error", err.Error()))
		res.alert(model.AlertFromError("Notification Not Scheduled", err))
		return
	}
	res.Notification = &h
}

func (f *Flow) notificationFor(r model.Reminder) notify.Notification {
	body := strings.TrimSpace(r.Description)
	if body == "" {
		body = "It's time for your reminder."
	}
	return notify.Notification{
		Title:   r.Title,
		Body:    body,
		Data:    map[string]string{notify.DataReminderID: r.ID},
		Trigger: notify.TriggerAt(r.Date, f.loc),
	}
}
