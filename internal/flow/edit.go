package flow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gtm9/remi-ai-v1/internal/model"
)

// UpdateReminder applies a detail-edit change.
//
// When the edited reminder needs a call and its voice inputs changed (the
// call was switched on, another audio file was selected or the description
// was edited) the old generated audio is dropped and a new one generated.
// Switching the call off drops the generated audio. When the date, title or
// description change the notification is scheduled again. Generation and
// scheduling failures are reported as alerts and the change is kept.
func (f *Flow) UpdateReminder(ctx context.Context, id string, in UpdateReminderInput) (Result, error) {
	current, err := f.reminders.GetByID(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if err := in.Validate(current); err != nil {
		return Result{}, err
	}

	patch := in.patch()
	withCall := current.RemindWithCall
	if in.RemindWithCall != nil {
		withCall = *in.RemindWithCall
	}
	selected := current.SelectedAudio()
	switch {
	case patch.ClearSelectedAudio:
		selected = ""
	case patch.SelectedAudioFileID != nil:
		selected = *patch.SelectedAudioFileID
	}
	descriptionChanged := in.Description != nil && *in.Description != current.Description
	regenerate := withCall &&
		(!current.RemindWithCall || selected != current.SelectedAudio() || descriptionChanged)

	var source model.AudioAsset
	if regenerate || (selected != "" && selected != current.SelectedAudio()) {
		if source, err = f.resolveAudio(ctx, selected); err != nil {
			return Result{}, err
		}
	}

	if regenerate || (!withCall && current.RemindWithCall) {
		none := model.EnrichmentNone
		cleared := ""
		patch.ClearGeneratedAudio = true
		patch.EnrichmentStatus = &none
		patch.EnrichmentError = &cleared
	}

	updated, err := f.reminders.Update(ctx, id, patch)
	if err != nil {
		return Result{}, fmt.Errorf("update reminder: %w", err)
	}
	f.log.InfoContext(ctx, "reminder updated", slog.String("reminder_id", id), slog.Bool("regenerate", regenerate))

	res := Result{Reminder: updated}
	if regenerate && !f.attachGeneratedAudio(ctx, &res, source) {
		return res, nil
	}
	if !updated.Date.Equal(current.Date) || updated.Title != current.Title || updated.Description != current.Description {
		f.scheduleNotification(ctx, &res)
	}
	return res, nil
}

// RemoveReminder deletes the reminder and cancels its notification.
// Removing an unknown id is a no-op.
func (f *Flow) RemoveReminder(ctx context.Context, id string) error {
	if err := f.reminders.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove reminder: %w", err)
	}
	if f.scheduler.Cancel(id) {
		f.log.InfoContext(ctx, "reminder notification cancelled", slog.String("reminder_id", id))
	}
	return nil
}
