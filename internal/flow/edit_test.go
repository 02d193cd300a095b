package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/gtm9/remi-ai-v1/internal/model"
)

func ptr[T any](v T) *T { return &v }

func addWithCall(t *testing.T, fx *fixture) model.Reminder {
	t.Helper()
	res, err := fx.flow.AddReminder(context.Background(), AddReminderInput{
		Title: "Call mom", Description: "say hi", Date: due(), RemindWithCall: true, SelectedAudioFileID: "voice1",
	})
	if err != nil {
		t.Fatalf("AddReminder: %v", err)
	}
	if res.Reminder.EnrichmentStatus != model.EnrichmentAttached {
		t.Fatalf("setup: status = %q", res.Reminder.EnrichmentStatus)
	}
	return res.Reminder
}

func TestUpdateReminder_SwitchingCallOnGeneratesVoice(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	added, err := fx.flow.AddReminder(ctx, AddReminderInput{Title: "Call mom", Description: "say hi", Date: due()})
	if err != nil {
		t.Fatalf("AddReminder: %v", err)
	}

	res, err := fx.flow.UpdateReminder(ctx, added.Reminder.ID, UpdateReminderInput{
		RemindWithCall:      ptr(true),
		SelectedAudioFileID: ptr("voice1"),
	})
	if err != nil {
		t.Fatalf("UpdateReminder: %v", err)
	}
	if fx.voice.calls != 1 || fx.voice.gotURL != publicBase+"/voice1" || fx.voice.text != "say hi" {
		t.Fatalf("voice calls=%d url=%q text=%q", fx.voice.calls, fx.voice.gotURL, fx.voice.text)
	}
	if res.Reminder.EnrichmentStatus != model.EnrichmentAttached || res.Reminder.GeneratedAudio == nil {
		t.Fatalf("status=%q generated=%v", res.Reminder.EnrichmentStatus, res.Reminder.GeneratedAudio)
	}

	stored, _ := fx.store.GetByID(ctx, added.Reminder.ID)
	if stored.GeneratedAudio == nil || stored.GeneratedAudio.URI != publicBase+"/gen123.wav" {
		t.Fatalf("stored generated audio = %+v", stored.GeneratedAudio)
	}

	trig, err := fx.flow.HandleNotification(ctx, added.Reminder.ID)
	if err != nil || !trig.Called {
		t.Fatalf("HandleNotification = %+v, %v", trig, err)
	}
}

func TestUpdateReminder_DescriptionChangeRegenerates(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	r := addWithCall(t, fx)
	fx.voice.result = model.GeneratedAudio{FileKey: "gen456.wav"}

	res, err := fx.flow.UpdateReminder(ctx, r.ID, UpdateReminderInput{Description: ptr("bring flowers")})
	if err != nil {
		t.Fatalf("UpdateReminder: %v", err)
	}
	if fx.voice.calls != 2 || fx.voice.text != "bring flowers" {
		t.Fatalf("voice calls=%d text=%q", fx.voice.calls, fx.voice.text)
	}
	got := res.Reminder.GeneratedAudio
	if got == nil || got.AudioText != "bring flowers" || got.URI != publicBase+"/gen456.wav" {
		t.Fatalf("generated audio = %+v", got)
	}
	if len(fx.scheduler.scheduled) != 2 {
		t.Fatalf("expected the notification to be rescheduled, got %d schedules", len(fx.scheduler.scheduled))
	}
}

func TestUpdateReminder_SelectedAudioChangeRegenerates(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.audio.assets["voice2"] = model.AudioAsset{ID: "voice2", URI: publicBase + "/voice2", Type: model.AudioRemote}
	r := addWithCall(t, fx)

	res, err := fx.flow.UpdateReminder(ctx, r.ID, UpdateReminderInput{SelectedAudioFileID: ptr("voice2")})
	if err != nil {
		t.Fatalf("UpdateReminder: %v", err)
	}
	if fx.voice.calls != 2 || fx.voice.gotURL != publicBase+"/voice2" {
		t.Fatalf("voice calls=%d url=%q", fx.voice.calls, fx.voice.gotURL)
	}
	if res.Reminder.SelectedAudio() != "voice2" || res.Reminder.EnrichmentStatus != model.EnrichmentAttached {
		t.Fatalf("reminder = %+v", res.Reminder)
	}
}

func TestUpdateReminder_RegenerationFailureDropsStaleAudio(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	r := addWithCall(t, fx)
	fx.voice.err = &model.UpstreamError{Service: "voice", StatusCode: 500}

	res, err := fx.flow.UpdateReminder(ctx, r.ID, UpdateReminderInput{Description: ptr("bring flowers")})
	if err != nil {
		t.Fatalf("UpdateReminder: %v", err)
	}
	if len(res.Alerts) == 0 || res.Alerts[0].Title != "Voice Generation Failed" {
		t.Fatalf("alerts = %+v", res.Alerts)
	}
	stored, _ := fx.store.GetByID(ctx, r.ID)
	if stored.EnrichmentStatus != model.EnrichmentFailed || stored.GeneratedAudio != nil {
		t.Fatalf("status=%q generated=%+v", stored.EnrichmentStatus, stored.GeneratedAudio)
	}
	if stored.Description != "bring flowers" {
		t.Fatalf("edit lost: %q", stored.Description)
	}
}

func TestUpdateReminder_SwitchingCallOffClearsAudio(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	r := addWithCall(t, fx)

	res, err := fx.flow.UpdateReminder(ctx, r.ID, UpdateReminderInput{RemindWithCall: ptr(false)})
	if err != nil {
		t.Fatalf("UpdateReminder: %v", err)
	}
	if fx.voice.calls != 1 {
		t.Fatalf("unexpected voice generation, calls=%d", fx.voice.calls)
	}
	if res.Reminder.EnrichmentStatus != model.EnrichmentNone || res.Reminder.GeneratedAudio != nil {
		t.Fatalf("status=%q generated=%+v", res.Reminder.EnrichmentStatus, res.Reminder.GeneratedAudio)
	}
}

func TestUpdateReminder_TitleChangeKeepsAudio(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	r := addWithCall(t, fx)

	res, err := fx.flow.UpdateReminder(ctx, r.ID, UpdateReminderInput{Title: ptr("Call dad")})
	if err != nil {
		t.Fatalf("UpdateReminder: %v", err)
	}
	if fx.voice.calls != 1 {
		t.Fatalf("title edit regenerated the voice, calls=%d", fx.voice.calls)
	}
	if res.Reminder.EnrichmentStatus != model.EnrichmentAttached || res.Reminder.GeneratedAudio == nil {
		t.Fatalf("status=%q generated=%v", res.Reminder.EnrichmentStatus, res.Reminder.GeneratedAudio)
	}
}

func TestUpdateReminder_TrimsSelectedAudioID(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	added, _ := fx.flow.AddReminder(ctx, AddReminderInput{Title: "x", Date: due()})

	res, err := fx.flow.UpdateReminder(ctx, added.Reminder.ID, UpdateReminderInput{
		RemindWithCall:      ptr(true),
		SelectedAudioFileID: ptr("  voice1 "),
	})
	if err != nil {
		t.Fatalf("UpdateReminder: %v", err)
	}
	if fx.audio.refreshes != 0 {
		t.Fatalf("padded id caused %d refreshes", fx.audio.refreshes)
	}
	if res.Reminder.SelectedAudio() != "voice1" || fx.voice.calls != 1 {
		t.Fatalf("selected=%q voice calls=%d", res.Reminder.SelectedAudio(), fx.voice.calls)
	}
}

func TestUpdateReminder_UnknownAudioRejected(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	r := addWithCall(t, fx)

	_, err := fx.flow.UpdateReminder(ctx, r.ID, UpdateReminderInput{SelectedAudioFileID: ptr("nope")})
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	stored, _ := fx.store.GetByID(ctx, r.ID)
	if stored.SelectedAudio() != "voice1" || stored.GeneratedAudio == nil {
		t.Fatalf("rejected edit changed the reminder: %+v", stored)
	}
}

func TestUpdateReminder_RemovedDuringRegeneration(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	r := addWithCall(t, fx)
	scheduled := len(fx.scheduler.scheduled)
	fx.voice.before = func() { _ = fx.store.Remove(ctx, r.ID) }

	res, err := fx.flow.UpdateReminder(ctx, r.ID, UpdateReminderInput{Description: ptr("bring flowers")})
	if err != nil {
		t.Fatalf("UpdateReminder: %v", err)
	}
	if len(res.Alerts) == 0 || res.Alerts[0].Title != "Reminder Removed" {
		t.Fatalf("alerts = %+v", res.Alerts)
	}
	if len(fx.scheduler.scheduled) != scheduled {
		t.Fatal("notification scheduled for a removed reminder")
	}
	if _, err := fx.store.GetByID(ctx, r.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("reminder resurrected: %v", err)
	}
}
