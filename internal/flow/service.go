// Package flow ties reminder storage to voice generation, notification
// scheduling and call placement.
package flow

import (
	"context"
	"log/slog"
	"time"

	"github.com/gtm9/remi-ai-v1/internal/model"
	"github.com/gtm9/remi-ai-v1/internal/notify"
)

type reminderStore interface {
	Add(ctx context.Context, r model.Reminder) (model.Reminder, error)
	GetByID(ctx context.Context, id string) (model.Reminder, error)
	Update(ctx context.Context, id string, patch model.ReminderPatch) (model.Reminder, error)
	Remove(ctx context.Context, id string) error
	ListUpcoming(ctx context.Context, after time.Time) ([]model.Reminder, error)
}

type audioSource interface {
	Get(id string) (model.AudioAsset, error)
	Refresh(ctx context.Context) error
}

type voiceGenerator interface {
	Generate(ctx context.Context, audioURL, text string) (model.GeneratedAudio, error)
}

type textComposer interface {
	ComposeSpokenText(ctx context.Context, title string) (string, error)
}

type notificationScheduler interface {
	Schedule(ctx context.Context, n notify.Notification) (notify.Handle, error)
	Cancel(key string) bool
}

type caller interface {
	PlaceCall(ctx context.Context, audioURL string, r model.Reminder) (string, error)
}

// Deps are the collaborators of a Flow. Composer and Caller may be nil.
type Deps struct {
	Reminders reminderStore
	Audio     audioSource
	Voice     voiceGenerator
	Composer  textComposer
	Scheduler notificationScheduler
	Caller    caller
}

// Options tune a Flow.
type Options struct {
	PublicBaseURL      string
	Location           *time.Location
	CallOnNotification bool
}

// Flow runs the reminder lifecycle.
type Flow struct {
	log       *slog.Logger
	reminders reminderStore
	audio     audioSource
	voice     voiceGenerator
	composer  textComposer
	scheduler notificationScheduler
	caller    caller

	publicBaseURL      string
	loc                *time.Location
	callOnNotification bool
	now                func() time.Time
}

// New creates a Flow.
func New(log *slog.Logger, deps Deps, opts Options) *Flow {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	return &Flow{
		log:                log.With("service", "flow"),
		reminders:          deps.Reminders,
		audio:              deps.Audio,
		voice:              deps.Voice,
		composer:           deps.Composer,
		scheduler:          deps.Scheduler,
		caller:             deps.Caller,
		publicBaseURL:      opts.PublicBaseURL,
		loc:                loc,
		callOnNotification: opts.CallOnNotification,
		now:                time.Now,
	}
}

// Result is the outcome of an operation that may partially succeed.
// The reminder is always the latest stored version.
type Result struct {
	Reminder     model.Reminder `json:"reminder"`
	Notification *notify.Handle `json:"notification,omitempty"`
	Alerts       []model.Alert  `json:"alerts"`
}

func (r *Result) alert(a model.Alert) {
	r.Alerts = append(r.Alerts, a)
}
