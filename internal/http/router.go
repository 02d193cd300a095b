package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gtm9/remi-ai-v1/internal/auth"
	"github.com/gtm9/remi-ai-v1/internal/audio"
	"github.com/gtm9/remi-ai-v1/internal/config"
	"github.com/gtm9/remi-ai-v1/internal/flow"
	"github.com/gtm9/remi-ai-v1/internal/http/handler"
	mw "github.com/gtm9/remi-ai-v1/internal/http/middleware"
	"github.com/gtm9/remi-ai-v1/internal/notify"
	"github.com/gtm9/remi-ai-v1/internal/reminder"
	"github.com/gtm9/remi-ai-v1/internal/settings"
	"github.com/gtm9/remi-ai-v1/internal/twilio"
)

// Deps are the services the API exposes.
type Deps struct {
	Config    *config.Config
	Log       *slog.Logger
	DB        handler.HealthPinger
	Flow      *flow.Flow
	Reminders *reminder.Store
	Audio     *audio.Store
	Scheduler *notify.Scheduler
	Settings  *settings.Store
	JWT       *auth.JWT // nil disables device auth
	Version   string
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.Logger(d.Log))
	r.Use(chimw.Recoverer)

	if origins := d.Config.CORS.Origins(); len(origins) > 0 {
		r.Use(mw.CORS(origins, d.Config.CORS.AllowCredentials))
	}

	health := handler.NewHealthHandler(d.DB, d.Version)
	r.Get("/health", health.Health)

	if d.Config.Twilio.MessagingEnabled() {
		wh := &handler.WebhookHandler{Reminders: d.Reminders, Location: d.Config.LocalTimezone, Log: d.Log}
		r.With(twilio.VerifySignature(d.Config.Twilio.AuthToken, d.Config.Twilio.WebhookURL)).
			Post("/webhooks/twilio", wh.Incoming)
	}

	rh := &handler.ReminderHandler{Flow: d.Flow, Store: d.Reminders, Log: d.Log}
	ah := &handler.AudioHandler{Store: d.Audio, Log: d.Log}
	nh := &handler.NotificationHandler{Flow: d.Flow, Scheduler: d.Scheduler, Log: d.Log}
	sh := &handler.SettingsHandler{Store: d.Settings, Log: d.Log}

	r.Group(func(r chi.Router) {
		if d.JWT != nil {
			r.Use(auth.RequireAuth(d.JWT))
		}
		// Voice generation can take far longer than a plain request.
		r.Use(chimw.Timeout(d.Config.Voice.Timeout + 30*time.Second))

		r.Route("/reminders", func(r chi.Router) {
			r.Get("/", rh.List)
			r.Post("/", rh.Create)
			r.Get("/{id}", rh.Get)
			r.Patch("/{id}", rh.Update)
			r.Delete("/{id}", rh.Delete)
		})

		r.Route("/audio", func(r chi.Router) {
			r.Get("/", ah.List)
			r.Post("/", ah.Upload)
			r.Post("/refresh", ah.Refresh)
			r.Delete("/*", ah.Delete)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", nh.Pending)
			r.Post("/delivered", nh.Delivered)
		})

		r.Route("/settings/phone", func(r chi.Router) {
			r.Get("/", sh.GetPhone)
			r.Put("/", sh.PutPhone)
			r.Delete("/", sh.DeletePhone)
		})
	})

	return r
}
