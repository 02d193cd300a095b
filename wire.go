package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gorm.io/gorm"

	"github.com/gtm9/remi-ai-v1/internal/app"
	"github.com/gtm9/remi-ai-v1/internal/audio"
	"github.com/gtm9/remi-ai-v1/internal/auth"
	"github.com/gtm9/remi-ai-v1/internal/callbackend"
	"github.com/gtm9/remi-ai-v1/internal/config"
	"github.com/gtm9/remi-ai-v1/internal/database"
	"github.com/gtm9/remi-ai-v1/internal/flow"
	"github.com/gtm9/remi-ai-v1/internal/model"
	"github.com/gtm9/remi-ai-v1/internal/notify"
	myopenai "github.com/gtm9/remi-ai-v1/internal/openai"
	"github.com/gtm9/remi-ai-v1/internal/reminder"
	"github.com/gtm9/remi-ai-v1/internal/settings"
	"github.com/gtm9/remi-ai-v1/internal/storage"
	"github.com/gtm9/remi-ai-v1/internal/twilio"
	"github.com/gtm9/remi-ai-v1/internal/voice"
)

type reminderCaller interface {
	PlaceCall(ctx context.Context, audioURL string, r model.Reminder) (string, error)
}

// services is everything the commands share.
type services struct {
	cfg       *config.Config
	log       *slog.Logger
	db        *gorm.DB
	reminders *reminder.Store
	audio     *audio.Store
	settings  *settings.Store
	scheduler *notify.Scheduler
	flow      *flow.Flow
	jwt       *auth.JWT
}

func loadServices() (*services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := app.NewLogger(os.Stdout, cfg.Log)
	slog.SetDefault(logger)

	phone, err := settings.NewStore(cfg.PhoneNumber, cfg.PhoneRegion)
	if err != nil {
		return nil, err
	}
	if err := normalizeSenders(&cfg.Twilio, cfg.PhoneRegion); err != nil {
		return nil, err
	}

	db, err := database.New(cfg.DatabaseURL, cfg.SQLitePath, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	s := &services{
		cfg:       cfg,
		log:       logger,
		db:        db,
		reminders: reminder.NewStore(db, logger),
		settings:  phone,
	}

	bucket := storage.NewClient(cfg.Storage.APIBaseURL, cfg.Storage.Bucket, cfg.Storage.Timeout, logger)
	s.audio = audio.NewStore(bucket, cfg.Storage.SourcePrefix, cfg.Storage.PublicBaseURL, logger)

	var twilioClient *twilio.Client
	if cfg.Twilio.Enabled() || cfg.Twilio.MessagingEnabled() {
		twilioClient = twilio.New(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken,
			cfg.Twilio.CallerNumber, cfg.Twilio.WhatsAppNumber, logger)
	}

	var notifier notify.Notifier = notify.LogNotifier{Log: logger}
	if cfg.Twilio.MessagingEnabled() {
		notifier = notify.NewMessageNotifier(twilioClient, s.settings)
	}
	s.scheduler = notify.NewScheduler(notify.Options{
		Location:        cfg.LocalTimezone,
		Enabled:         cfg.Notifications.Enabled,
		DispatchTimeout: cfg.Notifications.DispatchTimeout,
		Notifier:        notifier,
		Logger:          logger,
	})

	s.flow = flow.New(logger, flow.Deps{
		Reminders: s.reminders,
		Audio:     s.audio,
		Voice: voice.NewClient(cfg.Voice.APIBaseURL, voice.Params{
			Exaggeration: cfg.Voice.Exaggeration,
			Temperature:  cfg.Voice.Temperature,
			CFGWeight:    cfg.Voice.CFGWeight,
			Seed:         cfg.Voice.Seed,
		}, cfg.Voice.Timeout, logger),
		Composer:  myopenai.New(cfg.OpenAIAPIKey, logger),
		Scheduler: s.scheduler,
		Caller:    pickCaller(cfg, twilioClient, s.settings, logger),
	}, flow.Options{
		PublicBaseURL:      cfg.Storage.PublicBaseURL,
		Location:           cfg.LocalTimezone,
		CallOnNotification: cfg.Call.CallOnNotification,
	})
	s.scheduler.OnDelivered(s.flow.OnNotificationDelivered)

	if cfg.Auth.JWTSecret != "" {
		s.jwt = auth.NewJWT(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	}
	return s, nil
}

// pickCaller prefers dialing through Twilio, then the call backend.
// It returns nil when neither is configured.
func pickCaller(cfg *config.Config, tw *twilio.Client, phone twilio.PhoneSource, log *slog.Logger) reminderCaller {
	switch {
	case cfg.Twilio.Enabled():
		log.Info("calls: placing through twilio")
		return twilio.NewCaller(tw, phone)
	case cfg.Call.APIBaseURL != "":
		log.Info("calls: placing through call backend")
		return callbackend.NewClient(cfg.Call.APIBaseURL, cfg.Call.Timeout, log)
	default:
		log.Warn("calls: no call service configured, reminders will only notify")
		return nil
	}
}

// normalizeSenders brings the configured Twilio numbers into E.164 form.
func normalizeSenders(tw *config.TwilioConfig, region string) error {
	for name, number := range map[string]*string{
		"TWILIO_CALLER_NUMBER":   &tw.CallerNumber,
		"TWILIO_WHATSAPP_NUMBER": &tw.WhatsAppNumber,
	} {
		raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(*number), "whatsapp:"))
		if raw == "" {
			continue
		}
		e164, err := settings.E164(raw, region)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*number = e164
	}
	return nil
}

func (s *services) close() {
	if sqlDB, err := s.db.DB(); err == nil {
		sqlDB.Close()
	}
}
