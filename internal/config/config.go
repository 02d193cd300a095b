package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config stores runtime configuration loaded from environment variables.
type Config struct {
	Server        ServerConfig
	Log           LogConfig
	Storage       StorageConfig
	Voice         VoiceConfig
	Call          CallConfig
	Twilio        TwilioConfig
	Notifications NotificationConfig
	Auth          AuthConfig
	CORS          CORSConfig

	OpenAIAPIKey  string         `env:"OPENAI_API_KEY"`
	DatabaseURL   string         `env:"DATABASE_URL"`
	SQLitePath    string         `env:"SQLITE_PATH"    env-default:"reminders.db"`
	PhoneNumber   string         `env:"PHONE_NUMBER"`
	PhoneRegion   string         `env:"PHONE_REGION"   env-default:"US"`
	TimezoneName  string         `env:"LOCAL_TIMEZONE" env-default:"Local"`
	LocalTimezone *time.Location `env:"-"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `env:"PORT"                    env-default:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT"    env-default:"120s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL"  env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"text"`
}

// StorageConfig points at the object storage API and its public bucket URL.
type StorageConfig struct {
	APIBaseURL    string        `env:"STORAGE_API_URL"`
	Bucket        string        `env:"STORAGE_BUCKET"        env-default:"REMI_AI_VOICE_AUDIO_BUCKET"`
	SourcePrefix  string        `env:"STORAGE_SOURCE_PREFIX" env-default:"audio_sources"`
	PublicBaseURL string        `env:"STORAGE_PUBLIC_URL"`
	Timeout       time.Duration `env:"STORAGE_TIMEOUT"       env-default:"30s"`
}

// VoiceConfig holds the voice generation backend and its fixed parameters.
type VoiceConfig struct {
	APIBaseURL   string        `env:"VOICE_API_URL"`
	Timeout      time.Duration `env:"VOICE_TIMEOUT"      env-default:"90s"`
	Exaggeration float64       `env:"VOICE_EXAGGERATION" env-default:"0.5"`
	Temperature  float64       `env:"VOICE_TEMPERATURE"  env-default:"0.8"`
	CFGWeight    float64       `env:"VOICE_CFG_WEIGHT"   env-default:"0.5"`
	Seed         int           `env:"VOICE_SEED"         env-default:"0"`
}

// CallConfig holds the call-initiation backend.
type CallConfig struct {
	APIBaseURL         string        `env:"CALL_API_URL"`
	Timeout            time.Duration `env:"CALL_TIMEOUT"         env-default:"30s"`
	CallOnNotification bool          `env:"CALL_ON_NOTIFICATION" env-default:"true"`
}

// TwilioConfig holds credentials for placing calls and sending messages
// directly through Twilio.
type TwilioConfig struct {
	AccountSID     string `env:"TWILIO_ACCOUNT_SID"`
	AuthToken      string `env:"TWILIO_AUTH_TOKEN"`
	CallerNumber   string `env:"TWILIO_CALLER_NUMBER"`
	WhatsAppNumber string `env:"TWILIO_WHATSAPP_NUMBER"`
	WebhookURL     string `env:"TWILIO_WEBHOOK_URL"`
}

// Enabled reports whether all credentials needed for calls are present.
func (t TwilioConfig) Enabled() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.CallerNumber != ""
}

// MessagingEnabled reports whether WhatsApp notifications can be sent.
func (t TwilioConfig) MessagingEnabled() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.WhatsAppNumber != ""
}

// NotificationConfig controls reminder notifications.
type NotificationConfig struct {
	Enabled         bool          `env:"NOTIFICATIONS_ENABLED" env-default:"true"`
	DispatchTimeout time.Duration `env:"NOTIFICATION_TIMEOUT"  env-default:"2m"`
}

// AuthConfig holds device token settings. An empty secret disables auth.
type AuthConfig struct {
	JWTSecret string        `env:"AUTH_JWT_SECRET"`
	TokenTTL  time.Duration `env:"AUTH_TOKEN_TTL" env-default:"720h"`
}

// CORSConfig holds CORS settings. No origins disables the middleware.
type CORSConfig struct {
	AllowedOrigins   string `env:"CORS_ALLOWED_ORIGINS"`
	AllowCredentials bool   `env:"CORS_ALLOW_CREDENTIALS" env-default:"false"`
}

// Origins splits AllowedOrigins on commas.
func (c CORSConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Load reads configuration values and prepares defaults where applicable.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Validate checks required values and resolves the timezone.
func (c *Config) Validate() error {
	required := map[string]string{
		"STORAGE_API_URL":    c.Storage.APIBaseURL,
		"STORAGE_PUBLIC_URL": c.Storage.PublicBaseURL,
		"VOICE_API_URL":      c.Voice.APIBaseURL,
	}
	for key, value := range required {
		if err := checkURL(key, value); err != nil {
			return err
		}
	}
	if c.Call.APIBaseURL != "" {
		if err := checkURL("CALL_API_URL", c.Call.APIBaseURL); err != nil {
			return err
		}
	}
	if c.Twilio.WebhookURL != "" {
		if err := checkURL("TWILIO_WEBHOOK_URL", c.Twilio.WebhookURL); err != nil {
			return err
		}
	}
	if strings.TrimSpace(c.Storage.Bucket) == "" {
		return fmt.Errorf("STORAGE_BUCKET must not be empty")
	}
	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("AUTH_JWT_SECRET must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}

	location, err := time.LoadLocation(c.TimezoneName)
	if err != nil {
		slog.Warn("config: invalid LOCAL_TIMEZONE, defaulting to system local",
			slog.String("timezone", c.TimezoneName), slog.String("error", err.Error()))
		location = time.Local
	}
	c.LocalTimezone = location
	return nil
}

func checkURL(key, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", key)
	}
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL (got %q)", key, value)
	}
	return nil
}
