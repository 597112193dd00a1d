package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the voice bridge service
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`

	// Public hostname for this service (e.g. xxx.ngrok-free.dev when behind a tunnel).
	// Used to build the wss:// stream URL in the TwiML answer. Optional; if unset,
	// the Host header of the incoming webhook request is used.
	PublicHost string `envconfig:"PUBLIC_HOST" default:""`

	// OpenAI configuration (realtime conversation leg + post-call extraction)
	OpenAIAPIKey          string `envconfig:"OPENAI_API_KEY" required:"true"`
	OpenAIRealtimeURL     string `envconfig:"OPENAI_REALTIME_URL" default:"wss://api.openai.com/v1/realtime?model=gpt-4o-realtime-preview-2024-10-01"`
	OpenAIVoice           string `envconfig:"OPENAI_VOICE" default:"sage"`
	OpenAIExtractionModel string `envconfig:"OPENAI_EXTRACTION_MODEL" default:"gpt-4-1106-preview"`
	OpenAIExtractionURL   string `envconfig:"OPENAI_EXTRACTION_URL" default:"https://api.openai.com/v1/chat/completions"`

	// Google Cloud Speech-to-Text configuration (turn transcription)
	SpeechLanguage   string `envconfig:"SPEECH_LANGUAGE" default:"en-US"`
	SpeechSampleRate int    `envconfig:"SPEECH_SAMPLE_RATE" default:"8000"` // Hz, Twilio G.711 standard

	// Twilio SMS configuration (order notifications). If the account SID is
	// empty, notifications are disabled and the close path only logs.
	TwilioAccountSID    string `envconfig:"TWILIO_ACCOUNT_SID" default:""`
	TwilioAuthToken     string `envconfig:"TWILIO_AUTH_TOKEN" default:""`
	MessagingServiceSID string `envconfig:"MESSAGING_SERVICE_SID" default:""`
	OperatorNumber      string `envconfig:"OPERATOR_NUMBER" default:""`

	// Order persistence. Optional; if unset, confirmed orders are not stored.
	DatabaseURL string `envconfig:"DATABASE_URL" default:""`

	// Call lifecycle configuration
	LocalTimezone string        `envconfig:"LOCAL_TIMEZONE" default:"America/Chicago"` // resolves relative pickup times
	GoodbyeGrace  time.Duration `envconfig:"GOODBYE_GRACE" default:"12s"`              // delay before closing after a goodbye turn
	DrainTimeout  time.Duration `envconfig:"DRAIN_TIMEOUT" default:"10s"`              // bound on in-flight transcriptions at close

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables.
// It first attempts to load from a .env file if one exists, then from the environment.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load a .env file (useful for containerized deployments).
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken == "" {
		return nil, fmt.Errorf("TWILIO_AUTH_TOKEN is required when TWILIO_ACCOUNT_SID is set")
	}
	if _, err := time.LoadLocation(cfg.LocalTimezone); err != nil {
		return nil, fmt.Errorf("invalid LOCAL_TIMEZONE %q: %w", cfg.LocalTimezone, err)
	}

	return &cfg, nil
}

// NotificationsEnabled reports whether the Twilio SMS collaborators are configured.
func (c *Config) NotificationsEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.MessagingServiceSID != ""
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
