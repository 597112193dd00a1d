package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	os.Setenv("OPENAI_API_KEY", "test-openai-key")
	defer os.Unsetenv("OPENAI_API_KEY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.OpenAIAPIKey != "test-openai-key" {
		t.Errorf("Expected OpenAIAPIKey 'test-openai-key', got '%s'", cfg.OpenAIAPIKey)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	os.Unsetenv("OPENAI_API_KEY")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when OPENAI_API_KEY is missing")
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("OPENAI_API_KEY", "test-openai-key")
	defer os.Unsetenv("OPENAI_API_KEY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default Port '8080', got '%s'", cfg.Port)
	}

	if cfg.OpenAIVoice != "sage" {
		t.Errorf("Expected default OpenAIVoice 'sage', got '%s'", cfg.OpenAIVoice)
	}

	if cfg.OpenAIExtractionModel != "gpt-4-1106-preview" {
		t.Errorf("Expected default OpenAIExtractionModel 'gpt-4-1106-preview', got '%s'", cfg.OpenAIExtractionModel)
	}

	if cfg.SpeechLanguage != "en-US" {
		t.Errorf("Expected default SpeechLanguage 'en-US', got '%s'", cfg.SpeechLanguage)
	}

	if cfg.SpeechSampleRate != 8000 {
		t.Errorf("Expected default SpeechSampleRate 8000, got %d", cfg.SpeechSampleRate)
	}

	if cfg.LocalTimezone != "America/Chicago" {
		t.Errorf("Expected default LocalTimezone 'America/Chicago', got '%s'", cfg.LocalTimezone)
	}

	if cfg.GoodbyeGrace != 12*time.Second {
		t.Errorf("Expected default GoodbyeGrace 12s, got %v", cfg.GoodbyeGrace)
	}

	if cfg.DrainTimeout != 10*time.Second {
		t.Errorf("Expected default DrainTimeout 10s, got %v", cfg.DrainTimeout)
	}
}

func TestLoad_TwilioTokenRequiredWithSID(t *testing.T) {
	os.Setenv("OPENAI_API_KEY", "test-openai-key")
	os.Setenv("TWILIO_ACCOUNT_SID", "AC123")
	defer os.Unsetenv("OPENAI_API_KEY")
	defer os.Unsetenv("TWILIO_ACCOUNT_SID")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when TWILIO_ACCOUNT_SID is set without TWILIO_AUTH_TOKEN")
	}
}

func TestLoad_InvalidTimezone(t *testing.T) {
	os.Setenv("OPENAI_API_KEY", "test-openai-key")
	os.Setenv("LOCAL_TIMEZONE", "Not/AZone")
	defer os.Unsetenv("OPENAI_API_KEY")
	defer os.Unsetenv("LOCAL_TIMEZONE")

	_, err := Load()
	if err == nil {
		t.Error("Expected error for invalid LOCAL_TIMEZONE")
	}
}

func TestNotificationsEnabled(t *testing.T) {
	cfg := &Config{}
	if cfg.NotificationsEnabled() {
		t.Error("Expected notifications disabled with empty Twilio config")
	}

	cfg = &Config{
		TwilioAccountSID:    "AC123",
		TwilioAuthToken:     "token",
		MessagingServiceSID: "MG123",
	}
	if !cfg.NotificationsEnabled() {
		t.Error("Expected notifications enabled with full Twilio config")
	}
}

func TestGetEnv(t *testing.T) {
	os.Setenv("TEST_KEY", "test-value")
	defer os.Unsetenv("TEST_KEY")

	value := GetEnv("TEST_KEY", "default")
	if value != "test-value" {
		t.Errorf("Expected 'test-value', got '%s'", value)
	}

	value = GetEnv("NON_EXISTENT_KEY", "default")
	if value != "default" {
		t.Errorf("Expected 'default', got '%s'", value)
	}
}
