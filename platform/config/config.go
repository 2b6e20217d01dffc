// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// WhatsAppConfig provides settings for the Twilio WhatsApp channel.
type WhatsAppConfig interface {
	GetTwilioAccountSID() string
	GetTwilioAuthToken() string
	GetTwilioWhatsAppNumber() string
	GetTwilioAPIURL() string
}

// VoiceConfig provides settings for the Bland AI voice-call provider.
type VoiceConfig interface {
	GetBlandAPIKey() string
	GetBlandBaseURL() string
	GetCallWebhookURL() string
}

// EmailSenderConfig provides settings for outbound SMTP email.
type EmailSenderConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// InboxConfig provides settings for the Gmail inbox processor.
type InboxConfig interface {
	GetGmailClientID() string
	GetGmailClientSecret() string
	GetGmailRefreshToken() string
	GetGmailUser() string
	GetGmailAPIURL() string
	GetGoogleTokenURL() string
}

// MetaConfig provides settings for Meta webhook verification and Graph API lookups.
type MetaConfig interface {
	GetMetaVerifyToken() string
	GetMetaAccessToken() string
	GetMetaGraphURL() string
	IsMetaProfileLookupEnabled() bool
}

// AIConfig provides settings for the Anthropic extraction client.
type AIConfig interface {
	GetAnthropicAPIKey() string
	GetAnthropicAPIURL() string
	GetAnthropicModel() string
}

// RedisConfig provides settings for Redis-backed features (dedup, scheduler).
type RedisConfig interface {
	GetRedisURL() string
	IsRedisEnabled() bool
}

// SchedulerConfig provides settings for the asynq background worker.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetInboxPollInterval() time.Duration
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                  string
	HTTPAddr             string
	DatabaseURL          string
	CORSAllowAll         bool
	CORSOrigins          []string
	CORSAllowCreds       bool
	TwilioAccountSID     string
	TwilioAuthToken      string
	TwilioWhatsAppNumber string
	TwilioAPIURL         string
	BlandAPIKey          string
	BlandBaseURL         string
	CallWebhookURL       string
	SMTPHost             string
	SMTPPort             int
	SMTPUsername         string
	SMTPPassword         string
	EmailFromName        string
	EmailFromAddress     string
	GmailClientID        string
	GmailClientSecret    string
	GmailRefreshToken    string
	GmailUser            string
	GmailAPIURL          string
	GoogleTokenURL       string
	MetaVerifyToken      string
	MetaAccessToken      string
	MetaGraphURL         string
	AnthropicAPIKey      string
	AnthropicAPIURL      string
	AnthropicModel       string
	RedisURL             string
	AsynqQueueName       string
	AsynqConcurrency     int
	InboxPollInterval    time.Duration
}

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// WhatsAppConfig implementation
func (c *Config) GetTwilioAccountSID() string     { return c.TwilioAccountSID }
func (c *Config) GetTwilioAuthToken() string      { return c.TwilioAuthToken }
func (c *Config) GetTwilioWhatsAppNumber() string { return c.TwilioWhatsAppNumber }
func (c *Config) GetTwilioAPIURL() string         { return c.TwilioAPIURL }

// VoiceConfig implementation
func (c *Config) GetBlandAPIKey() string    { return c.BlandAPIKey }
func (c *Config) GetBlandBaseURL() string   { return c.BlandBaseURL }
func (c *Config) GetCallWebhookURL() string { return c.CallWebhookURL }

// EmailSenderConfig implementation
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }

// InboxConfig implementation
func (c *Config) GetGmailClientID() string     { return c.GmailClientID }
func (c *Config) GetGmailClientSecret() string { return c.GmailClientSecret }
func (c *Config) GetGmailRefreshToken() string { return c.GmailRefreshToken }
func (c *Config) GetGmailUser() string         { return c.GmailUser }
func (c *Config) GetGmailAPIURL() string       { return c.GmailAPIURL }
func (c *Config) GetGoogleTokenURL() string    { return c.GoogleTokenURL }

// MetaConfig implementation
func (c *Config) GetMetaVerifyToken() string       { return c.MetaVerifyToken }
func (c *Config) GetMetaAccessToken() string       { return c.MetaAccessToken }
func (c *Config) GetMetaGraphURL() string          { return c.MetaGraphURL }
func (c *Config) IsMetaProfileLookupEnabled() bool { return c.MetaAccessToken != "" }

// AIConfig implementation
func (c *Config) GetAnthropicAPIKey() string { return c.AnthropicAPIKey }
func (c *Config) GetAnthropicAPIURL() string { return c.AnthropicAPIURL }
func (c *Config) GetAnthropicModel() string  { return c.AnthropicModel }

// RedisConfig implementation
func (c *Config) GetRedisURL() string  { return c.RedisURL }
func (c *Config) IsRedisEnabled() bool { return c.RedisURL != "" }

// SchedulerConfig implementation
func (c *Config) GetAsynqQueueName() string           { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int            { return c.AsynqConcurrency }
func (c *Config) GetInboxPollInterval() time.Duration { return c.InboxPollInterval }

// Load reads configuration from environment variables.
// Every external provider credential is required at process start; absence
// of a required variable is a fatal startup error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		CORSAllowAll:         corsAllowAll,
		CORSOrigins:          corsOrigins,
		CORSAllowCreds:       strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		TwilioAccountSID:     getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:      getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioWhatsAppNumber: getEnv("TWILIO_WHATSAPP_NUMBER", ""),
		TwilioAPIURL:         getEnv("TWILIO_API_URL", "https://api.twilio.com"),
		BlandAPIKey:          getEnv("BLAND_AI_API_KEY", ""),
		BlandBaseURL:         getEnv("BLAND_AI_BASE_URL", "https://api.bland.ai/v1"),
		CallWebhookURL:       getEnv("CALL_WEBHOOK_URL", ""),
		SMTPHost:             getEnv("SMTP_HOST", ""),
		SMTPPort:             mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:         getEnv("SMTP_USERNAME", ""),
		SMTPPassword:         getEnv("SMTP_PASSWORD", ""),
		EmailFromName:        getEnv("EMAIL_FROM_NAME", "Smartlead CRM"),
		EmailFromAddress:     getEnv("EMAIL_FROM_ADDRESS", ""),
		GmailClientID:        getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret:    getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRefreshToken:    getEnv("GMAIL_REFRESH_TOKEN", ""),
		GmailUser:            getEnv("GMAIL_USER", ""),
		GmailAPIURL:          getEnv("GMAIL_API_URL", "https://gmail.googleapis.com"),
		GoogleTokenURL:       getEnv("GOOGLE_TOKEN_URL", "https://oauth2.googleapis.com/token"),
		MetaVerifyToken:      getEnv("META_VERIFY_TOKEN", ""),
		MetaAccessToken:      getEnv("META_ACCESS_TOKEN", ""),
		MetaGraphURL:         getEnv("META_GRAPH_URL", "https://graph.facebook.com/v19.0"),
		AnthropicAPIKey:      getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicAPIURL:      getEnv("ANTHROPIC_API_URL", "https://api.anthropic.com"),
		AnthropicModel:       getEnv("ANTHROPIC_MODEL", "claude-3-5-sonnet-20241022"),
		RedisURL:             getEnv("REDIS_URL", ""),
		AsynqQueueName:       getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:     mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		InboxPollInterval:    mustDuration(getEnv("INBOX_POLL_INTERVAL", "5m")),
	}

	required := []struct {
		name  string
		value string
	}{
		{"DATABASE_URL", cfg.DatabaseURL},
		{"TWILIO_ACCOUNT_SID", cfg.TwilioAccountSID},
		{"TWILIO_AUTH_TOKEN", cfg.TwilioAuthToken},
		{"TWILIO_WHATSAPP_NUMBER", cfg.TwilioWhatsAppNumber},
		{"BLAND_AI_API_KEY", cfg.BlandAPIKey},
		{"ANTHROPIC_API_KEY", cfg.AnthropicAPIKey},
		{"SMTP_HOST", cfg.SMTPHost},
		{"SMTP_USERNAME", cfg.SMTPUsername},
		{"SMTP_PASSWORD", cfg.SMTPPassword},
		{"EMAIL_FROM_ADDRESS", cfg.EmailFromAddress},
		{"GMAIL_CLIENT_ID", cfg.GmailClientID},
		{"GMAIL_CLIENT_SECRET", cfg.GmailClientSecret},
		{"GMAIL_REFRESH_TOKEN", cfg.GmailRefreshToken},
		{"GMAIL_USER", cfg.GmailUser},
		{"META_VERIFY_TOKEN", cfg.MetaVerifyToken},
	}

	missing := make([]string, 0)
	for _, item := range required {
		if strings.TrimSpace(item.value) == "" {
			missing = append(missing, item.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
