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

// EmailConfig provides settings for email sending.
type EmailConfig interface {
	GetMailProvider() string
	GetBrevoAPIKey() string
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetContactInbox() string
	IsEmailEnabled() bool
}

// WhatsAppConfig provides settings for the outbound message channel.
type WhatsAppConfig interface {
	GetWhatsAppChannel() string
	GetOperatorPhone() string
	GetCloudAccessToken() string
	GetCloudPhoneNumberID() string
	GetCloudBaseURL() string
	GetCloudTemplateName() string
	GetCloudTemplateLanguage() string
	GetGatewayAccountSID() string
	GetGatewayAuthToken() string
	GetGatewayFromNumber() string
	GetGatewayBaseURL() string
	GetProviderTimeout() time.Duration
}

// WebhookConfig provides settings for inbound provider webhooks.
type WebhookConfig interface {
	GetWebhookVerifyToken() string
}

// GotenbergConfig provides settings for the Gotenberg HTML-to-PDF service.
type GotenbergConfig interface {
	GetGotenbergURL() string
	GetGotenbergUsername() string
	GetGotenbergPassword() string
	GetRenderTimeout() time.Duration
	IsGotenbergEnabled() bool
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketQuotePDFs() string
	IsMinIOEnabled() bool
}

// SchedulerConfig provides settings for the asynq scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// NotificationConfig provides settings for the notification dispatcher.
type NotificationConfig interface {
	GetAppBaseURL() string
	GetRetryMax() int
	GetPurgeAfter() time.Duration
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env            string
	HTTPAddr       string
	DatabaseURL    string
	CORSAllowAll   bool
	CORSOrigins    []string
	CORSAllowCreds bool
	AppBaseURL     string

	MailProvider     string
	BrevoAPIKey      string
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	EmailFromName    string
	EmailFromAddress string
	ContactInbox     string

	WhatsAppChannel       string
	OperatorPhone         string
	CloudAccessToken      string
	CloudPhoneNumberID    string
	CloudBaseURL          string
	CloudTemplateName     string
	CloudTemplateLanguage string
	GatewayAccountSID     string
	GatewayAuthToken      string
	GatewayFromNumber     string
	GatewayBaseURL        string
	ProviderTimeout       time.Duration

	WebhookVerifyToken string

	GotenbergURL      string
	GotenbergUsername string
	GotenbergPassword string
	RenderTimeout     time.Duration

	MinIOEndpoint        string
	MinIOAccessKey       string
	MinIOSecretKey       string
	MinIOUseSSL          bool
	MinioBucketQuotePDFs string

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueue       string
	AsynqConcurrency int

	RetryMax   int
	PurgeAfter time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// EmailConfig implementation
func (c *Config) GetMailProvider() string     { return c.MailProvider }
func (c *Config) GetBrevoAPIKey() string      { return c.BrevoAPIKey }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) GetContactInbox() string     { return c.ContactInbox }
func (c *Config) IsEmailEnabled() bool {
	switch c.MailProvider {
	case "brevo":
		return c.BrevoAPIKey != "" && c.EmailFromAddress != ""
	case "smtp":
		return c.SMTPHost != "" && c.EmailFromAddress != ""
	default:
		return false
	}
}

// WhatsAppConfig implementation
func (c *Config) GetWhatsAppChannel() string        { return c.WhatsAppChannel }
func (c *Config) GetOperatorPhone() string          { return c.OperatorPhone }
func (c *Config) GetCloudAccessToken() string       { return c.CloudAccessToken }
func (c *Config) GetCloudPhoneNumberID() string     { return c.CloudPhoneNumberID }
func (c *Config) GetCloudBaseURL() string           { return c.CloudBaseURL }
func (c *Config) GetCloudTemplateName() string      { return c.CloudTemplateName }
func (c *Config) GetCloudTemplateLanguage() string  { return c.CloudTemplateLanguage }
func (c *Config) GetGatewayAccountSID() string      { return c.GatewayAccountSID }
func (c *Config) GetGatewayAuthToken() string       { return c.GatewayAuthToken }
func (c *Config) GetGatewayFromNumber() string      { return c.GatewayFromNumber }
func (c *Config) GetGatewayBaseURL() string         { return c.GatewayBaseURL }
func (c *Config) GetProviderTimeout() time.Duration { return c.ProviderTimeout }

// WebhookConfig implementation
func (c *Config) GetWebhookVerifyToken() string { return c.WebhookVerifyToken }

// GotenbergConfig implementation
func (c *Config) GetGotenbergURL() string         { return c.GotenbergURL }
func (c *Config) GetGotenbergUsername() string    { return c.GotenbergUsername }
func (c *Config) GetGotenbergPassword() string    { return c.GotenbergPassword }
func (c *Config) GetRenderTimeout() time.Duration { return c.RenderTimeout }
func (c *Config) IsGotenbergEnabled() bool        { return c.GotenbergURL != "" }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string        { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string       { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string       { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool            { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketQuotePDFs() string { return c.MinioBucketQuotePDFs }
func (c *Config) IsMinIOEnabled() bool            { return c.MinIOEndpoint != "" }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueue }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// NotificationConfig implementation
func (c *Config) GetAppBaseURL() string        { return c.AppBaseURL }
func (c *Config) GetRetryMax() int             { return c.RetryMax }
func (c *Config) GetPurgeAfter() time.Duration { return c.PurgeAfter }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4321"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	smtpPort, err := intEnv("SMTP_PORT", "587")
	if err != nil {
		return nil, err
	}
	providerTimeout, err := durationEnv("PROVIDER_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	renderTimeout, err := durationEnv("RENDER_TIMEOUT", "60s")
	if err != nil {
		return nil, err
	}
	asynqConcurrency, err := intEnv("ASYNQ_CONCURRENCY", "10")
	if err != nil {
		return nil, err
	}
	retryMax, err := intEnv("NOTIFICATION_RETRY_MAX", "3")
	if err != nil {
		return nil, err
	}
	purgeAfter, err := durationEnv("NOTIFICATION_PURGE_AFTER", "720h")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Env:            getEnv("APP_ENV", "development"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		CORSAllowAll:   corsAllowAll,
		CORSOrigins:    corsOrigins,
		CORSAllowCreds: strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		AppBaseURL:     getEnv("APP_BASE_URL", "http://localhost:8080"),

		MailProvider:     strings.ToLower(getEnv("MAIL_PROVIDER", "brevo")),
		BrevoAPIKey:      getEnv("BREVO_API_KEY", ""),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         smtpPort,
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "Breed Industries"),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),
		ContactInbox:     getEnv("CONTACT_INBOX", ""),

		WhatsAppChannel:       strings.ToLower(getEnv("WHATSAPP_CHANNEL", "")),
		OperatorPhone:         getEnv("OPERATOR_PHONE", ""),
		CloudAccessToken:      getEnv("WHATSAPP_CLOUD_ACCESS_TOKEN", ""),
		CloudPhoneNumberID:    getEnv("WHATSAPP_CLOUD_PHONE_NUMBER_ID", ""),
		CloudBaseURL:          getEnv("WHATSAPP_CLOUD_BASE_URL", "https://graph.facebook.com/v19.0"),
		CloudTemplateName:     getEnv("WHATSAPP_CLOUD_TEMPLATE", "operator_alert"),
		CloudTemplateLanguage: getEnv("WHATSAPP_CLOUD_TEMPLATE_LANG", "en"),
		GatewayAccountSID:     getEnv("GATEWAY_ACCOUNT_SID", ""),
		GatewayAuthToken:      getEnv("GATEWAY_AUTH_TOKEN", ""),
		GatewayFromNumber:     getEnv("GATEWAY_FROM_NUMBER", ""),
		GatewayBaseURL:        getEnv("GATEWAY_BASE_URL", "https://api.twilio.com"),
		ProviderTimeout:       providerTimeout,

		WebhookVerifyToken: getEnv("WHATSAPP_VERIFY_TOKEN", ""),

		GotenbergURL:      getEnv("GOTENBERG_URL", ""),
		GotenbergUsername: getEnv("GOTENBERG_USERNAME", ""),
		GotenbergPassword: getEnv("GOTENBERG_PASSWORD", ""),
		RenderTimeout:     renderTimeout,

		MinIOEndpoint:        getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:       getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:       getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:          strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketQuotePDFs: getEnv("MINIO_BUCKET_QUOTE_PDFS", "quote-pdfs"),

		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueue:       getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency: asynqConcurrency,

		RetryMax:   retryMax,
		PurgeAfter: purgeAfter,
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	switch cfg.WhatsAppChannel {
	case "":
		return nil, fmt.Errorf("WHATSAPP_CHANNEL is required (cloud or gateway)")
	case "cloud":
		if cfg.CloudAccessToken == "" || cfg.CloudPhoneNumberID == "" {
			return nil, fmt.Errorf("WHATSAPP_CLOUD_ACCESS_TOKEN and WHATSAPP_CLOUD_PHONE_NUMBER_ID are required for the cloud channel")
		}
	case "gateway":
		if cfg.GatewayAccountSID == "" || cfg.GatewayAuthToken == "" || cfg.GatewayFromNumber == "" {
			return nil, fmt.Errorf("GATEWAY_ACCOUNT_SID, GATEWAY_AUTH_TOKEN and GATEWAY_FROM_NUMBER are required for the gateway channel")
		}
	default:
		return nil, fmt.Errorf("unknown WHATSAPP_CHANNEL %q", cfg.WhatsAppChannel)
	}
	if cfg.OperatorPhone == "" {
		return nil, fmt.Errorf("OPERATOR_PHONE is required")
	}
	if cfg.MailProvider != "brevo" && cfg.MailProvider != "smtp" {
		return nil, fmt.Errorf("unknown MAIL_PROVIDER %q", cfg.MailProvider)
	}
	if cfg.RetryMax < 0 {
		return nil, fmt.Errorf("NOTIFICATION_RETRY_MAX must not be negative")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

// durationEnv reads a duration variable, failing loudly on a value Go cannot
// parse. A typo here must stop startup, not silently become a zero timeout.
func durationEnv(key, fallback string) (time.Duration, error) {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 15s or 720h, got %q", key, raw)
	}
	return d, nil
}

func intEnv(key, fallback string) (int, error) {
	raw := getEnv(key, fallback)
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	return value, nil
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
