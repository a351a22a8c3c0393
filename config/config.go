package config

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Environment variable names for the relay configuration
const (
	CompanyNameVar   = "LM_COMPANY_NAME"     // LM portal name, e.g. "acme" for acme.logicmonitor.com
	BearerTokenVar   = "LM_BEARER_TOKEN"     // Bearer token for webhook mode
	AccessIDVar      = "LM_ACCESS_ID"        // LMv1 access id for ingest API mode
	AccessKeyVar     = "LM_ACCESS_KEY"       // LMv1 access key for ingest API mode
	CompanyDomainVar = "LM_COMPANY_DOMAIN"   // Portal domain suffix
	WebhookSourceVar = "WEBHOOK_SOURCE_NAME" // Webhook LogSource name
	UseWebhookVar    = "USE_WEBHOOK"         // "true"/"1"/"yes" selects webhook mode
)

// Default configuration values
const (
	DefaultCompanyDomain     = "logicmonitor.com"
	DefaultWebhookSourceName = "GCP-VPC-FlowLogs"
)

// Secret Manager secret ids consulted when the corresponding env var is unset
const (
	companyNameSecret = "lm-company-name"
	bearerTokenSecret = "lm-bearer-token"
)

// Config holds everything the relay needs, resolved once at startup and
// read-only afterwards.
type Config struct {
	CompanyName       string
	BearerToken       string
	AccessID          string
	AccessKey         string
	CompanyDomain     string
	WebhookSourceName string
	UseWebhook        bool
}

// SecretSource resolves a named secret. The loader treats lookup failures as
// "not found": secrets are a best-effort fallback behind environment
// variables, never called by the core after startup.
type SecretSource interface {
	Lookup(ctx context.Context, name string) (string, error)
}

// ValidationError reports a missing or inconsistent configuration value.
type ValidationError struct {
	Variable string
	Message  string
}

func (e *ValidationError) Error() string {
	if e.Variable != "" {
		return fmt.Sprintf("%s: %s", e.Variable, e.Message)
	}
	return e.Message
}

// Load resolves configuration from environment variables, falling back to the
// secret source for the company name and bearer token. secrets may be nil.
// A missing required credential set is a startup error, not a per-event one.
func Load(ctx context.Context, secrets SecretSource) (*Config, error) {
	cfg := &Config{
		CompanyName:       os.Getenv(CompanyNameVar),
		BearerToken:       os.Getenv(BearerTokenVar),
		AccessID:          os.Getenv(AccessIDVar),
		AccessKey:         os.Getenv(AccessKeyVar),
		CompanyDomain:     getenvDefault(CompanyDomainVar, DefaultCompanyDomain),
		WebhookSourceName: getenvDefault(WebhookSourceVar, DefaultWebhookSourceName),
		UseWebhook:        parseBool(os.Getenv(UseWebhookVar)),
	}

	if cfg.CompanyName == "" {
		cfg.CompanyName = lookupSecret(ctx, secrets, companyNameSecret)
	}
	if cfg.BearerToken == "" {
		cfg.BearerToken = lookupSecret(ctx, secrets, bearerTokenSecret)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.CompanyName == "" {
		return &ValidationError{
			Variable: CompanyNameVar,
			Message:  "must be set as an environment variable or available in Secret Manager",
		}
	}
	if c.UseWebhook && c.BearerToken == "" {
		return &ValidationError{
			Variable: BearerTokenVar,
			Message:  "required when " + UseWebhookVar + " is true",
		}
	}
	if !c.UseWebhook && (c.AccessID == "" || c.AccessKey == "") {
		return &ValidationError{
			Message: AccessIDVar + " and " + AccessKeyVar + " are required when " + UseWebhookVar + " is false",
		}
	}
	return nil
}

func lookupSecret(ctx context.Context, secrets SecretSource, name string) string {
	if secrets == nil {
		return ""
	}
	value, err := secrets.Lookup(ctx, name)
	if err != nil {
		return ""
	}
	return value
}

func getenvDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseBool(value string) bool {
	switch strings.ToLower(value) {
	case "true", "1", "yes":
		return true
	}
	return false
}
