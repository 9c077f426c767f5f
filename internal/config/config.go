package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// PlaceholderVerifyToken is the verify token used when VERIFY_TOKEN is not set.
// It must be overridden in production.
const PlaceholderVerifyToken = "your_unique_verify_token_12345"

// Config holds all application configuration
type Config struct {
	Port     string `envconfig:"PORT" default:"3000"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Webhook
	VerifyToken      string `envconfig:"VERIFY_TOKEN" default:"your_unique_verify_token_12345"`
	AppSecret        string `envconfig:"META_APP_SECRET"`   // Enables X-Hub-Signature-256 verification
	RequireSignature bool   `envconfig:"REQUIRE_SIGNATURE" default:"true"` // Reject POSTs without a signature header when AppSecret is set

	// WhatsApp Cloud API
	WhatsAppToken             string        `envconfig:"WHATSAPP_ACCESS_TOKEN"`
	WhatsAppPhoneNumberID     string        `envconfig:"WHATSAPP_PHONE_NUMBER_ID"`
	WhatsAppBusinessAccountID string        `envconfig:"WHATSAPP_BUSINESS_ACCOUNT_ID"` // Only used by cmd/subscribe
	GraphAPIBaseURL           string        `envconfig:"GRAPH_API_BASE_URL" default:"https://graph.facebook.com"`
	GraphAPIVersion           string        `envconfig:"GRAPH_API_VERSION" default:"v18.0"`
	SendTimeout               time.Duration `envconfig:"SEND_TIMEOUT" default:"10s"`

	// Processing
	ProcessingTimeout  time.Duration `envconfig:"PROCESSING_TIMEOUT" default:"15s"`
	EnableTestEndpoint bool          `envconfig:"ENABLE_TEST_ENDPOINT" default:"false"`
}

// Load reads configuration from the environment, loading a .env file first if one exists.
// The returned value is built once at startup and passed to every component.
func Load() (Config, error) {
	// Load .env file if it exists (for local development)
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return Config{}, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("error processing environment variables: %w", err)
	}

	// envconfig only applies defaults to unset variables; treat blank ones the same way.
	cfg.VerifyToken = strings.TrimSpace(cfg.VerifyToken)
	if cfg.VerifyToken == "" {
		cfg.VerifyToken = PlaceholderVerifyToken
	}
	if cfg.Port == "" {
		cfg.Port = "3000"
	}
	cfg.GraphAPIBaseURL = strings.TrimSuffix(cfg.GraphAPIBaseURL, "/")

	return cfg, nil
}

// SignatureEnabled reports whether inbound POSTs are HMAC verified.
func (c Config) SignatureEnabled() bool {
	return c.AppSecret != ""
}

// SenderConfigured reports whether outbound WhatsApp replies can be sent.
func (c Config) SenderConfigured() bool {
	return c.WhatsAppToken != "" && c.WhatsAppPhoneNumberID != ""
}

// UsesPlaceholderToken reports whether VERIFY_TOKEN was left at its default.
func (c Config) UsesPlaceholderToken() bool {
	return c.VerifyToken == PlaceholderVerifyToken
}
