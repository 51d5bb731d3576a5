// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/cataloguebot/whatsapp-gate/database"
	"github.com/cataloguebot/whatsapp-gate/internal/catalog"
	"github.com/cataloguebot/whatsapp-gate/internal/gate"
	"github.com/cataloguebot/whatsapp-gate/internal/services"
	"github.com/cataloguebot/whatsapp-gate/internal/storage"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// DotEnvFiles are tried in order for local development.
var DotEnvFiles = []string{".env", "environments/.env.development"}

type Config struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Greeting         string `env:"BOT_GREETING"`
	SearchTTLMinutes int    `env:"SEARCH_TTL_MINUTES" envDefault:"1440"`
	SearchPageSize   int    `env:"SEARCH_PAGE_SIZE" envDefault:"5"`

	SessionBackend string `env:"SESSION_BACKEND" envDefault:"postgres"`
	CatalogBackend string `env:"CATALOG_BACKEND" envDefault:"postgres"`
	BoltPath       string `env:"BOLT_PATH" envDefault:"data/sessions.bolt"`

	// CatalogSyncInterval copies products into OpenSearch; 0 disables it.
	CatalogSyncInterval time.Duration `env:"CATALOG_SYNC_INTERVAL" envDefault:"5m"`

	DisableWebhookValidation bool   `env:"DISABLE_WEBHOOK_VALIDATION"`
	PublicBaseURL            string `env:"PUBLIC_BASE_URL"`
	AdminAPIEnabled          bool   `env:"ADMIN_API_ENABLED"`

	Database   database.Config
	Redis      storage.RedisConfig
	OpenSearch catalog.OpenSearchConfig
	Twilio     services.TwilioConfig
	Templates  services.TemplateSIDs
}

// Load reads .env files (outside Cloud Run) and parses the environment.
// Missing .env files are not an error.
func Load() (Config, error) {
	if !onCloudRun() {
		for _, f := range DotEnvFiles {
			if err := godotenv.Load(f); err == nil {
				break
			}
		}
	}
	return Parse()
}

// Parse reads the process environment only.
func Parse() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects unknown backends and non-positive limits.
func (c Config) Validate() error {
	var errs []error
	if !storage.ValidBackend(c.SessionBackend) {
		errs = append(errs, fmt.Errorf("%w: %q", storage.ErrBackend, c.SessionBackend))
	}
	switch c.CatalogBackend {
	case catalog.BackendPostgres, catalog.BackendOpenSearch:
	default:
		errs = append(errs, fmt.Errorf("unknown catalog backend %q", c.CatalogBackend))
	}
	if c.SearchTTLMinutes <= 0 {
		errs = append(errs, fmt.Errorf("SEARCH_TTL_MINUTES must be positive, got %d", c.SearchTTLMinutes))
	}
	if c.SearchPageSize <= 0 {
		errs = append(errs, fmt.Errorf("SEARCH_PAGE_SIZE must be positive, got %d", c.SearchPageSize))
	}
	if c.CatalogSyncInterval < 0 {
		errs = append(errs, fmt.Errorf("CATALOG_SYNC_INTERVAL must not be negative, got %s", c.CatalogSyncInterval))
	}
	if c.PublicBaseURL != "" && !strings.HasPrefix(c.PublicBaseURL, "http") {
		errs = append(errs, fmt.Errorf("PUBLIC_BASE_URL must be an absolute URL, got %q", c.PublicBaseURL))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// Policy is the gate policy built from the bot settings.
func (c Config) Policy() gate.Policy {
	return gate.Policy{
		SearchTTL: time.Duration(c.SearchTTLMinutes) * time.Minute,
		Greeting:  c.Greeting,
	}
}

func (c Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

// ValidateWebhooks reports whether inbound Twilio signatures are checked.
func (c Config) ValidateWebhooks() bool {
	return !c.DisableWebhookValidation && !c.IsDevelopment()
}

// LogFormatOrDefault is text in development and json elsewhere unless LOG_FORMAT is set.
func (c Config) LogFormatOrDefault() string {
	if c.LogFormat != "" {
		return c.LogFormat
	}
	if c.IsDevelopment() {
		return "text"
	}
	return "json"
}

func onCloudRun() bool {
	return os.Getenv("INSTANCE_CONNECTION_NAME") != ""
}
