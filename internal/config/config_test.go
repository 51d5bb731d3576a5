package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cataloguebot/whatsapp-gate/internal/config"
	"github.com/cataloguebot/whatsapp-gate/internal/storage"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := config.Parse()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 1440, cfg.SearchTTLMinutes)
	assert.Equal(t, 5, cfg.SearchPageSize)
	assert.Equal(t, storage.BackendPostgres, cfg.SessionBackend)
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "products", cfg.OpenSearch.Index)
	assert.Equal(t, 24*time.Hour, cfg.Policy().SearchTTL)
	assert.Empty(t, cfg.Policy().Greeting)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.ValidateWebhooks())
	assert.Equal(t, "text", cfg.LogFormatOrDefault())
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("BOT_GREETING", "Welcome to Parts & Co")
	t.Setenv("SEARCH_TTL_MINUTES", "30")
	t.Setenv("SESSION_BACKEND", "redis")
	t.Setenv("CATALOG_BACKEND", "opensearch")
	t.Setenv("REDIS_URL", "redis://cache:6379/2")
	t.Setenv("OPENSEARCH_ADDRESSES", "http://os1:9200,http://os2:9200")
	t.Setenv("TWILIO_TEMPLATE_WELCOME", "HXwelcome")

	cfg, err := config.Parse()
	require.NoError(t, err)

	assert.Equal(t, "Welcome to Parts & Co", cfg.Policy().Greeting)
	assert.Equal(t, 30*time.Minute, cfg.Policy().SearchTTL)
	assert.Equal(t, "redis://cache:6379/2", cfg.Redis.ConnectionURL)
	assert.Equal(t, []string{"http://os1:9200", "http://os2:9200"}, cfg.OpenSearch.Addresses)
	assert.Equal(t, "HXwelcome", cfg.Templates.Welcome)
	assert.True(t, cfg.ValidateWebhooks())
	assert.Equal(t, "json", cfg.LogFormatOrDefault())

	t.Setenv("DISABLE_WEBHOOK_VALIDATION", "true")
	cfg, err = config.Parse()
	require.NoError(t, err)
	assert.False(t, cfg.ValidateWebhooks())
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"session backend": {"SESSION_BACKEND": "sqlite"},
		"catalog backend": {"CATALOG_BACKEND": "elastic"},
		"ttl":             {"SEARCH_TTL_MINUTES": "0"},
		"page size":       {"SEARCH_PAGE_SIZE": "-1"},
		"base url":        {"PUBLIC_BASE_URL": "example.com"},
	}
	for name, vars := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := config.Parse()
			assert.ErrorIs(t, err, config.ErrInvalid)
		})
	}
}

func TestParse_BadNumber(t *testing.T) {
	t.Setenv("SEARCH_TTL_MINUTES", "a day")
	_, err := config.Parse()
	assert.Error(t, err)
}
