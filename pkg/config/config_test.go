package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("WHATSAPP_VERIFY_TOKEN", "verify")
	t.Setenv("WHATSAPP_PHONE_ID", "1234")
	t.Setenv("WHATSAPP_API_TOKEN", "token")
	t.Setenv("STORAGE_ENDPOINT", "storage.local:9000")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 60*time.Second, cfg.Server.WebhookTimeout)
	assert.True(t, cfg.Server.Swagger)
	assert.Equal(t, "https://graph.facebook.com/v21.0", cfg.WhatsApp.GraphURL)
	assert.Equal(t, int64(16<<20), cfg.WhatsApp.MaxMediaBytes)
	assert.Equal(t, "receipts", cfg.Storage.Bucket)
	assert.True(t, cfg.Storage.UseSSL)
	assert.Equal(t, AIProviderGemini, cfg.AI.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.Equal(t, "₹", cfg.Receipt.CurrencySymbol)
	assert.NoError(t, cfg.Validate())
}

func TestLoadTrimsURLs(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("WHATSAPP_GRAPH_URL", "http://graph.test/v21.0/")
	t.Setenv("STORAGE_PUBLIC_URL", "https://cdn.test/public/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://graph.test/v21.0", cfg.WhatsApp.GraphURL)
	assert.Equal(t, "https://cdn.test/public", cfg.Storage.PublicURL)
}

func TestLoadSwaggerToggle(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SWAGGER_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Server.Swagger)
}

func TestValidateReportsMissingSettings(t *testing.T) {
	cfg := &Config{
		Storage: StorageConfig{Bucket: "receipts"},
		AI:      AIConfig{Provider: AIProviderGigaChat},
	}

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{
		"WHATSAPP_VERIFY_TOKEN",
		"WHATSAPP_PHONE_ID",
		"WHATSAPP_API_TOKEN",
		"STORAGE_ENDPOINT",
		"GIGACHAT_API_KEY",
	} {
		assert.Contains(t, err.Error(), want)
	}
	assert.NotContains(t, err.Error(), "GEMINI_API_KEY")
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AI_PROVIDER", "Claude")

	cfg, err := Load()
	require.NoError(t, err)
	assert.ErrorContains(t, cfg.Validate(), `unsupported AI_PROVIDER "claude"`)
}

func TestDatabaseDSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", db.DSN())

	db.URL = "postgres://u:p@db:5432/n"
	assert.Equal(t, "postgres://u:p@db:5432/n", db.DSN())
}
