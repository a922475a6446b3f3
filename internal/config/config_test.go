package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dmeflow/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "dmeflow_db", cfg.DB.Name)
	assert.Equal(t, "deterministic", cfg.Extraction.Mode)
	assert.Equal(t, "standard", cfg.Extraction.ProcessingMode)
	assert.InDelta(t, 0.7, cfg.Extraction.ValidationThreshold, 1e-9)
	assert.InDelta(t, 0.6, cfg.Extraction.ReviewThreshold, 1e-9)
	assert.Equal(t, 1, cfg.Extraction.MaxCorrectionAttempts)
	assert.Equal(t, 1024, cfg.Extraction.MaxTokens)
	assert.Equal(t, "noop", cfg.Email.Provider)
	assert.Equal(t, int64(512), cfg.S3.MaxNoteSizeKB)
	assert.Contains(t, cfg.CORS.AllowedOrigins, "http://localhost:3000")
	assert.False(t, cfg.LLM.Configured())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DMEFLOW_EXTRACTION_MODE", "agentic")
	t.Setenv("DMEFLOW_LLM_PRIMARY_PROVIDER", "anthropic")
	t.Setenv("DMEFLOW_LLM_PRIMARY_API_KEY", "sk-test")
	t.Setenv("DMEFLOW_QUEUE_CONCURRENCY", "12")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, "agentic", cfg.Extraction.Mode)
	assert.True(t, cfg.LLM.Primary.Configured())
	assert.Equal(t, 12, cfg.Queue.Concurrency)
}

func TestLoad_PlatformPortFallback(t *testing.T) {
	t.Setenv("PORT", "9999")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Port)
}

func TestLoad_InvalidMode(t *testing.T) {
	t.Setenv("DMEFLOW_EXTRACTION_MODE", "psychic")

	_, err := config.Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "extraction.mode")
}

func TestLoad_InvalidProcessingMode(t *testing.T) {
	t.Setenv("DMEFLOW_EXTRACTION_PROCESSING_MODE", "warp")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("DMEFLOW_SERVER_ENVIRONMENT", "production")

	_, err := config.Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt.secret")
}

func TestDBConfig_DSN(t *testing.T) {
	cfg := config.DBConfig{
		Host: "db.internal", Port: 5433, User: "svc", Password: "pw",
		Name: "orders", SSLMode: "require",
	}
	assert.Equal(t, "postgres://svc:pw@db.internal:5433/orders?sslmode=require", cfg.DSN())
}

func TestLLMProviderConfig_Configured(t *testing.T) {
	p := config.LLMProviderConfig{Provider: "openai"}
	assert.False(t, p.Configured())
	p.APIKey = "sk-test"
	assert.True(t, p.Configured())
}
