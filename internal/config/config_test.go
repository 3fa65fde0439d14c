package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CONFIG_FILE", filepath.Join(dir, "config.toml"))
	t.Setenv("ENV_FILE", filepath.Join(dir, ".env"))
	for _, key := range []string{"APP_PORT", "STORAGE_MODE", "RATELIMIT_BACKEND", "AI_QUOTA_LIMIT", "SEMANTIC_ENABLED", "SEMANTIC_MIN_SCORE", "GEMINI_API_KEY", "CORS_ORIGINS",
		"APP_HOST", "MYSQL_HOST", "MYSQL_PORT", "MYSQL_USER", "MYSQL_PASSWORD", "MYSQL_DB", "MYSQL_PARAMS", "STORAGE_DEFAULT_BUCKET", "STORAGE_TTL_SECONDS"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr())
	assert.Equal(t, "local", cfg.Storage.Mode)
	assert.Equal(t, "faq-files", cfg.Storage.DefaultBucket)
	assert.Equal(t, 15*time.Minute, cfg.SignedURLTTL())
	assert.Equal(t, 5, cfg.RateLimit.AIQuota.Limit)
	assert.Equal(t, 6*time.Hour, cfg.RateLimit.AIQuota.Window())
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout())
	assert.False(t, cfg.Semantic.Enabled)
	assert.Equal(t, "root:@tcp(127.0.0.1:3306)/faqdesk?parseTime=true&loc=Local&charset=utf8mb4", cfg.MySQLDSN())
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := isolate(t)
	content := `
[app]
port = 9090

[storage]
mode = "gcs"
default_bucket = "docs"

[ratelimit]
backend = "memory"
ai_quota = { limit = 3, window_seconds = 60 }

[semantic]
enabled = true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o600))
	t.Setenv("APP_PORT", "7070")
	t.Setenv("SEMANTIC_MIN_SCORE", "0.8")
	t.Setenv("AI_QUOTA_LIMIT", "not-a-number")
	t.Setenv("CORS_ORIGINS", "http://a.example, ,http://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.App.Port)
	assert.Equal(t, "gcs", cfg.Storage.Mode)
	assert.Equal(t, "docs", cfg.Storage.DefaultBucket)
	assert.Equal(t, "memory", cfg.RateLimit.Backend)
	assert.Equal(t, 3, cfg.RateLimit.AIQuota.Limit)
	assert.Equal(t, time.Minute, cfg.RateLimit.AIQuota.Window())
	assert.True(t, cfg.Semantic.Enabled)
	assert.InDelta(t, 0.8, cfg.Semantic.MinScore, 1e-9)
	assert.Equal(t, 60, cfg.RateLimit.Ask.Limit)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.App.CORSOrigins)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := isolate(t)
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("STORAGE_MODE=gcs\nGEMINI_API_KEY=from-file\n"), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	t.Cleanup(func() {
		os.Unsetenv("STORAGE_MODE")
		os.Unsetenv("GEMINI_API_KEY")
	})

	assert.Equal(t, "gcs", cfg.Storage.Mode)
	assert.Equal(t, "from-file", cfg.Gemini.APIKey)
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[app\nport ="), 0o600))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode config file failed")
}
