package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PORT", "POOLY_DATA_DIR", "POOLY_MEMORY_FILE", "POOLY_ALLOW_ORIGINS", "POOLY_PROVIDER", "POOLY_MODEL", "POOLY_BASE_URL",
	"POOLY_API_KEY", "OPENAI_API_KEY", "CONTACT_EMAIL", "CONTACT_PHONE", "POOLY_PDFTOTEXT", "SEND_EMAIL_NOTIFICATIONS",
	"SMTP_HOST", "SMTP_PORT", "EMAIL_USER", "EMAIL_PASS", "NOTIFY_EMAIL", "POOLY_LOG_LEVEL", "POOLY_LOG_FILE",
}

// chdir moves into an empty directory and clears the environment the loader
// reads, so neither a developer's .env nor their shell leaks into the test.
func chdir(t *testing.T) string {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2025, cfg.Port)
	assert.Equal(t, "gpt-4.1-mini", cfg.LLM.Model)
	assert.InDelta(t, 0.7, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 1000, cfg.LLM.MaxTokens)
	assert.Equal(t, 10, cfg.Chat.HistoryWindow)
	assert.Equal(t, 50, cfg.RateLimit.Requests)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Window)
	assert.False(t, cfg.Notify.Enabled)
	assert.Equal(t, filepath.Join("data", "memory", "aiMemory.json"), cfg.MemoryPath())
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "pooly.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 8080
data-dir: /srv/pooly
llm:
  provider: ollama
  model: llama3.2
  temperature: 0.2
  max-tokens: 500
chat:
  contact-email: info@example.com
  trigger-keywords: [preventivo]
rate-limit:
  requests: 5
  window: 1m
`), 0o644))

	t.Setenv("POOLY_MODEL", "qwen2.5")
	t.Setenv("POOLY_ALLOW_ORIGINS", "https://poolysmood.it, https://www.poolysmood.it")
	t.Setenv("SEND_EMAIL_NOTIFICATIONS", "true")
	t.Setenv("EMAIL_USER", "bot@example.com")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/srv/pooly", cfg.DataDir)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "qwen2.5", cfg.LLM.Model)
	assert.Equal(t, 500, cfg.LLM.MaxTokens)
	assert.Equal(t, "info@example.com", cfg.Chat.ContactEmail)
	assert.Equal(t, []string{"preventivo"}, cfg.Chat.TriggerKeywords)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.True(t, cfg.Notify.Enabled)
	assert.Equal(t, "bot@example.com", cfg.NotifyRecipient())
	assert.Equal(t, []string{"https://poolysmood.it", "https://www.poolysmood.it"}, cfg.AllowOrigins)
	assert.Equal(t, filepath.Join("/srv/pooly", "memory", "aiMemory.json"), cfg.MemoryPath())
}

func TestLoad_DotEnv(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PORT=3000\nCONTACT_PHONE=+39 02 000\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "+39 02 000", cfg.Chat.ContactPhone)
}

func TestLoad_Errors(t *testing.T) {
	dir := chdir(t)

	t.Run("bad yaml", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("port: ["), 0o644))
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("bad port", func(t *testing.T) {
		t.Setenv("PORT", "abc")
		_, err := Load("")
		assert.Error(t, err)
	})

	t.Run("port out of range", func(t *testing.T) {
		t.Setenv("PORT", "70000")
		_, err := Load("")
		assert.Error(t, err)
	})
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	dir := chdir(t)
	cfg, err := Load(filepath.Join(dir, "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 2025, cfg.Port)
}

func TestLoad_APIKeyFollowsProvider(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		provider string
		key      string
	}{
		{name: "openai default", env: map[string]string{"OPENAI_API_KEY": "sk-openai"}, provider: "openai", key: "sk-openai"},
		{name: "anthropic ignores openai key", env: map[string]string{"POOLY_PROVIDER": "anthropic", "OPENAI_API_KEY": "sk-openai"}, provider: "anthropic", key: ""},
		{name: "gemini ignores openai key", env: map[string]string{"POOLY_PROVIDER": "gemini", "OPENAI_API_KEY": "sk-openai"}, provider: "gemini", key: ""},
		{name: "neutral key for any provider", env: map[string]string{"POOLY_PROVIDER": "anthropic", "POOLY_API_KEY": "sk-ant"}, provider: "anthropic", key: "sk-ant"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load("")
			require.NoError(t, err)
			assert.Equal(t, tt.provider, cfg.LLM.Provider)
			assert.Equal(t, tt.key, cfg.LLM.APIKey)
		})
	}
}
