package profile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsAIEnabled(t *testing.T) {
	p := &Profile{AIProvider: "openai"}
	require.False(t, p.IsAIEnabled())

	p.AIAPIKey = "sk-test"
	require.True(t, p.IsAIEnabled())

	// Ollama runs locally and needs no key.
	p = &Profile{AIProvider: "ollama"}
	require.True(t, p.IsAIEnabled())
}

func TestIsGoogleCalendarEnabled(t *testing.T) {
	p := &Profile{}
	require.False(t, p.IsGoogleCalendarEnabled())

	p.GoogleClientID = "client-id"
	require.False(t, p.IsGoogleCalendarEnabled())

	p.GoogleClientSecret = "client-secret"
	require.True(t, p.IsGoogleCalendarEnabled())
}

func TestFromEnvProviderDefaults(t *testing.T) {
	t.Setenv("ECHO_AI_PROVIDER", "deepseek")
	t.Setenv("ECHO_AI_API_KEY", "sk-test")

	p := &Profile{}
	p.FromEnv()

	require.Equal(t, "deepseek", p.AIProvider)
	require.Equal(t, "https://api.deepseek.com", p.AIBaseURL)
	require.Equal(t, "deepseek-chat", p.AIModel)
	require.Equal(t, 60, p.AITimeout)
	require.Equal(t, 600, p.AnalyticsCacheTTL)
	require.True(t, p.AIEnabled)
}

func TestFromEnvUnknownProviderFallsBack(t *testing.T) {
	t.Setenv("ECHO_AI_PROVIDER", "mystery")

	p := &Profile{}
	p.FromEnv()

	require.Equal(t, "openai", p.AIProvider)
	require.Equal(t, "https://api.openai.com/v1", p.AIBaseURL)
}

func TestFromEnvExplicitBaseURLWins(t *testing.T) {
	t.Setenv("ECHO_AI_PROVIDER", "openai")
	t.Setenv("ECHO_AI_BASE_URL", "https://proxy.internal/v1")
	t.Setenv("ECHO_AI_MODEL", "gpt-4o")

	p := &Profile{}
	p.FromEnv()

	require.Equal(t, "https://proxy.internal/v1", p.AIBaseURL)
	require.Equal(t, "gpt-4o", p.AIModel)
}

func TestValidate(t *testing.T) {
	dataDir := t.TempDir()

	p := &Profile{Mode: "bogus", Data: dataDir, Driver: "sqlite"}
	require.NoError(t, p.Validate())
	require.Equal(t, "demo", p.Mode)
	require.Equal(t, filepath.Join(dataDir, "echo_demo.db"), p.DSN)
	require.Equal(t, 600, p.AnalyticsCacheTTL)
}

func TestValidateKeepsExplicitDSN(t *testing.T) {
	p := &Profile{
		Mode:              "dev",
		Data:              t.TempDir(),
		Driver:            "sqlite",
		DSN:               "/tmp/custom.db",
		AnalyticsCacheTTL: 120,
	}
	require.NoError(t, p.Validate())
	require.Equal(t, "/tmp/custom.db", p.DSN)
	require.Equal(t, 120, p.AnalyticsCacheTTL)
}

func TestValidateMissingDataDir(t *testing.T) {
	p := &Profile{Mode: "dev", Data: "/nonexistent/echo-data", Driver: "sqlite"}
	require.Error(t, p.Validate())
}
