package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start main server.
type Profile struct {
	// Unified LLM configuration (OpenAI-compatible protocol)
	AIProvider string // Provider identifier: openai, deepseek, ollama, openrouter
	AIAPIKey   string // LLM API key
	AIBaseURL  string // LLM base URL (optional, has default per provider)
	AIModel    string // Model name: gpt-4o, deepseek-chat, llama3.1, etc.
	AITimeout  int    // LLM request timeout in seconds (default: 60)

	// Google Calendar OAuth configuration
	GoogleClientID     string
	GoogleClientSecret string

	// Analytics cache
	AnalyticsCacheTTL int // Overview cache TTL in seconds (default: 600)

	// Other configurations
	Mode        string
	Addr        string
	Port        int
	UNIXSock    string
	Data        string
	Driver      string
	DSN         string
	InstanceURL string
	Version     string
	AIEnabled   bool
}

// Provider default configurations for the LLM client.
// Used when ECHO_AI_BASE_URL is not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o-mini",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"openrouter": {
		BaseURL: "https://openrouter.ai/api/v1",
		Model:   "deepseek/deepseek-chat",
	},
	"ollama": {
		BaseURL: "http://localhost:11434/v1",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if an LLM API key is configured. Ollama needs no
// key, so selecting it enables AI unconditionally.
func (p *Profile) IsAIEnabled() bool {
	return p.AIAPIKey != "" || p.AIProvider == "ollama"
}

// IsGoogleCalendarEnabled returns true if OAuth client credentials are set.
func (p *Profile) IsGoogleCalendarEnabled() bool {
	return p.GoogleClientID != "" && p.GoogleClientSecret != ""
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.AIProvider = getEnvOrDefault("ECHO_AI_PROVIDER", "openai")
	p.AIAPIKey = getEnvOrDefault("ECHO_AI_API_KEY", "")
	p.AIBaseURL = getEnvOrDefault("ECHO_AI_BASE_URL", "")
	p.AIModel = getEnvOrDefault("ECHO_AI_MODEL", "")
	p.AITimeout = getEnvOrDefaultInt("ECHO_AI_TIMEOUT_SECONDS", 60)

	if p.AIProvider != "" {
		if _, ok := llmProviderDefaults[p.AIProvider]; !ok {
			slog.Warn("Unknown LLM provider, using default: openai", "provider", p.AIProvider)
			p.AIProvider = "openai"
		}
	}
	if p.AIBaseURL == "" || p.AIModel == "" {
		if defaults, ok := llmProviderDefaults[p.AIProvider]; ok {
			if p.AIBaseURL == "" {
				p.AIBaseURL = defaults.BaseURL
			}
			if p.AIModel == "" {
				p.AIModel = defaults.Model
			}
		}
	}

	p.AIEnabled = p.IsAIEnabled()

	p.GoogleClientID = getEnvOrDefault("ECHO_GOOGLE_CLIENT_ID", "")
	p.GoogleClientSecret = getEnvOrDefault("ECHO_GOOGLE_CLIENT_SECRET", "")

	p.AnalyticsCacheTTL = getEnvOrDefaultInt("ECHO_ANALYTICS_CACHE_TTL_SECONDS", 600)
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "echo")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/echo"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("echo_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	if p.AnalyticsCacheTTL <= 0 {
		p.AnalyticsCacheTTL = 600
	}

	return nil
}
