// Package config loads runtime configuration from the environment,
// an optional .env file and an optional YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Provider names accepted by TULISIN_PROVIDER.
const (
	ProviderOpenAI = "openai"
	ProviderGroq   = "groq"
)

// Config is the resolved runtime configuration.
type Config struct {
	Provider    string  `yaml:"provider"`
	APIKey      string  `yaml:"apiKey"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"baseUrl"`
	MaxTokens   int     `yaml:"maxTokens"`
	Temperature float64 `yaml:"temperature"`
	TimeoutMs   int     `yaml:"timeoutMs"`

	DBPath   string `yaml:"dbPath"`
	Port     int    `yaml:"port"`
	LogFile  string `yaml:"logFile"`
	LogLevel string `yaml:"logLevel"`
}

// Load resolves configuration in precedence order: explicit environment
// variables and .env entries (godotenv fills in unset variables, so a
// real environment variable beats its .env counterpart), then the YAML
// file named by TULISIN_CONFIG, then defaults. A missing API key for
// the selected provider is an error so misconfiguration fails at
// startup rather than on the first rewrite.
func Load() (*Config, error) {
	// Best effort; absence of .env is normal outside development.
	_ = godotenv.Load()

	cfg := &Config{
		Provider: ProviderOpenAI,
		DBPath:   "tulisin.db",
		Port:     8080,
		LogLevel: "info",
	}

	if path := os.Getenv("TULISIN_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	setString(&cfg.Provider, "TULISIN_PROVIDER")
	setString(&cfg.Model, "TULISIN_MODEL")
	setString(&cfg.BaseURL, "TULISIN_BASE_URL")
	setString(&cfg.DBPath, "TULISIN_DB")
	setString(&cfg.LogFile, "TULISIN_LOG_FILE")
	setString(&cfg.LogLevel, "TULISIN_LOG_LEVEL")
	if err := setInt(&cfg.Port, "PORT"); err != nil {
		return nil, err
	}
	if err := setInt(&cfg.MaxTokens, "TULISIN_MAX_TOKENS"); err != nil {
		return nil, err
	}
	if err := setInt(&cfg.TimeoutMs, "TULISIN_TIMEOUT_MS"); err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		setString(&cfg.APIKey, "OPENAI_API_KEY")
	case ProviderGroq:
		setString(&cfg.APIKey, "GROQ_API_KEY")
	default:
		return nil, fmt.Errorf("config: unknown provider %q", cfg.Provider)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("config: no API key set for provider %q", cfg.Provider)
	}

	return cfg, nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = n
	return nil
}
