// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// legacyConfigPath is the path to the configuration file used in previous versions.
	legacyConfigPath = "config.json"
	// defaultRequestTimeout is the default timeout for completion-service requests.
	defaultRequestTimeout = 300 * time.Second
	// defaultBaseURL is the default completion-service endpoint.
	defaultBaseURL = "https://api.openai.com"
	// defaultModel is used when the config does not name a model.
	defaultModel = "gpt-4o-mini"
	// defaultAPIKeyEnv names the environment variable holding the service key.
	defaultAPIKeyEnv = "OPENAI_API_KEY"
	// defaultRetryBackoff is the base delay between retry attempts.
	defaultRetryBackoff = 2 * time.Second
)

// Character budgets for one request, per operation. Consolidation tolerates
// the largest prompts; matching reserves room for the reference list that is
// resent with every chunk.
const (
	DefaultConsolidateBudget = 7100
	DefaultCategorizeBudget  = 5000
	DefaultMatchBudget       = 6000
)

// Config represents the top-level application configuration.
type Config struct {
	APIKeyEnv          string `json:"apiKeyEnv,omitempty" mapstructure:"apiKeyEnv"`
	BaseURL            string `json:"baseUrl,omitempty" mapstructure:"baseUrl"`
	Model              string `json:"model,omitempty" mapstructure:"model"`
	Seed               *int   `json:"seed,omitempty" mapstructure:"seed"`
	Debug              bool   `json:"debug" mapstructure:"debug"`
	TimeoutSeconds     int    `json:"timeout,omitempty" mapstructure:"timeout"`
	ConsolidateBudget  int    `json:"consolidateBudget,omitempty" mapstructure:"consolidateBudget"`
	CategorizeBudget   int    `json:"categorizeBudget,omitempty" mapstructure:"categorizeBudget"`
	MatchBudget        int    `json:"matchBudget,omitempty" mapstructure:"matchBudget"`
	MaxRetries         int    `json:"maxRetries,omitempty" mapstructure:"maxRetries"`
	RetryBackoffMs     int    `json:"retryBackoffMs,omitempty" mapstructure:"retryBackoffMs"`
	ProgressUI         bool   `json:"progressUi" mapstructure:"progressUi"`
	ExportPath         string `json:"export,omitempty" mapstructure:"export"`
	ExportMarkdownPath string `json:"exportMarkdown,omitempty" mapstructure:"exportMarkdown"`
	LogFile            string `json:"logFile,omitempty" mapstructure:"logFile"`
	ConfigPath         string `json:"-" mapstructure:"-"`
}

// RequestTimeout returns the timeout duration for completion requests, falling back to the default if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RetryBackoff returns the base delay between retry attempts.
func (c Config) RetryBackoff() time.Duration {
	if c.RetryBackoffMs <= 0 {
		return defaultRetryBackoff
	}
	return time.Duration(c.RetryBackoffMs) * time.Millisecond
}

// ModelName returns the configured model, applying the default if not set.
func (c Config) ModelName() string {
	if m := strings.TrimSpace(c.Model); m != "" {
		return m
	}
	return defaultModel
}

// ServiceURL returns the completion-service base URL, applying the default if not set.
func (c Config) ServiceURL() string {
	if u := strings.TrimSpace(c.BaseURL); u != "" {
		return strings.TrimRight(u, "/")
	}
	return defaultBaseURL
}

// APIKey resolves the service key from the configured environment variable.
func (c Config) APIKey() (string, error) {
	name := strings.TrimSpace(c.APIKeyEnv)
	if name == "" {
		name = defaultAPIKeyEnv
	}
	key := strings.TrimSpace(os.Getenv(name))
	if key == "" {
		return "", fmt.Errorf("no API key found in environment variable %q", name)
	}
	return key, nil
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "canonry.log"
}

// BudgetFor returns the chunk character budget for the named operation.
func (c Config) BudgetFor(operation string) int {
	switch operation {
	case "consolidate":
		if c.ConsolidateBudget > 0 {
			return c.ConsolidateBudget
		}
		return DefaultConsolidateBudget
	case "categorize":
		if c.CategorizeBudget > 0 {
			return c.CategorizeBudget
		}
		return DefaultCategorizeBudget
	case "match":
		if c.MatchBudget > 0 {
			return c.MatchBudget
		}
		return DefaultMatchBudget
	default:
		return DefaultCategorizeBudget
	}
}

// RetryAttempts returns the configured number of retry attempts for failed chunks.
func (c Config) RetryAttempts() int {
	if c.MaxRetries < 0 {
		return 0
	}
	return c.MaxRetries
}

// Load reads the application configuration from the specified path, with fallback to a legacy path.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	config, err := loadFromPath(path)
	if err == nil {
		config.ConfigPath = path
		return config, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		if path == DefaultConfigPath {
			config, legacyErr := loadFromPath(legacyConfigPath)
			if legacyErr == nil {
				return config, nil
			}
			if errors.Is(legacyErr, os.ErrNotExist) {
				return Config{}, fmt.Errorf("no configuration file found (searched %q and %q)", DefaultConfigPath, legacyConfigPath)
			}
			return Config{}, fmt.Errorf("could not read config file %q: %w", legacyConfigPath, legacyErr)
		}
		return Config{}, fmt.Errorf("no configuration file found at %q", path)
	}

	return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
}

// loadFromPath is a helper function that loads the configuration from a specific file path.
func loadFromPath(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	if err := json.NewDecoder(file).Decode(&config); err != nil {
		return Config{}, err
	}
	if config.TimeoutSeconds <= 0 {
		config.TimeoutSeconds = int(defaultRequestTimeout.Seconds())
	}

	return config, nil
}
