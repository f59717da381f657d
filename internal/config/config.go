// ABOUTME: Configuration loading and parsing for parley
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete parley configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	GenAI    GenAIConfig    `yaml:"genai"`
	Poller   PollerConfig   `yaml:"poller"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// GenAIConfig holds remote conversation service configuration
type GenAIConfig struct {
	BaseURL             string `yaml:"base_url"`
	APIKey              string `yaml:"api_key"`
	ConversationStoreID string `yaml:"conversation_store_id"`
	ChatModel           string `yaml:"chat_model"`
	TitleModel          string `yaml:"title_model"`

	RequestTimeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	RequestTimeoutRaw string `yaml:"request_timeout"`
}

// PollerConfig holds title polling policy.
// The delays are configuration rather than hard-coded so tests can shrink them.
type PollerConfig struct {
	Interval      time.Duration   `yaml:"-"`
	MaxAttempts   int             `yaml:"max_attempts"`
	RefreshDelays []time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	IntervalRaw      string   `yaml:"interval"`
	RefreshDelaysRaw []string `yaml:"refresh_delays"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults for the title polling policy, matching the behavior the UI was
// tuned for: a 2s interval with a 5-attempt cap, and best-effort refreshes
// at 2s, 7s and 17s after a conversation is created.
const (
	DefaultPollInterval    = 2 * time.Second
	DefaultPollMaxAttempts = 5
	DefaultRequestTimeout  = 60 * time.Second
	DefaultChatModel       = "openai.gpt-4.1"
	DefaultTitleModel      = "openai.gpt-4.1"
)

// DefaultRefreshDelays returns the default post-creation refresh schedule.
func DefaultRefreshDelays() []time.Duration {
	return []time.Duration{2 * time.Second, 7 * time.Second, 17 * time.Second}
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.GenAI.BaseURL == "" {
		return fmt.Errorf("genai.base_url is required")
	}

	if c.GenAI.APIKey == "" {
		return fmt.Errorf("genai.api_key is required")
	}

	if c.Poller.MaxAttempts < 0 {
		return fmt.Errorf("poller.max_attempts cannot be negative")
	}

	return nil
}

// applyDefaults fills in defaults for optional policy fields
func (c *Config) applyDefaults() {
	if c.Poller.Interval == 0 {
		c.Poller.Interval = DefaultPollInterval
	}
	if c.Poller.MaxAttempts == 0 {
		c.Poller.MaxAttempts = DefaultPollMaxAttempts
	}
	if len(c.Poller.RefreshDelays) == 0 {
		c.Poller.RefreshDelays = DefaultRefreshDelays()
	}
	if c.GenAI.RequestTimeout == 0 {
		c.GenAI.RequestTimeout = DefaultRequestTimeout
	}
	if c.GenAI.ChatModel == "" {
		c.GenAI.ChatModel = DefaultChatModel
	}
	if c.GenAI.TitleModel == "" {
		c.GenAI.TitleModel = DefaultTitleModel
	}
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Poller.IntervalRaw != "" {
		cfg.Poller.Interval, err = time.ParseDuration(cfg.Poller.IntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing poller.interval %q: %w", cfg.Poller.IntervalRaw, err)
		}
	}

	for _, raw := range cfg.Poller.RefreshDelaysRaw {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("parsing poller.refresh_delays entry %q: %w", raw, err)
		}
		cfg.Poller.RefreshDelays = append(cfg.Poller.RefreshDelays, d)
	}

	if cfg.GenAI.RequestTimeoutRaw != "" {
		cfg.GenAI.RequestTimeout, err = time.ParseDuration(cfg.GenAI.RequestTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing genai.request_timeout %q: %w", cfg.GenAI.RequestTimeoutRaw, err)
		}
	}

	return nil
}
