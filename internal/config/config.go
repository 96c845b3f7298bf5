// Package config handles configuration for chatweb.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	configDirName  = ".chatweb"
	configFileName = "config.json"
	logFileName    = "chatweb.log"
)

// Config represents the user configuration
type Config struct {
	// Origin is the scheme://host[:port] the client acts from. Local hosts
	// talk to the backend on its development port; any other origin uses the
	// same-origin /api/chat path.
	Origin string `json:"origin"`
	// Model and APIKey are sent only when set
	Model  string `json:"model,omitempty"`
	APIKey string `json:"api_key,omitempty"`
	// Stream asks the backend for a streamed reply
	Stream bool `json:"stream"`
	// ResponseMode forces "stream" or "buffered" decoding; "auto" detects it
	ResponseMode string `json:"response_mode"`
	// RequestTimeoutSeconds bounds one submission. 0 disables the timeout.
	RequestTimeoutSeconds int `json:"request_timeout_seconds"`

	Verbose         bool   `json:"verbose"`
	CopyToClipboard bool   `json:"copy_to_clipboard"`
	TUITheme        string `json:"tui_theme,omitempty"`

	LogLevel     string `json:"log_level"`
	LogFile      string `json:"log_file,omitempty"`
	OTLPEndpoint string `json:"otlp_endpoint,omitempty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Origin:                "http://localhost:3000",
		ResponseMode:          "auto",
		RequestTimeoutSeconds: 120,
		TUITheme:              "tokyonight",
		LogLevel:              "info",
	}
}

// RequestTimeout returns the submission timeout as a duration
func (c Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Validate checks values that cannot be used as-is
func (c Config) Validate() error {
	switch strings.ToLower(c.ResponseMode) {
	case "", "auto", "stream", "buffered":
	default:
		return fmt.Errorf("invalid response_mode %q (use auto, stream or buffered)", c.ResponseMode)
	}
	if c.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("request_timeout_seconds must not be negative, got %d", c.RequestTimeoutSeconds)
	}
	return nil
}

// Redacted returns a copy safe to print
func (c Config) Redacted() Config {
	if c.APIKey != "" {
		c.APIKey = redact(c.APIKey)
	}
	return c
}

func redact(secret string) string {
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, configDirName), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	// 0o700: the config may hold an API key
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFileName), nil
}

// GetLogPath returns the log file from config, falling back to the config dir
func GetLogPath(cfg Config) (string, error) {
	if cfg.LogFile != "" {
		return cfg.LogFile, nil
	}
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, logFileName), nil
}

// LoadConfig loads the configuration from disk
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if config doesn't exist
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, configFileName)

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load returns the effective configuration: defaults, then the config file,
// then environment variables (including a .env file in the working directory).
func Load() (Config, error) {
	loadDotEnv()

	cfg, err := LoadConfig()
	if err != nil {
		return cfg, err
	}
	ApplyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// AvailableResponseModes returns the accepted response_mode values
func AvailableResponseModes() []string {
	return []string{"auto", "stream", "buffered"}
}
