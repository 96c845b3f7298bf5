package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override the config file
const (
	EnvOrigin       = "CHATWEB_ORIGIN"
	EnvModel        = "CHATWEB_MODEL"
	EnvAPIKey       = "CHATWEB_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvStream       = "CHATWEB_STREAM"
	EnvResponseMode = "CHATWEB_RESPONSE_MODE"
	EnvTimeout      = "CHATWEB_TIMEOUT"
	EnvLogLevel     = "CHATWEB_LOG_LEVEL"
	EnvLogFile      = "CHATWEB_LOG_FILE"
	EnvOTLPEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
)

// loadDotEnv reads .env from the working directory if present
func loadDotEnv() {
	_ = godotenv.Load()
}

// ApplyEnv overlays environment variables onto cfg
func ApplyEnv(cfg *Config) {
	cfg.Origin = getEnvDefault(EnvOrigin, cfg.Origin)
	cfg.Model = getEnvDefault(EnvModel, cfg.Model)
	cfg.APIKey = getEnvDefault(EnvAPIKey, getEnvDefault(EnvOpenAIAPIKey, cfg.APIKey))
	cfg.Stream = getEnvBoolDefault(EnvStream, cfg.Stream)
	cfg.ResponseMode = getEnvDefault(EnvResponseMode, cfg.ResponseMode)
	cfg.RequestTimeoutSeconds = getEnvIntDefault(EnvTimeout, cfg.RequestTimeoutSeconds)
	cfg.LogLevel = getEnvDefault(EnvLogLevel, cfg.LogLevel)
	cfg.LogFile = getEnvDefault(EnvLogFile, cfg.LogFile)
	cfg.OTLPEndpoint = getEnvDefault(EnvOTLPEndpoint, cfg.OTLPEndpoint)
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBoolDefault(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getEnvIntDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}
