package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	env "github.com/netflix/go-env"

	"github.com/ca-srg/footprint/internal/types"
)

// Type alias for Config
type Config = types.Config

const maxRequestTimeout = 10 * time.Minute

// Load loads configuration from environment variables.
// Values from the given .env files are applied first without overriding
// variables that are already set; missing files are ignored.
func Load(envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	var config Config

	_, err := env.UnmarshalFromEnviron(&config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	config.SearchBaseURL = strings.TrimSpace(config.SearchBaseURL)
	config.SearchPath = strings.TrimSpace(config.SearchPath)
	config.HealthPath = strings.TrimSpace(config.HealthPath)
	config.LogLevel = strings.ToLower(strings.TrimSpace(config.LogLevel))
	config.LogFormat = strings.ToLower(strings.TrimSpace(config.LogFormat))

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func loadEnvFiles(files []string) error {
	for _, file := range files {
		if file == "" {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file %s: %w", file, err)
		}
	}
	return nil
}

// validateConfig validates configuration values and adjusts them to safe ranges
func validateConfig(config *Config) error {
	if err := validateEndpoint("FOOTPRINT_SEARCH_BASE_URL", config.SearchBaseURL); err != nil {
		return err
	}
	if config.SearchPath == "" {
		return fmt.Errorf("FOOTPRINT_SEARCH_PATH cannot be empty")
	}

	if config.RequestTimeout < 0 {
		return fmt.Errorf("FOOTPRINT_REQUEST_TIMEOUT cannot be negative")
	}
	if config.RequestTimeout > maxRequestTimeout {
		return fmt.Errorf("FOOTPRINT_REQUEST_TIMEOUT cannot exceed %v", maxRequestTimeout)
	}

	// Validate rate limiting configuration
	if config.RateLimit <= 0 {
		return fmt.Errorf("FOOTPRINT_RATE_LIMIT must be greater than 0")
	}
	if config.RateLimit > 100 {
		return fmt.Errorf("FOOTPRINT_RATE_LIMIT cannot exceed 100 requests/second")
	}
	if config.RateBurst < 1 {
		config.RateBurst = 1
	}
	if config.RateBurst > 10 {
		config.RateBurst = 10
	}

	if config.MaxResponseBytes <= 0 {
		return fmt.Errorf("FOOTPRINT_MAX_RESPONSE_BYTES must be greater than 0")
	}

	if config.WebUIPort < 1 || config.WebUIPort > 65535 {
		return fmt.Errorf("WEBUI_PORT must be between 1 and 65535")
	}
	if strings.TrimSpace(config.WebUIHost) == "" {
		return fmt.Errorf("WEBUI_HOST cannot be empty")
	}

	switch config.LogLevel {
	case "debug", "info", "warn", "error":
	case "":
		config.LogLevel = "info"
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}

	switch config.LogFormat {
	case "console", "json":
	case "":
		config.LogFormat = "console"
	default:
		return fmt.Errorf("LOG_FORMAT must be console or json")
	}

	return nil
}

// validateEndpoint checks that raw is an absolute http(s) URL with a host
func validateEndpoint(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", name)
	}

	parsedURL, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s URL format: %w", name, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https", name)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("%s must include a valid host", name)
	}

	return nil
}
