package types

import (
	"net/url"
	"strings"
	"time"
)

// Config represents the console configuration.
// It is resolved once at startup and passed to every component by value or pointer;
// nothing reads the environment after Load.
type Config struct {
	// Search service
	SearchBaseURL    string        `json:"search_base_url" env:"FOOTPRINT_SEARCH_BASE_URL,default=https://stkl.vercel.app"`
	SearchPath       string        `json:"search_path" env:"FOOTPRINT_SEARCH_PATH,default=/api/search"`
	HealthPath       string        `json:"health_path" env:"FOOTPRINT_HEALTH_PATH,default=/api/health"`
	RequestTimeout   time.Duration `json:"request_timeout" env:"FOOTPRINT_REQUEST_TIMEOUT,default=60s"`
	RateLimit        float64       `json:"rate_limit" env:"FOOTPRINT_RATE_LIMIT,default=1"`
	RateBurst        int           `json:"rate_burst" env:"FOOTPRINT_RATE_BURST,default=1"`
	MaxResponseBytes int64         `json:"max_response_bytes" env:"FOOTPRINT_MAX_RESPONSE_BYTES,default=10485760"`
	UserAgent        string        `json:"user_agent" env:"FOOTPRINT_USER_AGENT,default=footprint/1.0"`

	// Local usage counters
	StatsEnabled bool   `json:"stats_enabled" env:"FOOTPRINT_STATS_ENABLED,default=true"`
	StatsPath    string `json:"stats_path" env:"FOOTPRINT_STATS_PATH"`

	// Web console
	WebUIHost string `json:"webui_host" env:"WEBUI_HOST,default=localhost"`
	WebUIPort int    `json:"webui_port" env:"WEBUI_PORT,default=8081"`

	// Logging
	LogLevel  string `json:"log_level" env:"LOG_LEVEL,default=info"`
	LogFormat string `json:"log_format" env:"LOG_FORMAT,default=console"`
	LogFile   string `json:"log_file" env:"LOG_FILE"`

	// OpenTelemetry
	OTelEnabled              bool    `json:"otel_enabled" env:"OTEL_ENABLED,default=false"`
	OTelServiceName          string  `json:"otel_service_name" env:"OTEL_SERVICE_NAME,default=footprint"`
	OTelExporterOTLPEndpoint string  `json:"otel_exporter_otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelExporterOTLPProtocol string  `json:"otel_exporter_otlp_protocol" env:"OTEL_EXPORTER_OTLP_PROTOCOL,default=http/protobuf"`
	OTelResourceAttributes   string  `json:"otel_resource_attributes" env:"OTEL_RESOURCE_ATTRIBUTES"`
	OTelTracesSampler        string  `json:"otel_traces_sampler" env:"OTEL_TRACES_SAMPLER,default=always_on"`
	OTelTracesSamplerArg     float64 `json:"otel_traces_sampler_arg" env:"OTEL_TRACES_SAMPLER_ARG,default=1"`
}

// SearchEndpoint returns the absolute URL of the search endpoint.
func (c *Config) SearchEndpoint() string {
	return joinEndpoint(c.SearchBaseURL, c.SearchPath)
}

// HealthEndpoint returns the absolute URL of the health endpoint.
func (c *Config) HealthEndpoint() string {
	return joinEndpoint(c.SearchBaseURL, c.HealthPath)
}

func joinEndpoint(base, path string) string {
	if path == "" {
		return strings.TrimRight(base, "/")
	}
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
