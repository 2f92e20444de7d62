// Package observability wires OpenTelemetry tracing and metrics export.
package observability

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ca-srg/footprint/internal/types"
)

const (
	defaultServiceName    = "footprint"
	protocolHTTPProtobuf  = "http/protobuf"
	protocolGRPC          = "grpc"
	resourceServiceName   = "service.name"
	defaultExportInterval = 30 * time.Second
)

// Settings are the telemetry options resolved from the root configuration.
type Settings struct {
	Enabled            bool
	ServiceName        string
	Endpoint           string
	Protocol           string
	ResourceAttributes map[string]string
	Sampler            string
	SamplerArg         float64
	ExportInterval     time.Duration
}

// SettingsFromConfig resolves and validates Settings.
func SettingsFromConfig(cfg *types.Config) (*Settings, error) {
	if cfg == nil {
		return nil, fmt.Errorf("observability: nil root configuration provided")
	}

	attrs, err := parseResourceAttributes(cfg.OTelResourceAttributes)
	if err != nil {
		return nil, fmt.Errorf("observability: failed to parse resource attributes: %w", err)
	}

	s := &Settings{
		Enabled:            cfg.OTelEnabled,
		ServiceName:        strings.TrimSpace(cfg.OTelServiceName),
		Endpoint:           strings.TrimSpace(cfg.OTelExporterOTLPEndpoint),
		Protocol:           strings.ToLower(strings.TrimSpace(cfg.OTelExporterOTLPProtocol)),
		ResourceAttributes: attrs,
		Sampler:            strings.ToLower(strings.TrimSpace(cfg.OTelTracesSampler)),
		SamplerArg:         cfg.OTelTracesSamplerArg,
	}
	if err := s.normalize(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) normalize() error {
	if s.ServiceName == "" {
		s.ServiceName = defaultServiceName
	}
	if s.Protocol == "" {
		s.Protocol = protocolHTTPProtobuf
	}
	if s.Sampler == "" {
		s.Sampler = "always_on"
	}
	if s.ExportInterval <= 0 {
		s.ExportInterval = defaultExportInterval
	}
	if s.ResourceAttributes == nil {
		s.ResourceAttributes = make(map[string]string)
	}
	if _, ok := s.ResourceAttributes[resourceServiceName]; !ok {
		s.ResourceAttributes[resourceServiceName] = s.ServiceName
	}

	if !s.Enabled {
		return nil
	}
	if s.Endpoint == "" {
		return fmt.Errorf("observability: OTEL_EXPORTER_OTLP_ENDPOINT is required when OTEL_ENABLED is true")
	}
	if err := checkEndpoint(s.Protocol, s.Endpoint); err != nil {
		return err
	}
	if s.SamplerArg < 0 {
		return fmt.Errorf("observability: traces sampler argument must be non-negative")
	}
	if s.Sampler == "traceidratio" && (s.SamplerArg <= 0 || s.SamplerArg > 1) {
		return fmt.Errorf("observability: traces sampler argument must be between 0 and 1 for traceidratio")
	}
	return nil
}

func checkEndpoint(protocol, endpoint string) error {
	switch protocol {
	case protocolHTTPProtobuf:
		parsed, err := url.Parse(endpoint)
		if err != nil {
			return fmt.Errorf("observability: invalid OTLP endpoint: %w", err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("observability: OTLP endpoint must use http or https with http/protobuf")
		}
		if parsed.Host == "" {
			return fmt.Errorf("observability: OTLP endpoint must include a host")
		}
	case protocolGRPC:
		if _, _, err := grpcTarget(endpoint); err != nil {
			return fmt.Errorf("observability: invalid OTLP gRPC endpoint: %w", err)
		}
	default:
		return fmt.Errorf("observability: unsupported OTLP exporter protocol %q", protocol)
	}
	return nil
}

// parseResourceAttributes reads the OTEL_RESOURCE_ATTRIBUTES key=value list.
func parseResourceAttributes(input string) (map[string]string, error) {
	attributes := make(map[string]string)

	for _, pair := range strings.Split(input, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid resource attribute %q", pair)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("resource attribute key cannot be empty")
		}
		attributes[key] = strings.TrimSpace(value)
	}

	return attributes, nil
}

// grpcTarget returns host:port and whether the connection is plaintext.
func grpcTarget(raw string) (string, bool, error) {
	endpoint := strings.TrimSpace(raw)
	if endpoint == "" {
		return "", false, fmt.Errorf("endpoint cannot be empty")
	}

	if !strings.Contains(endpoint, "://") {
		if !strings.Contains(endpoint, ":") {
			return "", false, fmt.Errorf("endpoint should be host:port")
		}
		return endpoint, true, nil
	}

	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", false, err
	}
	if parsed.Host == "" {
		return "", false, fmt.Errorf("endpoint must include host")
	}
	switch parsed.Scheme {
	case "http", "grpc":
		return parsed.Host, true, nil
	case "https", "grpcs":
		return parsed.Host, false, nil
	default:
		return "", false, fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
}

// signalURL appends the OTLP signal path (e.g. /v1/traces) unless present.
func signalURL(endpoint, signal string) (string, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}

	path := strings.TrimSuffix(parsed.Path, "/")
	if !strings.HasSuffix(path, signal) {
		path += signal
	}
	parsed.Path = path
	return parsed.String(), nil
}
