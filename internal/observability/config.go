// Package observability wires OpenTelemetry tracing and metrics for the CLI.
// The engine client records spans and metrics through the global otel
// providers, which stay no-ops until Setup installs exporting ones.
package observability

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ca-srg/fluentsearch/internal/types"
)

const (
	protocolHTTP = "http/protobuf"
	protocolGRPC = "grpc"

	serviceNameKey = "service.name"
)

// Config is the resolved OTEL_* configuration.
type Config struct {
	Enabled            bool
	ServiceName        string
	Endpoint           string
	Protocol           string
	ResourceAttributes map[string]string
	Sampler            string
	SamplerArg         float64
	ExportInterval     time.Duration
}

// LoadConfig resolves and validates telemetry settings from the root config.
func LoadConfig(cfg *types.Config) (*Config, error) {
	if cfg == nil {
		return nil, fmt.Errorf("observability: nil configuration")
	}

	attrs, err := parseResourceAttributes(cfg.OTelResourceAttributes)
	if err != nil {
		return nil, fmt.Errorf("observability: OTEL_RESOURCE_ATTRIBUTES: %w", err)
	}

	out := &Config{
		Enabled:            cfg.OTelEnabled,
		ServiceName:        strings.TrimSpace(cfg.OTelServiceName),
		Endpoint:           strings.TrimSpace(cfg.OTelExporterOTLPEndpoint),
		Protocol:           strings.ToLower(strings.TrimSpace(cfg.OTelExporterOTLPProtocol)),
		ResourceAttributes: attrs,
		Sampler:            strings.ToLower(strings.TrimSpace(cfg.OTelTracesSampler)),
		SamplerArg:         cfg.OTelTracesSamplerArg,
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate fills defaults and, when telemetry is enabled, checks the exporter
// endpoint against the protocol.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("observability: config is nil")
	}

	if c.ServiceName == "" {
		c.ServiceName = "fluentsearch"
	}
	if c.Protocol == "" {
		c.Protocol = protocolHTTP
	}
	if c.Sampler == "" {
		c.Sampler = "always_on"
	}
	if c.ExportInterval <= 0 {
		c.ExportInterval = 30 * time.Second
	}
	if c.ResourceAttributes == nil {
		c.ResourceAttributes = make(map[string]string)
	}
	if _, ok := c.ResourceAttributes[serviceNameKey]; !ok {
		c.ResourceAttributes[serviceNameKey] = c.ServiceName
	}

	if !c.Enabled {
		return nil
	}

	if c.Endpoint == "" {
		return fmt.Errorf("observability: OTEL_EXPORTER_OTLP_ENDPOINT is required when OTEL_ENABLED=true")
	}

	switch c.Protocol {
	case protocolHTTP:
		parsed, err := url.Parse(c.Endpoint)
		if err != nil {
			return fmt.Errorf("observability: invalid OTLP endpoint: %w", err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("observability: OTLP endpoint %q needs an http or https scheme for %s", c.Endpoint, protocolHTTP)
		}
		if parsed.Host == "" {
			return fmt.Errorf("observability: OTLP endpoint %q has no host", c.Endpoint)
		}
	case protocolGRPC:
		if _, _, err := grpcTarget(c.Endpoint); err != nil {
			return fmt.Errorf("observability: invalid OTLP gRPC endpoint: %w", err)
		}
	default:
		return fmt.Errorf("observability: unsupported OTLP protocol %q", c.Protocol)
	}

	if c.Sampler == "traceidratio" && (c.SamplerArg <= 0 || c.SamplerArg > 1) {
		return fmt.Errorf("observability: OTEL_TRACES_SAMPLER_ARG must be in (0, 1] for traceidratio")
	}
	return nil
}

// parseResourceAttributes reads the key=value,key=value form.
func parseResourceAttributes(input string) (map[string]string, error) {
	attrs := make(map[string]string)
	for _, pair := range strings.Split(input, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid attribute %q", pair)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("attribute key cannot be empty in %q", pair)
		}
		attrs[key] = strings.TrimSpace(value)
	}
	return attrs, nil
}
