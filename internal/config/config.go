package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ca-srg/fluentsearch/internal/types"
	env "github.com/netflix/go-env"
)

// Type alias for Config
type Config = types.Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var config Config

	_, err := env.UnmarshalFromEnviron(&config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	// Parse OpenSearchHosts from comma-separated string
	config.OpenSearchHosts = splitList(config.OpenSearchHostsStr)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// validateConfig validates configuration values and adjusts them to safe ranges
func validateConfig(config *Config) error {
	if len(config.OpenSearchHosts) == 0 {
		return fmt.Errorf("OPENSEARCH_HOSTS must contain at least one host")
	}

	for _, host := range config.OpenSearchHosts {
		if err := validateHost(host); err != nil {
			return err
		}
	}

	if strings.TrimSpace(config.OpenSearchIndex) == "" {
		return fmt.Errorf("OPENSEARCH_INDEX cannot be empty")
	}
	if !isValidIndexName(config.OpenSearchIndex) {
		return fmt.Errorf("OPENSEARCH_INDEX %q is not a valid index name", config.OpenSearchIndex)
	}
	if strings.TrimSpace(config.OpenSearchIDField) == "" {
		return fmt.Errorf("OPENSEARCH_ID_FIELD cannot be empty")
	}

	if config.OpenSearchUsername == "" && config.OpenSearchPassword != "" {
		return fmt.Errorf("OPENSEARCH_PASSWORD requires OPENSEARCH_USERNAME")
	}

	// Validate rate limiting configuration
	if config.OpenSearchRateLimit <= 0 {
		return fmt.Errorf("OPENSEARCH_RATE_LIMIT must be greater than 0")
	}
	if config.OpenSearchRateLimit > 1000 {
		return fmt.Errorf("OPENSEARCH_RATE_LIMIT cannot exceed 1000 requests/second")
	}
	if config.OpenSearchRateBurst <= 0 {
		return fmt.Errorf("OPENSEARCH_RATE_BURST must be greater than 0")
	}

	// Validate timeout values
	if config.OpenSearchConnectionTimeout <= 0 {
		return fmt.Errorf("OPENSEARCH_CONNECTION_TIMEOUT must be greater than 0")
	}
	if config.OpenSearchRequestTimeout <= 0 {
		return fmt.Errorf("OPENSEARCH_REQUEST_TIMEOUT must be greater than 0")
	}

	if config.OpenSearchMaxRetries < 0 {
		return fmt.Errorf("OPENSEARCH_MAX_RETRIES cannot be negative")
	}
	if config.OpenSearchMaxRetries > 10 {
		return fmt.Errorf("OPENSEARCH_MAX_RETRIES cannot exceed 10")
	}

	// Validate connection pool settings
	if config.OpenSearchMaxConnections <= 0 {
		return fmt.Errorf("OPENSEARCH_MAX_CONNECTIONS must be greater than 0")
	}
	if config.OpenSearchMaxIdleConns <= 0 {
		return fmt.Errorf("OPENSEARCH_MAX_IDLE_CONNS must be greater than 0")
	}
	if config.OpenSearchMaxIdleConns > config.OpenSearchMaxConnections {
		return fmt.Errorf("OPENSEARCH_MAX_IDLE_CONNS cannot exceed OPENSEARCH_MAX_CONNECTIONS")
	}
	if config.OpenSearchIdleConnTimeout <= 0 {
		return fmt.Errorf("OPENSEARCH_IDLE_CONN_TIMEOUT must be greater than 0")
	}

	switch strings.ToLower(config.LogFormat) {
	case "", "console", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be console or json")
	}

	return nil
}

func validateHost(host string) error {
	parsedURL, err := url.Parse(host)
	if err != nil {
		return fmt.Errorf("invalid OPENSEARCH_HOSTS entry %q: %w", host, err)
	}

	if parsedURL.Scheme == "" {
		return fmt.Errorf("OPENSEARCH_HOSTS entry %q must include scheme (http:// or https://)", host)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("OPENSEARCH_HOSTS entry %q scheme must be http or https", host)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("OPENSEARCH_HOSTS entry %q must include a valid host", host)
	}

	return nil
}

// isValidIndexName follows the engine's index naming rules: lowercase, no leading
// '-', '_' or '+', none of the reserved characters, not "." or "..".
func isValidIndexName(name string) bool {
	if name == "." || name == ".." || len(name) > 255 {
		return false
	}
	if name != strings.ToLower(name) {
		return false
	}
	if strings.HasPrefix(name, "-") || strings.HasPrefix(name, "_") || strings.HasPrefix(name, "+") {
		return false
	}
	return !strings.ContainsAny(name, `\/*?"<>| ,#:`)
}
