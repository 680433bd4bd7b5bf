package types

import (
	"time"
)

// ErrorType represents the type of error that occurred
type ErrorType string

const (
	ErrorTypeConfiguration  ErrorType = "configuration"
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeNetworkTimeout ErrorType = "network_timeout"
	ErrorTypeRateLimit      ErrorType = "rate_limit"
	ErrorTypeAuthentication ErrorType = "authentication"
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeUnknown        ErrorType = "unknown"
	// Engine specific error types
	ErrorTypeOpenSearchConnection ErrorType = "opensearch_connection"
	ErrorTypeOpenSearchQuery      ErrorType = "opensearch_query"
	ErrorTypeOpenSearchIndex      ErrorType = "opensearch_index"
	ErrorTypeOpenSearchResponse   ErrorType = "opensearch_response"
)

// Config represents the environment driven configuration of the search facade
type Config struct {
	// Connection
	OpenSearchHostsStr string   `json:"-" env:"OPENSEARCH_HOSTS,default=http://127.0.0.1:9200"`
	OpenSearchHosts    []string `json:"opensearch_hosts"`
	OpenSearchUsername string   `json:"opensearch_username" env:"OPENSEARCH_USERNAME"`
	OpenSearchPassword string   `json:"-" env:"OPENSEARCH_PASSWORD"`
	// Region enables AWS SigV4 request signing when set
	OpenSearchRegion          string `json:"opensearch_region" env:"OPENSEARCH_REGION"`
	OpenSearchInsecureSkipTLS bool   `json:"opensearch_insecure_skip_tls" env:"OPENSEARCH_INSECURE_SKIP_TLS,default=false"`

	// Query defaults
	OpenSearchIndex        string `json:"opensearch_index" env:"OPENSEARCH_INDEX,default=goods"`
	OpenSearchIDField      string `json:"opensearch_id_field" env:"OPENSEARCH_ID_FIELD,default=id"`
	OpenSearchSuggestField string `json:"opensearch_suggest_field" env:"OPENSEARCH_SUGGEST_FIELD,default=goods_name"`

	// Client tuning, handed to the underlying client untouched
	OpenSearchRateLimit         float64       `json:"opensearch_rate_limit" env:"OPENSEARCH_RATE_LIMIT,default=10.0"`
	OpenSearchRateBurst         int           `json:"opensearch_rate_burst" env:"OPENSEARCH_RATE_BURST,default=20"`
	OpenSearchConnectionTimeout time.Duration `json:"opensearch_connection_timeout" env:"OPENSEARCH_CONNECTION_TIMEOUT,default=30s"`
	OpenSearchRequestTimeout    time.Duration `json:"opensearch_request_timeout" env:"OPENSEARCH_REQUEST_TIMEOUT,default=60s"`
	OpenSearchMaxRetries        int           `json:"opensearch_max_retries" env:"OPENSEARCH_MAX_RETRIES,default=3"`
	OpenSearchMaxConnections    int           `json:"opensearch_max_connections" env:"OPENSEARCH_MAX_CONNECTIONS,default=100"`
	OpenSearchMaxIdleConns      int           `json:"opensearch_max_idle_conns" env:"OPENSEARCH_MAX_IDLE_CONNS,default=10"`
	OpenSearchIdleConnTimeout   time.Duration `json:"opensearch_idle_conn_timeout" env:"OPENSEARCH_IDLE_CONN_TIMEOUT,default=90s"`

	// Logging
	LogEnabled      bool   `json:"log_enabled" env:"LOG_ENABLED,default=false"`
	LogLevel        string `json:"log_level" env:"LOG_LEVEL,default=info"`
	LogLocation     string `json:"log_location" env:"LOG_LOCATION"`
	LogFormat       string `json:"log_format" env:"LOG_FORMAT,default=console"`
	LogRequestBody  bool   `json:"log_request_body" env:"LOG_REQUEST_BODY,default=false"`
	LogResponseBody bool   `json:"log_response_body" env:"LOG_RESPONSE_BODY,default=false"`

	// Local usage statistics
	StatsEnabled bool   `json:"stats_enabled" env:"FLUENTSEARCH_STATS_ENABLED,default=true"`
	StatsPath    string `json:"stats_path" env:"FLUENTSEARCH_STATS_PATH"`

	// OpenTelemetry
	OTelEnabled              bool    `json:"otel_enabled" env:"OTEL_ENABLED,default=false"`
	OTelServiceName          string  `json:"otel_service_name" env:"OTEL_SERVICE_NAME,default=fluentsearch"`
	OTelExporterOTLPEndpoint string  `json:"otel_exporter_otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelExporterOTLPProtocol string  `json:"otel_exporter_otlp_protocol" env:"OTEL_EXPORTER_OTLP_PROTOCOL,default=http/protobuf"`
	OTelResourceAttributes   string  `json:"otel_resource_attributes" env:"OTEL_RESOURCE_ATTRIBUTES"`
	OTelTracesSampler        string  `json:"otel_traces_sampler" env:"OTEL_TRACES_SAMPLER,default=always_on"`
	OTelTracesSamplerArg     float64 `json:"otel_traces_sampler_arg" env:"OTEL_TRACES_SAMPLER_ARG,default=1.0"`
}
