package opensearch

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	opensearch "github.com/opensearch-project/opensearch-go/v4"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"
	requestsigner "github.com/opensearch-project/opensearch-go/v4/signer/awsv2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ca-srg/fluentsearch/internal/types"
)

// Client executes engine calls through opensearch-go. Every call waits on the
// client side rate limiter, runs in its own span and is counted in metrics.
type Client struct {
	client      *opensearchapi.Client
	rateLimiter *rate.Limiter
	config      *Config
	logger      *zap.Logger
}

func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipTLS,
		},
		MaxConnsPerHost:       cfg.MaxConnections,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   max(cfg.MaxIdleConns/2, 1),
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.RequestTimeout,
	}

	osConfig := opensearch.Config{
		Addresses:  cfg.Addresses,
		Username:   cfg.Username,
		Password:   cfg.Password,
		Transport:  transport,
		MaxRetries: cfg.MaxRetries,
		Logger:     newTransportLogger(logger, cfg.LogRequestBody, cfg.LogResponseBody),
	}
	if cfg.MaxRetries == 0 {
		osConfig.DisableRetry = true
	}

	if cfg.Region != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectionTimeout)
		defer cancel()

		awsConfig, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}

		signer, err := requestsigner.NewSignerWithService(awsConfig, "es")
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS signer: %w", err)
		}
		osConfig.Signer = signer
	}

	osClient, err := opensearchapi.NewClient(opensearchapi.Config{Client: osConfig})
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenSearch client: %w", err)
	}

	return &Client{
		client:      osClient,
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		config:      cfg,
		logger:      logger,
	}, nil
}

func (c *Client) WaitForRateLimit(ctx context.Context) error {
	return c.rateLimiter.Wait(ctx)
}

// HealthCheck fails when the cluster is unreachable or red.
func (c *Client) HealthCheck(ctx context.Context) error {
	health, err := c.ClusterHealth(ctx)
	if err != nil {
		c.logger.Warn("health check failed", zap.Error(err))
		return fmt.Errorf("health check failed: %w", err)
	}

	if status, _ := health["status"].(string); status == "red" {
		return NewSearchError(types.ErrorTypeOpenSearchConnection, "cluster status is red")
	}
	c.logger.Debug("health check successful", zap.Any("status", health["status"]))
	return nil
}

// ClusterHealth returns the raw cluster health response.
func (c *Client) ClusterHealth(ctx context.Context) (map[string]interface{}, error) {
	return c.mapCall(ctx, "cluster_health", "", &opensearchapi.ClusterHealthReq{})
}

func (c *Client) Search(ctx context.Context, index string, body map[string]interface{}, from, size int) (json.RawMessage, error) {
	payload := make(map[string]interface{}, len(body)+2)
	for k, v := range body {
		payload[k] = v
	}
	payload["from"] = from
	payload["size"] = size

	reader, err := jsonBody(payload)
	if err != nil {
		return nil, err
	}

	_, data, err := c.perform(ctx, "search", index, &opensearchapi.SearchReq{
		Indices: []string{index},
		Body:    reader,
	}, false)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// Get returns nil when the document is missing. A missing index is an error.
func (c *Client) Get(ctx context.Context, index, id string) (json.RawMessage, error) {
	status, data, err := c.perform(ctx, "get", index, &opensearchapi.DocumentGetReq{
		Index:      index,
		DocumentID: id,
	}, true)
	if err != nil {
		return nil, err
	}

	if status == http.StatusNotFound {
		var envelope struct {
			Found *bool `json:"found"`
		}
		if json.Unmarshal(data, &envelope) == nil && envelope.Found != nil && !*envelope.Found {
			return nil, nil
		}
		searchErr := ClassifyHTTPError(status, string(data))
		searchErr.Op = "get"
		return nil, searchErr
	}
	return json.RawMessage(data), nil
}

func (c *Client) Index(ctx context.Context, index, id string, body map[string]interface{}) (map[string]interface{}, error) {
	reader, err := jsonBody(body)
	if err != nil {
		return nil, err
	}
	return c.mapCall(ctx, "index", index, &opensearchapi.IndexReq{
		Index:      index,
		DocumentID: id,
		Body:       reader,
	})
}

func (c *Client) Update(ctx context.Context, index, id string, body map[string]interface{}) (map[string]interface{}, error) {
	reader, err := jsonBody(body)
	if err != nil {
		return nil, err
	}
	return c.mapCall(ctx, "update", index, &opensearchapi.UpdateReq{
		Index:      index,
		DocumentID: id,
		Body:       reader,
	})
}

func (c *Client) Delete(ctx context.Context, index, id string) (map[string]interface{}, error) {
	return c.mapCall(ctx, "delete", index, &opensearchapi.DocumentDeleteReq{
		Index:      index,
		DocumentID: id,
	})
}

func (c *Client) CreateIndex(ctx context.Context, index string, body map[string]interface{}) (map[string]interface{}, error) {
	reader, err := jsonBody(body)
	if err != nil {
		return nil, err
	}
	return c.mapCall(ctx, "create_index", index, &opensearchapi.IndicesCreateReq{
		Index: index,
		Body:  reader,
	})
}

func (c *Client) DeleteIndex(ctx context.Context, index string) (map[string]interface{}, error) {
	return c.mapCall(ctx, "delete_index", index, &opensearchapi.IndicesDeleteReq{
		Indices: []string{index},
	})
}

func (c *Client) PutSettings(ctx context.Context, index string, body map[string]interface{}) (map[string]interface{}, error) {
	reader, err := jsonBody(body)
	if err != nil {
		return nil, err
	}
	return c.mapCall(ctx, "put_settings", index, &opensearchapi.SettingsPutReq{
		Indices: []string{index},
		Body:    reader,
	})
}

func (c *Client) GetSettings(ctx context.Context, indices ...string) (map[string]interface{}, error) {
	return c.mapCall(ctx, "get_settings", strings.Join(indices, ","), &opensearchapi.SettingsGetReq{
		Indices: indices,
	})
}

func (c *Client) PutMapping(ctx context.Context, index string, body map[string]interface{}) (map[string]interface{}, error) {
	reader, err := jsonBody(body)
	if err != nil {
		return nil, err
	}
	return c.mapCall(ctx, "put_mapping", index, &opensearchapi.MappingPutReq{
		Indices: []string{index},
		Body:    reader,
	})
}

func (c *Client) GetMapping(ctx context.Context, indices ...string) (map[string]interface{}, error) {
	return c.mapCall(ctx, "get_mapping", strings.Join(indices, ","), &opensearchapi.MappingGetReq{
		Indices: indices,
	})
}

func (c *Client) mapCall(ctx context.Context, op, index string, req opensearch.Request) (map[string]interface{}, error) {
	_, data, err := c.perform(ctx, op, index, req, false)
	if err != nil {
		return nil, err
	}

	result := make(map[string]interface{})
	if len(bytes.TrimSpace(data)) == 0 {
		return result, nil
	}
	if err := json.Unmarshal(data, &result); err != nil {
		searchErr := NewSearchError(types.ErrorTypeOpenSearchResponse, fmt.Sprintf("failed to decode %s response: %v", op, err))
		searchErr.Op = op
		return nil, searchErr
	}
	return result, nil
}

// perform runs one request and returns its status and body. Non-2xx statuses
// are classified into a *SearchError unless allowNotFound is set and the
// status is 404.
func (c *Client) perform(ctx context.Context, op, index string, req opensearch.Request, allowNotFound bool) (int, []byte, error) {
	ctx, span := openSearchTracer.Start(ctx, "opensearch."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "opensearch"),
			attribute.String("db.operation", op),
			attribute.String("opensearch.index", index),
		))
	defer span.End()

	start := time.Now()
	status, data, err := c.roundTrip(ctx, req)
	if err == nil && status >= http.StatusMultipleChoices && !(allowNotFound && status == http.StatusNotFound) {
		err = ClassifyHTTPError(status, string(data))
	}

	errType := ""
	if err != nil {
		if searchErr, ok := AsSearchError(err); ok {
			searchErr.Op = op
			errType = string(searchErr.Type)
		} else {
			errType = string(types.ErrorTypeUnknown)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Debug("engine call failed",
			zap.String("op", op),
			zap.String("index", index),
			zap.Int("status", status),
			zap.Error(err))
	}
	if status > 0 {
		span.SetAttributes(attribute.Int("http.status_code", status))
	}

	recordClientMetrics(ctx, c.logger, []attribute.KeyValue{
		attribute.String("operation", op),
	}, time.Since(start), errType)

	return status, data, err
}

func (c *Client) roundTrip(ctx context.Context, req opensearch.Request) (int, []byte, error) {
	if err := c.WaitForRateLimit(ctx); err != nil {
		return 0, nil, fmt.Errorf("rate limit wait: %w", err)
	}

	httpReq, err := req.GetRequest()
	if err != nil {
		return 0, nil, NewSearchError(types.ErrorTypeValidation, fmt.Sprintf("failed to build request: %v", err))
	}

	res, err := c.client.Client.Perform(httpReq.WithContext(ctx))
	if err != nil {
		return 0, nil, ClassifyConnectionError(err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		searchErr := NewSearchError(types.ErrorTypeOpenSearchResponse, fmt.Sprintf("failed to read response body: %v", err))
		searchErr.StatusCode = res.StatusCode
		return res.StatusCode, nil, searchErr
	}
	return res.StatusCode, data, nil
}

func jsonBody(body interface{}) (io.Reader, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, NewSearchError(types.ErrorTypeValidation, fmt.Sprintf("failed to marshal request body: %v", err))
	}
	return bytes.NewReader(data), nil
}
