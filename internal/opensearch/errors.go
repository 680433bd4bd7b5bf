package opensearch

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ca-srg/fluentsearch/internal/types"
)

// SearchError is an engine or transport failure classified by the client.
// Retryable and RetryAfter are advisory; this client never retries on its own.
type SearchError struct {
	Type       types.ErrorType `json:"type"`
	Op         string          `json:"op,omitempty"`
	Message    string          `json:"message"`
	Reason     string          `json:"reason,omitempty"`
	StatusCode int             `json:"status_code,omitempty"`
	Retryable  bool            `json:"retryable"`
	RetryAfter time.Duration   `json:"retry_after,omitempty"`
	Suggestion string          `json:"suggestion,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	Err        error           `json:"-"`
}

func (e *SearchError) Error() string {
	msg := e.Message
	if e.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	}
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", e.Op, msg)
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("[%s] %s (HTTP %d)", e.Type, msg, e.StatusCode)
	}
	return fmt.Sprintf("[%s] %s", e.Type, msg)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

func (e *SearchError) IsRetryable() bool {
	return e.Retryable
}

func NewSearchError(errType types.ErrorType, message string) *SearchError {
	return &SearchError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// AsSearchError unwraps err into a *SearchError when it carries one.
func AsSearchError(err error) (*SearchError, bool) {
	var searchErr *SearchError
	if errors.As(err, &searchErr) {
		return searchErr, true
	}
	return nil, false
}

// ClassifyHTTPError maps a non-2xx engine response to a SearchError. The engine's
// error.reason is extracted from body when present.
func ClassifyHTTPError(statusCode int, body string) *SearchError {
	reason := errorReason(body)

	switch statusCode {
	case http.StatusBadRequest:
		return &SearchError{
			Type:       types.ErrorTypeOpenSearchQuery,
			Message:    "the engine rejected the request",
			Reason:     reason,
			StatusCode: statusCode,
			Suggestion: "Check the query body and field mappings.",
			Timestamp:  time.Now(),
		}
	case http.StatusUnauthorized:
		return &SearchError{
			Type:       types.ErrorTypeAuthentication,
			Message:    "authentication failed",
			Reason:     reason,
			StatusCode: statusCode,
			Suggestion: "Check OPENSEARCH_USERNAME and OPENSEARCH_PASSWORD, or the AWS credentials used for signing.",
			Timestamp:  time.Now(),
		}
	case http.StatusForbidden:
		return &SearchError{
			Type:       types.ErrorTypeAuthentication,
			Message:    "access denied",
			Reason:     reason,
			StatusCode: statusCode,
			Suggestion: "Check that the user or IAM role is allowed to access the index.",
			Timestamp:  time.Now(),
		}
	case http.StatusNotFound:
		return &SearchError{
			Type:       types.ErrorTypeNotFound,
			Message:    "index or endpoint not found",
			Reason:     reason,
			StatusCode: statusCode,
			Suggestion: "Check OPENSEARCH_HOSTS and the index name.",
			Timestamp:  time.Now(),
		}
	case http.StatusConflict:
		return &SearchError{
			Type:       types.ErrorTypeOpenSearchIndex,
			Message:    "conflict",
			Reason:     reason,
			StatusCode: statusCode,
			Timestamp:  time.Now(),
		}
	case http.StatusRequestTimeout:
		return &SearchError{
			Type:       types.ErrorTypeNetworkTimeout,
			Message:    "request timed out",
			Reason:     reason,
			StatusCode: statusCode,
			Retryable:  true,
			RetryAfter: 5 * time.Second,
			Suggestion: "Check network connectivity and cluster load.",
			Timestamp:  time.Now(),
		}
	case http.StatusTooManyRequests:
		retryAfter := 10 * time.Second
		if strings.Contains(body, "retry after") {
			retryAfter = 30 * time.Second
		}
		return &SearchError{
			Type:       types.ErrorTypeRateLimit,
			Message:    "rate limited by the engine",
			Reason:     reason,
			StatusCode: statusCode,
			Retryable:  true,
			RetryAfter: retryAfter,
			Suggestion: "Lower OPENSEARCH_RATE_LIMIT or retry later.",
			Timestamp:  time.Now(),
		}
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return &SearchError{
			Type:       types.ErrorTypeOpenSearchConnection,
			Message:    "engine server error",
			Reason:     reason,
			StatusCode: statusCode,
			Retryable:  true,
			RetryAfter: 10 * time.Second,
			Suggestion: "Check the cluster health.",
			Timestamp:  time.Now(),
		}
	default:
		if reason == "" {
			reason = truncate(body, 512)
		}
		return &SearchError{
			Type:       types.ErrorTypeUnknown,
			Message:    "unexpected HTTP status",
			Reason:     reason,
			StatusCode: statusCode,
			Retryable:  statusCode >= 500,
			RetryAfter: 5 * time.Second,
			Timestamp:  time.Now(),
		}
	}
}

// ClassifyConnectionError maps a transport failure to a SearchError.
func ClassifyConnectionError(err error) *SearchError {
	errMsg := err.Error()

	if strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "deadline exceeded") {
		return &SearchError{
			Type:       types.ErrorTypeNetworkTimeout,
			Message:    "connection to the engine timed out",
			Retryable:  true,
			RetryAfter: 5 * time.Second,
			Suggestion: "Check network connectivity and OPENSEARCH_HOSTS.",
			Timestamp:  time.Now(),
			Err:        err,
		}
	}

	if strings.Contains(errMsg, "connection refused") {
		return &SearchError{
			Type:       types.ErrorTypeOpenSearchConnection,
			Message:    "connection to the engine was refused",
			Suggestion: "Check the host and port in OPENSEARCH_HOSTS.",
			Timestamp:  time.Now(),
			Err:        err,
		}
	}

	if strings.Contains(errMsg, "no such host") {
		return &SearchError{
			Type:       types.ErrorTypeOpenSearchConnection,
			Message:    "engine host not found",
			Suggestion: "Check the host name in OPENSEARCH_HOSTS.",
			Timestamp:  time.Now(),
			Err:        err,
		}
	}

	return &SearchError{
		Type:       types.ErrorTypeUnknown,
		Message:    fmt.Sprintf("connection error: %v", err),
		Retryable:  true,
		RetryAfter: 10 * time.Second,
		Suggestion: "Check network connectivity.",
		Timestamp:  time.Now(),
		Err:        err,
	}
}

func errorReason(body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}

	var payload struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil || len(payload.Error) == 0 {
		return ""
	}

	var detailed struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(payload.Error, &detailed); err == nil && detailed.Reason != "" {
		if detailed.Type != "" {
			return fmt.Sprintf("%s: %s", detailed.Type, detailed.Reason)
		}
		return detailed.Reason
	}

	var plain string
	if err := json.Unmarshal(payload.Error, &plain); err == nil {
		return plain
	}
	return ""
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
