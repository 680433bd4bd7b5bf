package opensearch

import (
	"io"
	"net/http"
	"time"

	"github.com/opensearch-project/opensearch-go/v4/opensearchtransport"
	"go.uber.org/zap"
)

const maxLoggedBody = 4096

var _ opensearchtransport.Logger = (*transportLogger)(nil)

// transportLogger writes every round trip of the opensearch-go transport to zap.
type transportLogger struct {
	logger       *zap.Logger
	requestBody  bool
	responseBody bool
}

func newTransportLogger(logger *zap.Logger, requestBody, responseBody bool) *transportLogger {
	return &transportLogger{
		logger:       logger.Named("transport"),
		requestBody:  requestBody,
		responseBody: responseBody,
	}
}

func (l *transportLogger) LogRoundTrip(req *http.Request, res *http.Response, err error, start time.Time, dur time.Duration) error {
	fields := []zap.Field{
		zap.Time("start", start),
		zap.Duration("duration", dur),
	}
	if req != nil {
		fields = append(fields, zap.String("method", req.Method))
		if req.URL != nil {
			fields = append(fields, zap.String("url", req.URL.Redacted()))
		}
		if l.requestBody && req.Body != nil && req.Body != http.NoBody {
			fields = append(fields, zap.String("request_body", readBody(req.Body)))
		}
	}
	if res != nil {
		fields = append(fields, zap.Int("status", res.StatusCode))
		if l.responseBody && res.Body != nil && res.Body != http.NoBody {
			fields = append(fields, zap.String("response_body", readBody(res.Body)))
		}
	}

	switch {
	case err != nil:
		l.logger.Warn("round trip failed", append(fields, zap.Error(err))...)
	case res != nil && res.StatusCode >= http.StatusBadRequest:
		l.logger.Info("round trip returned error status", fields...)
	default:
		l.logger.Debug("round trip", fields...)
	}
	return nil
}

func (l *transportLogger) RequestBodyEnabled() bool {
	return l.requestBody
}

func (l *transportLogger) ResponseBodyEnabled() bool {
	return l.responseBody
}

func readBody(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxLoggedBody+1))
	if err != nil {
		return ""
	}
	if len(data) > maxLoggedBody {
		return string(data[:maxLoggedBody]) + "..."
	}
	return string(data)
}
