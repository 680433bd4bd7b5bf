package opensearch

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

var openSearchTracer = otel.Tracer("fluentsearch/opensearch")

var (
	clientMetricsOnce      sync.Once
	clientRequestCounter   metric.Int64Counter
	clientErrorCounter     metric.Int64Counter
	clientLatencyHistogram metric.Float64Histogram
)

func initClientMetrics(logger *zap.Logger) {
	clientMetricsOnce.Do(func() {
		meter := otel.Meter("fluentsearch/opensearch")

		var err error
		clientRequestCounter, err = meter.Int64Counter(
			"fluentsearch.opensearch.requests.total",
			metric.WithDescription("Total engine requests"),
		)
		if err != nil {
			logger.Warn("failed to create request counter", zap.Error(err))
		}

		clientErrorCounter, err = meter.Int64Counter(
			"fluentsearch.opensearch.errors.total",
			metric.WithDescription("Total failed engine requests"),
		)
		if err != nil {
			logger.Warn("failed to create error counter", zap.Error(err))
		}

		clientLatencyHistogram, err = meter.Float64Histogram(
			"fluentsearch.opensearch.response_time",
			metric.WithDescription("Engine response time (ms)"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			logger.Warn("failed to create latency histogram", zap.Error(err))
		}
	})
}

func recordClientMetrics(ctx context.Context, logger *zap.Logger, attrs []attribute.KeyValue, duration time.Duration, errType string) {
	initClientMetrics(logger)
	if clientRequestCounter != nil {
		clientRequestCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	if clientLatencyHistogram != nil {
		clientLatencyHistogram.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	}
	if errType != "" && clientErrorCounter != nil {
		errAttrs := make([]attribute.KeyValue, len(attrs)+1)
		copy(errAttrs, attrs)
		errAttrs[len(attrs)] = attribute.String("error.type", errType)
		clientErrorCounter.Add(ctx, 1, metric.WithAttributes(errAttrs...))
	}
}
