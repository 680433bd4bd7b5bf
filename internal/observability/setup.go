package observability

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/ca-srg/fluentsearch/internal/types"
)

const shutdownTimeout = 5 * time.Second

// ShutdownFunc flushes and stops the installed providers.
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Setup installs global tracer and meter providers. When telemetry is disabled
// nothing is installed and the returned ShutdownFunc is a no-op.
func Setup(ctx context.Context, rootCfg *types.Config, logger *zap.Logger) (ShutdownFunc, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg, err := LoadConfig(rootCfg)
	if err != nil {
		return noopShutdown, err
	}
	if !cfg.Enabled {
		return noopShutdown, nil
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return noopShutdown, fmt.Errorf("observability: build resource: %w", err)
	}

	spanExporter, err := newSpanExporter(ctx, cfg)
	if err != nil {
		return noopShutdown, fmt.Errorf("observability: create trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sampler(cfg)),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(spanExporter),
	)

	metricExporter, err := newMetricExporter(ctx, cfg)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return noopShutdown, fmt.Errorf("observability: create metric exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(cfg.ExportInterval))),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Debug("telemetry enabled",
		zap.String("service", cfg.ServiceName),
		zap.String("protocol", cfg.Protocol),
		zap.String("endpoint", cfg.Endpoint))

	return newShutdown(tp, mp, logger), nil
}

func newShutdown(tp *sdktrace.TracerProvider, mp *sdkmetric.MeterProvider, logger *zap.Logger) ShutdownFunc {
	return func(ctx context.Context) error {
		if ctx == nil {
			ctx = context.Background()
		}
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()
		}

		var errs []error
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("tracer provider shutdown failed", zap.Error(err))
			errs = append(errs, fmt.Errorf("tracer provider: %w", err))
		}
		if err := mp.Shutdown(ctx); err != nil {
			logger.Warn("meter provider shutdown failed", zap.Error(err))
			errs = append(errs, fmt.Errorf("meter provider: %w", err))
		}
		return errors.Join(errs...)
	}
}

func sampler(cfg *Config) sdktrace.Sampler {
	switch cfg.Sampler {
	case "always_off":
		return sdktrace.NeverSample()
	case "traceidratio":
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SamplerArg))
	case "parentbased_always_on":
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	default:
		return sdktrace.AlwaysSample()
	}
}

func newResource(ctx context.Context, cfg *Config) (*resource.Resource, error) {
	keys := make([]string, 0, len(cfg.ResourceAttributes))
	for key := range cfg.ResourceAttributes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	attrs := make([]attribute.KeyValue, 0, len(keys))
	for _, key := range keys {
		attrs = append(attrs, attribute.String(key, cfg.ResourceAttributes[key]))
	}

	return resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(attrs...),
	)
}
