package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap/zaptest"

	"github.com/ca-srg/fluentsearch/internal/types"
)

func TestSetupDisabledIsNoop(t *testing.T) {
	before := otel.GetTracerProvider()

	shutdown, err := Setup(context.Background(), &types.Config{}, nil)
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
	assert.Equal(t, before, otel.GetTracerProvider())
}

func TestSetupRejectsInvalidConfig(t *testing.T) {
	shutdown, err := Setup(context.Background(), &types.Config{OTelEnabled: true}, nil)
	require.Error(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetupExportsOverHTTP(t *testing.T) {
	var (
		mu    sync.Mutex
		paths = map[string]int{}
	)
	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths[r.URL.Path]++
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer collector.Close()

	prevTracer := otel.GetTracerProvider()
	prevMeter := otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTracer)
		otel.SetMeterProvider(prevMeter)
	})

	ctx := context.Background()
	shutdown, err := Setup(ctx, &types.Config{
		OTelEnabled:              true,
		OTelServiceName:          "fluentsearch-test",
		OTelExporterOTLPEndpoint: collector.URL,
		OTelExporterOTLPProtocol: protocolHTTP,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	_, span := otel.Tracer("fluentsearch/test").Start(ctx, "search")
	span.End()

	counter, err := otel.Meter("fluentsearch/test").Int64Counter("fluentsearch.test.requests")
	require.NoError(t, err)
	counter.Add(ctx, 1)

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, shutdown(shutdownCtx))

	mu.Lock()
	defer mu.Unlock()
	assert.Positive(t, paths["/v1/traces"])
	assert.Positive(t, paths["/v1/metrics"])
}
