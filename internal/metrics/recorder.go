package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Recorder counts command invocations. A nil Recorder or one without a store
// drops every call, so usage tracking never fails a command.
type Recorder struct {
	store        *Store
	logger       *zap.Logger
	registration metric.Registration
}

// NewRecorder wraps store. store may be nil.
func NewRecorder(store *Store, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{store: store, logger: logger}
}

// Record counts one invocation.
func (r *Recorder) Record(cmd Command, index string, err error) {
	if r == nil || r.store == nil {
		return
	}
	if incErr := r.store.Increment(cmd, index, err != nil); incErr != nil {
		r.logger.Warn("failed to record command usage", zap.String("command", string(cmd)), zap.Error(incErr))
	}
}

// Totals returns cumulative usage, or nil when no store is attached.
func (r *Recorder) Totals() (map[Command]Usage, error) {
	if r == nil || r.store == nil {
		return nil, nil
	}
	return r.store.Totals()
}

// ByIndex returns cumulative invocations per index, or nil when no store is
// attached.
func (r *Recorder) ByIndex() (map[string]int64, error) {
	if r == nil || r.store == nil {
		return nil, nil
	}
	return r.store.ByIndex()
}

// CountsOn returns the invocations of every known command on date
// (YYYY-MM-DD), or nil when no store is attached.
func (r *Recorder) CountsOn(date string) (map[Command]int64, error) {
	if r == nil || r.store == nil {
		return nil, nil
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", date, err)
	}

	out := make(map[Command]int64, len(Commands))
	for _, cmd := range Commands {
		count, err := r.store.CountOn(cmd, date)
		if err != nil {
			return nil, err
		}
		out[cmd] = count
	}
	return out, nil
}

// RegisterGauge exposes cumulative totals as fluentsearch.commands.total on the
// global meter provider. Call it after the provider is installed.
func (r *Recorder) RegisterGauge() error {
	if r == nil || r.store == nil {
		return nil
	}

	meter := otel.Meter("fluentsearch/metrics")
	gauge, err := meter.Int64ObservableGauge(
		"fluentsearch.commands.total",
		metric.WithDescription("Cumulative CLI invocations by command"),
		metric.WithUnit("{invocations}"),
	)
	if err != nil {
		return err
	}

	r.registration, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		totals, err := r.store.Totals()
		if err != nil {
			r.logger.Warn("failed to read command usage", zap.Error(err))
			return nil
		}
		for _, usage := range totals {
			o.ObserveInt64(gauge, usage.Count, metric.WithAttributes(
				attribute.String("command", string(usage.Command)),
			))
		}
		return nil
	}, gauge)
	return err
}

// Close unregisters the gauge and closes the store.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	if r.registration != nil {
		_ = r.registration.Unregister()
	}
	return r.store.Close()
}
