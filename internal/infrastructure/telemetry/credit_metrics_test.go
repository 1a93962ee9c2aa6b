package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/credit/internal/infrastructure/config"
	"github.com/erp/credit/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func newTestMetrics(t *testing.T) (*telemetry.CreditMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := telemetry.NewCreditMetrics(provider.Meter("credit-test"))
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func counterValue(t *testing.T, m metricdata.Metrics, key attribute.Key, value string) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(key); ok && v.AsString() == value {
			return dp.Value
		}
	}
	return 0
}

func TestNewCreditMetrics_NilMeter(t *testing.T) {
	m, err := telemetry.NewCreditMetrics(nil)
	assert.Nil(t, m)
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
}

func TestCreditMetrics_RecordCheck(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordCheck(ctx, "APPROVED")
	m.RecordCheck(ctx, "BLOCKED")
	m.RecordCheck(ctx, "BLOCKED")

	metrics := collect(t, reader)
	checks := metrics["credit_checks_total"]
	assert.Equal(t, int64(1), counterValue(t, checks, telemetry.AttrResult, "APPROVED"))
	assert.Equal(t, int64(2), counterValue(t, checks, telemetry.AttrResult, "BLOCKED"))
}

func TestCreditMetrics_HoldsAndAlerts(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordHoldPlaced(ctx, "CREDIT_LIMIT_EXCEEDED", true)
	m.RecordHoldReleased(ctx, "CREDIT_LIMIT_EXCEEDED", true)
	m.RecordAlert(ctx, "LIMIT_EXCEEDED", "CRITICAL")
	m.RecordConflict(ctx, "invoice_created")

	metrics := collect(t, reader)
	assert.Equal(t, int64(1), counterValue(t, metrics["credit_holds_placed_total"], telemetry.AttrHoldType, "CREDIT_LIMIT_EXCEEDED"))
	assert.Equal(t, int64(1), counterValue(t, metrics["credit_holds_released_total"], telemetry.AttrHoldType, "CREDIT_LIMIT_EXCEEDED"))
	assert.Equal(t, int64(1), counterValue(t, metrics["credit_alerts_total"], telemetry.AttrAlertType, "LIMIT_EXCEEDED"))
	assert.Equal(t, int64(1), counterValue(t, metrics["credit_version_conflicts_total"], telemetry.AttrOperation, "invoice_created"))
}

func TestCreditMetrics_RecordIntake(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordIntake(ctx, "payment_received", 20*time.Millisecond, nil)
	m.RecordIntake(ctx, "payment_received", 30*time.Millisecond, errors.New("boom"))

	metrics := collect(t, reader)
	hist, ok := metrics["credit_intake_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)

	var total uint64
	outcomes := map[string]bool{}
	for _, dp := range hist.DataPoints {
		total += dp.Count
		v, _ := dp.Attributes.Value(telemetry.AttrOutcome)
		outcomes[v.AsString()] = true
	}
	assert.Equal(t, uint64(2), total)
	assert.True(t, outcomes["ok"])
	assert.True(t, outcomes["error"])
}

func TestNewNoopCreditMetrics(t *testing.T) {
	m := telemetry.NewNoopCreditMetrics()
	require.NotNil(t, m)

	assert.NotPanics(t, func() {
		m.RecordCheck(context.Background(), "WARNING")
		m.RecordIntake(context.Background(), "order_placed", time.Millisecond, nil)
	})
}

func TestMeterProvider_WithMetricReader(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	cfg := config.TelemetryConfig{Enabled: false, ServiceName: "credit-test"}

	mp, err := telemetry.NewMeterProvider(ctx, cfg, zap.NewNop(), telemetry.WithMetricReader(reader))
	require.NoError(t, err)
	t.Cleanup(func() { _ = mp.Shutdown(ctx) })

	m, err := telemetry.NewCreditMetrics(mp.Meter("credit"))
	require.NoError(t, err)
	m.RecordCheck(ctx, "BLOCKED")

	metrics := collect(t, reader)
	assert.Equal(t, int64(1), counterValue(t, metrics["credit_checks_total"], telemetry.AttrResult, "BLOCKED"))
}
