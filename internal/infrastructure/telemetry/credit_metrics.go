package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// ErrMeterNil is returned when NewCreditMetrics gets no meter.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// Attribute keys shared by the credit instruments.
var (
	AttrResult    = attribute.Key("result")
	AttrHoldType  = attribute.Key("hold_type")
	AttrAutomatic = attribute.Key("automatic")
	AttrAlertType = attribute.Key("alert_type")
	AttrSeverity  = attribute.Key("severity")
	AttrOperation = attribute.Key("operation")
	AttrOutcome   = attribute.Key("outcome")
)

// CreditMetrics holds the instruments recorded by the credit service.
type CreditMetrics struct {
	checks        *Counter
	holdsPlaced   *Counter
	holdsReleased *Counter
	alerts        *Counter
	conflicts     *Counter
	intake        *Histogram
}

// NewCreditMetrics registers the credit instruments on meter.
func NewCreditMetrics(meter metric.Meter) (*CreditMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &CreditMetrics{}
	var err error

	if m.checks, err = NewCounter(meter, "credit_checks_total",
		"Credit checks evaluated, by result", "{checks}"); err != nil {
		return nil, err
	}
	if m.holdsPlaced, err = NewCounter(meter, "credit_holds_placed_total",
		"Credit holds placed, by type", "{holds}"); err != nil {
		return nil, err
	}
	if m.holdsReleased, err = NewCounter(meter, "credit_holds_released_total",
		"Credit holds released, by type", "{holds}"); err != nil {
		return nil, err
	}
	if m.alerts, err = NewCounter(meter, "credit_alerts_total",
		"Credit alerts emitted, by type and severity", "{alerts}"); err != nil {
		return nil, err
	}
	if m.conflicts, err = NewCounter(meter, "credit_version_conflicts_total",
		"Optimistic lock conflicts hit while saving a profile", "{conflicts}"); err != nil {
		return nil, err
	}
	if m.intake, err = NewHistogram(meter, "credit_intake_duration_seconds",
		"Latency of credit intake operations", "s", IntakeDurationBuckets); err != nil {
		return nil, err
	}

	return m, nil
}

// NewNoopCreditMetrics returns instruments backed by the no-op meter.
func NewNoopCreditMetrics() *CreditMetrics {
	m, _ := NewCreditMetrics(noop.NewMeterProvider().Meter("credit"))
	return m
}

// RecordCheck counts one credit check decision.
func (m *CreditMetrics) RecordCheck(ctx context.Context, result string) {
	m.checks.Inc(ctx, AttrResult.String(result))
}

// RecordHoldPlaced counts a placed hold.
func (m *CreditMetrics) RecordHoldPlaced(ctx context.Context, holdType string, automatic bool) {
	m.holdsPlaced.Inc(ctx, AttrHoldType.String(holdType), AttrAutomatic.Bool(automatic))
}

// RecordHoldReleased counts a released hold.
func (m *CreditMetrics) RecordHoldReleased(ctx context.Context, holdType string, automatic bool) {
	m.holdsReleased.Inc(ctx, AttrHoldType.String(holdType), AttrAutomatic.Bool(automatic))
}

// RecordAlert counts an emitted alert.
func (m *CreditMetrics) RecordAlert(ctx context.Context, alertType, severity string) {
	m.alerts.Inc(ctx, AttrAlertType.String(alertType), AttrSeverity.String(severity))
}

// RecordConflict counts a version conflict that triggered a retry.
func (m *CreditMetrics) RecordConflict(ctx context.Context, operation string) {
	m.conflicts.Inc(ctx, AttrOperation.String(operation))
}

// RecordIntake records the latency of one intake operation.
func (m *CreditMetrics) RecordIntake(ctx context.Context, operation string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.intake.RecordDuration(ctx, d, AttrOperation.String(operation), AttrOutcome.String(outcome))
}
