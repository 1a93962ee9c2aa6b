package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/erp/credit/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type contextKey string

const queryStartTimeKey contextKey = "otel_query_start_time"

// RegisterDBTracing installs the otelgorm plugin plus a slow-query marker on db.
// It is a no-op unless both telemetry and DB tracing are enabled.
func RegisterDBTracing(db *gorm.DB, cfg config.TelemetryConfig, logger *zap.Logger) error {
	if !cfg.Enabled || !cfg.DBTraceEnabled {
		return nil
	}

	plugin := otelgorm.NewPlugin(
		otelgorm.WithDBName(db.Dialector.Name()),
		otelgorm.WithoutQueryVariables(),
	)
	if err := db.Use(plugin); err != nil {
		return err
	}

	marker := &slowQueryMarker{threshold: cfg.DBSlowQueryThresh}
	if err := marker.register(db); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.String("dialect", db.Dialector.Name()),
		zap.Duration("slow_query_threshold", cfg.DBSlowQueryThresh),
	)
	return nil
}

// slowQueryMarker flags spans of statements slower than threshold.
type slowQueryMarker struct {
	threshold time.Duration
}

func (m *slowQueryMarker) before(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartTimeKey, time.Now())
	}
}

func (m *slowQueryMarker) after(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.RecordError(db.Error)
	}

	start, ok := ctx.Value(queryStartTimeKey).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > m.threshold {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
}

func (m *slowQueryMarker) register(db *gorm.DB) error {
	cb := db.Callback()
	if err := cb.Create().Before("gorm:create").Register("credit_timing:before_create", m.before); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("credit_timing:after_create", m.after); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("credit_timing:before_query", m.before); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("credit_timing:after_query", m.after); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("credit_timing:before_update", m.before); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("credit_timing:after_update", m.after); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("credit_timing:before_row", m.before); err != nil {
		return err
	}
	if err := cb.Row().After("gorm:row").Register("credit_timing:after_row", m.after); err != nil {
		return err
	}
	if err := cb.Raw().Before("gorm:raw").Register("credit_timing:before_raw", m.before); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register("credit_timing:after_raw", m.after)
}
