package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	creditapp "github.com/erp/credit/internal/application/credit"
	"github.com/erp/credit/internal/domain/shared"
	"github.com/erp/credit/internal/domain/shared/valueobject"
	"github.com/erp/credit/internal/infrastructure/cache"
	"github.com/erp/credit/internal/infrastructure/config"
	"github.com/erp/credit/internal/infrastructure/event"
	"github.com/erp/credit/internal/infrastructure/logger"
	"github.com/erp/credit/internal/infrastructure/migration"
	"github.com/erp/credit/internal/infrastructure/persistence"
	"github.com/erp/credit/internal/infrastructure/telemetry"
	"github.com/erp/credit/internal/interfaces/http/handler"
	"github.com/erp/credit/internal/interfaces/http/middleware"
	"github.com/erp/credit/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}

	baseLog, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize logger:", err)
		os.Exit(1)
	}
	defer func() { _ = baseLog.Sync() }()

	if err := run(cfg, baseLog); err != nil {
		baseLog.Error("Server stopped with error", zap.Error(err))
		_ = baseLog.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, baseLog *zap.Logger) error {
	ctx := context.Background()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, baseLog)
	if err != nil {
		return err
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, baseLog)
	if err != nil {
		return err
	}
	logProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, baseLog)
	if err != nil {
		return err
	}
	defer shutdownTelemetry(baseLog, tracerProvider, meterProvider, logProvider)

	log := logProvider.Bridge(baseLog, cfg.Telemetry.ServiceName)
	log.Info("Starting credit core",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
		zap.String("database_driver", cfg.Database.Driver),
	)

	db, err := openDatabase(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	creditMetrics, err := telemetry.NewCreditMetrics(meterProvider.Meter("credit"))
	if err != nil {
		return fmt.Errorf("failed to create credit metrics: %w", err)
	}

	creditService := creditapp.NewCreditService(
		persistence.NewGormTransactionScope(db.DB),
		persistence.NewRepositories(db.DB),
		creditConfig(cfg.Credit, log),
		log,
	)
	creditService.SetCreditMetrics(creditMetrics)

	eventBus := event.NewInMemoryEventBus(log)
	creditService.SetEventPublisher(eventBus)

	serializer := event.NewEventSerializer()
	event.RegisterIntakeEvents(serializer)

	store, err := newIdempotencyStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	for _, h := range event.WrapHandlersWithIdempotency(
		creditapp.IntakeHandlers(creditService, log),
		store,
		log,
		event.WithIdempotencyConfig(shared.IdempotencyConfig{
			TTL:     cfg.Event.IdempotencyTTL,
			Enabled: cfg.Event.IdempotencyEnabled,
		}),
	) {
		eventBus.Subscribe(h)
	}
	if err := eventBus.Start(ctx); err != nil {
		return fmt.Errorf("failed to start event bus: %w", err)
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	engine, err := newEngine(cfg, log, meterProvider)
	if err != nil {
		return err
	}
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, sqlDB)
	engine.GET("/health", systemHandler.Health)

	r := router.NewRouter(engine)
	r.Register(router.NewCreditRoutes(
		handler.NewCreditHandler(creditService),
		handler.NewIntakeHandler(creditService, serializer, eventBus),
	)).Register(router.NewSystemRoutes(systemHandler))
	r.Setup()
	for _, route := range r.Routes() {
		log.Debug("route registered", zap.String("method", route.Method), zap.String("path", route.Path))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("Shutting down server...", zap.String("signal", sig.String()))
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	busCtx, busCancel := context.WithTimeout(context.Background(), cfg.Event.ShutdownTimeout)
	defer busCancel()
	if err := eventBus.Stop(busCtx); err != nil {
		log.Warn("Event bus did not drain before timeout", zap.Error(err))
	}

	log.Info("Server exited gracefully")
	return nil
}

// openDatabase connects, installs tracing and brings the schema up to date.
// Postgres uses the SQL migrations; sqlite is created from the models.
func openDatabase(cfg *config.Config, log *zap.Logger) (*persistence.Database, error) {
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
	)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithGormLogger(gormLog))
	if err != nil {
		return nil, err
	}
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	if err := telemetry.RegisterDBTracing(db.DB, cfg.Telemetry, log); err != nil {
		_ = db.Close()
		return nil, err
	}

	switch cfg.Database.Driver {
	case "postgres":
		sqlDB, err := db.DB.DB()
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		m, err := migration.New(sqlDB, log)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		if err := m.Up(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
	default:
		if err := db.AutoMigrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}

func newIdempotencyStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (shared.IdempotencyStore, error) {
	factory := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.Event.RedisFallback),
	)
	return factory.CreateStore(ctx, cfg.Event.UseRedis)
}

func newEngine(cfg *config.Config, log *zap.Logger, meterProvider *telemetry.MeterProvider) (*gin.Engine, error) {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.SpanAttributes(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.HTTPMetrics(meterProvider.Meter("http.server")),
		middleware.Secure(),
		middleware.CORS(middleware.DefaultCORSConfig()),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)
	return engine, nil
}

// creditConfig maps the credit settings onto the service policy
func creditConfig(c config.CreditConfig, log *zap.Logger) creditapp.Config {
	svcCfg := creditapp.DefaultConfig()
	if currency, err := valueobject.ParseCurrency(c.DefaultCurrency); err == nil {
		svcCfg.DefaultCurrency = currency
	} else {
		log.Warn("Unsupported default currency, using fallback",
			zap.String("configured", c.DefaultCurrency),
			zap.String("fallback", svcCfg.DefaultCurrency.String()),
		)
	}
	svcCfg.DefaultHoldThresholdPercent = c.DefaultHoldThresholdPercent
	svcCfg.ApproachingLimitPercent = c.ApproachingLimitPercent
	svcCfg.MaxRetries = c.MaxRetries
	return svcCfg
}

func shutdownTelemetry(log *zap.Logger, tp *telemetry.TracerProvider, mp *telemetry.MeterProvider, lp *telemetry.LoggerProvider) {
	ctx := context.Background()
	if err := lp.Shutdown(ctx); err != nil {
		log.Warn("Failed to shut down log provider", zap.Error(err))
	}
	if err := mp.Shutdown(ctx); err != nil {
		log.Warn("Failed to shut down meter provider", zap.Error(err))
	}
	if err := tp.Shutdown(ctx); err != nil {
		log.Warn("Failed to shut down tracer provider", zap.Error(err))
	}
}
