package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erp/fulfillment/internal/application/authz"
	eventapp "github.com/erp/fulfillment/internal/application/event"
	invapp "github.com/erp/fulfillment/internal/application/inventory"
	tradeapp "github.com/erp/fulfillment/internal/application/trade"
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/erp/fulfillment/internal/infrastructure/auth"
	"github.com/erp/fulfillment/internal/infrastructure/cache"
	"github.com/erp/fulfillment/internal/infrastructure/config"
	"github.com/erp/fulfillment/internal/infrastructure/event"
	"github.com/erp/fulfillment/internal/infrastructure/logger"
	"github.com/erp/fulfillment/internal/infrastructure/persistence"
	"github.com/erp/fulfillment/internal/infrastructure/telemetry"
	"github.com/erp/fulfillment/internal/interfaces/http/handler"
	"github.com/erp/fulfillment/internal/interfaces/http/middleware"
	"github.com/erp/fulfillment/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const meterName = "github.com/erp/fulfillment"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()
	otelCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}

	// Rebuild the logger so every entry is also exported over OTLP
	logsCfg := otelCfg
	logsCfg.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.LogExportEnabled
	logProvider, err := telemetry.NewLoggerProvider(ctx, logsCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	if logProvider.IsEnabled() {
		log, err = logger.New(logCfg, logger.WithCore(logProvider.Core(logger.ParseLevel(cfg.Log.Level))))
		if err != nil {
			panic("Failed to initialize logger: " + err.Error())
		}
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting fulfillment service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, otelCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, otelCfg, cfg.Telemetry.MetricsInterval, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.ProfilingServer,
		ApplicationName: cfg.Telemetry.ServiceName,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}
	defer shutdownTelemetry(log, tracerProvider, meterProvider, logProvider, profiler)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), logger.WithSlowThreshold(cfg.Database.SlowQuery))
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:            cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:         cfg.Telemetry.DBLogFullSQL,
		SlowQueryThreshold: cfg.Database.SlowQuery,
		DBName:             cfg.Database.DBName,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	if err := telemetry.RegisterDBMetrics(db.DB, meterProvider, cfg.Database.SlowQuery, log); err != nil {
		log.Fatal("Failed to register database metrics", zap.Error(err))
	}

	caches := cache.NewFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.Idempotency.RequireRedis),
	)
	defer func() {
		if err := caches.Close(); err != nil {
			log.Error("Error closing Redis client", zap.Error(err))
		}
	}()

	// Events recorded inside a transaction land in the outbox with it
	serializer := event.NewRegisteredSerializer()
	outboxPublisher := event.NewOutboxPublisher(serializer, event.WithMaxRetries(cfg.Event.MaxRetries))
	outboxRepo := event.NewGormOutboxRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB, outboxPublisher.Recorder)

	authorizer := authz.NewContextAuthorizer()
	stockRepo := persistence.NewGormStockLineRepository(db.DB)
	orderRepo := persistence.NewGormSalesOrderRepository(db.DB)
	returnRepo := persistence.NewGormExpectedReturnRepository(db.DB)

	stockService := invapp.NewStockService(stockRepo, persistence.NewGormStockLedger(db.DB), txScope.Inventory(), authorizer, log)
	fulfillmentService := tradeapp.NewFulfillmentService(orderRepo, returnRepo, txScope.Trade(), authorizer, log)
	expectedReturnService := tradeapp.NewExpectedReturnService(returnRepo, txScope.Trade(), authorizer, log)
	outboxService := eventapp.NewOutboxService(outboxRepo, authorizer, log)

	var stockCache invapp.StockCache
	if cfg.StockCache.Enabled {
		stockCache = caches.StockCache(cfg.StockCache.TTL)
		stockService.WithCache(stockCache)
		fulfillmentService.WithStockCache(stockCache)
		expectedReturnService.WithStockCache(stockCache)
	}

	eventBus := event.NewInMemoryEventBus(log)
	if err := subscribeHandlers(eventBus, meterProvider, caches, stockCache, db, cfg, log); err != nil {
		log.Fatal("Failed to register event handlers", zap.Error(err))
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	if cfg.Event.ProcessorEnabled {
		processorCfg := event.DefaultOutboxProcessorConfig()
		processorCfg.BatchSize = cfg.Event.BatchSize
		processorCfg.PollInterval = cfg.Event.PollInterval
		processorCfg.CleanupEnabled = cfg.Event.CleanupEnabled
		processorCfg.CleanupRetention = cfg.Event.CleanupRetention
		processorCfg.CleanupInterval = cfg.Event.CleanupInterval
		processorCfg.StaleAfter = cfg.Event.StaleAfter

		processor := event.NewOutboxProcessor(outboxRepo, eventBus, serializer, processorCfg, log)
		if err := processor.Start(ctx); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := processor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
		log.Info("Outbox processor started",
			zap.Int("batch_size", processorCfg.BatchSize),
			zap.Duration("poll_interval", processorCfg.PollInterval),
		)
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to set up request validation", zap.Error(err))
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Order matters: request id first so every later layer can log it,
	// tracing before the access log so the log line carries the trace id
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled)...)
	engine.Use(middleware.HTTPMetrics(meterProvider, log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, db, map[string]handler.Pinger{
		"redis": caches,
	})
	router.RegisterHealthRoutes(engine, systemHandler)

	jwtService := auth.NewJWTService(cfg.JWT)
	jwtAuth := middleware.JWTAuth(middleware.JWTMiddlewareConfig{
		Validator:   jwtService,
		Revocations: caches.Revocations(),
		Logger:      log,
	})

	var idempotency gin.HandlerFunc
	if cfg.Idempotency.Enabled {
		store, err := caches.IdempotencyStore(cache.HTTPIdempotencyPrefix)
		if err != nil {
			log.Fatal("Failed to create idempotency store", zap.Error(err))
		}
		idempotency = middleware.Idempotency(store, cfg.Idempotency.TTL, log)
	}

	r := router.NewRouter(engine,
		router.WithAPIVersion("v1"),
		router.WithMiddleware(jwtAuth, middleware.Profiling(profiler.IsEnabled())),
	)
	r.Register(router.FulfillmentGroups(router.Handlers{
		Orders:          handler.NewOrderHandler(fulfillmentService, expectedReturnService),
		Stock:           handler.NewStockHandler(stockService),
		ExpectedReturns: handler.NewExpectedReturnHandler(expectedReturnService),
		Outbox:          handler.NewOutboxHandler(outboxService),
		System:          systemHandler,
	}, idempotency)...)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// subscribeHandlers registers the outbox consumers. Each handler is wrapped
// so a redelivered event is applied once.
func subscribeHandlers(bus *event.InMemoryEventBus, mp *telemetry.MeterProvider, caches *cache.Factory, stockCache invapp.StockCache, db *persistence.Database, cfg *config.Config, log *zap.Logger) error {
	meter := mp.Meter(meterName)
	metrics, err := telemetry.NewFulfillmentMetrics(meter)
	if err != nil {
		return err
	}
	if err := telemetry.RegisterStockGauges(meter, telemetry.NewGormStockLevelProvider(db.DB), log); err != nil {
		return err
	}

	handlers := eventHandlers(metrics, stockCache, log)

	store, err := caches.IdempotencyStore(cache.EventIdempotencyPrefix)
	if err != nil {
		return err
	}
	wrapped := event.WrapHandlersWithIdempotency(handlers, store, log,
		event.WithIdempotencyConfig(shared.IdempotencyConfig{
			TTL:     cfg.Idempotency.HandlerKeyWindow,
			Enabled: cfg.Idempotency.Enabled,
		}),
	)
	for _, h := range wrapped {
		bus.Subscribe(h)
		log.Info("Event handler registered", zap.Strings("event_types", h.EventTypes()))
	}
	return nil
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

func shutdownTelemetry(log *zap.Logger, tp, mp, lp shutdowner, profiler *telemetry.Profiler) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := profiler.Stop(); err != nil {
		log.Warn("Error stopping profiler", zap.Error(err))
	}
	for name, p := range map[string]shutdowner{"traces": tp, "metrics": mp, "logs": lp} {
		if err := p.Shutdown(ctx); err != nil {
			log.Warn("Error flushing telemetry", zap.String("signal", name), zap.Error(err))
		}
	}
}

// eventHandlers lists the outbox consumers. Stock snapshots are also dropped
// after each commit; the delivered event repairs one a concurrent read put
// back with stale counters.
func eventHandlers(recorder tradeapp.TransitionRecorder, stockCache invapp.StockCache, log *zap.Logger) []shared.EventHandler {
	handlers := []shared.EventHandler{
		tradeapp.NewFulfillmentMetricsHandler(recorder),
	}
	if stockCache != nil {
		handlers = append(handlers, invapp.NewStockCacheInvalidationHandler(stockCache, log.Named("stock-cache")))
	}
	return handlers
}
