package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	appOrder "github.com/Zhima-Mochi/orderflow/internal/application/order"
	"github.com/Zhima-Mochi/orderflow/internal/config"
	"github.com/Zhima-Mochi/orderflow/internal/infrastructure/id"
	"github.com/Zhima-Mochi/orderflow/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/orderflow/internal/infrastructure/notification"
	"github.com/Zhima-Mochi/orderflow/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/orderflow/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/orderflow/internal/infrastructure/observability/telemetry"
	"github.com/Zhima-Mochi/orderflow/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/orderflow/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/orderflow/internal/infrastructure/resilient"
	"github.com/Zhima-Mochi/orderflow/internal/observability"
	httppresentation "github.com/Zhima-Mochi/orderflow/internal/presentation/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	baseLogger := zaplogger.New(
		observability.F("service", cfg.ServiceName),
		observability.F("env", cfg.Env),
	)
	if syncer, ok := baseLogger.(interface{ Sync() error }); ok {
		defer func() { _ = syncer.Sync() }()
	}

	reg := prometrics.New(cfg.ServiceName)
	counters := map[observability.MetricKey]observability.Counter{
		observability.MWorkflowOps: reg.Counter(string(observability.MWorkflowOps),
			"Total workflow operation invocations.", "operation", "outcome"),
		observability.MPaymentRetries: reg.Counter(string(observability.MPaymentRetries),
			"Retry attempts against the payment dependency.", "operation"),
		observability.MHTTPRequests: reg.Counter(string(observability.MHTTPRequests),
			"Total HTTP requests.", "method", "route", "status"),
		observability.MEventPublishFailed: reg.Counter(string(observability.MEventPublishFailed),
			"Count of order event publish failures.", "event"),
	}
	histograms := map[observability.MetricKey]observability.Histogram{
		observability.MWorkflowOpDuration: reg.Histogram(string(observability.MWorkflowOpDuration),
			"Duration of workflow operations in seconds.", nil, "operation"),
		observability.MHTTPRequestLatency: reg.Histogram(string(observability.MHTTPRequestLatency),
			"Duration of HTTP requests in seconds.", nil, "method", "route"),
	}
	tel := telemetry.New(oteltrace.New(cfg.ServiceName), baseLogger, counters, histograms)

	trail := resilient.NewAuditTrail()
	conn := resilient.NewConnection()
	exec := resilient.NewExecutor(conn, resilient.Config{
		MaxAttempts:   cfg.RetryMaxAttempts,
		RetryDelay:    cfg.RetryDelay,
		AutoReconnect: cfg.AutoReconnect,
	}, baseLogger, counters[observability.MPaymentRetries])

	orderRepo := memory.NewOrderRepository()
	stockLedger := memory.NewStockLedger()
	paymentLedger := memory.NewPaymentLedger(trail)

	bus := outbox.NewBus(baseLogger)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	notifier := notification.New(bus, baseLogger)
	notifier.Start()

	workflow := appOrder.NewService(
		orderRepo,
		stockLedger,
		paymentLedger,
		exec,
		id.NewUUIDGenerator(),
		bus,
		tel,
	)

	handler := httppresentation.NewHandler(workflow, stockLedger, trail, conn, tel)
	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("http_server_start", observability.F("addr", server.Addr))
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Error("http_server_error", observability.F("error", err.Error()))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("http_server_shutdown_error", observability.F("error", err.Error()))
	} else {
		baseLogger.Info("http_server_stopped")
	}
}
