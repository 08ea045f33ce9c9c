package main

import (
	"context"
	"fmt"

	appcart "github.com/Zhima-Mochi/notafiscal-console/internal/application/cart"
	appcatalog "github.com/Zhima-Mochi/notafiscal-console/internal/application/catalog"
	appinvoice "github.com/Zhima-Mochi/notafiscal-console/internal/application/invoice"
	appnotification "github.com/Zhima-Mochi/notafiscal-console/internal/application/notification"
	"github.com/Zhima-Mochi/notafiscal-console/internal/config"
	domoutbox "github.com/Zhima-Mochi/notafiscal-console/internal/domain/outbox"
	httpgateway "github.com/Zhima-Mochi/notafiscal-console/internal/infrastructure/http"
	"github.com/Zhima-Mochi/notafiscal-console/internal/infrastructure/memory"
	infraobs "github.com/Zhima-Mochi/notafiscal-console/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/notafiscal-console/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/notafiscal-console/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/notafiscal-console/internal/infrastructure/observability/telemetry"
	"github.com/Zhima-Mochi/notafiscal-console/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/notafiscal-console/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/notafiscal-console/internal/infrastructure/pdf"
	"github.com/Zhima-Mochi/notafiscal-console/internal/observability"
	"github.com/Zhima-Mochi/notafiscal-console/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/notafiscal-console/internal/presentation/http"
	clipresentation "github.com/Zhima-Mochi/notafiscal-console/internal/presentation/cli"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const metricsNamespace = "notafiscal"

func buildRuntime(ctx context.Context, cfg *config.Config) (*clipresentation.Runtime, error) {
	baseLogger, err := logging.NewLogger(logging.Options{
		Service:  cfg.Server.ServiceName,
		Env:      cfg.Server.Env,
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		File:     cfg.Logger.File,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	zap.ReplaceGlobals(baseLogger)
	systemLogger := zaplogger.Wrap(logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID))

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName: cfg.Server.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
	})
	if err != nil {
		_ = baseLogger.Sync()
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	counters, histograms := prometrics.Standard(prometrics.New(metricsNamespace, "", registry))

	logger := zaplogger.Wrap(baseLogger)
	tel := infraobs.New(oteltrace.New(cfg.Server.ServiceName), logger, counters, histograms)
	// Gateway spans are client spans so backends show up as peers.
	gatewayTel := infraobs.New(
		oteltrace.FromProvider(otel.GetTracerProvider(), cfg.Server.ServiceName, trace.SpanKindClient),
		logger, counters, histograms,
	)

	var bus domoutbox.Bus = outbox.NewBus(systemLogger,
		outbox.WithQueueSize(cfg.Notifications.QueueSize),
		outbox.WithConcurrency(cfg.Notifications.HandlerConcurrency),
		outbox.WithHandlerTimeout(cfg.Notifications.HandlerTimeout),
	)
	feed := appnotification.NewFeed(cfg.Notifications.FeedSize)
	appnotification.NewWorker(bus, feed, tel).Start()
	bus.Start(context.Background())
	sink := appnotification.NewService(bus, tel.Logger())

	gatewayOpts := func(baseURL string) httpgateway.Options {
		return httpgateway.Options{BaseURL: baseURL, Timeout: cfg.Gateway.Timeout}
	}
	stock := httpgateway.NewStockClient(gatewayOpts(cfg.Gateway.StockURL), gatewayTel)
	billing := httpgateway.NewBillingClient(gatewayOpts(cfg.Gateway.BillingURL), gatewayTel)

	var printer appinvoice.Printer
	if cfg.Printer.Dir != "" {
		printer = pdf.NewPrinter(cfg.Printer.Dir)
	}

	catalog := appcatalog.NewStore(memory.NewCatalogRepository(), stock, sink, tel)
	cart := appcart.NewAggregator(memory.NewCartRepository(), catalog, sink, tel)
	invoices := appinvoice.NewWorkflow(memory.NewInvoiceRepository(), billing, cart, printer, sink, tel)

	handler := httppresentation.NewHandler(cfg.Server.ServiceName, httppresentation.Deps{
		Catalog:  catalog,
		Cart:     cart,
		Invoices: invoices,
		Feed:     feed,
		Gatherer: registry,
	}, tel)

	systemLogger.Info("console_wired",
		observability.F("stock_url", cfg.Gateway.StockURL),
		observability.F("billing_url", cfg.Gateway.BillingURL),
		observability.F("print_dir", cfg.Printer.Dir),
	)

	return &clipresentation.Runtime{
		Config:   cfg,
		Catalog:  catalog,
		Cart:     cart,
		Invoices: invoices,
		Feed:     feed,
		Handler:  handler.Router(),
		Logger:   tel.Logger(),
		Close: func(ctx context.Context) {
			bus.Stop(ctx)
			if err := shutdownTracing(ctx); err != nil {
				systemLogger.Warn("telemetry_shutdown_failed", observability.Err(err))
			}
			_ = baseLogger.Sync()
		},
	}, nil
}
