package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/salon-booking-web/internal/api/router"
	"github.com/wolfman30/salon-booking-web/internal/app/bootstrap"
	appconfig "github.com/wolfman30/salon-booking-web/internal/config"
	"github.com/wolfman30/salon-booking-web/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/salon-booking-web/internal/http/middleware"
	"github.com/wolfman30/salon-booking-web/internal/observability/metrics"
	"github.com/wolfman30/salon-booking-web/internal/visitor"
	"github.com/wolfman30/salon-booking-web/pkg/logging"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting salon booking web server",
		"env", cfg.Env,
		"port", cfg.Port,
		"salon_api", cfg.SalonAPIBaseURL,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	bookingMetrics := metrics.NewBookingMetrics(registry)

	store := bootstrap.VisitorStore(ctx, cfg, logger)
	defer store.Close()

	signer, err := bootstrap.VisitorSigner(cfg, logger)
	if err != nil {
		logger.Error("failed to build visitor signer", "error", err)
		os.Exit(1)
	}

	visitors := visitor.NewRegistry(
		bootstrap.NewVisitorFactory(cfg, bookingMetrics, logger),
		store,
		cfg.VisitorIdleTimeout,
		logger,
	)
	go visitors.Run(ctx)

	var limiter *httpmiddleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		go limiter.Run(ctx)
	}

	// Setup router
	r := router.New(&router.Config{
		Logger:             logger,
		App:                handlers.NewAppHandler(visitors, logger),
		Visitors:           signer,
		SecureCookies:      cfg.IsProduction(),
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
	})

	// No WriteTimeout: the calendar stream is a long-lived connection.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}
