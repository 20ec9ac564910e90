package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"github.com/auth0/go-jwks-cache/internal/config"
	"github.com/auth0/go-jwks-cache/internal/httpserver"
	"github.com/auth0/go-jwks-cache/internal/oidc"
	"github.com/auth0/go-jwks-cache/jwks"
	"github.com/auth0/go-jwks-cache/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger := newLogger(cfg.Log)
	logger.Info("Starting JWKS cache...")

	httpClient := &http.Client{Timeout: cfg.JWKS.HTTPTimeout}

	jwksURL, err := cfg.JWKS.JWKSURL()
	if err != nil {
		logger.Fatal("Invalid JWKS URL: ", err)
	}
	issuerURL, err := cfg.JWKS.Issuer()
	if err != nil {
		logger.Fatal("Invalid issuer URL: ", err)
	}
	if issuerURL != nil {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.JWKS.HTTPTimeout)
		jwksURL, err = oidc.DiscoverJWKSURI(ctx, httpClient, issuerURL)
		cancel()
		if err != nil {
			logger.Fatal("OIDC discovery failed: ", err)
		}
		logger.Infof("Discovered JWKS URL %s from issuer %s", jwksURL, issuerURL)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	cache, err := jwks.New(
		jwks.WithURL(jwksURL),
		jwks.WithHTTPClient(httpClient),
		jwks.WithDefaultTTL(cfg.JWKS.DefaultTTL),
		jwks.WithSingleFlight(cfg.JWKS.SingleFlight),
		jwks.WithServeStaleOnError(cfg.JWKS.ServeStale),
		jwks.WithLogger(telemetry.NewLogrusLogger(logger)),
		jwks.WithMetrics(telemetry.NewPrometheusMetrics(registry)),
		jwks.WithTracer(telemetry.NewOpenTelemetryTracer(otel.Tracer("github.com/auth0/go-jwks-cache"))),
	)
	if err != nil {
		logger.Fatal("Failed to build JWKS cache: ", err)
	}

	// Warm the cache; a failure here is retried on the first request.
	warmCtx, cancel := context.WithTimeout(context.Background(), cfg.JWKS.HTTPTimeout)
	if _, err := cache.Get(warmCtx); err != nil {
		logger.WithError(err).Warn("Initial JWKS fetch failed")
	}
	cancel()

	server := httpserver.NewServer(&cfg.Server, cache, registry, logger)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown: ", err)
	}

	logger.Info("Server exited")
}

func newLogger(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}
	return logger
}
