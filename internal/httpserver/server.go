package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/auth0/go-jwks-cache/internal/config"
	"github.com/auth0/go-jwks-cache/jwks"
)

// KeyCache is the part of *jwks.Cache the server needs.
type KeyCache interface {
	Get(ctx context.Context) (jwk.Set, error)
	Invalidate()
	Snapshot() jwks.Entry
}

type Server struct {
	echo   *echo.Echo
	config *config.ServerConfig
	cache  KeyCache
	logger *logrus.Logger
	now    func() time.Time
}

// NewServer wires the routes. gatherer backs /metrics.
func NewServer(serverConfig *config.ServerConfig, cache KeyCache, gatherer prometheus.Gatherer, logger *logrus.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:   e,
		config: serverConfig,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}

	e.Use(s.requestLogging())

	e.GET("/.well-known/jwks.json", s.getKeys)
	e.POST("/invalidate", s.invalidateKeys)
	e.GET("/healthz", s.healthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.Host, s.config.Port)

	server := &http.Server{
		Addr:         addr,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Infof("Starting HTTP server on %s", addr)
	return s.echo.StartServer(server)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) requestLogging() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s.logger.WithFields(logrus.Fields{"method": c.Request().Method, "path": c.Path()}).Debug("incoming request")
			return next(c)
		}
	}
}

// getKeys serves the cached key set, refreshing it first if needed. The
// response may be cached downstream for as long as the entry stays fresh.
func (s *Server) getKeys(c echo.Context) error {
	set, err := s.cache.Get(c.Request().Context())
	if err != nil {
		s.logger.WithError(err).Warn("could not serve JWKS")
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "upstream JWKS unavailable"})
	}

	if entry := s.cache.Snapshot(); entry.Present() {
		if remaining := entry.ExpiresAt.Sub(s.now()); remaining >= time.Second {
			c.Response().Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int64(remaining/time.Second)))
		}
	}

	return c.JSON(http.StatusOK, set)
}

func (s *Server) invalidateKeys(c echo.Context) error {
	s.cache.Invalidate()
	s.logger.Info("JWKS cache invalidated")
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) healthCheck(c echo.Context) error {
	entry := s.cache.Snapshot()
	now := s.now()

	cache := "empty"
	switch {
	case entry.Fresh(now):
		cache = "fresh"
	case entry.Present():
		cache = "stale"
	}

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": now.UTC().Format(time.RFC3339),
		"service":   "jwkscache",
		"cache":     cache,
	}
	if entry.Present() {
		health["keys"] = entry.Set.Len()
		health["expires_at"] = entry.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return c.JSON(http.StatusOK, health)
}
