// Package web exposes the quota monitor's HTTP API.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/antigravity-tools/quota-monitor/internal/logger"
	"github.com/antigravity-tools/quota-monitor/internal/models"
)

// QuotaService is the surface the HTTP handlers need. *services.Manager
// satisfies it.
type QuotaService interface {
	Refresh() (*models.QuotaReport, error)
	Invalidate()
	History(since time.Time) ([]models.QuotaSnapshot, error)
}

// Server wraps the gin engine and its listener.
type Server struct {
	engine *gin.Engine
	http   *http.Server
}

// New builds the router with all API routes registered.
func New(addr string, svc QuotaService) *Server {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(accessLog())

	api := r.Group("/api")
	{
		api.GET("/ping", handlePing())
		api.GET("/quota", handleGetQuota(svc))
		api.POST("/quota/invalidate", handleInvalidate(svc))
		api.GET("/history", handleGetHistory(svc))
	}

	return &Server{
		engine: r,
		http: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the underlying http.Handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	logger.Info("http server listening", "addr", s.http.Addr)

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

// accessLog logs one structured line per request.
func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Logger.Desugar().Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client", c.ClientIP()),
		)
	}
}
