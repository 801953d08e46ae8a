// Package server exposes the monitoring engine over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"sentinela/internal/config"
	"sentinela/internal/logger"
	"sentinela/internal/monitor"
)

// Server serves the engine state over HTTP.
type Server struct {
	cfg     config.Server
	monitor *monitor.Monitor
	http    *http.Server
}

// New creates a server over the running monitor.
func New(cfg config.Server, m *monitor.Monitor) *Server {
	return &Server{cfg: cfg, monitor: m}
}

// Handler builds the API router.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = s.cfg.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	api := router.Group("/api")
	{
		api.GET("/health", s.health)
		api.GET("/metrics", s.getMetrics)
		api.GET("/trends", s.getTrends)
		api.POST("/refresh", s.refresh)

		api.GET("/alerts", s.getAlerts)
		api.POST("/alerts/:id/read", s.markAlertRead)
		api.POST("/alerts/:id/actioned", s.markAlertActioned)
		api.DELETE("/alerts/:id", s.dismissAlert)
		api.DELETE("/alerts", s.clearAlerts)

		api.GET("/briefing", s.getBriefing)
		api.POST("/briefing/refresh", s.refreshBriefing)
	}
	return router
}

// Run starts the HTTP listener and blocks until it stops.
func (s *Server) Run() error {
	s.http = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("http server listening", "addr", s.cfg.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the listener gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) health(c *gin.Context) {
	snapshot := s.monitor.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"updated_at": snapshot.UpdatedAt,
	})
}

func (s *Server) getMetrics(c *gin.Context) {
	snapshot := s.monitor.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"per_term":   snapshot.PerTerm,
		"global":     snapshot.Global,
		"updated_at": snapshot.UpdatedAt,
	})
}

func (s *Server) getTrends(c *gin.Context) {
	snapshot := s.monitor.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"hourly":   snapshot.Hourly,
		"daily":    snapshot.Daily,
		"external": snapshot.External,
	})
}

// refresh triggers a full analysis cycle synchronously.
func (s *Server) refresh(c *gin.Context) {
	s.monitor.Cycle(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"refreshed": true})
}

func (s *Server) getAlerts(c *gin.Context) {
	engine := s.monitor.Alerts()
	c.JSON(http.StatusOK, gin.H{
		"alerts":       engine.Alerts(),
		"unread_count": engine.UnreadCount(),
		"summary":      engine.Summary(),
	})
}

func (s *Server) markAlertRead(c *gin.Context) {
	s.monitor.Alerts().MarkRead(c.Request.Context(), c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (s *Server) markAlertActioned(c *gin.Context) {
	s.monitor.Alerts().MarkActioned(c.Request.Context(), c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (s *Server) dismissAlert(c *gin.Context) {
	s.monitor.Alerts().Dismiss(c.Request.Context(), c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (s *Server) clearAlerts(c *gin.Context) {
	s.monitor.Alerts().ClearAll(c.Request.Context())
	c.Status(http.StatusNoContent)
}

func (s *Server) getBriefing(c *gin.Context) {
	current := s.monitor.Briefing().Current()
	if current == nil {
		c.JSON(http.StatusOK, gin.H{"briefing": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"briefing": current})
}

func (s *Server) refreshBriefing(c *gin.Context) {
	result, err := s.monitor.Briefing().Refresh(c.Request.Context())
	if err != nil {
		// The fallback result is still usable; surface it with the error.
		c.JSON(http.StatusOK, gin.H{"briefing": result, "degraded": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"briefing": result})
}
