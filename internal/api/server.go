// Package api serves the latest generated report over a small
// read-only HTTP interface.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"repairindex/normalize"
	"repairindex/report"
)

// Server exposes the report written by the pipeline. The report file
// is re-read per request so a finished run is visible without a
// restart.
type Server struct {
	reportPath string
	logger     *slog.Logger
}

// NewServer builds a server over the report at reportPath.
func NewServer(reportPath string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{reportPath: reportPath, logger: logger}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/health", s.handleHealth)

	v1 := router.Group("/api/v1")
	v1.GET("/report", s.handleReport)
	v1.GET("/devices/:name", s.handleDevice)

	return router
}

// Run serves the API until the listener fails.
func (s *Server) Run(addr string) error {
	s.logger.Info("api listening", "addr", addr)
	return s.Router().Run(addr)
}

// requestLogger tags every request with an id and logs its outcome.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		s.logger.Info("request handled",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestID,
		)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	status := gin.H{"status": "ok"}
	if _, err := os.Stat(s.reportPath); err != nil {
		status["report"] = "missing"
	} else {
		status["report"] = "available"
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) handleReport(c *gin.Context) {
	entries, err := s.loadReport()
	if err != nil {
		s.replyLoadError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) handleDevice(c *gin.Context) {
	entries, err := s.loadReport()
	if err != nil {
		s.replyLoadError(c, err)
		return
	}

	wanted := normalize.Key(c.Param("name"))
	for _, entry := range entries {
		if normalize.Key(entry.Name) == wanted {
			c.JSON(http.StatusOK, entry)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
}

func (s *Server) loadReport() ([]report.Entry, error) {
	raw, err := os.ReadFile(s.reportPath)
	if err != nil {
		return nil, fmt.Errorf("read report file: %w", err)
	}
	var entries []report.Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode report file: %w", err)
	}
	return entries, nil
}

func (s *Server) replyLoadError(c *gin.Context, err error) {
	if errors.Is(err, os.ErrNotExist) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no report generated yet"})
		return
	}
	s.logger.Error("report load failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "report unavailable"})
}
