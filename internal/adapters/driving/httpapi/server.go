package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/triagem/internal/core/domain"
)

// Default server values.
const (
	DefaultPort            = 3000
	DefaultShutdownTimeout = 10 * time.Second
	readHeaderTimeout      = 10 * time.Second
)

// Config holds HTTP server configuration.
type Config struct {
	// Port is the listen port. Defaults to DefaultPort.
	Port int

	// Mode is the gin mode (debug, release, test). Empty keeps the current mode.
	Mode string

	// AllowedOrigins are the CORS origins. Empty or "*" allows any origin.
	AllowedOrigins []string

	// ShutdownTimeout bounds the graceful shutdown. Defaults to DefaultShutdownTimeout.
	ShutdownTimeout time.Duration

	// Middleware runs before the routes (e.g. tracing).
	Middleware []gin.HandlerFunc

	// OnReply is called after every successful synchronous reply.
	OnReply func(*domain.Reply)
}

// Server is the HTTP intake server.
type Server struct {
	ports  *Ports
	cfg    Config
	engine *gin.Engine
}

// NewServer creates a new HTTP server with the given ports.
func NewServer(ports *Ports, cfg Config) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}
	if cfg.Port <= 0 {
		cfg.Port = DefaultPort
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	s := &Server{
		ports:  ports,
		cfg:    cfg,
		engine: gin.New(),
	}
	s.engine.MaxMultipartMemory = domain.MaxUploadBytes
	s.engine.Use(gin.Recovery(), requestLogger())
	s.engine.Use(cors.New(corsConfig(cfg.AllowedOrigins)))
	s.engine.Use(cfg.Middleware...)
	s.registerRoutes()

	return s, nil
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort("", strconv.Itoa(s.cfg.Port))
}

// Run starts the HTTP server.
// It blocks until the context is cancelled or an error occurs, then
// drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", httpServer.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	slog.Info("http server stopped")
	return nil
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.POST("/upload-pdf", s.handleUpload)

	v1 := s.engine.Group("/v1")
	{
		v1.POST("/classify", s.handleClassify)
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

// requestLogger logs one line per request through slog.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}
