// Package server hosts the WebSocket message protocol on an echo HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/fyrsmithlabs/projectlens/internal/analysis"
	"github.com/fyrsmithlabs/projectlens/internal/command"
	"github.com/fyrsmithlabs/projectlens/internal/config"
	"github.com/fyrsmithlabs/projectlens/internal/logging"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Analyzer runs a project analysis.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Analysis, error)
}

// CommandRunner executes run_command requests.
type CommandRunner interface {
	Run(ctx context.Context, command, dir string) command.Result
}

// Config holds message server configuration.
type Config struct {
	Host string
	Port int
	// ReadLimitBytes caps a single inbound frame.
	ReadLimitBytes int64
	// MessagesPerSecond enables a per-connection limiter when positive.
	MessagesPerSecond float64
	MessageBurst      int
	MetricsEnabled    bool
}

// FromAppConfig maps the application config onto the server config.
func FromAppConfig(cfg *config.Config) *Config {
	return &Config{
		Host:              cfg.Server.Host,
		Port:              cfg.Server.Port,
		ReadLimitBytes:    cfg.Server.ReadLimitBytes,
		MessagesPerSecond: cfg.Server.MessagesPerSecond,
		MessageBurst:      cfg.Server.MessageBurst,
		MetricsEnabled:    cfg.Observability.MetricsEnabled,
	}
}

func defaultConfig() *Config {
	return FromAppConfig(config.Default())
}

// Server accepts WebSocket connections and answers protocol messages.
type Server struct {
	echo     *echo.Echo
	upgrader websocket.Upgrader
	analyzer Analyzer
	commands CommandRunner
	logger   *logging.Logger
	metrics  *Metrics
	config   *Config

	mu     sync.Mutex
	conns  map[*websocket.Conn]context.CancelFunc
	closed bool
}

// NewServer creates a message server.
func NewServer(analyzer Analyzer, commands CommandRunner, logger *logging.Logger, cfg *Config) (*Server, error) {
	if analyzer == nil {
		return nil, errors.New("analyzer cannot be nil")
	}
	if commands == nil {
		return nil, errors.New("command runner cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger is required for connection tracking and debugging")
	}
	if cfg == nil {
		cfg = defaultConfig()
	}
	if cfg.ReadLimitBytes <= 0 {
		cfg.ReadLimitBytes = defaultConfig().ReadLimitBytes
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			logger.Debug(c.Request().Context(), "http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	})

	s := &Server{
		echo: e,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		analyzer: analyzer,
		commands: commands,
		logger:   logger,
		metrics:  NewMetrics(),
		config:   cfg,
		conns:    make(map[*websocket.Conn]context.CancelFunc),
	}

	s.registerRoutes()

	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/", s.handleWebSocket)
	s.echo.GET("/ws", s.handleWebSocket)
	s.echo.GET("/health", s.handleHealth)
	if s.config.MetricsEnabled {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Handler exposes the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on the configured address and blocks until shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting message server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown stops accepting connections and closes the open ones. In-flight
// requests are cancelled rather than drained.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down message server")

	s.mu.Lock()
	s.closed = true
	for conn, cancel := range s.conns {
		cancel()
		_ = conn.Close()
	}
	clear(s.conns)
	s.mu.Unlock()

	return s.echo.Shutdown(ctx)
}

// track registers an open connection. It reports false once shutdown began.
func (s *Server) track(conn *websocket.Conn, cancel context.CancelFunc) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[conn] = cancel
	return true
}

func (s *Server) untrack(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}
