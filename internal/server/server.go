// Package server exposes controller actions over HTTP.
package server

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"yqhp/aspect/internal/config"
	"yqhp/aspect/internal/metrics"
	"yqhp/aspect/internal/response"
	"yqhp/aspect/pkg/controller"
)

// StatsPath and RoutesPath are served ahead of controller routes.
const (
	StatsPath  = "/_aspect/stats"
	RoutesPath = "/_aspect/routes"
)

// Server represents the HTTP server.
type Server struct {
	app      *fiber.App
	invoker  *controller.Invoker
	recorder *metrics.Recorder
	config   config.ServerConfig
	log      *zap.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithRecorder exposes recorder snapshots at StatsPath when stats are enabled.
func WithRecorder(r *metrics.Recorder) Option {
	return func(s *Server) {
		s.recorder = r
	}
}

// WithLogger sets the access and error logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates a server that dispatches every unmatched request to invoker.
func New(cfg config.ServerConfig, invoker *controller.Invoker, opts ...Option) *Server {
	s := &Server{
		invoker: invoker,
		config:  cfg,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "aspect",
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		ErrorHandler:          s.errorHandler,
		UnescapePath:          true,
		DisableStartupMessage: true,
	})

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.app.Use(RequestID())
	s.app.Use(AccessLog(s.log))
	s.app.Use(Recover())
	if s.config.EnableCORS {
		s.app.Use(CORS())
	}
}

func (s *Server) setupRoutes() {
	s.app.Get(RoutesPath, s.routes)
	if s.config.EnableStats && s.recorder != nil {
		s.app.Get(StatsPath, s.stats)
		s.app.Delete(StatsPath, s.resetStats)
	}
	s.app.All("/*", s.dispatch)
}

// dispatch resolves the request path to a controller action and runs it
// through the invoker.
func (s *Server) dispatch(c *fiber.Ctx) error {
	result, err := s.invoker.Invoke(c.UserContext(), controller.Request{
		ID:    requestIDOf(c),
		Path:  c.Path(),
		Query: c.Queries(),
	})
	if err != nil {
		return err
	}

	switch body := result.Body.(type) {
	case nil:
		return c.SendStatus(fiber.StatusNoContent)
	case string:
		c.Type("html", "utf-8")
		return c.SendString(body)
	case []byte:
		return c.Send(body)
	default:
		return response.Success(c, body)
	}
}

func (s *Server) routes(c *fiber.Ctx) error {
	return response.Success(c, s.invoker.Registry().Routes())
}

func (s *Server) stats(c *fiber.Ctx) error {
	return response.Success(c, s.recorder.Snapshot())
}

func (s *Server) resetStats(c *fiber.Ctx) error {
	s.recorder.Reset()
	return c.SendStatus(fiber.StatusNoContent)
}

// errorHandler maps handler errors to the response envelope. Halts keep
// their status, unresolvable paths become 404, anything else is a 500.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var (
		halt     *controller.HaltError
		fiberErr *fiber.Error
	)
	switch {
	case errors.As(err, &halt):
		return response.Fail(c, halt.Status, halt.Message)
	case controller.IsNotFound(err):
		return response.NotFound(c, err.Error())
	case errors.As(err, &fiberErr):
		return response.Fail(c, fiberErr.Code, fiberErr.Message)
	}

	s.log.Error("action failed",
		zap.String("request_id", requestIDOf(c)),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return response.ServerError(c, "")
}

// Start starts the server and blocks until it stops.
func (s *Server) Start() error {
	return s.app.Listen(s.config.Address)
}

// StartWithContext starts the server and shuts it down once ctx is done.
func (s *Server) StartWithContext(ctx context.Context, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)

	go func() {
		errCh <- s.app.Listen(s.config.Address)
	}()

	select {
	case <-ctx.Done():
		return s.app.ShutdownWithTimeout(shutdownTimeout)
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App returns the underlying Fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}
