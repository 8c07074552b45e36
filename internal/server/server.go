// Package server is the web surface: upload a file, get a dashboard, change
// the filters. Planned runs live in an in-memory session store so filter
// changes never trigger another model request.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/arifinrio95/auto-dashboard/internal/dashboard"
	"github.com/arifinrio95/auto-dashboard/internal/metrics"
	"github.com/arifinrio95/auto-dashboard/internal/table"
)

// multipartSlack is allowed on top of MaxUploadBytes for form fields and
// part headers.
const multipartSlack = 1 << 20

// Options configures a Server. Zero values take the defaults noted.
type Options struct {
	// SessionTTL defaults to 30 minutes.
	SessionTTL time.Duration
	// MaxUploadBytes defaults to table.DefaultMaxBytes.
	MaxUploadBytes int64
	// MaxRows bounds HTML table uploads. 0 means unlimited.
	MaxRows int
	// ShutdownTimeout defaults to 10 seconds.
	ShutdownTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.SessionTTL <= 0 {
		o.SessionTTL = 30 * time.Minute
	}
	if o.MaxUploadBytes <= 0 {
		o.MaxUploadBytes = table.DefaultMaxBytes
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = 10 * time.Second
	}
	return o
}

// Server serves the upload form and the dashboards.
type Server struct {
	echo     *echo.Echo
	pipeline *dashboard.Pipeline
	sessions *Sessions
	opts     Options
	logger   *slog.Logger
}

// New builds the echo application. A nil logger means slog.Default().
func New(pipeline *dashboard.Pipeline, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	opts = opts.withDefaults()
	s := &Server{
		echo:     echo.New(),
		pipeline: pipeline,
		sessions: NewSessions(opts.SessionTTL),
		opts:     opts,
		logger:   logger,
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError
	e.Renderer = NewTemplateRenderer()

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogError:     true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogRequestID: true,
		HandleError:  true, // forwards error to the global error handler, so it can decide appropriate status code
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			metrics.RecordHTTP(route, v.Status, v.Latency)

			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Int64("latency_ms", v.Latency.Milliseconds()),
				slog.String("remote_ip", v.RemoteIP),
				slog.String("request_id", v.RequestID),
			}
			if v.Error == nil {
				logger.LogAttrs(context.Background(), slog.LevelInfo, "REQUEST", attrs...)
			} else {
				attrs = append(attrs, slog.String("err", v.Error.Error()))
				logger.LogAttrs(context.Background(), slog.LevelError, "REQUEST_ERROR", attrs...)
			}
			return nil
		},
	}))

	e.Use(middleware.BodyLimit(fmt.Sprintf("%dK", (opts.MaxUploadBytes+multipartSlack)/1024)))

	e.GET("/", s.getHome)
	e.POST("/runs", s.postRun)
	e.GET("/runs/:id", s.getRun)
	e.GET("/runs/:id/charts", s.getCharts)
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	return s
}

// ServeHTTP lets tests and other muxes drive the server directly.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Sessions exposes the session store.
func (s *Server) Sessions() *Sessions { return s.sessions }

// Start listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleError(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := http.StatusText(code)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprintf("%v", he.Message)
		}
	}

	var ue *UserVisibleError
	if errors.As(err, &ue) {
		code = ue.HTTPCode
		msg = ue.Message
	}

	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Path(), "err", err)
	}

	if !c.Response().Committed {
		if renderErr := c.Render(code, "error", msg); renderErr != nil {
			s.logger.Error("render error page", "err", renderErr)
		}
	}
}
