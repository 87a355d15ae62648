// Package server assembles the HTTP server: middleware, metrics, health
// check, and the v1 API routes.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/echoapp/echo/internal/profile"
	"github.com/echoapp/echo/server/metrics"
	apiv1 "github.com/echoapp/echo/server/router/api/v1"
	"github.com/echoapp/echo/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	metrics    *metrics.Exporter
	apiService *apiv1.APIV1Service
	reminders  *reminderDispatcher
}

func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	exporter := metrics.New()
	s := &Server{
		Profile:    profile,
		Store:      store,
		echoServer: e,
		metrics:    exporter,
	}

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
	}))
	e.Use(s.requestObserver())

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": profile.Version})
	})
	e.GET("/metrics", echo.WrapHandler(exporter.Handler()))

	s.apiService = apiv1.NewAPIV1Service(profile, store, exporter)
	s.apiService.RegisterRoutes(e)
	s.reminders = newReminderDispatcher(store, exporter)

	return s, nil
}

// Start begins serving in a background goroutine and returns immediately.
func (s *Server) Start(ctx context.Context) error {
	s.reminders.Start(ctx)

	if s.Profile.UNIXSock != "" {
		// Remove the stale socket left by an unclean shutdown.
		if err := os.Remove(s.Profile.UNIXSock); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "failed to remove socket %s", s.Profile.UNIXSock)
		}
		listener, err := net.Listen("unix", s.Profile.UNIXSock)
		if err != nil {
			return errors.Wrapf(err, "failed to listen on socket %s", s.Profile.UNIXSock)
		}
		s.echoServer.Listener = listener
		go s.startEchoServer("")
		return nil
	}

	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	go s.startEchoServer(address)
	return nil
}

func (s *Server) startEchoServer(address string) {
	var err error
	if s.echoServer.Listener != nil {
		err = s.echoServer.Start("")
	} else {
		err = s.echoServer.Start(address)
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("failed to start echo server", "error", err)
	}
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	s.reminders.Stop()
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}
	slog.Info("server stopped")
}

// requestObserver logs each request and feeds the HTTP metrics. The route
// path keeps parameter placeholders so metric cardinality stays bounded.
func (s *Server) requestObserver() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			began := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			s.metrics.ObserveRequest(c.Request().Method, path, status, time.Since(began))

			if status >= http.StatusInternalServerError {
				slog.Error("request failed",
					"method", c.Request().Method,
					"path", c.Request().URL.Path,
					"status", status,
					"duration", time.Since(began),
					"error", err,
				)
			} else if s.Profile.IsDev() {
				slog.Debug("request",
					"method", c.Request().Method,
					"path", c.Request().URL.Path,
					"status", status,
					"duration", time.Since(began),
				)
			}
			return nil
		}
	}
}
