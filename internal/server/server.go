package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"referral-earn-bot/internal/logger"
	"referral-earn-bot/internal/metrics"
	"referral-earn-bot/internal/utils"
)

// Pinger is anything /readyz should check, e.g. the account store or Redis.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Webhook describes the Telegram update endpoint mounted on the server.
type Webhook struct {
	Path      string
	Handler   http.Handler
	AllowList *utils.AllowList
}

type Server struct {
	httpServer *http.Server
}

// NewServer builds the keep-alive server. webhook may be nil when the bot
// uses long polling.
func NewServer(port string, checks map[string]Pinger, webhook *Webhook) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + port,
			Handler:           NewRouter(checks, webhook),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func NewRouter(checks map[string]Pinger, webhook *Webhook) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(loggingMiddleware)

	r.Get("/", handleAlive)
	r.Get("/healthz", handleHealthz)
	r.Get("/readyz", handleReadyz(checks))
	r.Handle("/metrics", promhttp.Handler())

	if webhook != nil {
		r.With(allowListMiddleware(webhook.AllowList)).Handle(webhook.Path, webhook.Handler)
	}

	return r
}

// Start blocks until the server is shut down.
func (s *Server) Start() error {
	slog.Info("Starting HTTP server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	slog.Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func allowListMiddleware(al *utils.AllowList) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if al != nil {
				ip := utils.RemoteIP(r)
				if !al.Contains(ip) {
					logger.FromContext(r.Context()).Warn("Webhook call from disallowed address", "remote_ip", ip)
					http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" ||
			strings.HasPrefix(r.URL.Path, "/healthz") ||
			strings.HasPrefix(r.URL.Path, "/readyz") ||
			strings.HasPrefix(r.URL.Path, "/metrics") {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		ctx := logger.WithRequestID(r.Context(), logger.GenerateRequestID())
		r = r.WithContext(ctx)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger.FromContext(ctx).Info("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	})
}
