// Package server exposes the consultation pipeline over a local HTTP API:
// submit a consultation, poll its status, and stream turns as SSE.
package server

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/medassist/triage/internal/consult"
)

// Config holds server configuration.
type Config struct {
	Addr string // listen address, e.g. "127.0.0.1:8480"
}

// Server is the HTTP server for managing consultations.
type Server struct {
	config   Config
	service  *consult.Service
	registry *ConsultRegistry
	baseCtx  context.Context
	cancel   context.CancelFunc
	httpSrv  *http.Server
	logger   *zap.Logger
}

// New creates a new Server around a consultation service.
func New(cfg Config, svc *consult.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:   cfg,
		service:  svc,
		registry: NewConsultRegistry(),
		baseCtx:  ctx,
		cancel:   cancel,
		logger:   logger,
	}

	mux := http.NewServeMux()

	// Go 1.22+ method+pattern routing.
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /consultations", s.handleSubmitConsultation)
	mux.HandleFunc("GET /consultations/{id}", s.handleGetConsultation)
	mux.HandleFunc("GET /consultations/{id}/events", s.handleConsultationEvents)

	s.httpSrv = &http.Server{
		Handler:      csrfProtect(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // SSE requires no write timeout
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	return s
}

// ListenAndServe starts the server and blocks until shutdown.
func (s *Server) ListenAndServe() error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		s.logger.Info("shutting down", zap.String("signal", sig.String()))
		s.Shutdown()
	}()

	s.logger.Info("listening", zap.String("addr", s.config.Addr))
	s.httpSrv.Addr = s.config.Addr
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// csrfProtect rejects cross-origin POST requests. Browsers set the Origin
// header automatically on cross-origin requests, so checking it blocks CSRF
// from remote pages while allowing CLI and local-UI callers.
func csrfProtect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			origin := r.Header.Get("Origin")
			if origin != "" {
				u, err := url.Parse(origin)
				if err != nil {
					http.Error(w, `{"error":"invalid Origin header"}`, http.StatusForbidden)
					return
				}
				host := u.Hostname()
				if host != "localhost" && host != "127.0.0.1" && host != "::1" {
					http.Error(w, `{"error":"cross-origin request blocked"}`, http.StatusForbidden)
					return
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown gracefully stops the server. Running consultations are not
// cancelled mid-flight: once started a consultation runs to its round
// bound, so we only stop accepting work and drain connections.
func (s *Server) Shutdown() {
	s.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	_ = s.httpSrv.Shutdown(shutdownCtx)
}
