// Package api exposes the engine over HTTP.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"oddsledger/internal/auth"
	"oddsledger/internal/engine"
	"oddsledger/internal/ocr"

	"github.com/rs/zerolog/log"
)

// Config collects the server's collaborators.
type Config struct {
	Addr           string
	Engine         *engine.Engine
	Recognizer     ocr.Recognizer
	Verifier       *auth.Verifier
	Metrics        *Metrics
	UploadMaxBytes int64
}

type Server struct {
	httpServer *http.Server
}

// NewServer builds the route table. Every /api route requires a valid token
// with the admin or user role.
func NewServer(cfg Config) *Server {
	if cfg.Metrics == nil {
		cfg.Metrics = NewMetrics()
	}
	if cfg.Recognizer == nil {
		cfg.Recognizer = ocr.PlainText{}
	}
	h := NewHandler(cfg.Engine, cfg.Recognizer, cfg.Metrics, cfg.UploadMaxBytes)

	protect := func(fn http.HandlerFunc) http.Handler {
		return authenticate(cfg.Verifier, requireRoles(fn, auth.RoleAdmin, auth.RoleUser))
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/rounds/upload", protect(h.HandleUpload))
	mux.Handle("POST /api/rounds/manual", protect(h.HandleManual))
	mux.Handle("GET /api/rounds/history", protect(h.HandleHistory))
	mux.Handle("GET /api/rounds/statistics", protect(h.HandleStatistics))
	mux.Handle("GET /api/rounds/prediction", protect(h.HandlePrediction))
	mux.Handle("GET /api/rounds/backtest", protect(h.HandleBacktest))
	mux.HandleFunc("GET /healthz", h.HandleHealth)
	mux.Handle("GET /metrics", cfg.Metrics.Handler())
	mux.HandleFunc("/", h.HandleNotFound)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      withRequestID(observe(cfg.Metrics, mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{httpServer: httpServer}
}

// Handler returns the fully wrapped route table.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Serve accepts connections on l until Shutdown is called.
func (s *Server) Serve(l net.Listener) error {
	log.Info().Str("addr", l.Addr().String()).Msg("HTTP server listening")
	if err := s.httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on the configured address.
func (s *Server) ListenAndServe() error {
	l, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
