// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

// Package adminserver is a small operational HTTP surface: liveness
// and Prometheus metrics. None of the cmd binaries starts it. It is
// not the read API spec.md scopes out — there is no wallet or score
// data served here.
package adminserver

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server wraps an httprouter.Router exposing /healthz and /metrics.
type Server struct {
	httpServer *http.Server
	log        *zap.SugaredLogger
}

// New builds a Server bound to addr. registry should already have any
// process-specific collectors (e.g. the Budget Governor's CU gauge)
// registered.
func New(addr string, registry *prometheus.Registry, log *zap.SugaredLogger) *Server {
	router := httprouter.New()
	router.GET("/healthz", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handler(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

// Start runs the server until ctx is cancelled, then shuts it down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Infow("shutting down admin server")
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
