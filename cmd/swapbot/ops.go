package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"swapPilot/internal/bot"
	"swapPilot/internal/event"
	"swapPilot/internal/observability"
)

const opsShutdownTimeout = 5 * time.Second

type statusResponse struct {
	bot.Snapshot
	RecentErrors []string `json:"recent_errors,omitempty"`
}

type opsServer struct {
	server *http.Server
	logger *zap.Logger
}

func newOpsServer(addr string, session *bot.Session, recent *event.Recent, logger *zap.Logger) *opsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		resp := statusResponse{Snapshot: session.Status()}
		for _, e := range recent.OfType(event.TypeError) {
			resp.RecentErrors = append(resp.RecentErrors, e.Message())
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.Warn("status encode failed", zap.Error(err))
		}
	})
	return &opsServer{
		server: &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		logger: logger,
	}
}

// serve runs until ctx is cancelled.
func (s *opsServer) serve(ctx context.Context) {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), opsShutdownTimeout)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("ops server start", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("ops server failed", zap.Error(err))
	}
}
