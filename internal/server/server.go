// Package server exposes the session service over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/lectern/internal/platform/logger"
	"github.com/abhisek/lectern/internal/session"
)

// Config holds listener settings.
type Config struct {
	Addr      string
	PublicDir string // static client files, optional
}

// Server is the HTTP front end.
type Server struct {
	Engine *gin.Engine
	cfg    Config
	log    *logger.Logger
}

// New builds the router over svc.
func New(svc *session.Service, cfg Config, log *logger.Logger) *Server {
	log = logger.OrNop(log)
	return &Server{Engine: newRouter(svc, cfg, log), cfg: cfg, log: log}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
