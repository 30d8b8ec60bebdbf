package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/portfolioagent/portfolioagent/internal/bootstrap"
	"github.com/portfolioagent/portfolioagent/internal/config"
)

type Server struct {
	cfg  *config.Config
	http *http.Server
	app  *bootstrap.App // held for graceful close
}

func New(cfg *config.Config, app *bootstrap.App) *Server {
	return &Server{
		cfg: cfg,
		app: app,
		http: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      NewRouter(cfg, app.Agent, app.HealthChecks()),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
	}
}

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.http.Addr).Msg("listening")
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("graceful shutdown initiated")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := s.http.Shutdown(shutdownCtx)
		s.app.Close()
		return err
	case err := <-errCh:
		s.app.Close()
		return err
	}
}
