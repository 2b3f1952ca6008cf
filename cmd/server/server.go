package main

import (
	"context"
	"time"

	"github.com/JaimeStill/verbatim/internal/config"
	"github.com/JaimeStill/verbatim/internal/infrastructure"
	"github.com/JaimeStill/verbatim/internal/schedule"
)

type Server struct {
	infra     *infrastructure.Infrastructure
	modules   *Modules
	http      *httpServer
	scheduler *schedule.Scheduler
	drain     time.Duration
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		return nil, err
	}

	var scheduler *schedule.Scheduler
	if cfg.Schedule.Enabled {
		domain := modules.API.Domain
		scheduler, err = schedule.New(cfg.Schedule.Spec, domain.Catalog, domain.Jobs, infra.Logger)
		if err != nil {
			return nil, err
		}
	}

	router := buildRouter(infra)
	modules.Mount(router)

	infra.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"version", cfg.Version,
		"modules", router.Prefixes(),
		"classifier", cfg.Classifier.Provider,
		"schedule", cfg.Schedule.Enabled,
		"reports", cfg.Storage.Enabled,
	)

	return &Server{
		infra:     infra,
		modules:   modules,
		http:      newHTTPServer(&cfg.Server, router, infra.Logger, cfg.ShutdownTimeoutDuration()),
		scheduler: scheduler,
		drain:     cfg.ShutdownTimeoutDuration(),
	}, nil
}

func (s *Server) Start() error {
	s.infra.Logger.Info("starting service")

	if err := s.infra.Start(); err != nil {
		return err
	}

	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	lc := s.infra.Lifecycle
	engine := s.modules.API.Domain.Jobs

	lc.OnReady(func() {
		n, err := engine.Recover(lc.Context())
		if err != nil {
			s.infra.Logger.Error("job recovery failed", "error", err)
			return
		}
		if n > 0 {
			s.infra.Logger.Warn("interrupted jobs recovered", "count", n)
		}
	})

	if s.scheduler != nil {
		lc.OnReady(func() {
			if err := s.scheduler.Start(lc); err != nil {
				s.infra.Logger.Error("scheduler start failed", "error", err)
			}
		})
	}

	lc.OnShutdown(func() {
		<-lc.Context().Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.drain)
		defer cancel()

		if err := engine.Drain(ctx); err != nil {
			s.infra.Logger.Error("analysis runs did not drain", "error", err)
			return
		}
		s.infra.Logger.Info("analysis runs drained")
	})

	go func() {
		lc.WaitForStartup()
		s.infra.Logger.Info("all subsystems ready")
	}()

	return nil
}

func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown")
	return s.infra.Lifecycle.Shutdown(timeout)
}
