package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"intentguard/internal/gateway/config"
	"intentguard/internal/gateway/handler"
	"intentguard/internal/gateway/server"
	"intentguard/internal/llm"
	"intentguard/internal/llm/generator"
	"intentguard/internal/orchestrator"
	"intentguard/internal/platform"
	"intentguard/internal/report"
	"intentguard/internal/resultstore"
	"intentguard/internal/session"
)

type App struct {
	server *server.Server
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Dependencies
	var validator session.Validator
	if cfg.Session.ValidateTokens {
		validator = session.NewUpstreamValidator(nil)
	} else {
		log.Printf("[App] token validation disabled; accepting any non-empty token")
		validator = session.AcceptAll{}
	}
	sessions := session.NewStore(validator, cfg.DefaultRegion)

	var mirror resultstore.Mirror
	if cfg.Results.Mirror.Enabled {
		m, err := resultstore.NewS3Mirror(resultstore.S3Config{
			Endpoint:  cfg.Results.Mirror.Endpoint,
			Region:    cfg.Results.Mirror.Region,
			AccessKey: cfg.Results.Mirror.AccessKey,
			SecretKey: cfg.Results.Mirror.SecretKey,
			Bucket:    cfg.Results.Mirror.Bucket,
			UseSSL:    cfg.Results.Mirror.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to init result mirror: %w", err)
		}
		mirror = m
	}
	results, err := resultstore.New(cfg.Results.Dir, mirror)
	if err != nil {
		return nil, fmt.Errorf("failed to init result store: %w", err)
	}

	pc := platform.NewClient()
	orch := orchestrator.New(pc)
	reports := report.NewService(results)

	var gen *generator.Generator
	llmClient, err := llm.New(ctx, cfg.LLM.Provider, cfg.LLM.APIKey)
	switch {
	case err == nil:
		gen = generator.New(llmClient)
	case errors.Is(err, llm.ErrMissingAPIKey):
		log.Printf("[App] no LLM API key configured; generation endpoints disabled")
	default:
		return nil, fmt.Errorf("failed to init LLM client: %w", err)
	}

	svc := handler.NewService(sessions, results, reports, pc, orch, gen)

	// Routing & Server
	mux := server.NewMux(svc, sessions)
	srv := server.New(cfg.Port, mux)

	return &App{server: srv}, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}
