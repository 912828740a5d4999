package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/808vita/sdg-6-water-agents/internal/agents"
	"github.com/808vita/sdg-6-water-agents/internal/completion"
	"github.com/808vita/sdg-6-water-agents/internal/config"
	"github.com/808vita/sdg-6-water-agents/internal/httpapi"
	"github.com/808vita/sdg-6-water-agents/internal/memory"
	"github.com/808vita/sdg-6-water-agents/internal/observability"
	"github.com/808vita/sdg-6-water-agents/internal/orchestrator"
	"github.com/808vita/sdg-6-water-agents/internal/session"
	"github.com/808vita/sdg-6-water-agents/internal/tools"
)

func main() {
	// Local development keeps its settings in .env; missing file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	memoryStore, err := memory.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("memory store init failed: %v", err)
	}
	defer memoryStore.Close()

	client, err := completion.NewClient(completion.Config{
		Mode:    cfg.CompletionMode,
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
	})
	if err != nil {
		log.Fatalf("completion client init failed: %v", err)
	}

	toolOpts := tools.Options{
		MinInterval: cfg.ToolMinInterval,
		RetryMax:    cfg.ToolRetryMax,
	}
	forecastClient := tools.NewOpenMeteoClient(toolOpts)
	searchClient := tools.NewDuckDuckGoClient(toolOpts)
	lookupClient := tools.NewWikipediaClient(toolOpts)

	classifier, err := agents.NewClassifier(client)
	if err != nil {
		log.Fatalf("classifier init failed: %v", err)
	}

	weather := agents.NewWeatherAgent(forecastClient)
	news := agents.NewNewsAgent(searchClient)
	climate := agents.NewClimateResearcher(lookupClient, searchClient)

	sessions := session.NewManager(cfg.SessionInactivityTimeout)
	hub := httpapi.NewHub()

	orch, err := orchestrator.New(orchestrator.Options{
		Agents: orchestrator.Agents{
			Classifier:  classifier,
			Locator:     agents.NewLocationExtractor(client),
			General:     agents.NewGeneralAgent(client),
			Forecaster:  agents.NewForecastAgent(agents.NewRiskAgent(client)),
			Weather:     weather,
			Specialists: []agents.Specialist{weather, news, climate},
		},
		Memory:            memoryStore,
		Metrics:           metrics,
		Sink:              hub,
		TurnTimeout:       cfg.TurnTimeout,
		SpecialistTimeout: cfg.SpecialistTimeout,
		FanoutPolicy:      cfg.FanoutPolicy,
	})
	if err != nil {
		log.Fatalf("orchestrator init failed: %v", err)
	}

	sessions.SetExpireHook(func(s *session.Session) {
		metrics.ActiveSessions.Set(float64(sessions.ActiveCount()))
		clearCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := orch.ClearSession(clearCtx, s.ID); err != nil {
			log.Printf("clear expired session %s: %v", s.ID, err)
		}
	})

	api := httpapi.New(cfg, sessions, orch, metrics, hub)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	sessions.StartJanitor(runCtx, 5*time.Second)

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
