package main

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Valikazar/football-magager-bot/internal/auth"
	"github.com/Valikazar/football-magager-bot/internal/config"
	"github.com/Valikazar/football-magager-bot/internal/database"
	"github.com/Valikazar/football-magager-bot/internal/draft"
	"github.com/Valikazar/football-magager-bot/internal/draw"
	server "github.com/Valikazar/football-magager-bot/internal/http"
	"github.com/Valikazar/football-magager-bot/internal/http/handlers"
	"github.com/Valikazar/football-magager-bot/internal/inngest"
	"github.com/Valikazar/football-magager-bot/internal/metrics"
	"github.com/Valikazar/football-magager-bot/internal/notifier/slack"
	"github.com/Valikazar/football-magager-bot/internal/processor"
	"github.com/Valikazar/football-magager-bot/internal/pubsub"
	"github.com/Valikazar/football-magager-bot/internal/registration"
	"github.com/Valikazar/football-magager-bot/internal/results"
	"github.com/Valikazar/football-magager-bot/internal/roster"
	"github.com/Valikazar/football-magager-bot/internal/settings"
	internalslack "github.com/Valikazar/football-magager-bot/internal/slack"
	"github.com/Valikazar/football-magager-bot/internal/voting"
	"github.com/charmbracelet/log"
	"github.com/inngest/inngestgo"
)

func main() {
	// Start profiling timer
	startTime := time.Now()
	log.SetFormatter(log.JSONFormatter)
	cfg := config.Load()
	db, dbTeardown, err := database.InitDB(cfg.DBName, cfg.Turso.PrimaryURL, cfg.Turso.AuthToken)
	dbInitDuration := time.Since(startTime)
	log.Info("Database initialization time recorded", "duration_ms", dbInitDuration.Milliseconds())
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer func() {
		log.Info("Closing database connection")
		dbTeardown()
	}()

	inngestProvider, err := inngestgo.NewClient(inngestgo.ClientOpts{
		AppID:      cfg.Inngest.AppID,
		SigningKey: &cfg.Inngest.SigningKey,
		EventKey:   &cfg.Inngest.EventKey,
		Dev:        &cfg.Inngest.Dev,
	})
	if err != nil {
		log.Fatalf("Failed to initialize inngest: %s", err)
	}

	var ps pubsub.PubSubClient = pubsub.Noop{}
	if cfg.ProjectID != "" {
		client, closePubSub, err := pubsub.New(context.Background(), cfg.ProjectID)
		if err != nil {
			log.Fatalf("Failed to initialize pubsub: %s", err)
		}
		defer closePubSub()
		ps = client
	}

	seed := cfg.Tuning.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	log.Info("Draw RNG seeded", "seed", seed)

	rosterStore := roster.New(db)
	resultsStore := results.New(db)
	settingsStore := settings.New(db)
	draftStore := draft.New(db)
	metricsSvc := metrics.NewService()
	metricsHandler := metrics.NewMetricsHandler()
	notifier := slack.NewNotifier(cfg.Slack.Token, metricsSvc)
	authorizer := internalslack.NewAuthorizer(cfg.Slack.Token, auth.NewStatic(cfg.Tuning.AdminIDs...))

	services := handlers.Services{
		Registration: registration.NewManager(rosterStore, settingsStore, authorizer, notifier, metricsSvc),
		Draw: draw.NewService(rosterStore, resultsStore, draftStore, settingsStore, authorizer, notifier, metricsSvc,
			rand.New(rand.NewSource(seed)), cfg.Tuning.Balance).WithEvents(ps),
		Voting:    voting.NewEngine(draftStore, rosterStore, authorizer, notifier, metricsSvc).WithEvents(ps),
		Processor: processor.New(draftStore, rosterStore, resultsStore, settingsStore, authorizer, notifier, metricsSvc, ps),
		Drafts:    draftStore,
		Roster:    rosterStore,
		Settings:  settingsStore,
		Auth:      authorizer,
		Notifier:  notifier,
	}
	inngestClient := inngest.New(inngestProvider, resultsStore, rosterStore, notifier)

	s := server.NewServer(services, metricsSvc, metricsHandler, cfg, ps, inngestClient)

	// --- Record startup time ---
	startupDuration := time.Since(startTime)
	metricsSvc.SetStartupTime(startupDuration.Seconds())
	log.Info("Startup time recorded", "duration_ms", startupDuration.Milliseconds())

// --- Graceful shutdown setup ---
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: s,
	}

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	// Start the server in a goroutine
	go func() {
		log.Info("Server started", "port", cfg.Port)
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", "signal", sig)

		// Create a context with a timeout for the shutdown.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Attempt to gracefully shut down the server.
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Server shutdown failed", "error", err)
		} else {
			log.Info("Server gracefully stopped")
		}
	}

	log.Info("Server process shutting down")
}
