// Package main is the entry point for the zombiotrack simulation server.
// It only handles dependency injection and server initialization.
// NO simulation logic belongs here.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zombiotrack/zombiotrack/internal/config"
	"github.com/zombiotrack/zombiotrack/internal/events"
	"github.com/zombiotrack/zombiotrack/internal/infra/archive"
	"github.com/zombiotrack/zombiotrack/internal/infra/statefile"
	"github.com/zombiotrack/zombiotrack/internal/infra/storage"
	"github.com/zombiotrack/zombiotrack/internal/network"
	"github.com/zombiotrack/zombiotrack/internal/platform/logger"
	"github.com/zombiotrack/zombiotrack/internal/platform/metrics"
	"github.com/zombiotrack/zombiotrack/internal/session"
)

func main() {
	configPath := flag.String("config", "", "path to zombiotrack.yaml")
	sessionID := flag.String("session", "", "resume an existing session instead of creating one")
	flag.Parse()

	log.Println("[ZOMBIOTRACK-SERVER] Initializing simulation server...")

	appLogger := logger.NewLogger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.Error("Failed to load configuration: " + err.Error())
		os.Exit(1)
	}

	appLogger.Info("Initializing SQLite database '" + cfg.DBPath + "'...")
	db, err := storage.InitSQLite(cfg.DBPath)
	if err != nil {
		appLogger.Error("Failed to initialize SQLite: " + err.Error())
		os.Exit(1)
	}
	defer db.Close()

	eventRepo := storage.NewSQLiteEventRepository(db)
	sessionRepo := storage.NewSQLiteSessionRepository(db)

	stateStore := statefile.NewStore(cfg.DataDir)
	id := *sessionID
	if id == "" {
		id = statefile.NewSessionID()
	}

	var persister events.Persister = storage.NewSQLitePersister(eventRepo)
	var archiver *archive.EventArchiver
	if cfg.ArchiveDir != "" {
		appLogger.Info("Archiving events to " + cfg.ArchiveDir)
		archiver = archive.NewEventArchiver(cfg.ArchiveDir, id)
		defer archiver.Close()
		persister = archive.Tee{persister, archiver}
	}

	appLogger.Info("Bootstrapping EventLog...")
	eventLog := events.NewLog(persister)

	opts := session.Options{
		ID:        id,
		Events:    eventLog,
		States:    stateStore,
		Snapshots: sessionRepo,
		Logger:    appLogger,
	}

	var sim *session.Session
	if *sessionID != "" {
		appLogger.Info("Resuming session " + id + " from saved state...")
		sim, err = session.Resume(opts, cfg.Stochastic)
		if err != nil {
			appLogger.Error("Failed to resume session: " + err.Error())
			os.Exit(1)
		}
		sim.Env().SetInfectionProbability(cfg.InfectionProbability)
		if cfg.Seed != 0 {
			sim.Env().Seed(cfg.Seed)
		}
	} else {
		appLogger.Info("Creating session " + id + "...")
		sim, err = session.FromConfig(cfg, opts)
		if err != nil {
			appLogger.Error("Failed to create session: " + err.Error())
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appLogger.Info("Bootstrapping WebSocket Hub...")
	hub := network.NewHub(sim, cfg.Tuning, appLogger)
	go hub.Run(ctx)
	hub.StartEventPoller(ctx, eventLog)

	if interval := cfg.StepInterval(); interval > 0 {
		appLogger.Info("Starting auto-step ticker...")
		ticker := session.NewTicker(sim, interval, appLogger)
		go ticker.Start(ctx)
	}

	// Setup API routes
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		network.ServeWS(hub, w, r, appLogger)
	})
	network.NewControlAPI(sim, appLogger).RegisterRoutes(mux)
	network.NewReplayHandler(sim.ID(), eventLog, appLogger).RegisterRoutes(mux)
	mux.HandleFunc("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: mux,
	}
	go func() {
		log.Println("[ZOMBIOTRACK-SERVER] HTTP API & WS Server listening on " + cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	log.Println("[ZOMBIOTRACK-SERVER] Server running. Session: " + sim.ID() + ". Press Ctrl+C to exit.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[ZOMBIOTRACK-SERVER] Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Shutdown error: " + err.Error())
	}
}
