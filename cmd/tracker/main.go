package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"visitor-track-go/config"
	"visitor-track-go/internal/api/handlers"
	"visitor-track-go/internal/cleanup"
	"visitor-track-go/internal/core/processor"
	"visitor-track-go/internal/db"
	"visitor-track-go/internal/db/repository"
	"visitor-track-go/internal/integrations/insightface"
	"visitor-track-go/internal/integrations/mqtt"
	"visitor-track-go/internal/logger"
	"visitor-track-go/internal/server/sse"
	"visitor-track-go/internal/services"
	"visitor-track-go/internal/storage"
	"visitor-track-go/internal/util/timezone"
	"visitor-track-go/internal/video"

	log "github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Pfad zur Konfigurationsdatei")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		// Use logrus fatal even before full initialization if config fails
		log.Fatalf("Failed to load configuration: %v", err)
	}

	timezone.Initialize()

	// Initialize logger
	if err := logger.Init(cfg.Log); err != nil {
		// Log the error but continue, the logger might have defaulted
		log.Errorf("Failed to initialize logger completely: %v", err)
	}

	// Initialize database connection
	log.Info("Initializing database...")
	gormDB, err := db.Open(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	log.Info("Database initialization complete.")

	repo := repository.NewSQLiteEventRepository(gormDB)

	// Snapshot-Verzeichnisse (entries/exits/frames) unterhalb des Log-Ordners
	snapshots, err := storage.NewSnapshotStore(cfg.Tracker.LogFolder)
	if err != nil {
		log.Fatalf("Failed to prepare snapshot directories: %v", err)
	}

	// Initialize Cleanup Service
	cleanupService := cleanup.NewService(repo, cfg.Cleanup.RetentionDays, cfg.Tracker.LogFolder, 24*time.Hour)
	if cleanupService != nil {
		cleanupService.StartBackgroundCleanup()
		defer cleanupService.StopBackgroundCleanup()
	}

	// Initialize InsightFace detection service
	detector := insightface.NewService(cfg.InsightFace)
	if detector.IsAvailable(context.Background()) {
		log.Infof("InsightFace service reachable at %s", cfg.InsightFace.URL)
	} else {
		log.Warnf("InsightFace service at %s not reachable yet, detection will fail until it is", cfg.InsightFace.URL)
	}

	// Initialize MQTT publisher if enabled
	var publisher *mqtt.Publisher
	if cfg.MQTT.Enabled {
		publisher, err = mqtt.NewPublisher(cfg.MQTT)
		if err != nil {
			log.Warnf("Failed to initialize MQTT publisher: %v. Continuing without MQTT.", err)
			publisher = nil
		} else {
			defer publisher.Stop()
		}
	} else {
		log.Info("MQTT is disabled in config.")
	}

	// SSE-Hub für Live-Ereignisse im Browser
	hub := sse.NewHub()
	go hub.Run()

	notifier := services.NewNotifier(repo, publisher, hub)

	// --- Setup API server ---
	if cfg.Server.Enabled {
		apiHandler := handlers.NewAPIHandler(cfg, repo, hub)
		router := apiHandler.NewRouter()
		serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		go func() {
			log.Infof("Starting API server on %s", serverAddr)
			if err := http.ListenAndServe(serverAddr, router); err != nil {
				log.Errorf("API server failed: %v", err)
			}
		}()
	} else {
		log.Info("API server is disabled in config.")
	}

	// Open the video source last, so a missing camera fails fast after
	// everything else is already known to be healthy
	source, err := video.Open(cfg.Video.Source)
	if err != nil {
		log.Fatalf("Failed to open video source %q: %v", cfg.Video.Source, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loop := processor.NewLoop(cfg, source, detector, snapshots, notifier)
	if err := loop.Run(ctx); err != nil {
		log.Fatalf("Tracking loop failed: %v", err)
	}

	log.Infof("Tracker stopped after %d frames (%d known visitors)", loop.FrameCount(), loop.KnownCount())
}
