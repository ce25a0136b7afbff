package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/moneybadgers/walkthrough-backend/internal/catalog"
	"github.com/moneybadgers/walkthrough-backend/internal/clients/gcp"
	redisclient "github.com/moneybadgers/walkthrough-backend/internal/clients/redis"
	"github.com/moneybadgers/walkthrough-backend/internal/db"
	"github.com/moneybadgers/walkthrough-backend/internal/handlers"
	"github.com/moneybadgers/walkthrough-backend/internal/logger"
	"github.com/moneybadgers/walkthrough-backend/internal/observability"
	"github.com/moneybadgers/walkthrough-backend/internal/repos"
	"github.com/moneybadgers/walkthrough-backend/internal/server"
	"github.com/moneybadgers/walkthrough-backend/internal/services"
	"github.com/moneybadgers/walkthrough-backend/internal/session"
	"github.com/moneybadgers/walkthrough-backend/internal/sse"
	"github.com/moneybadgers/walkthrough-backend/internal/utils"
)

const serviceName = "walkthrough-backend"

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Tracing
	shutdownOTel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: os.Getenv("APP_ENV"),
		Version:     os.Getenv("APP_VERSION"),
	})
	if shutdownOTel != nil {
		defer shutdownOTel(context.Background())
	}

	// Catalog
	log.Info("Loading catalog...")
	var cat *catalog.Catalog
	if path := os.Getenv("CATALOG_PATH"); path != "" {
		cat, err = catalog.Load(path)
	} else {
		cat, err = catalog.Default()
	}
	if err != nil {
		log.Error("Could not load catalog", "error", err)
		os.Exit(1)
	}

	// Database; the leaderboard degrades to in-memory without one.
	var leaderboardRepo repos.LeaderboardRepo
	dbService, err := db.NewDatabaseService(log)
	if err != nil {
		log.Warn("Database init failed; using in-memory leaderboard", "error", err)
		leaderboardRepo = repos.NewMemoryLeaderboardRepo(log)
	} else {
		if err := dbService.AutoMigrateAll(); err != nil {
			log.Warn("Auto migration failed", "error", err)
		}
		if err := dbService.SeedCatalog(cat); err != nil {
			log.Warn("Catalog seeding failed", "error", err)
		}
		leaderboardRepo = repos.NewLeaderboardRepo(dbService.DB(), log)
	}

	// Event fan-out
	log.Info("Setting up event hub...")
	mailboxSize := utils.GetEnvAsInt("SSE_MAILBOX_SIZE", 16, log)
	hub := sse.NewHub(log, mailboxSize)

	var broadcaster session.Broadcaster = hub
	if os.Getenv("REDIS_ADDR") != "" {
		bus, err := redisclient.NewEventBus(log)
		if err != nil {
			log.Warn("Redis init failed; events stay instance-local", "error", err)
		} else {
			defer bus.Close()
			bridge, err := redisclient.NewBridge(ctx, log, bus, hub)
			if err != nil {
				log.Warn("Redis forwarder failed; events stay instance-local", "error", err)
			} else {
				broadcaster = bridge
			}
		}
	}

	// Services
	log.Info("Setting up services...")
	leaderboardService, err := services.NewLeaderboardService(log, leaderboardRepo)
	if err != nil {
		log.Error("Could not init LeaderboardService", "error", err)
		os.Exit(1)
	}

	rule := utils.GetEnv("COMPLETION_RULE", "distinct-count", log)
	target := utils.GetEnvAsInt("COMPLETION_TARGET", 3, log)
	policy, err := session.PolicyFromConfig(rule, target, cat)
	if err != nil {
		log.Error("Invalid completion rule", "error", err)
		os.Exit(1)
	}
	registry := session.NewRegistry(log, broadcaster)
	accumulator := session.NewAccumulator(log, registry, cat, policy, broadcaster, leaderboardService)

	var classificationService services.ClassificationService
	visionClient, err := gcp.NewVision(log)
	if err != nil {
		log.Warn("Vision init failed; classification disabled", "error", err)
	} else {
		defer visionClient.Close()
		classificationService, err = services.NewClassificationService(log, visionClient, cat)
		if err != nil {
			log.Error("Could not init ClassificationService", "error", err)
			os.Exit(1)
		}
	}

	sessionService, err := services.NewSessionService(log, registry, accumulator, cat, classificationService)
	if err != nil {
		log.Error("Could not init SessionService", "error", err)
		os.Exit(1)
	}

	// Handlers
	log.Info("Setting up handlers...")
	router := server.NewRouter(server.RouterConfig{
		ServiceName:        serviceName,
		SessionHandler:     handlers.NewSessionHandler(log, sessionService),
		ClassifyHandler:    handlers.NewClassifyHandler(log, sessionService),
		EventsHandler:      handlers.NewEventsHandler(log, hub),
		LeaderboardHandler: handlers.NewLeaderboardHandler(log, leaderboardService),
		CatalogHandler:     handlers.NewCatalogHandler(cat),
	})

	port := utils.GetEnv("PORT", "8080", log)
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
	log.Info("Server stopped")
}
