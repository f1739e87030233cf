package main

import (
	"context"
	"fmt"
	"os"

	bidding "auction-marketplace/internal/biddingService"
	"auction-marketplace/internal/clock"
	"auction-marketplace/internal/config"
	"auction-marketplace/internal/database"
	"auction-marketplace/internal/events"
	"auction-marketplace/internal/metrics"
	model "auction-marketplace/internal/models"
	"auction-marketplace/internal/notification"
	query "auction-marketplace/internal/queryService"
	"auction-marketplace/internal/repository"
	"auction-marketplace/internal/server"
	"auction-marketplace/utils"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	repo, err := buildRepository(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up storage: %v\n", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	recorder := metrics.NewCollector(registry)

	clk := clock.NewSystem()
	broker := events.NewBroker()

	biddingSvc := bidding.NewBiddingService(repo, clk, broker, recorder)
	querySvc := query.NewService(repo, clk, cfg.DashboardTopN)
	notificationSvc := notification.NewService(repo)

	// The dispatcher consumes the full event stream for as long as the
	// process lives.
	dispatcher := notification.NewDispatcher(repo, recorder)
	stream, cancelStream := broker.SubscribeAll()
	defer cancelStream()
	go dispatcher.Run(context.Background(), stream)

	limiter := server.NewRateLimiter(server.RateLimiterConfig{
		PerMinute:       cfg.RateLimitPerMinute,
		Burst:           cfg.RateLimitBurst,
		CleanupInterval: cfg.RateLimitCleanupInterval,
	})
	defer limiter.Stop()

	router := server.SetupRouter(server.Options{
		BiddingService:      biddingSvc,
		QueryService:        querySvc,
		NotificationService: notificationSvc,
		Broker:              broker,
		Recorder:            recorder,
		Registry:            registry,
		RateLimiter:         limiter,
		ReconcileOnRead:     cfg.ReconcileOnRead,
	})

	fmt.Printf("Starting auction marketplace server on %s...\n", cfg.Port)
	if err := router.Run(cfg.Port); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}

// buildRepository selects Postgres when DATABASE_URL is set, otherwise the
// in-memory repository seeded with sample profiles.
func buildRepository(cfg *config.Config) (repository.MarketplaceDB, error) {
	if cfg.DatabaseURL == "" {
		utils.Info("no DATABASE_URL set, using in-memory repository", nil)
		repo := repository.NewMemoryRepo()
		prepopulateProfiles(repo)
		return repo, nil
	}

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return nil, fmt.Errorf("migrations failed: %w", err)
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	utils.Info("connected to PostgreSQL", nil)
	return repository.NewPostgresRepo(db), nil
}

// prepopulateProfiles adds sample participants to the in-memory repo
func prepopulateProfiles(repo *repository.MemoryRepo) {
	profiles := []model.Profile{
		{ProfileID: "seller1", Email: "seller1@example.com", Username: "seller1"},
		{ProfileID: "user1", Email: "user1@example.com", Username: "user1"},
		{ProfileID: "user2", Email: "user2@example.com", Username: "user2"},
	}

	for _, profile := range profiles {
		if err := repo.CreateProfile(context.Background(), profile); err != nil {
			utils.Warn("failed to seed profile", map[string]any{"profile_id": profile.ProfileID, "error": err.Error()})
		}
	}
}
