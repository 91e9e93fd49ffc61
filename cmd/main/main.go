package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stock-watch/src/cache"
	"stock-watch/src/config"
	"stock-watch/src/interfaces"
	"stock-watch/src/logger"
	"stock-watch/src/network"
	"stock-watch/src/ratelimit"
	"stock-watch/src/server"
	"stock-watch/src/storage"
	"stock-watch/src/upstream/alphavantage"
	"stock-watch/src/utils"
	"stock-watch/src/watchlist"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(cfg.LogLevel, cfg.Name)

	// Durable store (L2). One sql.DB serves both cache rows and the
	// watchlist table.
	var db interface {
		interfaces.IDurableStore
		interfaces.IWatchlistStore
	}

	switch cfg.Storage.DBType {
	case "postgres":
		db, err = storage.NewPostgresDB(cfg.MConfig, appLogger)
	default:
		// Default to SQLite
		db, err = storage.NewAsyncSQLiteDB(cfg.MConfig, appLogger)
	}

	if err != nil {
		appLogger.Critical("Failed to init db: %v", err)
	}
	if err := db.Initialize(); err != nil {
		appLogger.Critical("Failed to migrate db: %v", err)
	}
	defer db.Close()

	// Fast store (L1)
	var fast interfaces.IFastStore
	switch cfg.FastStore.Type {
	case "redis":
		redisStore := cache.NewRedisFastStore(cfg.MConfig, appLogger)
		if err := redisStore.Ping(); err != nil {
			appLogger.Warning("Redis unreachable (%v), falling back to memory", err)
			fast = cache.NewMemFastStore()
		} else {
			fast = redisStore
			defer redisStore.Close()
		}
	default:
		fast = cache.NewMemFastStore()
	}

	// Upstream path: network manager -> provider source, behind the
	// shared call budget.
	var networkManager interfaces.INetworkManager = network.NewAsyncNetworkManager(cfg.MConfig, appLogger)
	var source interfaces.IUpstreamSource = alphavantage.NewAlphaVantageSource(cfg.MConfig, networkManager)

	limiter := ratelimit.NewSlidingWindow(
		cfg.RateLimit.MaxCalls,
		time.Duration(cfg.RateLimit.WindowSeconds)*time.Second,
		appLogger,
	)

	coordinator := cache.NewCoordinator(cfg.MConfig, fast, db, source, limiter, db, appLogger)
	guard := watchlist.NewGuard(cfg.MConfig, db, appLogger)

	srv := server.NewAPIServer(cfg.MConfig, coordinator, guard, fast, db, limiter, appLogger)

	// Background refresher, gated on market hours
	scheduler := utils.NewMarketScheduler(coordinator.OverviewSymbols(), appLogger)
	refresher := cache.NewRefresher(cfg.MConfig, coordinator, scheduler, srv, appLogger)
	refresher.Start()
	defer refresher.Stop()

	// Start Server
	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Critical("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down...")
	srv.Stop()
}
