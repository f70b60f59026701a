package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/playerwallet/wallet-service/internal/api/handlers"
	"github.com/playerwallet/wallet-service/internal/api/middleware"
	"github.com/playerwallet/wallet-service/internal/api/routes"
	"github.com/playerwallet/wallet-service/internal/domain/repositories"
	"github.com/playerwallet/wallet-service/internal/domain/services/rolloverengine"
	"github.com/playerwallet/wallet-service/internal/domain/services/walletapp"
	"github.com/playerwallet/wallet-service/internal/domain/services/walletengine"
	"github.com/playerwallet/wallet-service/internal/infrastructure/cache"
	"github.com/playerwallet/wallet-service/internal/infrastructure/config"
	"github.com/playerwallet/wallet-service/internal/infrastructure/currency"
	"github.com/playerwallet/wallet-service/internal/infrastructure/database"
	infrarepos "github.com/playerwallet/wallet-service/internal/infrastructure/repositories"
	"github.com/playerwallet/wallet-service/pkg/logger"
	"github.com/playerwallet/wallet-service/pkg/metrics"
	"github.com/playerwallet/wallet-service/pkg/snowflake"
	"github.com/playerwallet/wallet-service/pkg/tracing"
)

// @title Player Wallet Service API
// @version 1.0
// @description Game and payment wallet ledger with wagering-requirement tracking.

// @host localhost:8080
// @BasePath /api/v1

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.Environment)

	tracingConfig := tracing.Config{
		Enabled:      cfg.Tracing.Enabled && cfg.Environment != "test",
		CollectorURL: cfg.Tracing.CollectorURL,
		Environment:  cfg.Environment,
		SampleRate:   cfg.Tracing.SampleRate,
		Insecure:     cfg.Tracing.Insecure,
	}
	tracingShutdown, err := tracing.InitTracer(context.Background(), tracingConfig, log.Zap())
	if err != nil {
		log.Fatal("failed to initialize tracing", "error", err)
	}
	defer tracingShutdown(context.Background())

	sqlDB, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", "error", err)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			log.Warn("failed to close database connection", "error", err)
		}
	}()

	if err := database.RunMigrations(cfg.Database.URL); err != nil {
		log.Fatal("failed to run migrations", "error", err)
	}

	db := database.NewSqlxDB(sqlDB)
	ids := snowflake.NewFromProcess()

	walletSourceRepo := infrarepos.NewWalletSourceRepository(db)
	userWalletRepo := infrarepos.NewUserWalletRepository(db)
	walletTxnRepo := infrarepos.NewWalletTransactionRepository(db)
	rolloverMainRepo := infrarepos.NewRolloverMainRepository(db)
	rolloverRecordRepo := infrarepos.NewRolloverRecordRepository(db)

	var currencyClient repositories.CurrencyClient = currency.New(cfg.CurrencyOracle, log)
	if store, cacheErr := cache.NewRedisClient(&cfg.Redis, log.Zap()); cacheErr != nil {
		log.Warn("redis unavailable, currency lookups will not be cached", "error", cacheErr)
	} else {
		defer func() {
			if err := store.Close(); err != nil {
				log.Warn("failed to close redis connection", "error", err)
			}
		}()
		ttl := time.Duration(cfg.CurrencyOracle.CacheTTLSeconds) * time.Second
		currencyClient = currency.NewCachedClient(currencyClient, store, ttl, log)
	}

	walletEngine := walletengine.New(userWalletRepo, walletTxnRepo, ids, log)
	rolloverEngine := rolloverengine.New(rolloverMainRepo, rolloverRecordRepo, ids, log)

	gameService := walletapp.NewGameService(db, currencyClient, walletSourceRepo, userWalletRepo, walletEngine, rolloverEngine, log)
	paymentService := walletapp.NewPaymentService(db, currencyClient, walletSourceRepo, userWalletRepo, walletEngine, rolloverEngine, log)

	gameHandlers := handlers.NewGameWalletHandlers(gameService, log)
	paymentHandlers := handlers.NewPaymentWalletHandlers(paymentService, log)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(tracing.HTTPMiddleware())
	router.Use(metrics.HTTPMiddleware())
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/readyz", func(c *gin.Context) {
		if err := database.HealthCheck(sqlDB); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	routes.RegisterPlayerWalletRoutes(v1, gameHandlers, paymentHandlers)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Info("wallet service listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down wallet service")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
