package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"raddiwala/internal/config"
	handlers "raddiwala/internal/handlers/shared"
	"raddiwala/internal/middleware"
	"raddiwala/internal/repositories/mongodb"
	"raddiwala/internal/services"
	"raddiwala/pkg/cache"
	"raddiwala/pkg/database"
	"raddiwala/pkg/logger"
	"raddiwala/pkg/websocket"
	"raddiwala/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:   logger.LogLevel(cfg.App.LogLevel),
		Format:  cfg.App.LogFormat,
		Output:  "stdout",
		Caller:  cfg.App.Debug,
		AppName: cfg.App.Name,
		Version: cfg.App.Version,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Database
	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:                cfg.Database.URI,
		Database:           cfg.Database.Database,
		MaxPoolSize:        cfg.Database.MaxPoolSize,
		MinPoolSize:        cfg.Database.MinPoolSize,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		SocketTimeout:      cfg.Database.SocketTimeout,
		TransactionTimeout: cfg.Database.TransactionTimeout,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer db.Close()

	if cfg.Database.RunMigrations {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.MigrationTimeout)
		err := database.NewMigrator(db.Database, appLogger).Up(ctx)
		cancel()
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to run migrations")
		}
	}

	// Redis backs the party cache and the OTP rate limiter. Both degrade to
	// direct reads and an open limiter when it is off.
	var (
		partyCache  mongodb.CacheService
		otpLimiter  services.RateLimiter
		redisPinger handlers.Pinger
	)
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
			Addr:         cfg.Redis.Addr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			appLogger.WithError(err).Warn("Redis unavailable, continuing without cache")
		} else {
			defer redisCache.Close()
			cacheService := services.NewCacheService(redisCache, appLogger, cfg.Redis.KeyPrefix, cfg.Redis.PartyTTL)
			partyCache = cacheService
			otpLimiter = cacheService
			redisPinger = cacheService
		}
	}

	providers, err := newProviders(context.Background(), cfg, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize providers")
	}
	defer providers.Close()

	// Repositories
	mongoDB := db.Database
	customerRepo := mongodb.NewCustomerRepository(mongoDB, partyCache, cfg.Redis.PartyTTL)
	collectorRepo := mongodb.NewCollectorRepository(mongoDB, partyCache, cfg.Redis.PartyTTL)
	addressRepo := mongodb.NewAddressRepository(mongoDB)
	pickupRepo := mongodb.NewPickupRequestRepository(mongoDB)
	bidRepo := mongodb.NewBidRepository(mongoDB)
	transactionRepo := mongodb.NewTransactionRepository(mongoDB)
	subscriptionRepo := mongodb.NewSubscriptionRepository(mongoDB)
	otpRepo := mongodb.NewOTPRepository(mongoDB)

	// Live events run until shutdown
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := websocket.NewHub(appLogger)
	go hub.Run(hubCtx)

	// Services
	notificationService := services.NewNotificationService(
		providers.mailer, providers.sms, providers.push, hub, cfg.SMS.CountryCode, appLogger,
	)
	verificationService := services.NewVerificationService(otpRepo, otpLimiter, cfg.Security, appLogger)
	subscriptionService := services.NewSubscriptionService(
		collectorRepo, subscriptionRepo, providers.payments, notificationService, cfg.Marketplace, cfg.App.Currency, appLogger,
	)
	authService := services.NewAuthService(
		customerRepo, collectorRepo, addressRepo, verificationService, notificationService,
		cfg.Security, cfg.App.DevelopmentMode, appLogger,
	)
	partyService := services.NewPartyService(
		customerRepo, collectorRepo, addressRepo, pickupRepo, subscriptionService,
		providers.storage, providers.geocoder, cfg.Marketplace, appLogger,
	)
	pickupService := services.NewPickupService(
		db, pickupRepo, bidRepo, customerRepo, collectorRepo, addressRepo,
		providers.storage, notificationService, cfg.Marketplace, appLogger,
	)
	bidService := services.NewBidService(
		db, bidRepo, pickupRepo, customerRepo, collectorRepo, addressRepo,
		subscriptionService, notificationService, appLogger,
	)
	settlementService := services.NewSettlementService(
		db, bidRepo, pickupRepo, transactionRepo, customerRepo, collectorRepo, addressRepo,
		subscriptionService, notificationService, appLogger,
	)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, cfg.Security, appLogger)
	partyHandler := handlers.NewPartyHandler(partyService, appLogger)
	customerHandler := handlers.NewCustomerHandler(partyService, pickupService, appLogger)
	collectorHandler := handlers.NewCollectorHandler(partyService, bidService, appLogger)
	pickupHandler := handlers.NewPickupHandler(pickupService, formLimit(cfg.Marketplace), appLogger)
	bidHandler := handlers.NewBidHandler(bidService, settlementService, appLogger)
	transactionHandler := handlers.NewTransactionHandler(settlementService, appLogger)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionService, appLogger)
	liveHandler := handlers.NewLiveHandler(websocket.NewServer(hub, cfg.Security.CORSAllowedOrigins), appLogger)

	checks := map[string]handlers.Pinger{"mongodb": db}
	if redisPinger != nil {
		checks["redis"] = redisPinger
	}
	healthHandler := handlers.NewHealthHandler(cfg.App.Version, checks)

	// Initialize Gin router
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.MaxMultipartMemory = cfg.Marketplace.MaxUploadSize
	if err := router.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		appLogger.WithError(err).Warn("Invalid trusted proxies, trusting none")
		_ = router.SetTrustedProxies(nil)
	}

	// Global middleware
	router.Use(middleware.RecoveryMiddleware(appLogger))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(appLogger))
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))

	if cfg.Storage.Provider == "local" {
		router.Static(cfg.Storage.Local.URLPrefix, cfg.Storage.Local.BasePath)
	}

	auth := middleware.AuthRequired(cfg.Security.JWTSecret, cfg.Security.CookieName, authService)

	// API routes
	v1 := router.Group("/api/v1")
	{
		routes.SetupAuthRoutes(v1, authHandler, auth)
		routes.SetupCustomerRoutes(v1, customerHandler, partyHandler, transactionHandler, auth)
		routes.SetupCollectorRoutes(v1, collectorHandler, partyHandler, transactionHandler, subscriptionHandler, auth)
		routes.SetupPickupRoutes(v1, pickupHandler, auth)
		routes.SetupBidRoutes(v1, bidHandler, auth)
		routes.SetupTransactionRoutes(v1, transactionHandler, auth)
		routes.SetupSubscriptionRoutes(v1, subscriptionHandler, auth)
		routes.SetupLiveRoutes(v1, liveHandler, auth)
	}

	// Health check
	router.GET("/health", healthHandler.Health)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.WithField("port", cfg.App.Port).Infof("Starting %s %s", cfg.App.Name, cfg.App.Version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	stopHub()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.WithError(err).Error("Forced shutdown")
	}
}

// formLimit bounds a pickup request body: every photo at full size plus room for the fields.
func formLimit(market *config.MarketplaceConfig) int64 {
	return market.MaxUploadSize*int64(market.MaxRequestPhotos) + 1<<20
}
