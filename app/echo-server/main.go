package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/domflow/tigerad/app/echo-server/router"
	"github.com/domflow/tigerad/business/ads"
	"github.com/domflow/tigerad/business/credits"
	"github.com/domflow/tigerad/business/events"
	ownerService "github.com/domflow/tigerad/business/owner"
	"github.com/domflow/tigerad/business/ratelimit"
	"github.com/domflow/tigerad/business/stores"
	"github.com/domflow/tigerad/internal/middleware"
	psqlRepo "github.com/domflow/tigerad/internal/repository/postgres"
	redisRepo "github.com/domflow/tigerad/internal/repository/redis"
	"github.com/domflow/tigerad/internal/repository/stripe"
	"github.com/domflow/tigerad/internal/rest"
	"github.com/domflow/tigerad/pkg/config"
	"github.com/domflow/tigerad/pkg/database"
	redisdb "github.com/domflow/tigerad/pkg/database/redis"
	"github.com/domflow/tigerad/pkg/logger"
	"github.com/domflow/tigerad/pkg/metrics"
	"github.com/domflow/tigerad/pkg/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting geofence ads engine", "version", cfg.App.Version)

	utils.InitJWT(cfg.JWT.SecretKey, cfg.JWT.ExpirationHours)
	metrics.Init()

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	logger.Info("Database connected successfully")

	redisClient, err := redisdb.NewRedisClient(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", "error", err)
	}
	defer redisdb.CloseRedisClient(redisClient)

	stripeRepo := stripe.NewStripeRepository(stripe.StripeConfig{
		SecretKey: cfg.Stripe.SecretKey,
		BaseURL:   cfg.Stripe.BaseURL,
		Currency:  cfg.Stripe.Currency,
	})

	// Init repo
	ownerRepo := psqlRepo.NewOwnerRepository(db)
	storeRepo := psqlRepo.NewStoreRepository(db)
	adRepo := psqlRepo.NewAdvertisementRepository(db)
	creditRepo := psqlRepo.NewCreditRepository(db)
	rateLimitRepo := psqlRepo.NewRateLimitRepository(db)
	geofenceRepo := psqlRepo.NewGeofenceRepository(db)
	tokenRepo := redisRepo.NewTokenRepository(redisClient)

	// Init service
	limiter := ratelimit.NewService(rateLimitRepo)
	creditService := credits.NewCreditService(creditRepo, storeRepo, stripeRepo, cfg.Geofence.CreditExpiryMonths)
	adService := ads.NewAdService(adRepo, geofenceRepo, storeRepo, creditService, limiter, ads.Config{
		DefaultRadiusMeters: cfg.Geofence.DefaultRadiusMeters,
		ViewsPerCredit:      cfg.Geofence.ViewsPerCredit,
		EntryPolicy:         ratelimit.GeofenceEntryPolicy(cfg.Geofence.EntryWindowMinutes, cfg.Geofence.EntryMaxRequests),
		AdCreationPolicy:    ratelimit.AdCreationPolicy(cfg.Geofence.AdCreationWindowMinutes, cfg.Geofence.AdCreationMaxRequests),
	})
	eventService := events.NewEventService(geofenceRepo, storeRepo, cfg.Geofence.EventRetentionDays)
	storeService := stores.NewStoreService(storeRepo, cfg.Geofence.DefaultRadiusMeters, cfg.Geofence.TriggerRadiusMeters)
	accountService := ownerService.NewOwnerService(ownerRepo, tokenRepo, cfg.JWT.ExpirationHours)

	// Init handler
	publicHandler := rest.NewPublicHandler(adService, eventService, storeService, creditService)
	ownerHandler := rest.NewOwnerHandler(accountService)
	storeHandler := rest.NewStoreHandler(storeService, eventService)
	adHandler := rest.NewAdHandler(adService)
	creditHandler := rest.NewCreditHandler(creditService)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.HTTPErrorHandler = middleware.ErrorHandler

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	authRequired := middleware.AuthMiddlewareWithRedis(tokenRepo)

	api := e.Group("/api/v1")
	router.SetupPublicRoutes(api, publicHandler)
	router.SetupOwnerRoutes(api, ownerHandler, authRequired)
	router.SetupStoreRoutes(api, storeHandler, creditHandler, authRequired)
	router.SetupAdvertisementRoutes(api, adHandler, authRequired)

	// Background maintenance
	maintenanceCtx, stopMaintenance := context.WithCancel(context.Background())
	go runMaintenance(maintenanceCtx, eventService, limiter, creditService)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopMaintenance()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}

// runMaintenance drives the periodic sweeps: pruning old geofence events,
// collecting dead rate-limit windows and expiring stale credit balances.
func runMaintenance(ctx context.Context, eventService *events.EventService, limiter *ratelimit.Service, creditService *credits.CreditService) {
	hourly := time.NewTicker(time.Hour)
	daily := time.NewTicker(24 * time.Hour)
	defer hourly.Stop()
	defer daily.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-hourly.C:
			if _, err := limiter.Cleanup(ctx, 24*time.Hour); err != nil {
				logger.Error("Rate limit cleanup failed", err)
			}
		case <-daily.C:
			if _, err := eventService.Cleanup(ctx); err != nil {
				logger.Error("Geofence event cleanup failed", err)
			}
			if expired, err := creditService.ExpireStale(ctx); err != nil {
				logger.Error("Credit expiry sweep failed", err)
			} else if expired > 0 {
				logger.Info("Stale credit balances expired", "count", expired)
			}
		}
	}
}
