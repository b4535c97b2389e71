package main

import (
	"context"
	"fmt"
	"log"
	appmetrics "myTrendyMart/app/echo-server/metrics"
	"myTrendyMart/app/echo-server/router"
	"myTrendyMart/business/discount"
	"myTrendyMart/business/recovery"
	"myTrendyMart/internal/middleware"
	"myTrendyMart/internal/repository/notification"
	psqlRepo "myTrendyMart/internal/repository/postgres"
	redisRepo "myTrendyMart/internal/repository/redis"
	"myTrendyMart/internal/rest"
	"myTrendyMart/pkg/config"
	"myTrendyMart/pkg/database"
	redisdb "myTrendyMart/pkg/database/redis"
	"myTrendyMart/pkg/logger"
	"myTrendyMart/pkg/metrics"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting MyTrendyMart pricing engine", "version", cfg.App.Version)

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	logger.Info("Database connected successfully")

	redisClient, err := redisdb.NewRedisClient(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to redis", "error", err)
	}
	defer func() {
		if err := redisdb.CloseRedisClient(redisClient); err != nil {
			logger.Error("Failed to close redis client", "error", err)
		}
	}()

	// Init reminder mailer from mailjet
	reminderMailer := notification.NewReminderMailer(
		notification.MailjetConfig{
			MailjetBaseURL:           cfg.Mailjet.MailjetBaseUrl,
			MailjetBasicAuthUsername: cfg.Mailjet.MailjetBasicAuthUsername,
			MailjetBasicAuthPassword: cfg.Mailjet.MailjetBasicAuthPassword,
			MailjetSenderEmail:       cfg.Mailjet.MailjetSenderEmail,
			MailjetSenderName:        cfg.Mailjet.MailjetSenderName,
			StoreURL:                 cfg.App.StoreURL,
		},
	)

	// Init metrics
	metrics.Init()
	appmetrics.Init()

	// Init repo
	couponRepo := psqlRepo.NewCouponRepository(db)
	ruleRepo := psqlRepo.NewRuleRepository(db)
	redemptionRepo := psqlRepo.NewRedemptionRepository(db)
	snapshotRepo := psqlRepo.NewCartSnapshotRepository(db)

	couponCache := redisRepo.NewCouponCache(redisClient, couponRepo, cfg.Pricing.CouponCacheTTL)

	// Init service
	discountService := discount.NewService(couponCache, ruleRepo, redemptionRepo)

	recoveryService, err := recovery.NewService(snapshotRepo, reminderMailer, recovery.Config{
		IdleThreshold:       cfg.Recovery.IdleThreshold,
		FirstReminderAfter:  cfg.Recovery.FirstReminderAfter,
		SecondReminderAfter: cfg.Recovery.SecondReminderAfter,
		FinalReminderAfter:  cfg.Recovery.FinalReminderAfter,
	})
	if err != nil {
		logger.Fatal("Failed to init recovery service", "error", err)
	}

	// Init handler
	discountHandler := rest.NewDiscountHandler(discountService)
	cartHandler := rest.NewCartHandler(recoveryService)
	recoveryHandler := rest.NewRecoveryHandler(recoveryService)
	couponAdminHandler := rest.NewCouponAdminHandler(couponRepo, couponCache)
	ruleAdminHandler := rest.NewRuleAdminHandler(ruleRepo)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(middleware.RequestLogger())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// Setup routes
	api := e.Group("/api/v1")
	router.SetupPricingRoutes(api, discountHandler)
	router.SetupCartRoutes(api, cartHandler)
	router.SetupRecoveryRoutes(api, recoveryHandler)
	router.SetupCouponAdminRoutes(api, couponAdminHandler)
	router.SetupRuleAdminRoutes(api, ruleAdminHandler)
	router.SetupMetricsRoute(e)

	// Background sweep ticker. The HTTP sweep endpoint drives the same
	// entry point; overlap is safe.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go runSweepLoop(sweepCtx, recoveryService, cfg.Recovery.SweepInterval)

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

	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown server
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}

func runSweepLoop(ctx context.Context, svc *recovery.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.Sweep(ctx, time.Now()); err != nil {
				logger.Error("Background sweep failed", "error", err)
			}
		}
	}
}
