package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rateview/app/echo-server/router"
	"rateview/business/engagement"
	"rateview/business/exposure"
	"rateview/business/scoring"
	"rateview/internal/middleware"
	psqlRepo "rateview/internal/repository/postgres"
	redisRepo "rateview/internal/repository/redis"
	"rateview/internal/rest"
	"rateview/pkg/config"
	"rateview/pkg/database"
	redisDB "rateview/pkg/database/redis"
	"rateview/pkg/logger"
	"rateview/pkg/metrics"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting exposure engine", "version", cfg.App.Version)

	if sum := cfg.WeightSum(); math.Abs(sum-1.0) > 1e-9 {
		logger.Warn("exposure weights do not sum to 1.0", "sum", sum)
	}

	metrics.Init()

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	logger.Info("Database connected successfully")

	// Optional shared cache tier
	var externalCache exposure.ExternalCache
	if cfg.Redis.RedisHost != "" {
		redisClient, err := redisDB.NewRedisClient(cfg)
		if err != nil {
			logger.Fatal("Failed to connect to redis", "error", err)
		}
		defer func() {
			if err := redisDB.CloseRedisClient(redisClient); err != nil {
				logger.Error("Redis close error", "error", err)
			}
		}()
		externalCache = redisRepo.NewExposureCacheRepository(redisClient)
		logger.Info("Redis cache tier enabled", "host", cfg.Redis.RedisHost)
	} else {
		logger.Info("Redis cache tier disabled, using in-process cache only")
	}

	// Init repo
	engagementRepo := psqlRepo.NewEngagementRepository(db)
	rankingRepo := psqlRepo.NewRankingRepository(db)
	slotRepo := psqlRepo.NewExposureSlotRepository(db)
	promotionRepo := psqlRepo.NewPromotionRepository(db)
	catalogClient := psqlRepo.NewCatalogClient(db)

	// Init service
	scoringService := scoring.NewScoringService(engagementRepo, rankingRepo, catalogClient, scoring.Config{
		PopularityWeight:  cfg.Exposure.PopularityWeight,
		StrategicWeight:   cfg.Exposure.StrategicWeight,
		WindowDays:        cfg.Scoring.WindowDays,
		HalfLifeDays:      cfg.Scoring.HalfLifeDays,
		FreshnessHalfLife: cfg.Scoring.FreshnessHalfLife,
	})

	payloadCache := exposure.NewPayloadCache(cfg.Exposure.CacheTTL, externalCache)
	builder := exposure.NewBuilder(rankingRepo, slotRepo, promotionRepo, catalogClient, payloadCache, exposure.Config{
		PopularityWeight:   cfg.Exposure.PopularityWeight,
		StrategicWeight:    cfg.Exposure.StrategicWeight,
		CategoryCap:        cfg.Exposure.CategoryCap,
		ColdThreshold:      cfg.Exposure.ColdThreshold,
		StockThreshold:     cfg.Exposure.StockThreshold,
		FreshnessThreshold: cfg.Exposure.FreshnessThreshold,
		CacheTTL:           cfg.Exposure.CacheTTL,
	})
	exposureService := exposure.NewExposureService(builder, payloadCache, slotRepo)

	eventBuffer := engagement.NewEventBuffer(cfg.Ingest.BufferCapacity, cfg.Ingest.DedupCapacity)
	engagementService := engagement.NewEngagementService(engagementRepo, eventBuffer)

	// Init handler
	exposureHandler := rest.NewExposureHandler(exposureService)
	scoringHandler := rest.NewScoringHandler(scoringService)
	engagementHandler := rest.NewEngagementHandler(engagementService)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	// Setup routes
	router.SetExposureRoutes(e, exposureHandler)
	router.SetScoringRoutes(e, scoringHandler, middleware.InternalKey(cfg.App.InternalAPIKey))
	router.SetEngagementRoutes(e, engagementHandler)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Background scoring ticker
	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()
	if cfg.Scoring.Interval > 0 {
		go runScoringLoop(runCtx, scoringService, cfg.Scoring.Interval, cfg.Scoring.WindowDays)
	}

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
	cancelRun()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Flush buffered engagement events before the server stops
	if err := engagementService.FlushPending(ctx); err != nil {
		logger.Error("Engagement flush error", "error", err)
	}

	// Shutdown server
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}

// runScoringLoop re-scores all products on a fixed interval until ctx is
// cancelled. A run skipped because another is in flight is not an error.
func runScoringLoop(ctx context.Context, svc *scoring.ScoringService, interval time.Duration, windowDays int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("Scoring ticker started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			logger.Info("Scoring ticker stopped")
			return
		case <-ticker.C:
			result, err := svc.RunScoring(ctx, windowDays)
			if err != nil {
				if err == scoring.ErrRunInProgress {
					continue
				}
				logger.Error("Scheduled scoring run failed", "error", err)
				continue
			}
			logger.Info("Scheduled scoring run finished", "updated", result.Count)
		}
	}
}
