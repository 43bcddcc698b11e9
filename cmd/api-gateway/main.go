package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/onstage-hq/onstage-api/api/swagger"
	"github.com/onstage-hq/onstage-api/internal/handler"
	"github.com/onstage-hq/onstage-api/internal/middleware"
	"github.com/onstage-hq/onstage-api/internal/models"
	"github.com/onstage-hq/onstage-api/internal/repository"
	"github.com/onstage-hq/onstage-api/internal/service"
	"github.com/onstage-hq/onstage-api/pkg/cache"
	"github.com/onstage-hq/onstage-api/pkg/config"
	"github.com/onstage-hq/onstage-api/pkg/database"
	"github.com/onstage-hq/onstage-api/pkg/logger"
	corsmiddleware "github.com/onstage-hq/onstage-api/pkg/middleware/cors"
	reqidmiddleware "github.com/onstage-hq/onstage-api/pkg/middleware/requestid"
)

// @title OnStage API
// @version 0.1.0
// @description Schedule builder and conflict engine for dance competitions
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	validate := validator.New()
	metrics := service.NewMetricsService()
	locks := service.NewEngineLocks()

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, true)
		}
	}

	scheduleRepo := repository.NewScheduleRepository(db)
	entryRepo := repository.NewEntryRepository(db)
	codeRepo := repository.NewStudioCodeRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	notifier := service.NewNotificationService(cfg.Notifications, logr)
	notifier.Start(context.Background())
	defer notifier.Stop()

	conflictSvc := service.NewConflictService(scheduleRepo, entryRepo, cfg.Scheduling.MinGapEntries, cfg.Scheduling.MinGapMinutes, logr)
	awardSvc := service.NewAwardService(scheduleRepo, entryRepo, logr)
	refresher := service.NewDerivedRefresher(conflictSvc, cacheSvc, notifier, metrics, logr)

	scheduleSvc := service.NewScheduleService(scheduleRepo, entryRepo, auditRepo, codeRepo, conflictSvc, awardSvc, cacheSvc, notifier, refresher, locks, validate, cfg.Scheduling, logr)
	generatorSvc := service.NewGeneratorService(scheduleRepo, entryRepo, refresher, metrics, locks, validate, logr)
	reorderSvc := service.NewReorderService(scheduleRepo, refresher, locks, validate, logr)
	codeSvc := service.NewStudioCodeService(codeRepo, locks, metrics, logr)
	exportSvc := service.NewExportService(scheduleRepo, entryRepo, codeRepo, logr)

	scheduleHandler := handler.NewScheduleHandler(scheduleSvc, generatorSvc, reorderSvc, conflictSvc, awardSvc, exportSvc)
	codeHandler := handler.NewStudioCodeHandler(codeSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/metrics/snapshot", metricsHandler.Snapshot)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT.Secret))

	competitions := api.Group("/competitions/:id")
	{
		competitions.POST("/schedule", scheduleHandler.Create)
		competitions.GET("/schedule", scheduleHandler.Summary)
		competitions.POST("/schedule/auto-generate", scheduleHandler.AutoGenerate)
		competitions.GET("/schedule/days/:day", scheduleHandler.Day)
		competitions.POST("/schedule/items", scheduleHandler.InsertItem)
		competitions.DELETE("/schedule/items/:itemId", scheduleHandler.RemoveItem)
		competitions.POST("/schedule/reorder", scheduleHandler.Reorder)
		competitions.POST("/schedule/lock", scheduleHandler.Lock)
		competitions.POST("/schedule/unlock", middleware.RequireRoles(models.UserRoleAdmin), scheduleHandler.Unlock)
		competitions.GET("/schedule/conflicts", scheduleHandler.Conflicts)
		competitions.GET("/schedule/awards", scheduleHandler.Awards)
		competitions.GET("/schedule/audit", scheduleHandler.AuditTrail)
		if cfg.Exports.Enabled {
			competitions.GET("/schedule/export", scheduleHandler.Export)
		}

		competitions.GET("/studio-codes", codeHandler.Table)
		competitions.POST("/studio-codes/assign", codeHandler.Assign)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
