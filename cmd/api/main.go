package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/Ashu-Jha004/sportsv2-sub003/api/swagger"
	"github.com/Ashu-Jha004/sportsv2-sub003/internal/handler"
	"github.com/Ashu-Jha004/sportsv2-sub003/internal/middleware"
	"github.com/Ashu-Jha004/sportsv2-sub003/internal/models"
	"github.com/Ashu-Jha004/sportsv2-sub003/internal/repository"
	"github.com/Ashu-Jha004/sportsv2-sub003/internal/service"
	"github.com/Ashu-Jha004/sportsv2-sub003/pkg/cache"
	"github.com/Ashu-Jha004/sportsv2-sub003/pkg/config"
	"github.com/Ashu-Jha004/sportsv2-sub003/pkg/database"
	"github.com/Ashu-Jha004/sportsv2-sub003/pkg/logger"
	corsmiddleware "github.com/Ashu-Jha004/sportsv2-sub003/pkg/middleware/cors"
	reqidmiddleware "github.com/Ashu-Jha004/sportsv2-sub003/pkg/middleware/requestid"
)

// @title Sports Approval Workflow API
// @version 1.0.0
// @description Approval workflows and notification delivery for the athlete platform
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	// Redis is optional: without it the unread badge is computed per
	// request instead of cached.
	var cacheStore service.CacheStore
	cacheEnabled := cfg.Notifications.CacheEnabled
	if cacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
			cacheEnabled = false
		} else {
			defer redisClient.Close()
			cacheStore = repository.NewCacheRepository(redisClient, logr)
		}
	}
	cacheSvc := service.NewCacheService(cacheStore, metricsSvc, cfg.Notifications.UnreadCountTTL, logr, cacheEnabled)

	athleteRepo := repository.NewAthleteRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	teamRepo := repository.NewTeamFormationRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	txRunner := repository.NewTxRunner(db)

	dispatcher := service.NewNotificationDispatcher(notificationRepo)

	authSvc := service.NewAuthService(athleteRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	applicationSvc := service.NewApplicationService(applicationRepo, athleteRepo, txRunner, dispatcher, metricsSvc, validate, logr, cfg.Workflow.DefaultCooldownDays)
	teamSvc := service.NewTeamService(teamRepo, txRunner, dispatcher, metricsSvc, validate, logr)
	evaluationSvc := service.NewEvaluationService(evaluationRepo, athleteRepo, txRunner, dispatcher, metricsSvc, validate, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, cacheSvc, metricsSvc, logr, cfg.Notifications.DefaultPageSize, cfg.Notifications.MaxPageSize, cfg.Notifications.UnreadCountTTL)

	authHandler := handler.NewAuthHandler(authSvc)
	applicationHandler := handler.NewApplicationHandler(applicationSvc)
	teamHandler := handler.NewTeamHandler(teamSvc)
	evaluationHandler := handler.NewEvaluationHandler(evaluationSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	applications := authed.Group("/applications")
	{
		applications.POST("", applicationHandler.Submit)
		applications.GET("", middleware.RequireRoles(models.RoleModerator), applicationHandler.List)
		applications.GET("/:id", applicationHandler.Get)
		applications.POST("/:id/claim", middleware.RequireRoles(models.RoleModerator), applicationHandler.Claim)
		applications.POST("/:id/approve", middleware.RequireRoles(models.RoleModerator), applicationHandler.Approve)
		applications.POST("/:id/reject", middleware.RequireRoles(models.RoleModerator), applicationHandler.Reject)
	}

	teamApplications := authed.Group("/team-applications")
	{
		teamApplications.POST("", teamHandler.Submit)
		teamApplications.GET("", middleware.RequireRoles(models.RoleModerator), teamHandler.List)
		teamApplications.GET("/:id", teamHandler.Get)
		teamApplications.POST("/:id/approve", middleware.RequireRoles(models.RoleModerator), teamHandler.Approve)
		teamApplications.POST("/:id/reject", middleware.RequireRoles(models.RoleModerator), teamHandler.Reject)
	}

	evaluations := authed.Group("/evaluations")
	{
		evaluations.POST("", evaluationHandler.Create)
		evaluations.GET("/incoming", middleware.RequireRoles(models.RoleGuide), evaluationHandler.ListIncoming)
		evaluations.GET("/outgoing", evaluationHandler.ListOutgoing)
		evaluations.GET("/:id", evaluationHandler.Get)
		evaluations.POST("/:id/accept", middleware.RequireRoles(models.RoleGuide), evaluationHandler.Accept)
		evaluations.POST("/:id/reject", middleware.RequireRoles(models.RoleGuide), evaluationHandler.Reject)
	}

	notifications := authed.Group("/notifications")
	{
		notifications.GET("", notificationHandler.List)
		notifications.GET("/unread-count", notificationHandler.UnreadCount)
		notifications.POST("/read-all", notificationHandler.MarkAllRead)
		notifications.DELETE("", notificationHandler.ClearAll)
		notifications.POST("/:id/read", notificationHandler.MarkRead)
		notifications.POST("/:id/unread", notificationHandler.MarkUnread)
		notifications.DELETE("/:id", notificationHandler.Delete)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
