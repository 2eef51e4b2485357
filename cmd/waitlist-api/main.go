package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/planewx/waitlist-api/internal/client"
	"github.com/planewx/waitlist-api/internal/handler"
	"github.com/planewx/waitlist-api/internal/mailer"
	"github.com/planewx/waitlist-api/internal/middleware"
	"github.com/planewx/waitlist-api/internal/repository"
	"github.com/planewx/waitlist-api/internal/service"
	"github.com/planewx/waitlist-api/pkg/cache"
	"github.com/planewx/waitlist-api/pkg/config"
	"github.com/planewx/waitlist-api/pkg/database"
	"github.com/planewx/waitlist-api/pkg/logger"
	corsmiddleware "github.com/planewx/waitlist-api/pkg/middleware/cors"
	reqidmiddleware "github.com/planewx/waitlist-api/pkg/middleware/requestid"
	"github.com/planewx/waitlist-api/pkg/pacer"
)

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

	// Redis is optional: without it the public count simply hits the
	// database on every request.
	var cacheSvc *service.CacheService
	if redisClient, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Sugar().Warnw("redis unavailable, continuing without cache", "error", err)
	} else {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Waitlist.CountCacheTTL, logr, cfg.Waitlist.CacheEnabled)
		defer cacheRepo.Close() //nolint:errcheck
	}

	waitlistRepo := repository.NewWaitlistRepository(db)
	profileRepo := repository.NewProfileRepository(db)

	mail := mailer.New(mailer.Config{
		APIKey:     cfg.Email.APIKey,
		BaseURL:    cfg.Email.BaseURL,
		FromEmail:  cfg.Email.FromEmail,
		AdminEmail: cfg.Email.AdminEmail,
		LandingURL: cfg.Email.LandingURL,
		Timeout:    cfg.Email.SendTimeout,
	}, logr)

	accounts := client.NewAccountsClient(cfg.Accounts.BaseURL, cfg.Accounts.ServiceKey, cfg.Accounts.Timeout)

	validate := validator.New()
	tokens := service.NewTokenIssuer(cfg.Waitlist.InviteTTL)
	lifecycle := service.NewLifecycle(waitlistRepo, tokens)
	sendPacer := pacer.NewFixed(cfg.Waitlist.SendDelay)

	signupSvc := service.NewSignupService(waitlistRepo, mail, validate, logr)
	countSvc := service.NewCountService(waitlistRepo, cacheSvc, cfg.Waitlist.CountBase, cfg.Waitlist.CountCacheTTL)
	inviteSvc := service.NewInviteService(waitlistRepo)
	adminSvc := service.NewAdminService(cfg.Admin.Secret, waitlistRepo, profileRepo, lifecycle, mail, sendPacer, accounts, logr)

	waitlistHandler := handler.NewWaitlistHandler(signupSvc, countSvc, metricsSvc)
	inviteHandler := handler.NewInviteHandler(inviteSvc, mail)
	adminHandler := handler.NewAdminHandler(adminSvc, metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	api := r.Group(cfg.APIPrefix)
	{
		waitlist := api.Group("/waitlist")
		{
			waitlist.POST("/join", waitlistHandler.Join)
			waitlist.GET("/count", waitlistHandler.Count)
			waitlist.GET("/validate-invite", inviteHandler.Validate)
			waitlist.GET("/preview-email", inviteHandler.PreviewEmail)
		}

		admin := api.Group("/admin/waitlist")
		{
			admin.GET("", adminHandler.List)
			admin.POST("/action", adminHandler.BulkAction)
			admin.POST("/mark-joined", adminHandler.MarkJoined)
			admin.POST("/sync-joined", adminHandler.SyncJoined)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
