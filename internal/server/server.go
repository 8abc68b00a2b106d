package server

import (
	"context"
	"strings"

	"anoa.com/lumirarewards/internal/config"
	"anoa.com/lumirarewards/internal/handler"
	"anoa.com/lumirarewards/internal/middleware"
	"anoa.com/lumirarewards/internal/repository"
	"anoa.com/lumirarewards/internal/scheduler"
	"anoa.com/lumirarewards/internal/service"
	"anoa.com/lumirarewards/pkg/lock"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
	jobs        *scheduler.Scheduler
}

func NewServer(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *Server {
	txnRepo := repository.NewTransactionRepository(db)
	levelRepo := repository.NewLevelRepository(db)
	streakRepo := repository.NewStreakRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	referralRepo := repository.NewReferralRepository(db)

	campaignSvc := service.NewCampaignService(campaignRepo)
	levelSvc := service.NewLevelService(levelRepo, txnRepo, cfg.GraceWindow, cfg.SweepBatchSize)
	ledgerSvc := service.NewLedgerService(
		txnRepo, campaignSvc, service.DefaultSourceRegistry(),
		lock.New(redisClient), levelSvc, cfg.DecayWindow,
	)
	streakSvc := service.NewStreakService(streakRepo, ledgerSvc, cfg.DefaultTimezone)
	expirySvc := service.NewExpiryService(txnRepo, ledgerSvc, levelSvc, redisClient, cfg.ExpiryWarnWindow, cfg.SweepBatchSize)
	historySvc := service.NewHistoryService(txnRepo)
	leaderboardSvc := service.NewLeaderboardService(txnRepo, levelRepo)
	referralSvc := service.NewReferralService(referralRepo, levelRepo, ledgerSvc)

	jobs := scheduler.New()
	jobs.Register(scheduler.NewJob("expiry-warn", cfg.ExpiryWarnCron, func(ctx context.Context) error {
		_, err := expirySvc.Warn(ctx)
		return err
	}))
	jobs.Register(scheduler.NewJob("expiry-check", cfg.ExpiryCheckCron, func(ctx context.Context) error {
		_, err := expirySvc.Check(ctx)
		return err
	}))
	jobs.Register(scheduler.NewJob("grace-sweep", cfg.GraceSweepCron, func(ctx context.Context) error {
		_, err := levelSvc.ProcessGraceExpirations(ctx)
		return err
	}))
	jobs.Register(scheduler.NewJob("daily-maintenance", cfg.DailyMaintenanceCron, streakSvc.DailyMaintenance))

	eventHandler := handler.NewEventHandler(ledgerSvc, streakSvc, referralSvc)
	rewardsHandler := handler.NewRewardsHandler(levelSvc, streakSvc, historySvc, leaderboardSvc, referralSvc)
	adminHandler := handler.NewAdminHandler(ledgerSvc, levelSvc, campaignSvc, jobs)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret)

	engine := gin.Default()
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(cfg.AllowedOrigins, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	api := engine.Group("/api")

	// Read-only dashboard endpoints
	api.GET("/users/:id/progress", rewardsHandler.GetProgress)
	api.GET("/users/:id/streak", rewardsHandler.GetStreak)
	api.GET("/users/:id/history", rewardsHandler.GetHistory)
	api.GET("/users/:id/earnings", rewardsHandler.GetEarnings)
	api.GET("/leaderboard", rewardsHandler.GetLeaderboard)

	// Trigger sources and admin tooling authenticate with service tokens
	protected := api.Group("")
	protected.Use(authMiddleware.RequireService())
	{
		protected.POST("/events", eventHandler.CreditEvent)
		protected.POST("/orders", eventHandler.OrderPaid)
		protected.POST("/users/:id/activity", eventHandler.RecordActivity)
		protected.POST("/referrals", eventHandler.RegisterReferral)

		admin := protected.Group("/admin")
		{
			admin.POST("/adjustments", adminHandler.CreateAdjustment)
			admin.GET("/campaigns", adminHandler.ListCampaigns)
			admin.POST("/campaigns", adminHandler.CreateCampaign)
			admin.POST("/sweeps/:name", adminHandler.RunSweep)
		}
	}

	return &Server{
		engine:      engine,
		db:          db,
		redisClient: redisClient,
		jobs:        jobs,
	}
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) Run(port string) error {
	s.jobs.Start()
	defer s.jobs.Stop()
	return s.engine.Run(":" + port)
}
