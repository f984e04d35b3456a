// Package main runs the internship tracking HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/interntrack/backend/config"
	"github.com/interntrack/backend/internal/auth"
	"github.com/interntrack/backend/internal/members"
	"github.com/interntrack/backend/internal/middleware"
	"github.com/interntrack/backend/internal/models"
	"github.com/interntrack/backend/internal/organizations"
	"github.com/interntrack/backend/internal/reports"
	"github.com/interntrack/backend/internal/token"
	"github.com/interntrack/backend/internal/worker"
	"github.com/interntrack/backend/pkg/database"
	"github.com/interntrack/backend/pkg/email"
	"github.com/interntrack/backend/pkg/queue"
	"github.com/interntrack/backend/pkg/redis"
	"github.com/interntrack/backend/pkg/response"
	"github.com/interntrack/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	store, err := storage.New(ctx, storage.Config{
		Endpoint:             cfg.Storage.Endpoint,
		Region:               cfg.Storage.Region,
		AccessKeyID:          cfg.Storage.AccessKeyID,
		SecretAccessKey:      cfg.Storage.SecretAccessKey,
		Bucket:               cfg.Storage.Bucket,
		PresignExpireMinutes: cfg.Storage.PresignExpireMinutes,
		LocalDir:             cfg.Storage.LocalDir,
		LocalBaseURL:         cfg.Storage.LocalBaseURL,
	}, logger)
	if err != nil {
		logger.Fatal("storage", zap.Error(err))
	}

	jwtService := token.NewService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	var sender email.Sender = email.NewLogSender(logger)
	if cfg.Email.SMTPHost != "" {
		sender = email.NewSMTPSender(
			cfg.Email.SMTPHost, cfg.Email.SMTPPort,
			cfg.Email.SMTPUser, cfg.Email.SMTPPass,
			cfg.Email.FromAddress, cfg.Email.FromName,
		)
	}
	emailProcessor := worker.NewEmailProcessor(sender, jobQueue, logger)

	// Organizations
	orgRepo := organizations.NewRepository(pool)
	orgHandler := organizations.NewHandler(orgRepo)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, orgRepo, jwtService, jobQueue, cfg, logger)

	// Members
	memberRepo := members.NewRepository(pool)
	memberHandler := members.NewHandler(memberRepo, orgRepo, logger)

	// Reports
	reportRepo := reports.NewRepository(pool)
	attachments := reports.NewAttachmentManager(store, reportRepo, orgRepo, logger)
	reportHandler := reports.NewHandler(reportRepo, attachments, store, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Local storage fallback serves uploads directly.
	if local, ok := store.(*storage.LocalStore); ok {
		router.Static(cfg.Storage.LocalBaseURL, local.Root())
	}

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.GET("/verify-email/:token", authHandler.VerifyEmail)
		authGroup.POST("/accept-invite/:token", authHandler.AcceptInvite)
	}

	// Protected API (JWT + organization context)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	api.Use(middleware.OrgContext(authRepo, orgRepo))
	{
		api.GET("/auth/me", authHandler.Me)
		api.POST("/auth/invite", middleware.RequireAdmin(), authHandler.Invite)

		// Organization
		api.GET("/organizations/me", orgHandler.GetMine)

		// Team
		api.GET("/users/team", middleware.RequireAdmin(), memberHandler.GetTeam)
		api.GET("/users/interns", middleware.RequireAdmin(), memberHandler.GetInterns)
		api.PUT("/users/profile", memberHandler.UpdateProfile)
		api.GET("/users/:id", memberHandler.GetUser)
		api.PUT("/users/:id/deactivate", middleware.RequireAdmin(), memberHandler.Deactivate)
		api.PUT("/users/:id/reactivate", middleware.RequireAdmin(), memberHandler.Reactivate)
		api.PUT("/users/:id/promote", middleware.RequireAdmin(), memberHandler.Promote)

		// Reports
		api.POST("/reports", middleware.RequireRole(models.RoleIntern), reportHandler.Create)
		api.GET("/reports/my", reportHandler.ListMine)
		api.GET("/reports", middleware.RequireAdmin(), reportHandler.List)
		api.GET("/reports/stats", middleware.RequireAdmin(), reportHandler.GetStats)
		api.GET("/reports/:id", reportHandler.Get)
		api.GET("/reports/:id/download", reportHandler.Download)
		api.PUT("/reports/:id", reportHandler.Update)
		api.PUT("/reports/:id/submit", reportHandler.Submit)
		api.PUT("/reports/:id/undo", reportHandler.Undo)
		api.PUT("/reports/:id/review", middleware.RequireAdmin(), reportHandler.BeginReview)
		api.PUT("/reports/:id/grade", middleware.RequireAdmin(), reportHandler.Grade)
		api.DELETE("/reports/:id", reportHandler.Delete)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background worker (invite and verification emails)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go emailProcessor.Run(workerCtx)
	logger.Info("email worker started")

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
