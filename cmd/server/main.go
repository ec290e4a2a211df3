// Package main runs the nightlife platform HTTP server with graceful shutdown.
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

	"github.com/nitehive/backend/config"
	"github.com/nitehive/backend/internal/ads"
	"github.com/nitehive/backend/internal/auction"
	"github.com/nitehive/backend/internal/auth"
	"github.com/nitehive/backend/internal/bookings"
	"github.com/nitehive/backend/internal/middleware"
	"github.com/nitehive/backend/internal/notifications"
	"github.com/nitehive/backend/internal/venues"
	"github.com/nitehive/backend/internal/vouchers"
	"github.com/nitehive/backend/internal/wallets"
	"github.com/nitehive/backend/internal/worker"
	"github.com/nitehive/backend/pkg/database"
	"github.com/nitehive/backend/pkg/queue"
	"github.com/nitehive/backend/pkg/redis"
	"github.com/nitehive/backend/pkg/response"
	"github.com/nitehive/backend/pkg/storage"
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

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			CreativesBucket:      cfg.AWS.CreativesBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Venues
	venueRepo := venues.NewRepository(pool)
	venueHandler := venues.NewHandler(venueRepo)

	// Notifications
	notifRepo := notifications.NewRepository(pool)
	notifHandler := notifications.NewHandler(notifRepo)

	// Ads: repositories, counter ledger, static rotation, auction engine
	adRepo := ads.NewRepository(pool)
	staticRepo := ads.NewStaticRepository(pool)
	logRepo := ads.NewLogRepository(pool)
	ledger := ads.NewLedger(adRepo, logRepo, logger)
	rotation := ads.NewRotation(staticRepo)

	scorer := auction.NewScorer(auction.Config{
		PredictedCTR:    cfg.Auction.PredictedCTR,
		QualityScore:    cfg.Auction.QualityScore,
		MinScore:        cfg.Auction.MinScore,
		PacingLowSpend:  cfg.Auction.PacingLowSpend,
		PacingMidSpend:  cfg.Auction.PacingMidSpend,
		PacingHighSpend: cfg.Auction.PacingHighSpend,
		PacingOverSpend: cfg.Auction.PacingOverSpend,
		LowSpendRatio:   cfg.Auction.LowSpendRatio,
		MidSpendRatio:   cfg.Auction.MidSpendRatio,
		HighSpendRatio:  cfg.Auction.HighSpendRatio,
	})
	engine := auction.NewEngine(adRepo, rotation, ledger, logRepo, scorer, logger)

	adHandler := ads.NewHandler(adRepo, staticRepo, venueRepo, notifRepo, ledger, logRepo, s3Client, logger)
	serveHandler := ads.NewServeHandler(engine, ledger, jobQueue, logger)

	// Bookings
	bookingRepo := bookings.NewRepository(pool)
	bookingHandler := bookings.NewHandler(bookingRepo, venueRepo, notifRepo, logger)

	// Wallets and vouchers
	walletRepo := wallets.NewRepository(pool)
	walletHandler := wallets.NewHandler(walletRepo)
	voucherRepo := vouchers.NewRepository(pool)
	voucherHandler := vouchers.NewHandler(voucherRepo, walletRepo, notifRepo, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Public venue discovery
	router.GET("/venues", venueHandler.List)
	router.GET("/venues/:id", venueHandler.GetByID)

	// Public ad delivery. Serve attributes the viewer when a token is present
	// but never requires one; clicks come from rendered pages.
	router.GET("/venues/:id/ads/serve", middleware.OptionalJWT(jwtService), serveHandler.Serve)
	router.POST("/ads/:id/click", serveHandler.Click)

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Users (admin only)
		api.GET("/users", middleware.RequireRole("admin"), authHandler.List)

		// Venues
		api.POST("/venues", middleware.RequireRole("admin", "venue_owner"), venueHandler.Create)

		// Dynamic ads: creation and creative upload (venue owner), moderation
		// and budget attach (admin), pause/resume (owner or admin)
		api.POST("/venues/:id/ads", middleware.RequireRole("admin", "venue_owner"), adHandler.Create)
		api.GET("/venues/:id/ads", middleware.RequireRole("admin", "venue_owner"), adHandler.ListByVenue)
		api.POST("/venues/:id/ads/upload", middleware.RequireRole("admin", "venue_owner"), adHandler.UploadCreative)
		api.PATCH("/ads/:id/approve", middleware.RequireRole("admin"), adHandler.Approve)
		api.PATCH("/ads/:id/reject", middleware.RequireRole("admin"), adHandler.Reject)
		api.POST("/ads/:id/budget", middleware.RequireRole("admin"), adHandler.AttachBudget)
		api.POST("/ads/:id/pause", middleware.RequireRole("admin", "venue_owner"), adHandler.Pause)
		api.POST("/ads/:id/resume", middleware.RequireRole("admin", "venue_owner"), adHandler.Resume)
		api.POST("/ads/:id/reconcile", middleware.RequireRole("admin"), adHandler.Reconcile)
		api.GET("/ads/:id/audit", middleware.RequireRole("admin"), adHandler.Audit)

		// Static house-ad pool (admin)
		api.POST("/static-ads", middleware.RequireRole("admin"), adHandler.CreateStatic)
		api.GET("/static-ads", middleware.RequireRole("admin"), adHandler.ListStatic)
		api.PATCH("/static-ads/:id/enabled", middleware.RequireRole("admin"), adHandler.SetStaticEnabled)
		api.DELETE("/static-ads/:id", middleware.RequireRole("admin"), adHandler.DeleteStatic)

		// Delivery stats (admin)
		api.GET("/auction/stats", middleware.RequireRole("admin"), serveHandler.Stats)

		// Bookings
		api.POST("/venues/:id/bookings", bookingHandler.Create)
		api.GET("/venues/:id/bookings", middleware.RequireRole("admin", "venue_owner"), bookingHandler.ListByVenue)
		api.GET("/bookings", bookingHandler.ListMine)
		api.POST("/bookings/:id/confirm", middleware.RequireRole("admin", "venue_owner"), bookingHandler.Confirm)
		api.POST("/bookings/:id/cancel", bookingHandler.Cancel)

		// Wallet
		api.GET("/wallet", walletHandler.Get)
		api.GET("/wallet/transactions", walletHandler.Transactions)
		api.POST("/wallet/credit", middleware.RequireRole("admin"), walletHandler.Credit)
		api.POST("/wallet/debit", middleware.RequireRole("admin"), walletHandler.Debit)

		// Vouchers
		api.POST("/vouchers", middleware.RequireRole("admin"), voucherHandler.Create)
		api.GET("/vouchers", middleware.RequireRole("admin"), voucherHandler.List)
		api.POST("/vouchers/claim", voucherHandler.Claim)

		// Notifications
		api.GET("/notifications", notifHandler.List)
		api.PATCH("/notifications/:id/read", notifHandler.MarkRead)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// In-process ad event worker; the dedicated cmd/worker binary runs the
	// same loop when deployed separately.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	processor := worker.NewAdEventProcessor(ledger, jobQueue, logger)
	go processor.Run(workerCtx)

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
