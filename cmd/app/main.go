package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rewards_engine/internal/api"
	"rewards_engine/internal/config"
	"rewards_engine/internal/middleware"
	"rewards_engine/internal/repository"
	"rewards_engine/internal/scheduler"
	"rewards_engine/internal/service"
	"rewards_engine/pkg/clock"
	"rewards_engine/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.LoadConfig(os.Getenv("APP_CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	err = logger.Initialize(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	serviceConfig, err := cfg.Service()
	if err != nil {
		zapLogger.Fatal("Invalid payouts config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	if err := repo.Migrate(ctx); err != nil {
		zapLogger.Fatal("Failed to apply schema", zap.Error(err))
	}

	svc := service.NewServiceFromStore(repo, clock.Real(), serviceConfig)

	if cfg.Scheduler.Enabled {
		var locker scheduler.Locker = scheduler.NoopLocker{}
		if cfg.Redis.Addr != "" {
			rdb := scheduler.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
			defer rdb.Close()
			if err := rdb.Ping(ctx).Err(); err != nil {
				zapLogger.Fatal("Failed to connect to redis", zap.Error(err))
			}
			locker = scheduler.NewRedisLocker(rdb)
		}

		runner := scheduler.NewRunner(svc, locker, scheduler.Config{
			Interval:   cfg.Scheduler.Interval,
			RunOnStart: cfg.Scheduler.RunOnStart,
			LockTTL:    cfg.Scheduler.LockTTL,
		})
		runner.Start(ctx)
		zapLogger.Info("Daily payouts scheduler started", zap.Duration("interval", cfg.Scheduler.Interval))
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}
	corsConfig.AllowHeaders = []string{"*"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour

	router.Use(cors.New(corsConfig))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	adminOnly := middleware.NewAuthorization(cfg.Admin.APIKey).AdminOnly()

	a := router.Group("/api/v1")
	api.NewUserRoutes(a, svc.UserService, svc)
	api.NewPayoutRoutes(a, svc.PayoutService, serviceConfig.MinimumPayoutCents)
	api.NewReferralRoutes(a, svc.ReferralService, svc.PayoutService)
	api.NewAdminRoutes(a, svc.PayoutService, adminOnly)

	srv := &http.Server{
		Addr:    cfg.ServerAddr(),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("Failed to shut down server", zap.Error(err))
		}
	}()

	zapLogger.Info("Starting server", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		zapLogger.Fatal("Failed to start server", zap.Error(err))
	}
	zapLogger.Info("Server stopped")
}
