package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	_ "github.com/noah-isme/entity-review-api/api/swagger"
	"github.com/noah-isme/entity-review-api/internal/handler"
	"github.com/noah-isme/entity-review-api/internal/repository"
	"github.com/noah-isme/entity-review-api/internal/service"
	"github.com/noah-isme/entity-review-api/internal/upstream"
	"github.com/noah-isme/entity-review-api/pkg/cache"
	"github.com/noah-isme/entity-review-api/pkg/config"
	"github.com/noah-isme/entity-review-api/pkg/database"
	"github.com/noah-isme/entity-review-api/pkg/jobs"
	"github.com/noah-isme/entity-review-api/pkg/logger"
)

// @title Entity Review API
// @version 1.0.0
// @description Review workspace for extracted asset, indication and catalyst records
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("redis unavailable", zap.Error(err))
	}
	defer redisClient.Close() //nolint:errcheck

	var db *sqlx.DB
	if cfg.Submissions.LogEnabled {
		db, err = database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			logr.Warn("postgres unavailable, submission log disabled", zap.Error(err))
			db = nil
		} else {
			defer db.Close() //nolint:errcheck
			if err := database.Migrate(ctx, db.DB); err != nil {
				logr.Fatal("failed to migrate database", zap.Error(err))
			}
		}
	}

	metricsSvc := service.NewMetricsService()
	workspaces := service.NewWorkspaceRegistry()
	metricsSvc.TrackWorkspaces(workspaces)
	go workspaces.RunSweeper(ctx, cfg.Workspace.SweepInterval, cfg.Workspace.IdleTTL, logr)

	backend := upstream.NewClient(cfg.Upstream, logr, upstream.WithObserver(metricsSvc))

	sessionRepo := repository.NewSessionRepository(redisClient)
	cacheRepo := repository.NewCacheRepository(redisClient)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, service.CacheServiceConfig{
		Enabled:    cfg.Cache.Enabled,
		DefaultTTL: cfg.Cache.PendingTTL,
		Prefix:     "entity-review:",
	}, logr)

	var submissionLog *service.SubmissionLogService
	var queue *jobs.Queue
	if db != nil {
		submissionLog = service.NewSubmissionLogService(repository.NewSubmissionRepository(db, metricsSvc), logr)
		queue = jobs.NewQueue("submission-log", submissionLog.HandleJob, jobs.QueueConfig{
			Workers:    cfg.Submissions.WorkerConcurrency,
			MaxRetries: cfg.Submissions.WorkerRetries,
			Logger:     logr,
		})
		queue.Start(ctx)
		submissionLog.UseQueue(queue)
	} else {
		submissionLog = service.NewSubmissionLogService(nil, logr)
	}

	authSvc := service.NewAuthService(backend, sessionRepo, workspaces, validator.New(), logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		Issuer:      cfg.JWT.Issuer,
		SessionTTL:  cfg.JWT.Expiration,
	})
	reviewSvc := service.NewReviewService(service.ReviewServiceParams{
		Backend:     backend,
		Workspaces:  workspaces,
		Cache:       cacheSvc,
		Submissions: submissionLog,
		Sessions:    authSvc,
		Metrics:     metricsSvc,
		Logger:      logr,
		Config:      service.ReviewServiceConfig{PendingCacheTTL: cfg.Cache.PendingTTL},
	})

	checks := map[string]handler.ReadinessCheck{
		"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	}
	if db != nil {
		checks["postgres"] = db.PingContext
	}

	r := newRouter(cfg, logr, routerDeps{
		auth:        authSvc,
		metrics:     metricsSvc,
		authH:       handler.NewAuthHandler(authSvc),
		reviewH:     handler.NewReviewHandler(reviewSvc),
		schemaH:     handler.NewSchemaHandler(),
		statsH:      handler.NewStatsHandler(reviewSvc, metricsSvc),
		submissionH: handler.NewSubmissionHandler(submissionLog),
		metricsH:    handler.NewMetricsHandler(metricsSvc, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "upstream", cfg.Upstream.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	if queue != nil {
		queue.Stop()
	}
}
