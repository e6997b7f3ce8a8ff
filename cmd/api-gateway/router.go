package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/entity-review-api/internal/handler"
	"github.com/noah-isme/entity-review-api/internal/middleware"
	"github.com/noah-isme/entity-review-api/internal/service"
	"github.com/noah-isme/entity-review-api/pkg/config"
	"github.com/noah-isme/entity-review-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/entity-review-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/entity-review-api/pkg/middleware/requestid"
)

type routerDeps struct {
	auth        *service.AuthService
	metrics     *service.MetricsService
	authH       *handler.AuthHandler
	reviewH     *handler.ReviewHandler
	schemaH     *handler.SchemaHandler
	statsH      *handler.StatsHandler
	submissionH *handler.SubmissionHandler
	metricsH    *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", deps.metricsH.Health)
	r.GET("/ready", deps.metricsH.Ready)
	r.GET("/metrics", deps.metricsH.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", deps.authH.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.auth))
	secured.POST("/auth/logout", deps.authH.Logout)

	reviews := secured.Group("/reviews")
	reviews.GET("/pending", deps.reviewH.Pending)
	reviews.GET("/:id", deps.reviewH.Open)
	reviews.DELETE("/:id", deps.reviewH.Discard)
	reviews.PATCH("/:id/records/:index/fields/:field", deps.reviewH.EditField)
	reviews.PUT("/:id/records/:index/disposition", deps.reviewH.SetDisposition)
	reviews.PUT("/:id/disposition", deps.reviewH.ApplyBulk)
	reviews.GET("/:id/summary", deps.reviewH.Summary)
	reviews.GET("/:id/submission", deps.reviewH.Preview)
	reviews.POST("/:id/submit", deps.reviewH.Submit)
	reviews.GET("/:id/export", deps.reviewH.Export)

	secured.GET("/schemas/:category", deps.schemaH.Get)
	secured.GET("/stats/quick", deps.statsH.Quick)
	secured.GET("/stats/system", deps.statsH.System)
	secured.GET("/submissions", deps.submissionH.List)

	return r
}
