package routers

import (
	"time"

	"github.com/haierkeys/gift-share-service/internal/app"
	"github.com/haierkeys/gift-share-service/internal/middleware"
	"github.com/haierkeys/gift-share-service/internal/routers/api_router"
	"github.com/haierkeys/gift-share-service/pkg/limiter"
	"github.com/haierkeys/gift-share-service/pkg/util"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
)

// shareLimiter 按客户端 IP 为每个分享接口建立令牌桶
func shareLimiter(cfg app.RateLimitConfig, artifacts []string) limiter.Face {
	l := limiter.NewClientLimiter()
	if !cfg.Enabled {
		return l
	}
	fill := util.MustParseDuration(cfg.FillInterval, time.Second)
	for _, a := range artifacts {
		l.AddBuckets(
			limiter.BucketRule{Key: "/api/" + a + "/submit", FillInterval: fill, Capacity: cfg.SubmitCapacity, Quantum: 1},
			limiter.BucketRule{Key: "/api/" + a + "/share", FillInterval: fill, Capacity: cfg.ShareCapacity, Quantum: 1},
		)
	}
	return l
}

// NewRouter 创建公开 API 路由
func NewRouter(appContainer *app.App, uni *ut.UniversalTranslator) *gin.Engine {

	// 获取配置
	cfg := appContainer.Config()
	lg := appContainer.Logger()

	endpoints := api_router.NewShareEndpoints(appContainer)
	artifacts := make([]string, 0, len(endpoints))
	for name := range endpoints {
		artifacts = append(artifacts, name)
	}

	r := gin.New()

	api := r.Group("/api")
	{
		api.Use(middleware.AppInfo(app.Name, app.VersionInfo().Version))
		api.Use(middleware.TraceMiddleware(cfg.Tracer.Enabled, cfg.Tracer.Header)) // Trace ID 中间件
		api.Use(middleware.RateLimiter(shareLimiter(cfg.Limit, artifacts)))
		api.Use(middleware.ContextTimeout(cfg.GetContextTimeout()))
		api.Use(middleware.Cors(cfg.Server.CorsOrigins))
		api.Use(middleware.LangWithTranslator(uni))
		api.Use(middleware.AccessLog(lg))
		api.Use(middleware.RecoveryWithLogger(lg))
		api.Use(middleware.AccountSession(cfg.Session.CookieName, cfg.Session.Secret, lg))

		healthHandler := api_router.NewHealthHandler(appContainer)
		versionHandler := api_router.NewVersionHandler(appContainer)

		api.GET("/health", healthHandler.Check)
		api.GET("/version", versionHandler.ServerVersion)

		// /api/gift/submit, /api/letter/share ...
		api.POST("/:artifact/submit", api_router.Dispatch(endpoints, func(e api_router.ShareEndpoint) gin.HandlerFunc { return e.Submit }))
		api.GET("/:artifact/share", api_router.Dispatch(endpoints, func(e api_router.ShareEndpoint) gin.HandlerFunc { return e.Consume }))
	}

	r.NoRoute(middleware.NoFound())

	return r
}
