// Package api 负责把各业务路由组装到 gin 引擎上.
package api

import (
	"github.com/gin-gonic/gin"

	appcache "github.com/yeisme/cropvault/pkg/cache"
	"github.com/yeisme/cropvault/pkg/internal/router"
	"github.com/yeisme/cropvault/pkg/internal/storage"
	"github.com/yeisme/cropvault/pkg/middleware"
)

// RegisterGroup 在 /api/v1 下注册全部业务路由.
// KV 可用时为统计类 GET 接口挂缓存中间件（统计允许短暂陈旧）.
func RegisterGroup(e *gin.Engine, mgr *storage.Manager) *gin.Engine {
	v1 := e.Group("/api/v1")

	router.RegisterDatasetsRoutes(v1)
	router.RegisterImagesRoutes(v1)
	router.RegisterMappingsRoutes(v1)
	router.RegisterAuthRoutes(v1)
	router.RegisterHealthCheckRoute(v1)
	router.RegisterSchedulerRoutes(v1)

	var statsMiddlewares []gin.HandlerFunc

	if mgr != nil && mgr.GetKVClient() != nil {
		cacheConf := middleware.DefaultCacheConfig(appcache.NewCache(mgr.GetKVClient()))
		statsMiddlewares = append(statsMiddlewares, middleware.CacheMiddleware(cacheConf))
	}

	router.RegisterStatsRoutes(v1, statsMiddlewares...)

	return e
}
