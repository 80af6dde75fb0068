package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/cropvault/pkg/internal/handle"
)

// RegisterStatsRoutes 注册统计相关路由.
// middlewares 通常是缓存中间件（统计结果允许短暂陈旧），可以为空.
func RegisterStatsRoutes(g *gin.RouterGroup, middlewares ...gin.HandlerFunc) {
	statsRoutes := g.Group("/stats")
	statsRoutes.Use(middlewares...)
	{
		statsRoutes.GET("/dashboard", handle.GetDashboardStats)  // 仪表盘总体统计
		statsRoutes.GET("/encryption", handle.GetEncryptionStats) // 加密覆盖统计
		statsRoutes.GET("/trend", handle.GetUploadTrend)          // 每日上传趋势
	}
}
