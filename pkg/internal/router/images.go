package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/cropvault/pkg/internal/handle"
)

// RegisterImagesRoutes 注册作物图片相关路由.
func RegisterImagesRoutes(g *gin.RouterGroup) {
	imagesRoutes := g.Group("/images")
	{
		// 图片列表（支持 sample_id / dataset 过滤）
		imagesRoutes.GET("", handle.ListImages)
		// 当前用户全部去重标签
		imagesRoutes.GET("/metadata/labels", handle.ListMetadataLabels)
		// 批量写入标签-值元数据
		imagesRoutes.POST("/:id/metadata", handle.UpsertImageMetadata)
	}
}

// RegisterMappingsRoutes 注册 CSV 映射管道相关路由.
func RegisterMappingsRoutes(g *gin.RouterGroup) {
	mappingsRoutes := g.Group("/mappings")
	{
		// 上传映射文件
		mappingsRoutes.POST("/upload", handle.UploadMapping)
		// 执行映射（按 sample_id 匹配图片并写元数据）
		mappingsRoutes.POST("/:id/process", handle.ProcessMapping)
	}
}
