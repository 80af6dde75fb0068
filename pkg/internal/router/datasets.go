package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/cropvault/pkg/internal/handle"
)

// RegisterDatasetsRoutes 注册数据集相关路由.
func RegisterDatasetsRoutes(g *gin.RouterGroup) {
	datasetsRoutes := g.Group("/datasets")
	{
		// 上传并处理数据集（解析、加密、对账入库）
		datasetsRoutes.POST("/upload", handle.UploadDataset)
		// 只解析不落库的预览
		datasetsRoutes.POST("/preview", handle.PreviewDataset)
		// 数据集列表
		datasetsRoutes.GET("", handle.ListDatasets)

		singleGroup := datasetsRoutes.Group("/:id")
		{
			// 记录列表（解密后）
			singleGroup.GET("/records", handle.GetDatasetRecords)
			// 下载原始文件
			singleGroup.GET("/download", handle.DownloadDataset)
			// 级联删除
			singleGroup.DELETE("", handle.DeleteDataset)
			// 图片位置匹配
			singleGroup.POST("/images", handle.MatchDatasetImages)
		}
	}
}
