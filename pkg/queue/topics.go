// Package queue 定义消息主题常量与通配模式，供发布/订阅使用.
package queue

// 主题命名规范：cv.<域>.<动作>[.<状态>]，尽量稳定且向后兼容.
// 域：dataset(基因数据集)、image(作物图片)、mapping(CSV 元数据映射)
// 动作：uploaded/processed/deleted/matched 等
// 状态：失败以 .failed 结尾

const (
	// 基因数据集领域.
	TopicDatasetProcessed     = "cv.dataset.processed"      // 记录解析、加密并入库完成
	TopicDatasetProcessFailed = "cv.dataset.process.failed" // 解析或入库失败，数据集已回收
	TopicDatasetDeleted       = "cv.dataset.deleted"        // 数据集及其记录、图片被删除
	TopicDatasetAccessed      = "cv.dataset.accessed"       // 数据集被下载或预览（热点统计用）

	// 作物图片领域.
	TopicImageMatched     = "cv.image.matched"      // 图片按位置与记录绑定完成
	TopicImageMatchFailed = "cv.image.match.failed" // 数量不一致或写入失败，未产生绑定

	// CSV 元数据映射领域.
	TopicMappingProcessed = "cv.mapping.processed" // 映射文件处理完成，元数据已更新
)

// 主题分组，用于批量操作或权限控制.
var (
	// 数据集相关主题集合.
	DatasetTopics = []string{
		TopicDatasetProcessed, TopicDatasetProcessFailed,
		TopicDatasetDeleted, TopicDatasetAccessed,
	}

	// 图片相关主题集合.
	ImageTopics = []string{
		TopicImageMatched, TopicImageMatchFailed,
	}
)
