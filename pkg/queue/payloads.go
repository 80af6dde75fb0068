package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
// 建议在发布消息时填充 TraceID、OccurredAt、Producer 等，便于追踪链路与审计.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪/关联 ID，可来自中间件或业务生成.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本，便于向后兼容演进.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
// T 即不同主题对应的负载结构体.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// -------------------------- 基因数据集领域 --------------------------

// DatasetRef 标识数据集及其原始文件在对象存储中的位置.
type DatasetRef struct {
	PublicID    string `json:"public_id"`
	User        string `json:"user"`
	Bucket      string `json:"bucket,omitempty"`
	ObjectKey   string `json:"object_key,omitempty"`
	FileName    string `json:"file_name,omitempty"`
	FileType    string `json:"file_type,omitempty"`
	Size        int64  `json:"size,omitempty"`
	ContentHash string `json:"content_hash,omitempty"`
}

// DatasetProcessedPayload 记录解析、加密并入库完成.
type DatasetProcessedPayload struct {
	Dataset      DatasetRef `json:"dataset"`
	TotalRecords int        `json:"total_records"`
	Created      int        `json:"created"`
	Updated      int        `json:"updated"`
	IsUpdate     bool       `json:"is_update"` // 是否覆盖了同内容/同键的历史数据
}

// DatasetProcessFailedPayload 解析或入库失败.
type DatasetProcessFailedPayload struct {
	Dataset DatasetRef `json:"dataset"`
	Error   string     `json:"error"`
}

// DatasetDeletedPayload 数据集级联删除完成.
type DatasetDeletedPayload struct {
	Dataset       DatasetRef `json:"dataset"`
	RecordCount   int        `json:"record_count"`
	ImagesDeleted int        `json:"images_deleted"`
}

// DatasetAccessedPayload 数据集被下载或预览.
type DatasetAccessedPayload struct {
	Dataset DatasetRef `json:"dataset"`
	Action  string     `json:"action"` // download / preview / records
}

// -------------------------- 作物图片领域 --------------------------

// ImageMatchedPayload 图片按位置与记录绑定完成.
type ImageMatchedPayload struct {
	Dataset    DatasetRef `json:"dataset"`
	ImageCount int        `json:"image_count"`
}

// ImageMatchFailedPayload 匹配失败，未产生任何绑定.
type ImageMatchFailedPayload struct {
	Dataset     DatasetRef `json:"dataset"`
	ImageCount  int        `json:"image_count"`
	RecordCount int        `json:"record_count"`
	Error       string     `json:"error"`
}

// -------------------------- CSV 元数据映射领域 --------------------------

// MappingProcessedPayload 映射文件处理完成.
type MappingProcessedPayload struct {
	MappingID      uint   `json:"mapping_id"`
	User           string `json:"user"`
	MatchedImages  int    `json:"matched_images"`
	MetadataUpsert int    `json:"metadata_upserts"`
	SkippedRows    int    `json:"skipped_rows"`
}
