package types

import "time"

// ImageInfo 作物图片信息.
type ImageInfo struct {
	ID          uint      `json:"id"`
	SampleID    string    `json:"sample_id"`
	ObjectKey   string    `json:"object_key"`
	ContentType string    `json:"content_type,omitempty"`
	Size        int64     `json:"size,omitempty"`
	Description string    `json:"description,omitempty"`
	DatasetID   *uint     `json:"dataset_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	Metadata []MetadataItem `json:"metadata,omitempty"`
}

// MetadataItem 图片的一条标签-值元数据.
type MetadataItem struct {
	Label string `json:"label" form:"label" rule:"required,max=100"`
	Value string `json:"value" form:"value" rule:"required,max=255"`
}

// MatchImagesResponse 图片位置匹配结果.
type MatchImagesResponse struct {
	PublicID string      `json:"public_id"`
	Matched  int         `json:"matched"`
	Images   []ImageInfo `json:"images"`
}

// ListImagesResponse 图片列表.
type ListImagesResponse struct {
	Images []ImageInfo `json:"images"`
	Total  int         `json:"total"`
}

// UpsertMetadataRequest 批量更新图片元数据.
type UpsertMetadataRequest struct {
	Items []MetadataItem `json:"items" rule:"required,min=1,dive"`
}

// UpsertMetadataResponse 元数据更新结果.
type UpsertMetadataResponse struct {
	ImageID  uint `json:"image_id"`
	Upserted int  `json:"upserted"`
}

// MetadataLabelsResponse 当前用户全部去重标签.
type MetadataLabelsResponse struct {
	Labels []string `json:"labels"`
}
