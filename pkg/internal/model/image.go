package model

import (
	"time"

	"gorm.io/gorm"
)

// CropImage 作物样本图片，按位置与基因记录绑定.
type CropImage struct {
	ID   uint   `gorm:"primaryKey"     json:"id"`
	User string `gorm:"size:255;index" json:"user"`
	// 绑定记录的 F5 Code
	SampleID string `gorm:"size:255;index" json:"sample_id"`
	// 对象键（S3 key），图片二进制的存储位置
	ObjectKey   string `gorm:"size:1024" json:"object_key"`
	Bucket      string `gorm:"size:255"  json:"bucket"`
	ContentType string `gorm:"size:255"  json:"content_type"`
	Size        int64  `json:"size"`
	Description string `gorm:"type:text" json:"description"`
	// 来源数据集；数据集删除时由服务层清理
	DatasetID *uint `gorm:"index" json:"dataset_id"`
	// 来源映射文件（CSV 元数据管道）
	MappingFileID *uint `gorm:"index" json:"mapping_file_id"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ImageMetadata 图片的标签-值元数据，(crop_image_id, label) 唯一，后写覆盖.
type ImageMetadata struct {
	ID          uint   `gorm:"primaryKey"                          json:"id"`
	CropImageID uint   `gorm:"index:idx_image_label,unique;index"  json:"crop_image_id"`
	Label       string `gorm:"size:100;index:idx_image_label,unique" json:"label"`
	Value       string `gorm:"size:255"                            json:"value"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName metadata 不可数，固定表名避免复数化.
func (ImageMetadata) TableName() string { return "image_metadata" }

// MappingFile 上传的 CSV 映射文件，驱动图片元数据批量更新.
type MappingFile struct {
	ID        uint   `gorm:"primaryKey"     json:"id"`
	User      string `gorm:"size:255;index" json:"user"`
	Name      string `gorm:"size:255"       json:"name"`
	ObjectKey string `gorm:"size:1024"      json:"object_key"`
	Bucket    string `gorm:"size:255"       json:"bucket"`
	Processed bool   `json:"processed"`
	// 表头列名，JSON 数组文本
	ColumnsJSON string `gorm:"type:text" json:"-"`
	// 文件内容的 SHA-256，用于识别重复处理
	DataHash string `gorm:"size:64" json:"data_hash"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
