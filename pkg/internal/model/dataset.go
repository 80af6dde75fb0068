package model

import (
	"time"

	"gorm.io/gorm"
)

// Dataset 基因数据集模型，对应一次表格文件上传.
type Dataset struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// 对外暴露的公共标识（ULID），避免自增 ID 泄露规模
	PublicID string `gorm:"size:26;uniqueIndex" json:"public_id"`
	// 用户名或租户标识，所有查询都按此隔离
	User     string `gorm:"size:255;index" json:"user"`
	FileName string `gorm:"size:512"       json:"file_name"`
	FileType string `gorm:"size:10"        json:"file_type"` // csv 或 xlsx
	// 对象键（S3 key），数据集原始文件的存储位置
	ObjectKey string `gorm:"size:1024" json:"object_key"`
	Bucket    string `gorm:"size:255"  json:"bucket"`
	Size      int64  `json:"size"`
	// 原始文件内容的 SHA-256，用于识别重复上传
	ContentHash  string `gorm:"size:64;index" json:"content_hash"`
	TotalRecords int    `json:"total_records"`
	Processed    bool   `gorm:"index" json:"processed"`
	IsEncrypted  bool   `json:"is_encrypted"`
	// 加密后的文件级元数据（密文字符串）
	EncryptedMetadata string `gorm:"type:text" json:"-"`
	// 软删除与审计
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// DataRecord 数据集中的一条基因记录.
// (dataset_id, f5_code) 是对账的自然键，重复上传按此覆盖.
type DataRecord struct {
	ID        uint `gorm:"primaryKey"                           json:"id"`
	DatasetID uint `gorm:"index:idx_dataset_code,unique;index"  json:"dataset_id"`
	// No. 列，图像匹配按此排序
	RecordNumber int    `gorm:"index"                               json:"record_number"`
	F5Code       string `gorm:"size:50;index:idx_dataset_code,unique" json:"f5_code"`

	Location              string     `gorm:"size:100" json:"location"`
	F5FruitNumber         string     `gorm:"size:50"  json:"f5_fruit_number"`
	F6FullName            string     `gorm:"size:200" json:"f6_full_name"`
	SixthCode             string     `gorm:"size:50"  json:"sixth_code"`
	FruitNumber           string     `gorm:"size:50"  json:"fruit_number"`
	PollinationDate       *time.Time `json:"pollination_date"`
	HarvestDate           *time.Time `json:"harvest_date"`
	PedicelLength         *float64   `json:"pedicel_length"`
	PedicelWidth          *float64   `json:"pedicel_width"`
	InsertionPeduncleSize *float64   `json:"insertion_peduncle_size"`
	FruitWeight           *float64   `json:"fruit_weight"`
	FruitLength           *float64   `json:"fruit_length"`
	FruitWidth            *float64   `json:"fruit_width"`
	RindThickness         *float64   `json:"rind_thickness"`
	RindHardness          *float64   `json:"rind_hardness"`
	ApexSize              *float64   `json:"apex_size"`
	RindStripe            string     `gorm:"size:100" json:"rind_stripe"`
	FleshHardness         string     `gorm:"size:100" json:"flesh_hardness"`
	FleshColor            string     `gorm:"size:100" json:"flesh_color"`
	BrixContent           *float64   `json:"brix_content"`
	SeedsQuantity         *int       `json:"seeds_quantity"`
	RemainedSeeds         *int       `json:"remained_seeds"`

	// 位置匹配成功后指向绑定的作物图片
	ImageID *uint `gorm:"index" json:"image_id"`

	// 敏感字段只以密文形式落盘
	EncryptedGeneticSignature string `gorm:"type:text" json:"-"`
	EncryptedBreedingData     string `gorm:"type:text" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
