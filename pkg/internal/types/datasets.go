package types

import "time"

// DatasetUploadResponse 上传并处理完成后的汇总.
type DatasetUploadResponse struct {
	PublicID     string `json:"public_id"`
	FileName     string `json:"file_name"`
	FileType     string `json:"file_type"`
	TotalRecords int    `json:"total_records"`
	Created      int    `json:"created"`
	Updated      int    `json:"updated"`
	SkippedRows  int    `json:"skipped_rows"`
	// IsUpdate 内容与某个既有数据集相同，本次为重复上传
	IsUpdate    bool `json:"is_update"`
	IsEncrypted bool `json:"is_encrypted"`
}

// DatasetPreviewResponse 不落库的解析预览.
type DatasetPreviewResponse struct {
	Headers   []string            `json:"headers"`
	Rows      []map[string]string `json:"rows"`
	TotalRows int                 `json:"total_rows"` // 文件中的总数据行数，可能大于返回的预览行数
}

// DatasetInfo 数据集列表项.
type DatasetInfo struct {
	PublicID     string    `json:"public_id"`
	FileName     string    `json:"file_name"`
	FileType     string    `json:"file_type"`
	Size         int64     `json:"size"`
	TotalRecords int       `json:"total_records"`
	Processed    bool      `json:"processed"`
	IsEncrypted  bool      `json:"is_encrypted"`
	CreatedAt    time.Time `json:"created_at"`
	// Metadata 解密后的文件级元数据；解密失败时为原始密文字符串
	Metadata any `json:"metadata,omitempty"`
}

// ListDatasetsResponse 数据集列表.
type ListDatasetsResponse struct {
	Datasets []DatasetInfo `json:"datasets"`
	Total    int           `json:"total"`
}

// RecordInfo 一条基因记录，按 record_number 升序返回.
type RecordInfo struct {
	ID           uint   `json:"id"`
	RecordNumber int    `json:"record_number"`
	F5Code       string `json:"f5_code"`

	Location              string     `json:"location,omitempty"`
	F5FruitNumber         string     `json:"f5_fruit_number,omitempty"`
	F6FullName            string     `json:"f6_full_name,omitempty"`
	SixthCode             string     `json:"sixth_code,omitempty"`
	FruitNumber           string     `json:"fruit_number,omitempty"`
	PollinationDate       *time.Time `json:"pollination_date,omitempty"`
	HarvestDate           *time.Time `json:"harvest_date,omitempty"`
	PedicelLength         *float64   `json:"pedicel_length,omitempty"`
	PedicelWidth          *float64   `json:"pedicel_width,omitempty"`
	InsertionPeduncleSize *float64   `json:"insertion_peduncle_size,omitempty"`
	FruitWeight           *float64   `json:"fruit_weight,omitempty"`
	FruitLength           *float64   `json:"fruit_length,omitempty"`
	FruitWidth            *float64   `json:"fruit_width,omitempty"`
	RindThickness         *float64   `json:"rind_thickness,omitempty"`
	RindHardness          *float64   `json:"rind_hardness,omitempty"`
	ApexSize              *float64   `json:"apex_size,omitempty"`
	RindStripe            string     `json:"rind_stripe,omitempty"`
	FleshHardness         string     `json:"flesh_hardness,omitempty"`
	FleshColor            string     `json:"flesh_color,omitempty"`
	BrixContent           *float64   `json:"brix_content,omitempty"`
	SeedsQuantity         *int       `json:"seeds_quantity,omitempty"`
	RemainedSeeds         *int       `json:"remained_seeds,omitempty"`

	// 绑定的作物图片（若已匹配）
	Image *ImageInfo `json:"image,omitempty"`

	// 解密后的敏感载荷；密钥不匹配时为原始密文字符串
	GeneticSignature any `json:"genetic_signature,omitempty"`
	BreedingData     any `json:"breeding_data,omitempty"`
}

// ListRecordsResponse 数据集的全部记录.
type ListRecordsResponse struct {
	PublicID string       `json:"public_id"`
	Records  []RecordInfo `json:"records"`
	Total    int          `json:"total"`
}

// DeleteDatasetResponse 级联删除结果.
type DeleteDatasetResponse struct {
	PublicID      string `json:"public_id"`
	RecordCount   int    `json:"record_count"`
	ImagesDeleted int    `json:"images_deleted"`
	// BlobErrors 对象存储清理失败的数量（尽力而为，不阻塞删除）
	BlobErrors int `json:"blob_errors,omitempty"`
}
