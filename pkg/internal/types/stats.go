package types

import "time"

// DashboardStats 仪表盘总体统计（当前用户）.
type DashboardStats struct {
	TotalDatasets        int        `json:"total_datasets"`
	TotalRecords         int        `json:"total_records"`
	TotalImages          int        `json:"total_images"`
	EncryptedDatasets    int        `json:"encrypted_datasets"`
	EncryptionPercentage float64    `json:"encryption_percentage"` // 0 当没有数据集时
	LastUploadAt         *time.Time `json:"last_upload_at,omitempty"`
}

// EncryptionStats 加密覆盖统计.
type EncryptionStats struct {
	TotalDatasets        int     `json:"total_datasets"`
	EncryptedDatasets    int     `json:"encrypted_datasets"`
	EncryptionPercentage float64 `json:"encryption_percentage"`
	TotalRecords         int     `json:"total_records"`
	EncryptedRecords     int     `json:"encrypted_records"`
	RecordPercentage     float64 `json:"record_percentage"`
}

// StatsTrendPoint 上传趋势点（按日）.
type StatsTrendPoint struct {
	Date    string `json:"date"` // YYYY-MM-DD
	Count   int    `json:"count"`
	Records int    `json:"records"`
}
