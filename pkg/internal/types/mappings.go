package types

import "time"

// MappingUploadResponse CSV 映射文件上传结果.
type MappingUploadResponse struct {
	ID      uint     `json:"id"`
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	// IsUpdate 与某个既有映射文件内容相同
	IsUpdate  bool      `json:"is_update"`
	CreatedAt time.Time `json:"created_at"`
}

// ProcessMappingResponse 映射文件处理结果.
type ProcessMappingResponse struct {
	ID              uint     `json:"id"`
	MatchedImages   int      `json:"matched_images"`
	MetadataUpserts int      `json:"metadata_upserts"`
	SkippedRows     int      `json:"skipped_rows"`
	UnmatchedCount  int      `json:"unmatched_count"`
	UnmatchedSample []string `json:"unmatched_sample,omitempty"` // 最多列出前若干个未匹配的 sample_id
}
