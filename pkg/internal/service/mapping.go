package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bytedance/sonic"
	minio "github.com/minio/minio-go/v7"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeisme/cropvault/pkg/configs"
	"github.com/yeisme/cropvault/pkg/internal/model"
	"github.com/yeisme/cropvault/pkg/internal/tabular"
	"github.com/yeisme/cropvault/pkg/internal/types"
	nlog "github.com/yeisme/cropvault/pkg/log"
)

// MaxUnmatchedSample 处理结果里最多列出的未匹配 sample_id 数.
const MaxUnmatchedSample = 10

// UploadMapping 上传一个 CSV 映射文件：解析表头、落对象存储、登记待处理.
// 相同内容重复上传复用既有映射文件.
func (ms *MappingService) UploadMapping(ctx context.Context, user, fileName string,
	data []byte,
) (*types.MappingUploadResponse, error) {
	table, err := tabular.Load(data, fileName)
	if err != nil {
		return nil, err
	}

	if !table.HasColumn(tabular.ColumnF5Code) {
		return nil, &tabular.MissingColumnsError{Columns: []string{tabular.ColumnF5Code}}
	}

	hash := contentHash(data)
	gdb := ms.dbClient.GetDB().WithContext(ctx)

	// 内容相同直接复用，不重复存储
	var existing model.MappingFile

	err = gdb.Where("user = ? AND data_hash = ?", user, hash).First(&existing).Error
	if err == nil {
		var columns []string
		_ = sonic.UnmarshalString(existing.ColumnsJSON, &columns)

		return &types.MappingUploadResponse{
			ID:        existing.ID,
			Name:      existing.Name,
			Columns:   columns,
			IsUpdate:  true,
			CreatedAt: existing.CreatedAt,
		}, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup mapping by hash: %w", err)
	}

	bucket := configs.GetConfig().S3.DatasetBucket
	objectKey := mappingObjectKey(user, fileName)

	_, err = ms.s3Client.PutObject(ctx, bucket, objectKey,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "text/csv"})
	if err != nil {
		return nil, fmt.Errorf("store mapping file: %w", err)
	}

	columnsJSON, err := sonic.MarshalString(table.Headers)
	if err != nil {
		return nil, fmt.Errorf("encode mapping columns: %w", err)
	}

	mapping := model.MappingFile{
		User:        user,
		Name:        fileName,
		ObjectKey:   objectKey,
		Bucket:      bucket,
		ColumnsJSON: columnsJSON,
		DataHash:    hash,
	}

	if err := gdb.Create(&mapping).Error; err != nil {
		return nil, fmt.Errorf("create mapping file: %w", err)
	}

	return &types.MappingUploadResponse{
		ID:        mapping.ID,
		Name:      mapping.Name,
		Columns:   table.Headers,
		IsUpdate:  false,
		CreatedAt: mapping.CreatedAt,
	}, nil
}

// ProcessMapping 执行映射管道：按 F5 Code 列匹配当前用户的图片（sample_id），
// 其余非空单元格逐个 upsert 为图片元数据，(image, label) 唯一后写覆盖.
// 没有匹配图片的行跳过并计入 unmatched.
func (ms *MappingService) ProcessMapping(ctx context.Context, user string, mappingID uint,
) (*types.ProcessMappingResponse, error) {
	gdb := ms.dbClient.GetDB().WithContext(ctx)

	var mapping model.MappingFile

	err := gdb.Where("id = ? AND user = ?", mappingID, user).First(&mapping).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNotFound
		}

		return nil, fmt.Errorf("find mapping %d: %w", mappingID, err)
	}

	// 回源取文件内容重新解析
	obj, err := ms.s3Client.GetObject(ctx, mapping.Bucket, mapping.ObjectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get mapping object %s: %w", mapping.ObjectKey, err)
	}
	defer func() { _ = obj.Close() }()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read mapping object %s: %w", mapping.ObjectKey, err)
	}

	table, err := tabular.Load(data, mapping.Name)
	if err != nil {
		return nil, err
	}

	var (
		matched, upserts, skipped int
		unmatched                 []string
		unmatchedCount            int
	)

	err = gdb.Transaction(func(tx *gorm.DB) error {
		for _, row := range table.Rows {
			sampleID := row[tabular.ColumnF5Code]
			if sampleID == "" {
				skipped++

				continue
			}

			var images []model.CropImage

			err := tx.Where("user = ? AND sample_id = ?", user, sampleID).
				Find(&images).Error
			if err != nil {
				return fmt.Errorf("find images for %s: %w", sampleID, err)
			}

			if len(images) == 0 {
				unmatchedCount++

				if len(unmatched) < MaxUnmatchedSample {
					unmatched = append(unmatched, sampleID)
				}

				continue
			}

			matched += len(images)

			for i := range images {
				img := &images[i]

				if err := tx.Model(img).Update("mapping_file_id", mapping.ID).Error; err != nil {
					return fmt.Errorf("tag image %d: %w", img.ID, err)
				}

				// F5 Code 是匹配键不入元数据，其余非空列（含 No.）全部写入
				for _, label := range table.Headers {
					if label == tabular.ColumnF5Code {
						continue
					}

					value := row[label]
					if value == "" {
						continue
					}

					meta := model.ImageMetadata{
						CropImageID: img.ID,
						Label:       label,
						Value:       value,
					}

					err := tx.Clauses(clause.OnConflict{
						Columns:   []clause.Column{{Name: "crop_image_id"}, {Name: "label"}},
						DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
					}).Create(&meta).Error
					if err != nil {
						return fmt.Errorf("upsert metadata %s for image %d: %w", label, img.ID, err)
					}

					upserts++
				}
			}
		}

		return tx.Model(&mapping).Update("processed", true).Error
	})
	if err != nil {
		return nil, err
	}

	nlog.Logger().Info().
		Str("user", user).
		Uint("mapping_id", mapping.ID).
		Int("matched", matched).
		Int("upserts", upserts).
		Int("unmatched", unmatchedCount).
		Msg("mapping processed")

	ms.publishMappingProcessed(&mapping, matched, upserts, skipped)

	return &types.ProcessMappingResponse{
		ID:              mapping.ID,
		MatchedImages:   matched,
		MetadataUpserts: upserts,
		SkippedRows:     skipped,
		UnmatchedCount:  unmatchedCount,
		UnmatchedSample: unmatched,
	}, nil
}
