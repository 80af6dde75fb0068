package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	minio "github.com/minio/minio-go/v7"
	"gorm.io/gorm"

	"github.com/yeisme/cropvault/pkg/configs"
	"github.com/yeisme/cropvault/pkg/internal/model"
	"github.com/yeisme/cropvault/pkg/internal/tabular"
	"github.com/yeisme/cropvault/pkg/internal/types"
	nlog "github.com/yeisme/cropvault/pkg/log"
)

// UploadDataset 上传并处理一个数据集文件：解析、映射、加密、入库、归档原始文件.
// 数据集身份由 (user, file_name) 决定：同名重复上传复用既有数据集，
// 按 (dataset_id, f5_code) 对账覆盖；is_update 标记本次内容相对上次有无变化.
func (ds *DatasetService) UploadDataset(ctx context.Context, user, fileName string,
	data []byte, contentType string,
) (*types.DatasetUploadResponse, error) {
	table, err := tabular.Load(data, fileName)
	if err != nil {
		ds.publishDatasetProcessFailed(user, fileName, err)

		return nil, err
	}

	records, report, err := tabular.MapRows(table)
	if err != nil {
		ds.publishDatasetProcessFailed(user, fileName, err)

		return nil, err
	}

	hash := contentHash(data)
	gdb := ds.dbClient.GetDB().WithContext(ctx)

	dataset, isNew, err := ds.findOrNewDataset(gdb, user, fileName, hash)
	if err != nil {
		return nil, err
	}

	// 新建时才标记 is_update=false；复用时只有内容真的变了才算更新
	isUpdate := !isNew && dataset.ContentHash != hash
	dataset.ContentHash = hash

	// 原始文件加密后落对象存储，失败则整体失败，不产生孤儿记录
	if ds.s3Client != nil {
		sealed, err := ds.codec.Encrypt(data)
		if err != nil {
			return nil, fmt.Errorf("encrypt dataset file: %w", err)
		}

		putOpts := minio.PutObjectOptions{ContentType: "application/octet-stream"}
		if _, err := ds.s3Client.PutObject(ctx, dataset.Bucket, dataset.ObjectKey,
			bytes.NewReader(sealed), int64(len(sealed)), putOpts); err != nil {
			return nil, fmt.Errorf("store dataset file: %w", err)
		}
	}

	// 文件级元数据加密后落库
	meta := map[string]any{
		"original_filename": fileName,
		"content_type":      contentType,
		"uploaded_at":       time.Now().UTC().Format(time.RFC3339),
		"row_count":         report.TotalRows,
		"skipped_rows":      report.SkippedRows,
	}

	encMeta, err := ds.codec.EncryptJSON(meta)
	if err != nil {
		return nil, fmt.Errorf("encrypt dataset metadata: %w", err)
	}

	var created, updated int

	err = gdb.Transaction(func(tx *gorm.DB) error {
		dataset.TotalRecords = len(records)
		dataset.Processed = true
		dataset.EncryptedMetadata = encMeta
		dataset.Size = int64(len(data))

		if err := tx.Save(dataset).Error; err != nil {
			return fmt.Errorf("save dataset: %w", err)
		}

		created, updated, err = reconcileRecords(tx, dataset.ID, ds.codec, records)
		if err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		// 回滚后数据库里没有这个数据集了，新上传的对象也不能留下
		if isNew && ds.s3Client != nil {
			rmErr := ds.s3Client.RemoveObject(ctx, dataset.Bucket, dataset.ObjectKey,
				minio.RemoveObjectOptions{})
			if rmErr != nil {
				nlog.Logger().Warn().Err(rmErr).
					Str("object", dataset.ObjectKey).
					Msg("failed to remove dataset blob after rollback")
			}
		}

		ds.publishDatasetProcessFailed(user, fileName, err)

		return nil, err
	}

	nlog.Logger().Info().
		Str("user", user).
		Str("public_id", dataset.PublicID).
		Int("created", created).
		Int("updated", updated).
		Bool("is_update", isUpdate).
		Msg("dataset processed")

	ds.publishDatasetProcessed(dataset, created, updated, isUpdate)

	return &types.DatasetUploadResponse{
		PublicID:     dataset.PublicID,
		FileName:     dataset.FileName,
		FileType:     dataset.FileType,
		TotalRecords: dataset.TotalRecords,
		Created:      created,
		Updated:      updated,
		SkippedRows:  report.SkippedRows,
		IsUpdate:     isUpdate,
		IsEncrypted:  dataset.IsEncrypted,
	}, nil
}

// findOrNewDataset 按 (user, file_name) 找既有数据集，没有则构造一个新的.
// 返回的 isNew 标记数据库里是否尚无此数据集.
func (ds *DatasetService) findOrNewDataset(gdb *gorm.DB, user, fileName, hash string,
) (*model.Dataset, bool, error) {
	var dataset model.Dataset

	err := gdb.Where("user = ? AND file_name = ?", user, fileName).First(&dataset).Error
	if err == nil {
		return &dataset, false, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("lookup dataset by name: %w", err)
	}

	return &model.Dataset{
		PublicID:    newPublicID(),
		User:        user,
		FileName:    fileName,
		FileType:    fileTypeOf(fileName),
		ObjectKey:   datasetObjectKey(user, fileName),
		Bucket:      configs.GetConfig().S3.DatasetBucket,
		ContentHash: hash,
		IsEncrypted: true,
	}, true, nil
}

// PreviewDataset 只解析不落库，返回表头和前若干行.
func (ds *DatasetService) PreviewDataset(_ context.Context, fileName string,
	data []byte, limit int,
) (*types.DatasetPreviewResponse, error) {
	table, err := tabular.Load(data, fileName)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = DefaultPreviewRows
	}

	n := min(limit, len(table.Rows))

	rows := make([]map[string]string, 0, n)
	for _, row := range table.Rows[:n] {
		rows = append(rows, row)
	}

	return &types.DatasetPreviewResponse{
		Headers:   table.Headers,
		Rows:      rows,
		TotalRows: len(table.Rows),
	}, nil
}
