package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	minio "github.com/minio/minio-go/v7"
	"gorm.io/gorm"

	"github.com/yeisme/cropvault/pkg/internal/model"
	"github.com/yeisme/cropvault/pkg/internal/types"
	nlog "github.com/yeisme/cropvault/pkg/log"
)

// findDataset 按 public_id 查找当前用户的数据集.
// 别人的数据集和不存在的数据集一视同仁返回 ErrNotFound.
func (ds *DatasetService) findDataset(ctx context.Context, user, publicID string) (*model.Dataset, error) {
	var dataset model.Dataset

	err := ds.dbClient.GetDB().WithContext(ctx).
		Where("user = ? AND public_id = ?", user, publicID).
		First(&dataset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNotFound
		}

		return nil, fmt.Errorf("find dataset %s: %w", publicID, err)
	}

	return &dataset, nil
}

// ListDatasets 当前用户的全部数据集，新的在前.
func (ds *DatasetService) ListDatasets(ctx context.Context, user string) (*types.ListDatasetsResponse, error) {
	var datasets []model.Dataset

	err := ds.dbClient.GetDB().WithContext(ctx).
		Where("user = ?", user).
		Order("created_at DESC").
		Find(&datasets).Error
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}

	infos := make([]types.DatasetInfo, 0, len(datasets))
	for i := range datasets {
		infos = append(infos, ds.datasetInfo(&datasets[i]))
	}

	return &types.ListDatasetsResponse{
		Datasets: infos,
		Total:    len(infos),
	}, nil
}

func (ds *DatasetService) datasetInfo(d *model.Dataset) types.DatasetInfo {
	info := types.DatasetInfo{
		PublicID:     d.PublicID,
		FileName:     d.FileName,
		FileType:     d.FileType,
		Size:         d.Size,
		TotalRecords: d.TotalRecords,
		Processed:    d.Processed,
		IsEncrypted:  d.IsEncrypted,
		CreatedAt:    d.CreatedAt,
	}

	// 解密失败时保持密文原样返回，不报错
	if d.EncryptedMetadata != "" {
		info.Metadata = ds.codec.DecryptJSON(d.EncryptedMetadata)
	}

	return info
}

// GetRecords 数据集全部记录，按 record_number 升序，敏感载荷就地解密.
func (ds *DatasetService) GetRecords(ctx context.Context, user, publicID string) (*types.ListRecordsResponse, error) {
	dataset, err := ds.findDataset(ctx, user, publicID)
	if err != nil {
		return nil, err
	}

	gdb := ds.dbClient.GetDB().WithContext(ctx)

	var records []model.DataRecord

	err = gdb.Where("dataset_id = ?", dataset.ID).
		Order("record_number ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	// 批量取绑定图片，避免 N+1
	imageIDs := make([]uint, 0, len(records))

	for i := range records {
		if records[i].ImageID != nil {
			imageIDs = append(imageIDs, *records[i].ImageID)
		}
	}

	images := make(map[uint]*model.CropImage, len(imageIDs))

	if len(imageIDs) > 0 {
		var rows []model.CropImage

		if err := gdb.Where("id IN ?", imageIDs).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("load bound images: %w", err)
		}

		for i := range rows {
			images[rows[i].ID] = &rows[i]
		}
	}

	infos := make([]types.RecordInfo, 0, len(records))

	for i := range records {
		rec := &records[i]
		info := recordInfo(rec)

		if rec.ImageID != nil {
			if img, ok := images[*rec.ImageID]; ok {
				ii := imageInfo(img, nil)
				info.Image = &ii
			}
		}

		if rec.EncryptedGeneticSignature != "" {
			info.GeneticSignature = ds.codec.DecryptJSON(rec.EncryptedGeneticSignature)
		}

		if rec.EncryptedBreedingData != "" {
			info.BreedingData = ds.codec.DecryptJSON(rec.EncryptedBreedingData)
		}

		infos = append(infos, info)
	}

	ds.publishDatasetAccessed(dataset, "records")

	return &types.ListRecordsResponse{
		PublicID: dataset.PublicID,
		Records:  infos,
		Total:    len(infos),
	}, nil
}

func recordInfo(rec *model.DataRecord) types.RecordInfo {
	return types.RecordInfo{
		ID:           rec.ID,
		RecordNumber: rec.RecordNumber,
		F5Code:       rec.F5Code,

		Location:              rec.Location,
		F5FruitNumber:         rec.F5FruitNumber,
		F6FullName:            rec.F6FullName,
		SixthCode:             rec.SixthCode,
		FruitNumber:           rec.FruitNumber,
		PollinationDate:       rec.PollinationDate,
		HarvestDate:           rec.HarvestDate,
		PedicelLength:         rec.PedicelLength,
		PedicelWidth:          rec.PedicelWidth,
		InsertionPeduncleSize: rec.InsertionPeduncleSize,
		FruitWeight:           rec.FruitWeight,
		FruitLength:           rec.FruitLength,
		FruitWidth:            rec.FruitWidth,
		RindThickness:         rec.RindThickness,
		RindHardness:          rec.RindHardness,
		ApexSize:              rec.ApexSize,
		RindStripe:            rec.RindStripe,
		FleshHardness:         rec.FleshHardness,
		FleshColor:            rec.FleshColor,
		BrixContent:           rec.BrixContent,
		SeedsQuantity:         rec.SeedsQuantity,
		RemainedSeeds:         rec.RemainedSeeds,
	}
}

// DownloadDataset 回源拉取静态加密的归档文件，解密后返回原始字节流，
// 调用方负责 Close reader.
func (ds *DatasetService) DownloadDataset(ctx context.Context, user, publicID string,
) (*model.Dataset, io.ReadCloser, error) {
	dataset, err := ds.findDataset(ctx, user, publicID)
	if err != nil {
		return nil, nil, err
	}

	obj, err := ds.s3Client.GetObject(ctx, dataset.Bucket, dataset.ObjectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("get dataset object %s: %w", dataset.ObjectKey, err)
	}

	sealed, err := io.ReadAll(obj)

	_ = obj.Close()

	if err != nil {
		return nil, nil, fmt.Errorf("read dataset object %s: %w", dataset.ObjectKey, err)
	}

	// 加密引入前归档的对象是明文，解不开就原样返回
	plain := ds.codec.DecryptOrRaw(sealed)

	ds.publishDatasetAccessed(dataset, "download")

	return dataset, io.NopCloser(bytes.NewReader(plain)), nil
}

// CleanupUnprocessed 清理在 before 之前创建却一直未处理完成的数据集，
// 通常是上传中途失败留下的残留.定时任务调用.
func (ds *DatasetService) CleanupUnprocessed(ctx context.Context, before time.Time) (int, error) {
	gdb := ds.dbClient.GetDB().WithContext(ctx)

	var stale []model.Dataset

	err := gdb.Where("processed = ? AND created_at < ?", false, before).
		Find(&stale).Error
	if err != nil {
		return 0, fmt.Errorf("list stale datasets: %w", err)
	}

	for i := range stale {
		d := &stale[i]

		// 上传中途失败的残留可能根本没有对象
		if ds.s3Client != nil && d.ObjectKey != "" {
			err := ds.s3Client.RemoveObject(ctx, d.Bucket, d.ObjectKey, minio.RemoveObjectOptions{})
			if err != nil {
				nlog.Logger().Warn().Err(err).
					Str("object", d.ObjectKey).
					Msg("failed to remove stale dataset blob, continuing")
			}
		}

		if err := gdb.Unscoped().Delete(d).Error; err != nil {
			return 0, fmt.Errorf("delete stale dataset %s: %w", d.PublicID, err)
		}
	}

	return len(stale), nil
}

// DeleteDataset 级联删除：先尽力清理对象存储（失败只计数不阻塞），
// 再在一个事务里删除记录、图片元数据、图片行和数据集本身.
func (ds *DatasetService) DeleteDataset(ctx context.Context, user, publicID string) (*types.DeleteDatasetResponse, error) {
	dataset, err := ds.findDataset(ctx, user, publicID)
	if err != nil {
		return nil, err
	}

	gdb := ds.dbClient.GetDB().WithContext(ctx)

	var images []model.CropImage

	if err := gdb.Where("dataset_id = ?", dataset.ID).Find(&images).Error; err != nil {
		return nil, fmt.Errorf("list dataset images: %w", err)
	}

	var blobErrors int

	// 对象存储未配置时只删数据库侧
	if ds.s3Client != nil {
		for i := range images {
			img := &images[i]

			err := ds.s3Client.RemoveObject(ctx, img.Bucket, img.ObjectKey, minio.RemoveObjectOptions{})
			if err != nil {
				blobErrors++

				nlog.Logger().Warn().Err(err).
					Str("object", img.ObjectKey).
					Msg("failed to remove image blob, continuing")
			}
		}

		err = ds.s3Client.RemoveObject(ctx, dataset.Bucket, dataset.ObjectKey, minio.RemoveObjectOptions{})
		if err != nil {
			blobErrors++

			nlog.Logger().Warn().Err(err).
				Str("object", dataset.ObjectKey).
				Msg("failed to remove dataset blob, continuing")
		}
	}

	var recordCount int64

	err = gdb.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.DataRecord{}).
			Where("dataset_id = ?", dataset.ID).
			Count(&recordCount).Error; err != nil {
			return fmt.Errorf("count records: %w", err)
		}

		if err := tx.Where("dataset_id = ?", dataset.ID).
			Delete(&model.DataRecord{}).Error; err != nil {
			return fmt.Errorf("delete records: %w", err)
		}

		if len(images) > 0 {
			imageIDs := make([]uint, 0, len(images))
			for i := range images {
				imageIDs = append(imageIDs, images[i].ID)
			}

			if err := tx.Unscoped().Where("crop_image_id IN ?", imageIDs).
				Delete(&model.ImageMetadata{}).Error; err != nil {
				return fmt.Errorf("delete image metadata: %w", err)
			}

			if err := tx.Unscoped().Where("id IN ?", imageIDs).
				Delete(&model.CropImage{}).Error; err != nil {
				return fmt.Errorf("delete images: %w", err)
			}
		}

		if err := tx.Unscoped().Delete(dataset).Error; err != nil {
			return fmt.Errorf("delete dataset: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	nlog.Logger().Info().
		Str("user", user).
		Str("public_id", publicID).
		Int64("records", recordCount).
		Int("images", len(images)).
		Int("blob_errors", blobErrors).
		Msg("dataset deleted")

	ds.publishDatasetDeleted(dataset, int(recordCount), len(images))

	return &types.DeleteDatasetResponse{
		PublicID:      publicID,
		RecordCount:   int(recordCount),
		ImagesDeleted: len(images),
		BlobErrors:    blobErrors,
	}, nil
}
