package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	minio "github.com/minio/minio-go/v7"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeisme/cropvault/pkg/configs"
	"github.com/yeisme/cropvault/pkg/internal/model"
	"github.com/yeisme/cropvault/pkg/internal/types"
	nlog "github.com/yeisme/cropvault/pkg/log"
)

// ImageUpload 一张待匹配的图片，顺序即绑定顺序.
type ImageUpload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// MatchImages 按位置把一批图片绑定到数据集记录上：第 i 张图对应
// record_number 升序的第 i 条记录.数量不一致在任何写入前拒绝.
// 图片先传对象存储再开事务，事务失败时尽力清理已上传的对象.
func (is *ImageService) MatchImages(ctx context.Context, user, publicID string,
	uploads []ImageUpload,
) (*types.MatchImagesResponse, error) {
	dataset, err := is.findDataset(ctx, user, publicID)
	if err != nil {
		return nil, err
	}

	gdb := is.dbClient.GetDB().WithContext(ctx)

	var records []model.DataRecord

	err = gdb.Where("dataset_id = ?", dataset.ID).
		Order("record_number ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	if len(uploads) != len(records) {
		mismatch := &types.CountMismatchError{
			Images:  len(uploads),
			Records: len(records),
		}

		is.publishImageMatchFailed(dataset, len(uploads), len(records), mismatch)

		return nil, mismatch
	}

	bucket := configs.GetConfig().S3.ImageBucket

	// 先传所有对象，任何一张失败就中止并清理已传的.
	// 对象键先按位置算好，再并发上传
	objectKeys := make([]string, len(uploads))
	for i := range uploads {
		objectKeys[i] = imageObjectKey(user, uploads[i].FileName)
	}

	if is.s3Client != nil {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(imageUploadConcurrency)

		for i := range uploads {
			up := &uploads[i]
			key := objectKeys[i]

			g.Go(func() error {
				_, err := is.s3Client.PutObject(gctx, bucket, key,
					bytes.NewReader(up.Data), int64(len(up.Data)),
					minio.PutObjectOptions{ContentType: up.ContentType})
				if err != nil {
					return fmt.Errorf("store image %s: %w", up.FileName, err)
				}

				return nil
			})
		}

		if err := g.Wait(); err != nil {
			is.removeObjects(ctx, bucket, objectKeys)
			is.publishImageMatchFailed(dataset, len(uploads), len(records), err)

			return nil, err
		}
	}

	images := make([]model.CropImage, len(uploads))

	err = gdb.Transaction(func(tx *gorm.DB) error {
		for i := range uploads {
			rec := &records[i]

			images[i] = model.CropImage{
				User:        user,
				SampleID:    rec.F5Code,
				ObjectKey:   objectKeys[i],
				Bucket:      bucket,
				ContentType: uploads[i].ContentType,
				Size:        int64(len(uploads[i].Data)),
				Description: fmt.Sprintf("Genetic Record %d - %s", rec.RecordNumber, rec.F5Code),
				DatasetID:   &dataset.ID,
			}

			if err := tx.Create(&images[i]).Error; err != nil {
				return fmt.Errorf("create image for %s: %w", rec.F5Code, err)
			}

			if err := tx.Model(rec).Update("image_id", images[i].ID).Error; err != nil {
				return fmt.Errorf("bind image to %s: %w", rec.F5Code, err)
			}
		}

		return nil
	})
	if err != nil {
		is.removeObjects(ctx, bucket, objectKeys)
		is.publishImageMatchFailed(dataset, len(uploads), len(records), err)

		return nil, err
	}

	nlog.Logger().Info().
		Str("user", user).
		Str("public_id", publicID).
		Int("matched", len(images)).
		Msg("images matched to records")

	is.publishImageMatched(dataset, len(images))

	infos := make([]types.ImageInfo, 0, len(images))
	for i := range images {
		infos = append(infos, imageInfo(&images[i], nil))
	}

	return &types.MatchImagesResponse{
		PublicID: dataset.PublicID,
		Matched:  len(images),
		Images:   infos,
	}, nil
}

// removeObjects 尽力删除一批对象，失败只记日志.
func (is *ImageService) removeObjects(ctx context.Context, bucket string, keys []string) {
	if is.s3Client == nil {
		return
	}

	for _, key := range keys {
		if err := is.s3Client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
			nlog.Logger().Warn().Err(err).Str("object", key).Msg("cleanup image blob failed")
		}
	}
}

// ImageFilter 图片列表的可选过滤条件.
type ImageFilter struct {
	SampleID  string
	DatasetID string // 数据集 public_id
}

// ListImages 当前用户的图片列表，附带元数据.
func (is *ImageService) ListImages(ctx context.Context, user string, filter ImageFilter) (*types.ListImagesResponse, error) {
	gdb := is.dbClient.GetDB().WithContext(ctx)

	q := gdb.Where("user = ?", user)

	if filter.SampleID != "" {
		q = q.Where("sample_id = ?", filter.SampleID)
	}

	if filter.DatasetID != "" {
		dataset, err := is.findDataset(ctx, user, filter.DatasetID)
		if err != nil {
			return nil, err
		}

		q = q.Where("dataset_id = ?", dataset.ID)
	}

	var images []model.CropImage

	if err := q.Order("created_at DESC").Find(&images).Error; err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	// 批量取元数据
	metaByImage := make(map[uint][]types.MetadataItem, len(images))

	if len(images) > 0 {
		imageIDs := make([]uint, 0, len(images))
		for i := range images {
			imageIDs = append(imageIDs, images[i].ID)
		}

		var rows []model.ImageMetadata

		err := gdb.Where("crop_image_id IN ?", imageIDs).
			Order("label ASC").
			Find(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("load image metadata: %w", err)
		}

		for _, m := range rows {
			metaByImage[m.CropImageID] = append(metaByImage[m.CropImageID],
				types.MetadataItem{Label: m.Label, Value: m.Value})
		}
	}

	infos := make([]types.ImageInfo, 0, len(images))
	for i := range images {
		infos = append(infos, imageInfo(&images[i], metaByImage[images[i].ID]))
	}

	return &types.ListImagesResponse{
		Images: infos,
		Total:  len(infos),
	}, nil
}

// UpsertMetadata 批量写入图片的标签-值元数据，(image, label) 唯一，后写覆盖.
func (is *ImageService) UpsertMetadata(ctx context.Context, user string, imageID uint,
	items []types.MetadataItem,
) (*types.UpsertMetadataResponse, error) {
	gdb := is.dbClient.GetDB().WithContext(ctx)

	var image model.CropImage

	err := gdb.Where("id = ? AND user = ?", imageID, user).First(&image).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNotFound
		}

		return nil, fmt.Errorf("find image %d: %w", imageID, err)
	}

	err = gdb.Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			row := model.ImageMetadata{
				CropImageID: image.ID,
				Label:       item.Label,
				Value:       item.Value,
			}

			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "crop_image_id"}, {Name: "label"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&row).Error
			if err != nil {
				return fmt.Errorf("upsert metadata %s: %w", item.Label, err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &types.UpsertMetadataResponse{
		ImageID:  image.ID,
		Upserted: len(items),
	}, nil
}

// ListMetadataLabels 当前用户全部图片上出现过的去重标签，字典序.
func (is *ImageService) ListMetadataLabels(ctx context.Context, user string) (*types.MetadataLabelsResponse, error) {
	var labels []string

	err := is.dbClient.GetDB().WithContext(ctx).
		Model(&model.ImageMetadata{}).
		Distinct("image_metadata.label").
		Joins("JOIN crop_images ON crop_images.id = image_metadata.crop_image_id").
		Where("crop_images.user = ?", user).
		Order("image_metadata.label ASC").
		Pluck("image_metadata.label", &labels).Error
	if err != nil {
		return nil, fmt.Errorf("list metadata labels: %w", err)
	}

	return &types.MetadataLabelsResponse{Labels: labels}, nil
}

func imageInfo(img *model.CropImage, metadata []types.MetadataItem) types.ImageInfo {
	return types.ImageInfo{
		ID:          img.ID,
		SampleID:    img.SampleID,
		ObjectKey:   img.ObjectKey,
		ContentType: img.ContentType,
		Size:        img.Size,
		Description: img.Description,
		DatasetID:   img.DatasetID,
		CreatedAt:   img.CreatedAt,
		Metadata:    metadata,
	}
}
