package service

import (
	"context"
	crand "crypto/rand"
	"crypto/sha256"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/oklog/ulid"

	"github.com/yeisme/cropvault/pkg/configs"
	"github.com/yeisme/cropvault/pkg/internal/model"
	nlog "github.com/yeisme/cropvault/pkg/log"
	"github.com/yeisme/cropvault/pkg/queue"
)

const (
	// DefaultSliceCapacity 默认slice预分配容量.
	DefaultSliceCapacity = 100
	// DefaultPublishTimeout 事件发布的最长等待时间，超时放弃不重试.
	DefaultPublishTimeout = 3 * time.Second
	// DefaultPreviewRows 预览接口默认返回的数据行数.
	DefaultPreviewRows = 10
	// imageUploadConcurrency 图片批量上传到对象存储的并发上限.
	imageUploadConcurrency = 4
)

var ulidEntropy = ulid.Monotonic(crand.Reader, 0)

// newPublicID 生成对外暴露的数据集标识（ULID，按时间有序）.
func newPublicID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}

// contentHash 原始上传字节的 SHA-256 十六进制摘要，用于判断同名重传的内容有没有变化.
func contentHash(data []byte) string {
	sum := sha256.Sum256(data)

	return fmt.Sprintf("%x", sum)
}

// datasetObjectKey 数据集原始文件的对象键.放在 service 层便于未来统一策略.
func datasetObjectKey(user, fileName string) string {
	datePath := time.Now().UTC().Format("2006/01") // 只到月，避免目录过深

	return fmt.Sprintf("%s/%s/%s", user, datePath, fileName) // user/2023/10/filename
}

// imageObjectKey 作物图片的对象键，ULID 前缀避免同名覆盖.
func imageObjectKey(user, fileName string) string {
	datePath := time.Now().UTC().Format("2006/01")

	return fmt.Sprintf("%s/%s/%s_%s", user, datePath, newPublicID(), fileName)
}

// mappingObjectKey CSV 映射文件的对象键，与数据集区分前缀.
func mappingObjectKey(user, fileName string) string {
	return fmt.Sprintf("%s/mappings/%s_%s", user, newPublicID(), fileName)
}

// fileTypeOf 从文件名推断数据集类型（csv/xlsx），未知返回小写扩展名.
func fileTypeOf(fileName string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(fileName), "."))
	if ext == "xls" {
		ext = "xlsx"
	}

	return ext
}

// datasetRef 构造事件负载中的数据集定位信息.
func datasetRef(ds *model.Dataset) queue.DatasetRef {
	return queue.DatasetRef{
		PublicID:    ds.PublicID,
		User:        ds.User,
		Bucket:      ds.Bucket,
		ObjectKey:   ds.ObjectKey,
		FileName:    ds.FileName,
		FileType:    ds.FileType,
		Size:        ds.Size,
		ContentHash: ds.ContentHash,
	}
}

// publish 尽力而为地发布一条事件：MQ 未配置、编码失败、发布失败都只记日志.
// 业务链路绝不因事件系统故障而失败.
func (ds *DatasetService) publish(topic string, build func() (any, error)) {
	if ds.mqClient == nil || !configs.GetConfig().Events.Enabled {
		return
	}

	payload, err := build()
	if err != nil {
		nlog.Logger().Warn().Err(err).Str("topic", topic).Msg("build event payload failed")

		return
	}

	msg, err := queue.NewWatermillMessage(topic, payload, queue.WithProducer(configs.AppName))
	if err != nil {
		nlog.Logger().Warn().Err(err).Str("topic", topic).Msg("encode event failed")

		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), DefaultPublishTimeout)
	defer cancel()

	if err := ds.mqClient.Publish(ctx, topic, msg); err != nil {
		nlog.Logger().Warn().Err(err).Str("topic", topic).Msg("publish event failed")
	}
}

// publishDatasetProcessed 记录解析入库完成后的通知.
func (ds *DatasetService) publishDatasetProcessed(d *model.Dataset, created, updated int, isUpdate bool) {
	if !configs.GetConfig().Events.Dataset.Processed {
		return
	}

	ds.publish(queue.TopicDatasetProcessed, func() (any, error) {
		return queue.DatasetProcessedPayload{
			Dataset:      datasetRef(d),
			TotalRecords: d.TotalRecords,
			Created:      created,
			Updated:      updated,
			IsUpdate:     isUpdate,
		}, nil
	})
}

// publishDatasetProcessFailed 解析或入库失败的通知.失败可能发生在数据集
// 落库之前，负载里只携带 user 和文件名定位.
func (ds *DatasetService) publishDatasetProcessFailed(user, fileName string, cause error) {
	ds.publish(queue.TopicDatasetProcessFailed, func() (any, error) {
		return queue.DatasetProcessFailedPayload{
			Dataset: queue.DatasetRef{User: user, FileName: fileName},
			Error:   cause.Error(),
		}, nil
	})
}

// publishDatasetDeleted 级联删除完成后的通知.
func (ds *DatasetService) publishDatasetDeleted(d *model.Dataset, recordCount, imagesDeleted int) {
	if !configs.GetConfig().Events.Dataset.Deleted {
		return
	}

	ds.publish(queue.TopicDatasetDeleted, func() (any, error) {
		return queue.DatasetDeletedPayload{
			Dataset:       datasetRef(d),
			RecordCount:   recordCount,
			ImagesDeleted: imagesDeleted,
		}, nil
	})
}

// publishDatasetAccessed 下载/预览/读取记录的访问事件，默认关闭.
func (ds *DatasetService) publishDatasetAccessed(d *model.Dataset, action string) {
	if !configs.GetConfig().Events.Dataset.Accessed {
		return
	}

	ds.publish(queue.TopicDatasetAccessed, func() (any, error) {
		return queue.DatasetAccessedPayload{
			Dataset: datasetRef(d),
			Action:  action,
		}, nil
	})
}

// publishImageMatched 图片位置匹配完成后的通知.
func (ds *DatasetService) publishImageMatched(d *model.Dataset, imageCount int) {
	if !configs.GetConfig().Events.Image.Matched {
		return
	}

	ds.publish(queue.TopicImageMatched, func() (any, error) {
		return queue.ImageMatchedPayload{
			Dataset:    datasetRef(d),
			ImageCount: imageCount,
		}, nil
	})
}

// publishImageMatchFailed 匹配失败的通知，未产生任何绑定.
func (ds *DatasetService) publishImageMatchFailed(d *model.Dataset, imageCount, recordCount int, cause error) {
	ds.publish(queue.TopicImageMatchFailed, func() (any, error) {
		return queue.ImageMatchFailedPayload{
			Dataset:     datasetRef(d),
			ImageCount:  imageCount,
			RecordCount: recordCount,
			Error:       cause.Error(),
		}, nil
	})
}

// publishMappingProcessed 映射管道完成后的通知.
func (ds *DatasetService) publishMappingProcessed(m *model.MappingFile, matched, upserts, skipped int) {
	ds.publish(queue.TopicMappingProcessed, func() (any, error) {
		return queue.MappingProcessedPayload{
			MappingID:      m.ID,
			User:           m.User,
			MatchedImages:  matched,
			MetadataUpsert: upserts,
			SkippedRows:    skipped,
		}, nil
	})
}
