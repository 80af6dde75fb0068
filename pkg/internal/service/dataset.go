package service

import (
	"context"

	ctxPkg "github.com/yeisme/cropvault/pkg/context"
	"github.com/yeisme/cropvault/pkg/crypto"
	"github.com/yeisme/cropvault/pkg/internal/storage/db"
	"github.com/yeisme/cropvault/pkg/internal/storage/kv"
	"github.com/yeisme/cropvault/pkg/internal/storage/mq"
	"github.com/yeisme/cropvault/pkg/internal/storage/s3"
)

// DatasetService 基因数据集核心服务：上传解析、对账入库、下载删除.
// mqClient 和 kvClient 可能为 nil（软依赖），调用方需要容忍降级.
type DatasetService struct {
	s3Client *s3.Client
	dbClient *db.Client
	mqClient *mq.Client
	kvClient *kv.Client
	codec    *crypto.Codec
}

func NewDatasetService(c context.Context) *DatasetService {
	return &DatasetService{
		s3Client: ctxPkg.GetS3Client(c),
		dbClient: ctxPkg.GetDBClient(c),
		mqClient: ctxPkg.GetMQClient(c),
		kvClient: ctxPkg.GetKVClient(c),
		codec:    ctxPkg.GetCryptoCodec(c),
	}
}

// ImageService 作物图片服务：位置匹配、元数据维护.
type ImageService struct {
	*DatasetService
}

func NewImageService(c context.Context) *ImageService {
	return &ImageService{DatasetService: NewDatasetService(c)}
}

// MappingService CSV 元数据映射管道.
type MappingService struct {
	*DatasetService
}

func NewMappingService(c context.Context) *MappingService {
	return &MappingService{DatasetService: NewDatasetService(c)}
}
