// Package storage 处理存储操作，如上传、下载和删除文件到S3，数据库等.
//
// Example:
//
// 初始化
//
//	 ctx := context.Background()
//	 mgr, err := storage.Init(ctx)
//
//		if err != nil {
//		    // 处理错误
//		}
//
// 获取存储客户端
//
//	s3Client := mgr.GetS3Client()
//	dbClient := mgr.GetDBClient()
package storage

import (
	"context"
	"sync"

	"github.com/yeisme/cropvault/pkg/configs"
	"github.com/yeisme/cropvault/pkg/crypto"
	"github.com/yeisme/cropvault/pkg/internal/model"
	dbc "github.com/yeisme/cropvault/pkg/internal/storage/db"
	kvc "github.com/yeisme/cropvault/pkg/internal/storage/kv"
	mqc "github.com/yeisme/cropvault/pkg/internal/storage/mq"
	s3c "github.com/yeisme/cropvault/pkg/internal/storage/s3"
	nlog "github.com/yeisme/cropvault/pkg/log"
)

// Manager 聚合所有存储资源和加密编解码器.
type Manager struct {
	S3     *s3c.Client
	DB     *dbc.Client
	MQ     *mqc.Client
	KV     *kvc.Client
	Crypto *crypto.Codec
}

var (
	mgr     *Manager
	mgrOnce sync.Once
)

// Init 初始化默认存储，使用全局配置.重复调用只返回已初始化实例.
// DB、S3 和加密编解码器是硬依赖；MQ 与 KV 初始化失败只告警，
// 事件发布和缓存在运行期按 nil 客户端降级.
func Init(ctx context.Context) (*Manager, error) {
	var err error

	mgrOnce.Do(func() {
		cfg := configs.GetConfig()
		m := &Manager{}

		// DB
		dbi, e := dbc.New(ctx)
		if e != nil {
			err = e

			return
		}

		m.DB = dbi

		if e := dbi.AutoMigrate(
			&model.Dataset{},
			&model.DataRecord{},
			&model.CropImage{},
			&model.ImageMetadata{},
			&model.MappingFile{},
		); e != nil {
			err = e

			return
		}

		// S3
		s3i, e := s3c.New(ctx)
		if e != nil {
			err = e

			return
		}

		m.S3 = s3i

		// Crypto
		codec, e := crypto.NewCodec(cfg.Crypto.Secret, cfg.Crypto.Iterations)
		if e != nil {
			err = e

			return
		}

		m.Crypto = codec

		// MQ
		if mqi, e := mqc.New(ctx); e != nil {
			nlog.Logger().Warn().Err(e).Msg("mq unavailable, events disabled")
		} else {
			m.MQ = mqi
		}

		// KV
		if kvi, e := kvc.NewKVClient(ctx); e != nil {
			nlog.Logger().Warn().Err(e).Msg("kv unavailable, cache disabled")
		} else {
			m.KV = kvi
		}

		mgr = m

		nlog.Logger().Info().Msg("storage manager initialized")
	})

	return mgr, err
}

// GetS3Client 获取 S3 客户端.
func (m *Manager) GetS3Client() *s3c.Client {
	return m.S3
}

// GetDBClient 获取 DB 客户端.
func (m *Manager) GetDBClient() *dbc.Client {
	return m.DB
}

// GetMQClient 获取 MQ 客户端.
func (m *Manager) GetMQClient() *mqc.Client {
	return m.MQ
}

// GetKVClient 获取 KV 客户端.
func (m *Manager) GetKVClient() *kvc.Client {
	return m.KV
}

// GetCryptoCodec 获取加密编解码器.
func (m *Manager) GetCryptoCodec() *crypto.Codec {
	return m.Crypto
}
