package service

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/cropvault/pkg/crypto"
	"github.com/yeisme/cropvault/pkg/internal/model"
	"github.com/yeisme/cropvault/pkg/internal/tabular"
)

// reconcileRecords 把映射后的记录对账进数据库：(dataset_id, f5_code) 命中且
// 字段确有变化才覆盖并计入 updated，无变化的行原样跳过不计数；未命中则新建.
// 必须在事务内调用，任何失败整体回滚.
// 覆盖时保留 ImageID，避免重复上传打断已有的图片绑定.
func reconcileRecords(tx *gorm.DB, datasetID uint, codec *crypto.Codec,
	records []tabular.MappedRecord,
) (created, updated int, err error) {
	for i := range records {
		rec := &records[i]
		row := recordModel(datasetID, rec)

		var existing model.DataRecord

		findErr := tx.Where("dataset_id = ? AND f5_code = ?", datasetID, rec.F5Code).
			First(&existing).Error

		switch {
		case findErr == nil:
			if !recordChanged(&existing, &row) {
				continue
			}

			if err := encryptPayloads(codec, rec, &row); err != nil {
				return 0, 0, err
			}

			row.ID = existing.ID
			row.ImageID = existing.ImageID
			row.CreatedAt = existing.CreatedAt

			if err := tx.Save(&row).Error; err != nil {
				return 0, 0, fmt.Errorf("update record %s: %w", rec.F5Code, err)
			}

			updated++
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			if err := encryptPayloads(codec, rec, &row); err != nil {
				return 0, 0, err
			}

			if err := tx.Create(&row).Error; err != nil {
				return 0, 0, fmt.Errorf("create record %s: %w", rec.F5Code, err)
			}

			created++
		default:
			return 0, 0, fmt.Errorf("lookup record %s: %w", rec.F5Code, findErr)
		}
	}

	return created, updated, nil
}

// encryptPayloads 把敏感子对象的密文填入模型.
func encryptPayloads(codec *crypto.Codec, rec *tabular.MappedRecord, row *model.DataRecord) error {
	encSig, err := codec.EncryptJSON(rec.Signature())
	if err != nil {
		return fmt.Errorf("encrypt genetic signature for %s: %w", rec.F5Code, err)
	}

	encBreeding, err := codec.EncryptJSON(rec.Breeding())
	if err != nil {
		return fmt.Errorf("encrypt breeding data for %s: %w", rec.F5Code, err)
	}

	row.EncryptedGeneticSignature = encSig
	row.EncryptedBreedingData = encBreeding

	return nil
}

// recordChanged 逐字段比较可变的类型化字段.
// 密文不参与比较：随机 nonce 使同一明文每次加密结果都不同，
// 而敏感子对象完全派生自这些类型化字段，字段相同则明文必然相同.
func recordChanged(old, next *model.DataRecord) bool {
	return old.RecordNumber != next.RecordNumber ||
		old.Location != next.Location ||
		old.F5FruitNumber != next.F5FruitNumber ||
		old.F6FullName != next.F6FullName ||
		old.SixthCode != next.SixthCode ||
		old.FruitNumber != next.FruitNumber ||
		!eqTimePtr(old.PollinationDate, next.PollinationDate) ||
		!eqTimePtr(old.HarvestDate, next.HarvestDate) ||
		!eqPtr(old.PedicelLength, next.PedicelLength) ||
		!eqPtr(old.PedicelWidth, next.PedicelWidth) ||
		!eqPtr(old.InsertionPeduncleSize, next.InsertionPeduncleSize) ||
		!eqPtr(old.FruitWeight, next.FruitWeight) ||
		!eqPtr(old.FruitLength, next.FruitLength) ||
		!eqPtr(old.FruitWidth, next.FruitWidth) ||
		!eqPtr(old.RindThickness, next.RindThickness) ||
		!eqPtr(old.RindHardness, next.RindHardness) ||
		!eqPtr(old.ApexSize, next.ApexSize) ||
		old.RindStripe != next.RindStripe ||
		old.FleshHardness != next.FleshHardness ||
		old.FleshColor != next.FleshColor ||
		!eqPtr(old.BrixContent, next.BrixContent) ||
		!eqPtr(old.SeedsQuantity, next.SeedsQuantity) ||
		!eqPtr(old.RemainedSeeds, next.RemainedSeeds)
}

// eqPtr 可选数值字段的 nil 安全比较.
func eqPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}

// eqTimePtr 时间字段按时刻比较，不受时区表示影响.
func eqTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}

	return a.Equal(*b)
}

// recordModel 把映射记录转换为数据库模型，敏感载荷由 encryptPayloads 另行填充.
func recordModel(datasetID uint, rec *tabular.MappedRecord) model.DataRecord {
	return model.DataRecord{
		DatasetID:    datasetID,
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
