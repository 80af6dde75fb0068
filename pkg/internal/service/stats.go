package service

import (
	"context"
	"fmt"
	"math"
	"time"

	appcache "github.com/yeisme/cropvault/pkg/cache"
	"github.com/yeisme/cropvault/pkg/internal/model"
	"github.com/yeisme/cropvault/pkg/internal/types"
)

// StatsService 提供仪表盘统计（基于 DB 的数据集/记录/图片表）。
type StatsService struct{ *DatasetService }

func NewStatsService(c context.Context) *StatsService { return &StatsService{NewDatasetService(c)} }

const (
	hoursPerDay      = 24
	defaultTrendDays = 14
	maxTrendDays     = 60
	percentPrecision = 100 // 百分比保留两位小数

	dashboardCacheTTL = time.Minute
)

// roundPercent 计算 part/total 的百分比，保留两位小数；total 为 0 时返回 0.
func roundPercent(part, total int64) float64 {
	if total == 0 {
		return 0
	}

	return math.Round(float64(part)/float64(total)*100*percentPrecision) / percentPrecision
}

// Dashboard 当前用户的总体统计.KV 可用时走读穿缓存，容忍一分钟陈旧.
func (s *StatsService) Dashboard(ctx context.Context, user string) (*types.DashboardStats, error) {
	if user == "" {
		return nil, fmt.Errorf("user required")
	}

	if s.kvClient == nil {
		return s.dashboard(ctx, user)
	}

	stats, err := appcache.GetOrSet(ctx, appcache.NewCache(s.kvClient),
		"stats:dashboard:"+user, func() (types.DashboardStats, error) {
			st, err := s.dashboard(ctx, user)
			if err != nil {
				return types.DashboardStats{}, err
			}

			return *st, nil
		}, dashboardCacheTTL)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

func (s *StatsService) dashboard(ctx context.Context, user string) (*types.DashboardStats, error) {
	dbx := s.dbClient.GetDB().WithContext(ctx)

	// 一次聚合查询拿到数量与加密覆盖，避免多次往返
	var agg struct {
		Total     int64 `gorm:"column:total"`
		Encrypted int64 `gorm:"column:encrypted"`
		Records   int64 `gorm:"column:records"`
	}

	// SQLite/MySQL 兼容处理：使用 COALESCE 避免 NULL
	selectExpr :=
		"COUNT(*) AS total, " +
			"COALESCE(SUM(CASE WHEN is_encrypted THEN 1 ELSE 0 END),0) AS encrypted, " +
			"COALESCE(SUM(total_records),0) AS records"

	if err := dbx.Model(&model.Dataset{}).
		Select(selectExpr).
		Where("user = ?", user).
		Scan(&agg).Error; err != nil {
		return nil, err
	}

	var imageCount int64

	if err := dbx.Model(&model.CropImage{}).
		Where("user = ?", user).
		Count(&imageCount).Error; err != nil {
		return nil, err
	}

	stats := &types.DashboardStats{
		TotalDatasets:        int(agg.Total),
		TotalRecords:         int(agg.Records),
		TotalImages:          int(imageCount),
		EncryptedDatasets:    int(agg.Encrypted),
		EncryptionPercentage: roundPercent(agg.Encrypted, agg.Total),
	}

	if agg.Total > 0 {
		var last model.Dataset

		if err := dbx.Where("user = ?", user).
			Order("created_at DESC").
			First(&last).Error; err == nil {
			stats.LastUploadAt = &last.CreatedAt
		}
	}

	return stats, nil
}

// Encryption 加密覆盖统计：数据集级与记录级.
func (s *StatsService) Encryption(ctx context.Context, user string) (*types.EncryptionStats, error) {
	if user == "" {
		return nil, fmt.Errorf("user required")
	}

	dbx := s.dbClient.GetDB().WithContext(ctx)

	var agg struct {
		Total     int64 `gorm:"column:total"`
		Encrypted int64 `gorm:"column:encrypted"`
	}

	selectExpr :=
		"COUNT(*) AS total, " +
			"COALESCE(SUM(CASE WHEN is_encrypted THEN 1 ELSE 0 END),0) AS encrypted"

	if err := dbx.Model(&model.Dataset{}).
		Select(selectExpr).
		Where("user = ?", user).
		Scan(&agg).Error; err != nil {
		return nil, err
	}

	// 记录级：密文列非空视为已加密
	var recAgg struct {
		Total     int64 `gorm:"column:total"`
		Encrypted int64 `gorm:"column:encrypted"`
	}

	recSelect :=
		"COUNT(*) AS total, " +
			"COALESCE(SUM(CASE WHEN encrypted_genetic_signature <> '' THEN 1 ELSE 0 END),0) AS encrypted"

	if err := dbx.Model(&model.DataRecord{}).
		Select(recSelect).
		Joins("JOIN datasets ON datasets.id = data_records.dataset_id").
		Where("datasets.user = ?", user).
		Scan(&recAgg).Error; err != nil {
		return nil, err
	}

	return &types.EncryptionStats{
		TotalDatasets:        int(agg.Total),
		EncryptedDatasets:    int(agg.Encrypted),
		EncryptionPercentage: roundPercent(agg.Encrypted, agg.Total),
		TotalRecords:         int(recAgg.Total),
		EncryptedRecords:     int(recAgg.Encrypted),
		RecordPercentage:     roundPercent(recAgg.Encrypted, recAgg.Total),
	}, nil
}

// UploadTrend 最近 N 天的每日上传统计（数据集数与记录数），按天补齐.
func (s *StatsService) UploadTrend(ctx context.Context, user string, days int) ([]types.StatsTrendPoint, error) {
	if user == "" {
		return nil, fmt.Errorf("user required")
	}

	if days <= 0 || days > maxTrendDays {
		days = defaultTrendDays
	}

	dbx := s.dbClient.GetDB().WithContext(ctx)

	start := time.Now().UTC().AddDate(0, 0, -days+1).Truncate(hoursPerDay * time.Hour)
	rows := []struct {
		D   string
		Cnt int64
		Sum int64
	}{}

	// 兼容 SQLite/MySQL：按 DATE(created_at) 分组，结果按天补齐
	if err := dbx.Model(&model.Dataset{}).
		Select("DATE(created_at) as d, COUNT(*) as cnt, COALESCE(SUM(total_records),0) as sum").
		Where("user = ? AND created_at >= ?", user, start).
		Group("DATE(created_at)").
		Order("d").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	data := make(map[string]struct {
		C int64
		S int64
	})
	for _, r := range rows {
		data[r.D] = struct{ C, S int64 }{r.Cnt, r.Sum}
	}

	out := make([]types.StatsTrendPoint, 0, days)
	for i := range days {
		d := start.AddDate(0, 0, i).Format("2006-01-02")
		if v, ok := data[d]; ok {
			out = append(out, types.StatsTrendPoint{Date: d, Count: int(v.C), Records: int(v.S)})
		} else {
			out = append(out, types.StatsTrendPoint{Date: d})
		}
	}

	return out, nil
}
