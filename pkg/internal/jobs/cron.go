// Package jobs 负责注册与实现业务定时任务（基于 scheduler）。
package jobs

import (
	"context"
	"fmt"
	"time"

	ctxPkg "github.com/yeisme/cropvault/pkg/context"
	"github.com/yeisme/cropvault/pkg/internal/model"
	"github.com/yeisme/cropvault/pkg/internal/service"
	"github.com/yeisme/cropvault/pkg/internal/storage"
	"github.com/yeisme/cropvault/pkg/log"
	"github.com/yeisme/cropvault/pkg/scheduler"
)

const stuckAge = 24 * time.Hour

// RegisterCronJobs 配置业务定时任务：
//   - 每天 02:40 清理超过 24 小时仍未处理完成的数据集残留
//   - 每小时整点预热各用户的仪表盘统计缓存
func RegisterCronJobs(sched *scheduler.Scheduler, mgr *storage.Manager) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if mgr == nil {
		return fmt.Errorf("storage manager is nil")
	}

	// 将 storage manager 注入到 context，便于 service 使用
	baseCtx := ctxPkg.WithStorageManager(context.Background(), mgr)

	_ = sched.AddCron(JobDatasetStuckCleanup, CronDatasetStuckCleanup, func(ctx context.Context) {
		runStuckCleanup(ctx)
	}, baseCtx)

	_ = sched.AddCron(JobStatsWarmup, CronStatsWarmup, func(ctx context.Context) {
		runStatsWarmup(ctx, mgr)
	}, baseCtx)

	return nil
}

// runStuckCleanup 清理上传中途失败留下的未处理数据集。
func runStuckCleanup(ctx context.Context) {
	l := log.Logger().With().Str("job", JobDatasetStuckCleanup).Logger()

	svc := service.NewDatasetService(ctx)
	before := time.Now().Add(-stuckAge)

	n, err := svc.CleanupUnprocessed(ctx, before)
	if err != nil {
		l.Error().Err(err).Msg("stuck cleanup failed")
		return
	}

	if n > 0 {
		l.Info().Int("affected", n).Time("before", before).Msg("cleaned stuck datasets")
	}
}

// runStatsWarmup 为所有有数据集的用户预热仪表盘统计缓存。
func runStatsWarmup(ctx context.Context, mgr *storage.Manager) {
	l := log.Logger().With().Str("job", JobStatsWarmup).Logger()

	users, err := listAllUsers(ctx, mgr)
	if err != nil {
		l.Error().Err(err).Msg("list users failed")
		return
	}

	svc := service.NewStatsService(ctx)

	for _, u := range users {
		if _, e := svc.Dashboard(ctx, u); e != nil {
			l.Error().Err(e).Str("user", u).Msg("stats warmup failed")
			continue
		}
	}
}

// listAllUsers 查询 DB 中存在数据集的所有用户。
func listAllUsers(ctx context.Context, mgr *storage.Manager) ([]string, error) {
	if mgr == nil || mgr.GetDBClient() == nil || mgr.GetDBClient().GetDB() == nil {
		return nil, fmt.Errorf("db not initialized")
	}

	dbx := mgr.GetDBClient().GetDB().WithContext(ctx)

	var users []string
	if err := dbx.Model(&model.Dataset{}).Distinct().Pluck("user", &users).Error; err != nil {
		return nil, err
	}

	return users, nil
}
