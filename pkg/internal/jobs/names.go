package jobs

// 任务名称常量，便于统一管理与引用.
const (
	JobDatasetStuckCleanup = "dataset.stuck_cleanup"
	JobStatsWarmup         = "stats.warmup"
)

// Cron 表达式常量（可选，但推荐一并集中管理）.
const (
	CronDatasetStuckCleanup = "40 2 * * *"
	CronStatsWarmup         = "0 * * * *"
)
