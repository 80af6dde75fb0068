package handle

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/cropvault/pkg/internal/service"
	"github.com/yeisme/cropvault/pkg/log"
)

const defaultTrendDays = 14

// doStats 是一个通用封装：
//  1. 统一抽取并校验用户
//  2. 创建 StatsService
//  3. 统一错误处理与 JSON 输出
//
// 回调 fn 中负责具体业务逻辑与返回数据（可返回任意 JSON-able 结构）。
func doStats(c *gin.Context, errLogMsg string, fn func(svc *service.StatsService, user string) (any, error)) {
	l := log.Logger()

	user, err := checkUser(c)
	if user == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})
		return
	}

	svc := service.NewStatsService(c.Request.Context())

	data, e := fn(svc, user)
	if e != nil {
		if errLogMsg == "" {
			errLogMsg = "stats handle failed"
		}

		l.Error().Err(e).Msg(errLogMsg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": e.Error()})

		return
	}

	c.JSON(http.StatusOK, data)
}

// GetDashboardStats 仪表盘总体统计.
func GetDashboardStats(c *gin.Context) {
	doStats(c, "dashboard stats failed", func(svc *service.StatsService, user string) (any, error) {
		return svc.Dashboard(c.Request.Context(), user)
	})
}

// GetEncryptionStats 加密覆盖统计.
func GetEncryptionStats(c *gin.Context) {
	doStats(c, "encryption stats failed", func(svc *service.StatsService, user string) (any, error) {
		return svc.Encryption(c.Request.Context(), user)
	})
}

// GetUploadTrend 最近 N 天的每日上传趋势，?days= 控制窗口.
func GetUploadTrend(c *gin.Context) {
	doStats(c, "upload trend failed", func(svc *service.StatsService, user string) (any, error) {
		days := defaultTrendDays
		if s := c.Query("days"); s != "" {
			if v, err := strconv.Atoi(s); err == nil {
				days = v
			}
		}

		return svc.UploadTrend(c.Request.Context(), user, days)
	})
}
