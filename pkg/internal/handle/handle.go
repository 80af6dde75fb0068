// Package handle 提供请求处理器的实现，用于处理HTTP请求.
package handle

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/cropvault/pkg/internal/service"
	"github.com/yeisme/cropvault/pkg/internal/tabular"
	"github.com/yeisme/cropvault/pkg/internal/types"
	"github.com/yeisme/cropvault/pkg/log"
	"github.com/yeisme/cropvault/pkg/rule"
)

func checkUser(c *gin.Context) (string, error) {
	// 提取用户名：Header 优先 -> query 参数 -> 默认 test-user（便于测试）
	user := c.GetHeader("X-User")
	if user == "" {
		user = c.Query("user")
	}
	// 测试默认值，不为 Debug 或者 Test 模式时
	if user == "" && gin.Mode() != gin.ReleaseMode {
		user = "test-user@example.com"
	}

	user = strings.TrimSpace(user)

	// 使用 validator 验证用户名格式为 email
	if err := rule.ValidateVar(user, "required,email"); err != nil {
		return "", err
	}

	return user, nil
}

// writeError 把服务层错误翻译成 HTTP 状态码：
// 输入问题（格式/列缺失/数量不符）返回 400，找不到返回 404，
// 依赖缺失返回 503，其余 500.
func writeError(c *gin.Context, err error) {
	l := log.Logger()

	var (
		malformed *tabular.MalformedInputError
		missing   *tabular.MissingColumnsError
		mismatch  *types.CountMismatchError
	)

	switch {
	case errors.Is(err, tabular.ErrUnsupportedFormat),
		errors.Is(err, tabular.ErrEmptyInput),
		errors.Is(err, tabular.ErrNoValidRecords),
		errors.As(err, &malformed),
		errors.As(err, &missing),
		errors.As(err, &mismatch):
		l.Warn().Err(err).Str("path", c.FullPath()).Msg("rejected request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, types.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrKVUnavailable):
		l.Error().Err(err).Msg("dependency unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		l.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
