package handle

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/cropvault/pkg/internal/service"
	"github.com/yeisme/cropvault/pkg/log"
)

// UploadMapping 上传 CSV 映射文件，登记列名与内容哈希.
func UploadMapping(c *gin.Context) {
	l := log.Logger()

	fh, err := c.FormFile("file")
	if err != nil {
		l.Warn().Err(err).Msg("failed to get uploaded file")
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})

		return
	}

	user, err := checkUser(c)
	if user == "" || err != nil {
		l.Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return
	}

	data, err := readFormFile(fh)
	if err != nil {
		l.Error().Err(err).Msg("failed to read uploaded file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx := c.Request.Context()
	svc := service.NewMappingService(ctx)

	resp, err := svc.UploadMapping(ctx, user, fh.Filename, data)
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// ProcessMapping 执行映射管道，把 CSV 行写成图片元数据.
func ProcessMapping(c *gin.Context) {
	mappingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mapping id"})

		return
	}

	user, err := checkUser(c)
	if user == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return
	}

	ctx := c.Request.Context()
	svc := service.NewMappingService(ctx)

	resp, err := svc.ProcessMapping(ctx, user, uint(mappingID))
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}
