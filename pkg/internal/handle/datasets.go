package handle

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/cropvault/pkg/internal/service"
	"github.com/yeisme/cropvault/pkg/log"
)

// readFormFile 取出 multipart 表单里的单个文件并读入内存.
// 数据集和映射文件都是小文件，整体读入便于哈希与解析.
func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open uploaded file: %w", err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read uploaded file: %w", err)
	}

	return data, nil
}

// UploadDataset 上传数据集文件：解析、加密并对账入库.
func UploadDataset(c *gin.Context) {
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
	svc := service.NewDatasetService(ctx)

	resp, err := svc.UploadDataset(ctx, user, fh.Filename, data, fh.Header.Get("Content-Type"))
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// PreviewDataset 只解析不落库，返回前若干行.
func PreviewDataset(c *gin.Context) {
	l := log.Logger()

	fh, err := c.FormFile("file")
	if err != nil {
		l.Warn().Err(err).Msg("failed to get uploaded file")
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})

		return
	}

	data, err := readFormFile(fh)
	if err != nil {
		l.Error().Err(err).Msg("failed to read uploaded file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	limit := 0
	if s := c.Query("rows"); s != "" {
		limit, _ = strconv.Atoi(s)
	}

	ctx := c.Request.Context()
	svc := service.NewDatasetService(ctx)

	resp, err := svc.PreviewDataset(ctx, fh.Filename, data, limit)
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListDatasets 当前用户的数据集列表.
func ListDatasets(c *gin.Context) {
	user, err := checkUser(c)
	if user == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return
	}

	ctx := c.Request.Context()
	svc := service.NewDatasetService(ctx)

	resp, err := svc.ListDatasets(ctx, user)
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetDatasetRecords 数据集全部记录（解密后），按 record_number 升序.
func GetDatasetRecords(c *gin.Context) {
	user, err := checkUser(c)
	if user == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return
	}

	ctx := c.Request.Context()
	svc := service.NewDatasetService(ctx)

	resp, err := svc.GetRecords(ctx, user, c.Param("id"))
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// DownloadDataset 流式回传原始文件.
func DownloadDataset(c *gin.Context) {
	user, err := checkUser(c)
	if user == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return
	}

	ctx := c.Request.Context()
	svc := service.NewDatasetService(ctx)

	dataset, reader, err := svc.DownloadDataset(ctx, user, c.Param("id"))
	if err != nil {
		writeError(c, err)

		return
	}
	defer func() { _ = reader.Close() }()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dataset.FileName))
	c.Header("Content-Length", strconv.FormatInt(dataset.Size, 10))
	c.DataFromReader(http.StatusOK, dataset.Size, "application/octet-stream", reader, nil)
}

// DeleteDataset 级联删除数据集及其记录、图片和对象.
func DeleteDataset(c *gin.Context) {
	user, err := checkUser(c)
	if user == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return
	}

	ctx := c.Request.Context()
	svc := service.NewDatasetService(ctx)

	resp, err := svc.DeleteDataset(ctx, user, c.Param("id"))
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}
