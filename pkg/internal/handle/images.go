package handle

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/cropvault/pkg/internal/service"
	"github.com/yeisme/cropvault/pkg/internal/types"
	"github.com/yeisme/cropvault/pkg/log"
	"github.com/yeisme/cropvault/pkg/rule"
)

// MatchDatasetImages 把一批图片按位置绑定到数据集记录上.
// 表单字段 images[] 的顺序就是绑定顺序.
func MatchDatasetImages(c *gin.Context) {
	l := log.Logger()

	form, err := c.MultipartForm()
	if err != nil {
		l.Warn().Err(err).Msg("failed to parse multipart form")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form data"})

		return
	}

	files := form.File["images"]
	if len(files) == 0 {
		l.Warn().Msg("no images provided")
		c.JSON(http.StatusBadRequest, gin.H{"error": "no images provided"})

		return
	}

	user, err := checkUser(c)
	if user == "" || err != nil {
		l.Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return
	}

	uploads := make([]service.ImageUpload, 0, len(files))

	for _, fh := range files {
		data, err := readFormFile(fh)
		if err != nil {
			l.Error().Err(err).Str("file", fh.Filename).Msg("failed to read image")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

			return
		}

		uploads = append(uploads, service.ImageUpload{
			FileName:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	ctx := c.Request.Context()
	svc := service.NewImageService(ctx)

	resp, err := svc.MatchImages(ctx, user, c.Param("id"), uploads)
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListImages 图片列表，支持 sample_id 与 dataset 过滤.
func ListImages(c *gin.Context) {
	user, err := checkUser(c)
	if user == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return
	}

	filter := service.ImageFilter{
		SampleID:  c.Query("sample_id"),
		DatasetID: c.Query("dataset"),
	}

	ctx := c.Request.Context()
	svc := service.NewImageService(ctx)

	resp, err := svc.ListImages(ctx, user, filter)
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpsertImageMetadata 批量写入图片的标签-值元数据.
func UpsertImageMetadata(c *gin.Context) {
	l := log.Logger()

	imageID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image id"})

		return
	}

	user, err := checkUser(c)
	if user == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return
	}

	var req types.UpsertMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if err := rule.ValidateStruct(&req); err != nil {
		l.Warn().Err(err).Msg("invalid metadata items")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	ctx := c.Request.Context()
	svc := service.NewImageService(ctx)

	resp, err := svc.UpsertMetadata(ctx, user, uint(imageID), req.Items)
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListMetadataLabels 当前用户全部去重标签.
func ListMetadataLabels(c *gin.Context) {
	user, err := checkUser(c)
	if user == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return
	}

	ctx := c.Request.Context()
	svc := service.NewImageService(ctx)

	resp, err := svc.ListMetadataLabels(ctx, user)
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}
