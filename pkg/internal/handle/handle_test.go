package handle_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/cropvault/pkg/internal/handle"
)

func newPreviewRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/datasets/preview", handle.PreviewDataset)

	return r
}

// multipartFile 构造带单个 file 字段的 multipart 请求体.
func multipartFile(t *testing.T, field, name string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer

	w := multipart.NewWriter(&buf)

	fw, err := w.CreateFormFile(field, name)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}

	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	return &buf, w.FormDataContentType()
}

func TestPreviewDataset(t *testing.T) {
	r := newPreviewRouter()

	csv := "No.,F5 Code\n1,WM-001\n2,WM-002\n"
	body, ctype := multipartFile(t, "file", "data.csv", []byte(csv))

	req := httptest.NewRequest(http.MethodPost, "/datasets/preview", body)
	req.Header.Set("Content-Type", ctype)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Headers   []string `json:"headers"`
		TotalRows int      `json:"total_rows"`
	}

	if err := sonic.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(resp.Headers) != 2 || resp.TotalRows != 2 {
		t.Fatalf("unexpected preview: %+v", resp)
	}
}

func TestPreviewDatasetRejectsUnsupportedFormat(t *testing.T) {
	r := newPreviewRouter()

	body, ctype := multipartFile(t, "file", "data.bin", []byte{0x00, 0x01, 0x02})

	req := httptest.NewRequest(http.MethodPost, "/datasets/preview", body)
	req.Header.Set("Content-Type", ctype)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPreviewDatasetRequiresFile(t *testing.T) {
	r := newPreviewRouter()

	req := httptest.NewRequest(http.MethodPost, "/datasets/preview", nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
