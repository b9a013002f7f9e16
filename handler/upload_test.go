package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/joshi-parwaaz/invoice-fraud-detector/config"
	"github.com/joshi-parwaaz/invoice-fraud-detector/utils"
)

func TestMain(m *testing.M) {
	if err := utils.InitLogger("release"); err != nil {
		panic(err)
	}
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// 校验路径在触达缓存和推理之前就返回，因此这里不需要真实服务
func newTestRouter(cfg *config.Config) *gin.Engine {
	h := NewUploadHandler(cfg, nil, nil)
	r := gin.New()
	r.POST("/api/v1/upload", h.Upload)
	return r
}

func multipartImage(t *testing.T, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="image"; filename="invoice.jpg"`)
	header.Set("Content-Type", contentType)

	part, err := w.CreatePart(header)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}

func TestUploadRejectsMissingFile(t *testing.T) {
	cfg := config.New()
	r := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUploadRejectsOversizeFile(t *testing.T) {
	cfg := config.New()
	cfg.Upload.MaxSize = 16
	r := newTestRouter(cfg)

	body, contentType := multipartImage(t, "image/jpeg", bytes.Repeat([]byte("a"), 64))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	cfg := config.New()
	r := newTestRouter(cfg)

	body, contentType := multipartImage(t, "application/pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestIsAllowedType(t *testing.T) {
	cfg := config.New()
	h := NewUploadHandler(cfg, nil, nil)

	for _, ct := range []string{"image/jpeg", "image/png", "IMAGE/JPEG"} {
		if !h.isAllowedType(ct) {
			t.Errorf("%s should be allowed", ct)
		}
	}
	for _, ct := range []string{"application/pdf", "text/html", ""} {
		if h.isAllowedType(ct) {
			t.Errorf("%s should be rejected", ct)
		}
	}
}
