package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"portfolio/internal/database"
	"portfolio/internal/pdf"
	"portfolio/internal/render"
	"portfolio/internal/resume"
)

type fakeGenerator struct {
	result *resume.Result
	err    error

	gotConfigID uint
}

func (g *fakeGenerator) Generate(_ context.Context, configID uint, _ string) (*resume.Result, error) {
	g.gotConfigID = configID
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

type fakeSigner struct {
	err error
}

func (s *fakeSigner) GeneratePresignedURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "https://example.invalid/" + objectKey, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newJSONContext(t *testing.T, method, target string, body any) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewBuffer(data)
	} else {
		reader = &bytes.Buffer{}
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func TestCreateConfig_RejectsMalformedSections(t *testing.T) {
	h := NewResumeHandler(newTestDB(t), &fakeGenerator{}, &fakeSigner{})

	c, w := newJSONContext(t, http.MethodPost, "/v1/admin/resume-configs", map[string]any{
		"name":     "broken",
		"sections": map[string]any{"kind": "experience"}, // 必须是数组
	})

	h.CreateConfig(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", w.Code, w.Body.String())
	}
}

func TestCreateAndGetConfig(t *testing.T) {
	db := newTestDB(t)
	h := NewResumeHandler(db, &fakeGenerator{}, &fakeSigner{})

	c, w := newJSONContext(t, http.MethodPost, "/v1/admin/resume-configs", map[string]any{
		"name":           "default",
		"custom_summary": "Short summary.",
		"sections": []map[string]any{
			{"kind": "experience", "enabled": true, "sort_order": 0, "label": "Experience"},
		},
	})

	h.CreateConfig(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
	}
	var created resumeConfigResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.Name != "default" || created.ID == 0 {
		t.Errorf("unexpected created config: %+v", created)
	}

	getCtx, getW := newJSONContext(t, http.MethodGet, "/v1/admin/resume-configs/1", nil)
	getCtx.Params = gin.Params{{Key: "id", Value: fmt.Sprint(created.ID)}}
	h.GetConfig(getCtx)

	if getW.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", getW.Code, getW.Body.String())
	}
	if !strings.Contains(getW.Body.String(), `"custom_summary":"Short summary."`) {
		t.Errorf("summary not round-tripped: %s", getW.Body.String())
	}
}

func TestGenerateVersion_Success(t *testing.T) {
	gen := &fakeGenerator{result: &resume.Result{VersionID: "v-123", Path: "resumes/5/v-123.pdf"}}
	h := NewResumeHandler(newTestDB(t), gen, &fakeSigner{})

	c, w := newJSONContext(t, http.MethodPost, "/v1/admin/resume-configs/5/generate", nil)
	c.Params = gin.Params{{Key: "id", Value: "5"}}

	h.GenerateVersion(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
	}
	if gen.gotConfigID != 5 {
		t.Errorf("generator called with config %d", gen.gotConfigID)
	}
	if !strings.Contains(w.Body.String(), `"version_id":"v-123"`) {
		t.Errorf("version id missing from response: %s", w.Body.String())
	}
}

// abandoningGenerator 在生成过程中取消调用方的请求上下文，
// 模拟客户端在慢阶段断开连接。
type abandoningGenerator struct {
	cancel context.CancelFunc
	ctxErr error
	result *resume.Result
}

func (g *abandoningGenerator) Generate(ctx context.Context, _ uint, _ string) (*resume.Result, error) {
	g.cancel()
	g.ctxErr = ctx.Err()
	if g.ctxErr != nil {
		return nil, fmt.Errorf("%w: %w", resume.ErrVersionRecord, g.ctxErr)
	}
	return g.result, nil
}

func TestGenerateVersion_SurvivesClientDisconnect(t *testing.T) {
	reqCtx, cancel := context.WithCancel(context.Background())
	gen := &abandoningGenerator{
		cancel: cancel,
		result: &resume.Result{VersionID: "v-456", Path: "resumes/5/v-456.pdf"},
	}
	h := NewResumeHandler(newTestDB(t), gen, &fakeSigner{})

	c, w := newJSONContext(t, http.MethodPost, "/v1/admin/resume-configs/5/generate", nil)
	c.Request = c.Request.WithContext(reqCtx)
	c.Params = gin.Params{{Key: "id", Value: "5"}}

	h.GenerateVersion(c)

	if gen.ctxErr != nil {
		t.Fatalf("pipeline context died with the request: %v", gen.ctxErr)
	}
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
	}
}

func TestGenerateVersion_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"config missing", resume.ErrConfigNotFound, http.StatusNotFound},
		{"profile missing", fmt.Errorf("assemble: %w", resume.ErrProfileNotFound), http.StatusNotFound},
		{"template unregistered", fmt.Errorf("%w: %q", render.ErrTemplateNotFound, "bogus"), http.StatusUnprocessableEntity},
		{"engine launch", fmt.Errorf("%w: no chromium", pdf.ErrEngineLaunch), http.StatusBadGateway},
		{"content timeout", pdf.ErrContentTimeout, http.StatusBadGateway},
		{"upload", fmt.Errorf("%w: connection refused", resume.ErrUpload), http.StatusBadGateway},
		{"record insert", resume.ErrVersionRecord, http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewResumeHandler(newTestDB(t), &fakeGenerator{err: tc.err}, &fakeSigner{})

			c, w := newJSONContext(t, http.MethodPost, "/v1/admin/resume-configs/1/generate", nil)
			c.Params = gin.Params{{Key: "id", Value: "1"}}

			h.GenerateVersion(c)

			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d body=%s", tc.want, w.Code, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), "error") {
				t.Errorf("error body missing message: %s", w.Body.String())
			}
		})
	}
}

func TestGetVersionDownloadLink(t *testing.T) {
	db := newTestDB(t)
	version := database.ResumeVersion{
		VersionID: "11111111-2222-3333-4444-555555555555",
		ConfigID:  1,
		PdfPath:   "resumes/1/11111111-2222-3333-4444-555555555555.pdf",
	}
	if err := db.Create(&version).Error; err != nil {
		t.Fatalf("seed version: %v", err)
	}

	h := NewResumeHandler(db, &fakeGenerator{}, &fakeSigner{})

	c, w := newJSONContext(t, http.MethodGet, "/v1/admin/resume-versions/x/download-link", nil)
	c.Params = gin.Params{{Key: "versionID", Value: version.VersionID}}

	h.GetVersionDownloadLink(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), version.PdfPath) {
		t.Errorf("signed url should embed the object path: %s", w.Body.String())
	}
}

func TestGetVersionDownloadLink_NotFound(t *testing.T) {
	h := NewResumeHandler(newTestDB(t), &fakeGenerator{}, &fakeSigner{})

	c, w := newJSONContext(t, http.MethodGet, "/v1/admin/resume-versions/x/download-link", nil)
	c.Params = gin.Params{{Key: "versionID", Value: "does-not-exist"}}

	h.GetVersionDownloadLink(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", w.Code, w.Body.String())
	}
}
