package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"portfolio/internal/api/middleware"
	"portfolio/internal/database"
	"portfolio/internal/pdf"
	"portfolio/internal/render"
	"portfolio/internal/resume"
)

// Generator 是管道入口的最小接口，由 resume.Pipeline 实现。
type Generator interface {
	Generate(ctx context.Context, configID uint, correlationID string) (*resume.Result, error)
}

// LinkSigner 生成对象的限时下载链接，由 storage.Client 实现。
type LinkSigner interface {
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
}

// ResumeHandler 负责简历配置管理与生成相关的 API。
type ResumeHandler struct {
	db        *gorm.DB
	generator Generator
	signer    LinkSigner
}

// NewResumeHandler 构造 ResumeHandler。
func NewResumeHandler(db *gorm.DB, generator Generator, signer LinkSigner) *ResumeHandler {
	return &ResumeHandler{db: db, generator: generator, signer: signer}
}

var errInvalidID = errors.New("invalid id")

type resumeConfigRequest struct {
	Name           string          `json:"name" binding:"required"`
	TemplateID     *uint           `json:"template_id"`
	Sections       json.RawMessage `json:"sections"`
	StyleOverrides json.RawMessage `json:"style_overrides"`
	CustomSummary  string          `json:"custom_summary"`
}

type resumeConfigResponse struct {
	ID             uint            `json:"id"`
	Name           string          `json:"name"`
	TemplateID     *uint           `json:"template_id,omitempty"`
	Sections       json.RawMessage `json:"sections,omitempty"`
	StyleOverrides json.RawMessage `json:"style_overrides,omitempty"`
	CustomSummary  string          `json:"custom_summary,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type resumeVersionResponse struct {
	VersionID    string    `json:"version_id"`
	ConfigID     uint      `json:"config_id"`
	PdfPath      string    `json:"pdf_path"`
	FileSize     int64     `json:"file_size"`
	GenerationMs int64     `json:"generation_ms"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

func newResumeConfigResponse(cfg database.ResumeConfig) resumeConfigResponse {
	return resumeConfigResponse{
		ID:             cfg.ID,
		Name:           cfg.Name,
		TemplateID:     cfg.TemplateID,
		Sections:       json.RawMessage(cfg.Sections),
		StyleOverrides: json.RawMessage(cfg.StyleOverrides),
		CustomSummary:  cfg.CustomSummary,
		CreatedAt:      cfg.CreatedAt,
		UpdatedAt:      cfg.UpdatedAt,
	}
}

// validateRequest 检查区块与样式覆盖 JSON 能被管道解码，尽早挡掉坏数据。
func (r resumeConfigRequest) validate() error {
	if len(r.Sections) > 0 {
		var sections []resume.SectionConfig
		if err := json.Unmarshal(r.Sections, &sections); err != nil {
			return errors.New("sections must be an array of section configs")
		}
	}
	if len(r.StyleOverrides) > 0 {
		var patch resume.StylePatch
		if err := json.Unmarshal(r.StyleOverrides, &patch); err != nil {
			return errors.New("style_overrides must be a style patch object")
		}
	}
	return nil
}

// ListConfigs 列出全部简历配置。
func (h *ResumeHandler) ListConfigs(c *gin.Context) {
	var configs []database.ResumeConfig
	if err := h.db.WithContext(c.Request.Context()).
		Order("updated_at desc").
		Find(&configs).Error; err != nil {
		Internal(c, "failed to list resume configs")
		return
	}

	items := make([]resumeConfigResponse, 0, len(configs))
	for _, cfg := range configs {
		items = append(items, newResumeConfigResponse(cfg))
	}
	c.JSON(http.StatusOK, items)
}

// CreateConfig 新建简历配置。
func (h *ResumeHandler) CreateConfig(c *gin.Context) {
	var req resumeConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		BadRequest(c, err.Error())
		return
	}

	cfg := database.ResumeConfig{
		Name:           req.Name,
		TemplateID:     req.TemplateID,
		Sections:       datatypes.JSON(req.Sections),
		StyleOverrides: datatypes.JSON(req.StyleOverrides),
		CustomSummary:  req.CustomSummary,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&cfg).Error; err != nil {
		Internal(c, "failed to create resume config")
		return
	}

	c.JSON(http.StatusCreated, newResumeConfigResponse(cfg))
}

// GetConfig 返回指定配置。
func (h *ResumeHandler) GetConfig(c *gin.Context) {
	cfg, err := h.findConfig(c)
	if err != nil {
		return
	}
	c.JSON(http.StatusOK, newResumeConfigResponse(*cfg))
}

// UpdateConfig 覆盖指定配置。已生成的版本保存完整快照，不受配置变更影响。
func (h *ResumeHandler) UpdateConfig(c *gin.Context) {
	var req resumeConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		BadRequest(c, err.Error())
		return
	}

	cfg, err := h.findConfig(c)
	if err != nil {
		return
	}

	updates := map[string]any{
		"name":            req.Name,
		"template_id":     req.TemplateID,
		"sections":        datatypes.JSON(req.Sections),
		"style_overrides": datatypes.JSON(req.StyleOverrides),
		"custom_summary":  req.CustomSummary,
	}
	ctx := c.Request.Context()
	if err := h.db.WithContext(ctx).Model(cfg).Updates(updates).Error; err != nil {
		Internal(c, "failed to update resume config")
		return
	}
	if err := h.db.WithContext(ctx).First(cfg, cfg.ID).Error; err != nil {
		Internal(c, "failed to reload resume config")
		return
	}

	c.JSON(http.StatusOK, newResumeConfigResponse(*cfg))
}

// DeleteConfig 删除指定配置；历史版本作为审计记录保留。
func (h *ResumeHandler) DeleteConfig(c *gin.Context) {
	cfg, err := h.findConfig(c)
	if err != nil {
		return
	}
	if err := h.db.WithContext(c.Request.Context()).
		Delete(&database.ResumeConfig{}, cfg.ID).Error; err != nil {
		Internal(c, "failed to delete resume config")
		return
	}
	c.Status(http.StatusNoContent)
}

// GenerateVersion 同步执行生成管道并返回新版本标识。
// 错误按类型映射状态码，message 取管道里最具体的文本。
// 管道运行在脱离请求取消的上下文上：客户端断开不会中止
// 生成中的版本，补偿清理也不会因请求结束而失败。
func (h *ResumeHandler) GenerateVersion(c *gin.Context) {
	configID, err := parseIDParam(c)
	if err != nil {
		BadRequest(c, "invalid config id")
		return
	}

	correlationID := middleware.GetCorrelationID(c)
	if subject, ok := middleware.AdminSubject(c); ok {
		middleware.LoggerFromContext(c).Info("resume generation requested",
			"config_id", configID,
			"subject", subject,
		)
	}

	ctx := context.WithoutCancel(c.Request.Context())
	result, err := h.generator.Generate(ctx, configID, correlationID)
	if err != nil {
		status := statusFromPipelineError(err)
		Error(c, status, err.Error())
		return
	}

	c.JSON(http.StatusCreated, result)
}

// ListVersions 列出配置的全部生成版本，新的在前。
func (h *ResumeHandler) ListVersions(c *gin.Context) {
	configID, err := parseIDParam(c)
	if err != nil {
		BadRequest(c, "invalid config id")
		return
	}

	var versions []database.ResumeVersion
	if err := h.db.WithContext(c.Request.Context()).
		Where("config_id = ?", configID).
		Order("created_at desc").
		Find(&versions).Error; err != nil {
		Internal(c, "failed to list resume versions")
		return
	}

	items := make([]resumeVersionResponse, 0, len(versions))
	for _, v := range versions {
		items = append(items, resumeVersionResponse{
			VersionID:    v.VersionID,
			ConfigID:     v.ConfigID,
			PdfPath:      v.PdfPath,
			FileSize:     v.FileSize,
			GenerationMs: v.GenerationMs,
			IsActive:     v.IsActive,
			CreatedAt:    v.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, items)
}

// GetVersionDownloadLink 生成版本 PDF 的预签名下载链接。
func (h *ResumeHandler) GetVersionDownloadLink(c *gin.Context) {
	versionID := c.Param("versionID")

	var version database.ResumeVersion
	err := h.db.WithContext(c.Request.Context()).
		Where("version_id = ?", versionID).
		First(&version).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		NotFound(c, "resume version not found")
		return
	case err != nil:
		Internal(c, "failed to query resume version")
		return
	}

	signedURL, err := h.signer.GeneratePresignedURL(c.Request.Context(), version.PdfPath, 5*time.Minute)
	if err != nil {
		middleware.LoggerFromContext(c).Error("generate download link failed", "error", err)
		Internal(c, "failed to generate download link")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": signedURL})
}

func (h *ResumeHandler) findConfig(c *gin.Context) (*database.ResumeConfig, error) {
	configID, err := parseIDParam(c)
	if err != nil {
		BadRequest(c, "invalid config id")
		return nil, err
	}

	var cfg database.ResumeConfig
	if err := h.db.WithContext(c.Request.Context()).First(&cfg, configID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "resume config not found")
		} else {
			Internal(c, "failed to query resume config")
		}
		return nil, err
	}
	return &cfg, nil
}

func parseIDParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, errInvalidID
	}
	return uint(id), nil
}

// statusFromPipelineError 把管道错误分类映射为 HTTP 状态码。
func statusFromPipelineError(err error) int {
	switch {
	case errors.Is(err, resume.ErrConfigNotFound),
		errors.Is(err, resume.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, render.ErrTemplateNotFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pdf.ErrEngineLaunch),
		errors.Is(err, pdf.ErrContentTimeout),
		errors.Is(err, pdf.ErrExport),
		errors.Is(err, resume.ErrUpload),
		errors.Is(err, resume.ErrVersionRecord):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
