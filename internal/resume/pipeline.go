package resume

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"portfolio/internal/database"
	"portfolio/internal/errcode"
	"portfolio/internal/metrics"
	"portfolio/internal/notify"
	"portfolio/internal/tasks"
)

// 管道阶段名，用于指标与日志。
const (
	StageFetchConfig     = "fetch_config"
	StageAssembleData    = "assemble_data"
	StageRenderHTML      = "render_html"
	StageExportPDF       = "export_pdf"
	StageUploadAndRecord = "upload_and_record"
)

// Renderer 把模板 Key 与装配数据渲染成自包含 HTML，由 render.Registry 实现。
type Renderer interface {
	Render(templateKey string, data *Data) (string, error)
}

// Exporter 把 HTML 栅格化为 PDF 字节，由 pdf.Engine 实现。
type Exporter interface {
	Export(ctx context.Context, html string, size PageSize, margins Margins) ([]byte, error)
}

// Result 是一次成功生成的产物标识。
type Result struct {
	VersionID string `json:"version_id"`
	Path      string `json:"path"`
}

// Pipeline 串联 取配置 → 装配 → 渲染 → 导出 → 落盘 五个阶段。
// 每次调用独立执行，阶段间没有共享可变状态；任何阶段失败都是终态，不重试。
type Pipeline struct {
	db          *gorm.DB
	assembler   *Assembler
	renderer    Renderer
	exporter    Exporter
	store       *VersionStore
	redisClient *redis.Client // 可为 nil：成功后的失效通知是尽力而为
	asynqClient *asynq.Client // 可为 nil：预览任务同样是尽力而为
	logger      *slog.Logger
}

// NewPipeline 构造生成管道。
func NewPipeline(
	db *gorm.DB,
	renderer Renderer,
	exporter Exporter,
	store *VersionStore,
	redisClient *redis.Client,
	asynqClient *asynq.Client,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		db:          db,
		assembler:   NewAssembler(db),
		renderer:    renderer,
		exporter:    exporter,
		store:       store,
		redisClient: redisClient,
		asynqClient: asynqClient,
		logger:      logger,
	}
}

// Generate 是管道唯一入口：按配置同步生成一个新的简历版本。
// 返回的错误保留各阶段最具体的信息，调用方可直接展示。
func (p *Pipeline) Generate(ctx context.Context, configID uint, correlationID string) (*Result, error) {
	log := p.logger.With(
		slog.Uint64("config_id", uint64(configID)),
		slog.String("correlation_id", correlationID),
	)
	started := time.Now()

	fail := func(stage string, err error) (*Result, error) {
		metrics.PipelineStageFailed(stage)
		metrics.PipelineFinished(false)
		log.Error("resume generation failed",
			slog.String("stage", stage),
			slog.Duration("elapsed", time.Since(started)),
			slog.Any("error", err),
		)
		return nil, err
	}

	stageStart := time.Now()
	var cfg database.ResumeConfig
	if err := p.db.WithContext(ctx).First(&cfg, configID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(StageFetchConfig, ErrConfigNotFound)
		}
		return fail(StageFetchConfig, fmt.Errorf("query resume config %d: %w", configID, err))
	}
	metrics.ObservePipelineStage(StageFetchConfig, time.Since(stageStart))

	stageStart = time.Now()
	data, err := p.assembler.Assemble(ctx, &cfg)
	if err != nil {
		return fail(StageAssembleData, err)
	}
	metrics.ObservePipelineStage(StageAssembleData, time.Since(stageStart))

	stageStart = time.Now()
	html, err := p.renderer.Render(data.TemplateKey, data)
	if err != nil {
		return fail(StageRenderHTML, err)
	}
	metrics.ObservePipelineStage(StageRenderHTML, time.Since(stageStart))

	stageStart = time.Now()
	pdfBytes, err := p.exporter.Export(ctx, html, data.PageSize, data.Style.Margins)
	if err != nil {
		return fail(StageExportPDF, err)
	}
	metrics.ObservePipelineStage(StageExportPDF, time.Since(stageStart))

	stageStart = time.Now()
	version, err := p.store.Persist(ctx, cfg.ID, cfg.TemplateID, data, pdfBytes, time.Since(started))
	if err != nil {
		return fail(StageUploadAndRecord, err)
	}
	metrics.ObservePipelineStage(StageUploadAndRecord, time.Since(stageStart))
	metrics.PipelineFinished(true)

	log.Info("resume generation completed",
		slog.String("version_id", version.VersionID),
		slog.Int64("file_size", version.FileSize),
		slog.Duration("elapsed", time.Since(started)),
	)

	p.afterSuccess(ctx, &cfg, version, correlationID, log)

	return &Result{VersionID: version.VersionID, Path: version.PdfPath}, nil
}

// afterSuccess 执行成功后的旁路动作：管理端缓存失效通知与预览图任务。
// 两者失败都只记日志，不影响已经成功的生成结果。
func (p *Pipeline) afterSuccess(
	ctx context.Context,
	cfg *database.ResumeConfig,
	version *database.ResumeVersion,
	correlationID string,
	log *slog.Logger,
) {
	if p.redisClient != nil {
		event := notify.Event{
			Type:          notify.EventDataChanged,
			Scope:         "resume_versions",
			ConfigID:      cfg.ID,
			VersionID:     version.VersionID,
			CorrelationID: correlationID,
			ErrorCode:     errcode.OK,
		}
		if err := notify.Publish(ctx, p.redisClient, event); err != nil {
			log.Warn("publish invalidation event failed", slog.Any("error", err))
		}
	}

	if p.asynqClient != nil {
		task, err := tasks.NewVersionPreviewTask(version.VersionID, correlationID)
		if err != nil {
			log.Warn("create preview task failed", slog.Any("error", err))
			return
		}
		if _, err := p.asynqClient.Enqueue(task, asynq.MaxRetry(3)); err != nil {
			log.Warn("enqueue preview task failed", slog.Any("error", err))
		}
	}
}
