package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"portfolio/internal/database"
	"portfolio/internal/errcode"
	"portfolio/internal/notify"
	"portfolio/internal/resume"
	"portfolio/internal/tasks"
)

const previewQuality = 80

// ScreenshotTaker 截取一段 HTML 的 JPEG 快照。
type ScreenshotTaker interface {
	Screenshot(ctx context.Context, html string, quality int) ([]byte, error)
}

// HTMLRenderer 按模板键从快照数据重放渲染 HTML。
type HTMLRenderer interface {
	Render(key string, data *resume.Data) (string, error)
}

// ObjectUploader 上传预览图到对象存储。
type ObjectUploader interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
}

// PreviewTaskHandler 负责消费版本预览图生成任务。
// 预览完全从版本快照重放，不依赖实时 CMS 数据。
type PreviewTaskHandler struct {
	db          *gorm.DB
	storage     ObjectUploader
	renderer    HTMLRenderer
	screenshots ScreenshotTaker
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewPreviewTaskHandler 创建任务处理器。
func NewPreviewTaskHandler(
	db *gorm.DB,
	storage ObjectUploader,
	renderer HTMLRenderer,
	screenshots ScreenshotTaker,
	redisClient *redis.Client,
	logger *slog.Logger,
) *PreviewTaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PreviewTaskHandler{
		db:          db,
		storage:     storage,
		renderer:    renderer,
		screenshots: screenshots,
		redisClient: redisClient,
		logger:      logger,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *PreviewTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	var payload tasks.VersionPreviewPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.String("version_id", payload.VersionID),
	)
	log.Info("starting version preview task")

	var version database.ResumeVersion
	if err := h.db.WithContext(ctx).
		Where("version_id = ?", payload.VersionID).
		First(&version).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("resume version not found, skipping task")
			return nil
		}
		log.Error("query resume version failed", slog.Any("error", err))
		return err
	}

	defer func() {
		if retErr == nil {
			return
		}
		if !isFinalAsynqAttempt(ctx) {
			return
		}

		event := notify.Event{
			Type:          notify.EventPreviewFailed,
			ConfigID:      version.ConfigID,
			VersionID:     version.VersionID,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     errcode.PreviewFailed,
			ErrorMessage:  strings.TrimSpace(retErr.Error()),
		}
		if err := notify.Publish(ctx, h.redisClient, event); err != nil {
			log.Error("publish preview error notification failed", slog.Any("error", err))
		}
	}()

	var data resume.Data
	if err := json.Unmarshal(version.Snapshot, &data); err != nil {
		log.Error("unmarshal version snapshot failed", slog.Any("error", err))
		return err
	}

	html, err := h.renderer.Render(data.TemplateKey, &data)
	if err != nil {
		log.Error("render snapshot html failed", slog.Any("error", err))
		return err
	}

	previewBytes, err := h.screenshots.Screenshot(ctx, html, previewQuality)
	if err != nil {
		log.Error("capture preview screenshot failed", slog.Any("error", err))
		return err
	}

	objectName := fmt.Sprintf("thumbnails/resume-versions/%s/preview.jpg", version.VersionID)
	reader := bytes.NewReader(previewBytes)
	if _, err := h.storage.UploadFile(ctx, objectName, reader, int64(len(previewBytes)), "image/jpeg"); err != nil {
		log.Error("upload preview image failed", slog.Any("error", err))
		return err
	}

	if err := h.db.WithContext(ctx).Model(&version).
		Update("preview_object_key", objectName).Error; err != nil {
		log.Error("update version preview key failed", slog.Any("error", err))
		return err
	}

	event := notify.Event{
		Type:          notify.EventPreviewReady,
		ConfigID:      version.ConfigID,
		VersionID:     version.VersionID,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
	}
	if err := notify.Publish(ctx, h.redisClient, event); err != nil {
		log.Error("publish preview ready notification failed", slog.Any("error", err))
		return err
	}

	log.Info("version preview task completed")
	return nil
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
