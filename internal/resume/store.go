package resume

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"portfolio/internal/database"
)

// ObjectStorage 是版本落盘需要的最小对象存储接口，由 storage.Client 实现。
type ObjectStorage interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
	DeleteObject(ctx context.Context, objectKey string) error
}

// VersionStore 负责把生成的 PDF 与版本记录原子地持久化。
// 不变量：永远不能出现没有记录的孤儿 PDF，也不能出现没有 PDF 的记录。
// 上传失败直接短路；记录写入失败则补偿删除刚上传的对象。
type VersionStore struct {
	db      *gorm.DB
	storage ObjectStorage
	logger  *slog.Logger
}

// NewVersionStore 构造版本存储。
func NewVersionStore(db *gorm.DB, storage ObjectStorage, logger *slog.Logger) *VersionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &VersionStore{db: db, storage: storage, logger: logger}
}

// Persist 上传 PDF 字节并写入一条版本记录（is_active 恒为 false）。
// 记录插入失败时先执行补偿删除再返回错误；补偿删除自身失败只记日志，
// 不覆盖主错误。
func (s *VersionStore) Persist(
	ctx context.Context,
	configID uint,
	templateID *uint,
	data *Data,
	pdfBytes []byte,
	latency time.Duration,
) (*database.ResumeVersion, error) {
	snapshot, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal resume snapshot: %w", err)
	}

	versionID := uuid.NewString()
	pdfPath := fmt.Sprintf("resumes/%d/%s.pdf", configID, versionID)

	if _, err := s.storage.UploadFile(ctx, pdfPath, bytes.NewReader(pdfBytes), int64(len(pdfBytes)), "application/pdf"); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpload, err)
	}

	version := database.ResumeVersion{
		VersionID:    versionID,
		ConfigID:     configID,
		TemplateID:   templateID,
		Snapshot:     datatypes.JSON(snapshot),
		PdfPath:      pdfPath,
		FileSize:     int64(len(pdfBytes)),
		GenerationMs: latency.Milliseconds(),
		IsActive:     false,
	}
	if err := s.db.WithContext(ctx).Create(&version).Error; err != nil {
		if delErr := s.storage.DeleteObject(ctx, pdfPath); delErr != nil {
			s.logger.Error("compensating delete of uploaded pdf failed",
				slog.String("pdf_path", pdfPath),
				slog.Any("error", delErr),
			)
		}
		return nil, fmt.Errorf("%w: %w", ErrVersionRecord, err)
	}

	return &version, nil
}
