package resume

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"

	"portfolio/internal/database"
)

type fakeStorage struct {
	uploaded map[string][]byte
	deleted  []string

	uploadErr error
	deleteErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploaded: map[string][]byte{}}
}

func (s *fakeStorage) UploadFile(_ context.Context, objectName string, reader io.Reader, _ int64, _ string) (*minio.UploadInfo, error) {
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	b, _ := io.ReadAll(reader)
	s.uploaded[objectName] = b
	return &minio.UploadInfo{}, nil
}

func (s *fakeStorage) DeleteObject(_ context.Context, objectKey string) error {
	s.deleted = append(s.deleted, objectKey)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.uploaded, objectKey)
	return nil
}

func TestPersist_Success(t *testing.T) {
	db := newTestDB(t)
	storage := newFakeStorage()
	store := NewVersionStore(db, storage, nil)

	data := &Data{TemplateKey: "classic", PageSize: PageA4, Style: DefaultStyle()}
	pdfBytes := []byte("%PDF-1.7 fake")

	version, err := store.Persist(context.Background(), 42, nil, data, pdfBytes, 1200*time.Millisecond)
	if err != nil {
		t.Fatalf("persist: %v", err)
	}

	wantPath := fmt.Sprintf("resumes/42/%s.pdf", version.VersionID)
	if version.PdfPath != wantPath {
		t.Errorf("unexpected pdf path %q", version.PdfPath)
	}
	if _, ok := storage.uploaded[wantPath]; !ok {
		t.Errorf("pdf not uploaded under %q", wantPath)
	}
	if version.IsActive {
		t.Error("new version must not be active")
	}
	if version.FileSize != int64(len(pdfBytes)) {
		t.Errorf("file size mismatch: %d", version.FileSize)
	}
	if version.GenerationMs != 1200 {
		t.Errorf("generation latency mismatch: %d", version.GenerationMs)
	}

	var stored database.ResumeVersion
	if err := db.Where("version_id = ?", version.VersionID).First(&stored).Error; err != nil {
		t.Fatalf("version row not found: %v", err)
	}
	if !strings.Contains(string(stored.Snapshot), `"template_key":"classic"`) {
		t.Errorf("snapshot missing template key: %s", stored.Snapshot)
	}
}

func TestPersist_UploadFailure(t *testing.T) {
	db := newTestDB(t)
	storage := newFakeStorage()
	storage.uploadErr = errors.New("connection refused")
	store := NewVersionStore(db, storage, nil)

	data := &Data{TemplateKey: "classic", PageSize: PageA4, Style: DefaultStyle()}
	_, err := store.Persist(context.Background(), 1, nil, data, []byte("pdf"), time.Second)
	if !errors.Is(err, ErrUpload) {
		t.Fatalf("expected ErrUpload, got %v", err)
	}

	if len(storage.deleted) != 0 {
		t.Errorf("no compensating delete expected on upload failure, got %v", storage.deleted)
	}
	var count int64
	if err := db.Model(&database.ResumeVersion{}).Count(&count).Error; err != nil {
		t.Fatalf("count versions: %v", err)
	}
	if count != 0 {
		t.Errorf("no version row expected, got %d", count)
	}
}

func TestPersist_RecordFailureCompensates(t *testing.T) {
	db := newTestDB(t)
	storage := newFakeStorage()
	store := NewVersionStore(db, storage, nil)

	// 拆掉版本表，强制插入失败。
	if err := db.Migrator().DropTable(&database.ResumeVersion{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	data := &Data{TemplateKey: "classic", PageSize: PageA4, Style: DefaultStyle()}
	_, err := store.Persist(context.Background(), 7, nil, data, []byte("pdf"), time.Second)
	if !errors.Is(err, ErrVersionRecord) {
		t.Fatalf("expected ErrVersionRecord, got %v", err)
	}

	if len(storage.deleted) != 1 {
		t.Fatalf("expected exactly one compensating delete, got %v", storage.deleted)
	}
	if !strings.HasPrefix(storage.deleted[0], "resumes/7/") || !strings.HasSuffix(storage.deleted[0], ".pdf") {
		t.Errorf("compensating delete targeted wrong object: %q", storage.deleted[0])
	}
	if len(storage.uploaded) != 0 {
		t.Errorf("uploaded object should have been deleted, got %v", storage.uploaded)
	}
}

func TestPersist_CompensatingDeleteFailureKeepsRecordError(t *testing.T) {
	db := newTestDB(t)
	storage := newFakeStorage()
	storage.deleteErr = errors.New("delete refused")
	store := NewVersionStore(db, storage, nil)

	if err := db.Migrator().DropTable(&database.ResumeVersion{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	data := &Data{TemplateKey: "classic", PageSize: PageA4, Style: DefaultStyle()}
	_, err := store.Persist(context.Background(), 7, nil, data, []byte("pdf"), time.Second)
	if !errors.Is(err, ErrVersionRecord) {
		t.Fatalf("delete failure must not mask the record error, got %v", err)
	}
}
