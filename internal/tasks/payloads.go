package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeVersionPreview = "resume:version_preview"
)

// VersionPreviewPayload 描述生成版本预览图所需的最小信息。
// 预览从版本快照重放渲染，不读实时 CMS 数据。
type VersionPreviewPayload struct {
	VersionID     string `json:"version_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewVersionPreviewTask 构造一个版本预览图生成任务。
func NewVersionPreviewTask(versionID, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(VersionPreviewPayload{
		VersionID:     versionID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeVersionPreview, payload), nil
}
