// Package notify 定义管道与后台任务发给管理后台的 Redis Pub/Sub 事件。
// WebSocket 处理器把频道消息原样转发给已连接的管理端。
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Channel 是管理端事件的唯一频道。
const Channel = "portfolio:admin:events"

// 事件类型。data_changed 提示管理端视图缓存失效，需要重新拉取。
const (
	EventDataChanged   = "data_changed"
	EventPreviewReady  = "preview_ready"
	EventPreviewFailed = "preview_failed"
)

// Event 是频道上的统一消息结构，字段名与前端解析保持一致。
type Event struct {
	Type          string `json:"type"`
	Scope         string `json:"scope,omitempty"`
	ConfigID      uint   `json:"config_id,omitempty"`
	VersionID     string `json:"version_id,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
	ErrorCode     int    `json:"error_code"`
	ErrorMessage  string `json:"error_message,omitempty"`
}

// Publish 把事件序列化后发布到管理端频道。
func Publish(ctx context.Context, client *redis.Client, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal notify event: %w", err)
	}
	if err := client.Publish(ctx, Channel, data).Err(); err != nil {
		return fmt.Errorf("publish notify event to %q: %w", Channel, err)
	}
	return nil
}
