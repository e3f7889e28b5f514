package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"portfolio/internal/auth"
	"portfolio/internal/notify"
)

// WsHandler 负责处理后台事件订阅的 WebSocket 鉴权与消息转发。
type WsHandler struct {
	redisClient    *redis.Client
	verifier       *auth.Verifier
	logger         *slog.Logger
	upgrader       websocket.Upgrader
	allowedOrigins []string
}

// NewWsHandler 构造 WebSocket 处理器。
func NewWsHandler(redisClient *redis.Client, verifier *auth.Verifier, logger *slog.Logger, allowedOrigins []string) *WsHandler {
	h := &WsHandler{
		redisClient:    redisClient,
		verifier:       verifier,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if len(h.allowedOrigins) == 0 {
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			}
			for _, allowed := range h.allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}
	return h
}

type wsAuthMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// HandleConnection 负责升级连接并启动读写循环。
// 第一条消息必须是 {"type":"auth","token":"..."}，验证通过后才开始转发事件。
func (h *WsHandler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("upgrade websocket failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	baseLog := h.logger.With(
		slog.String("client_ip", c.ClientIP()),
	)

	subjectCh := make(chan string, 1)
	errCh := make(chan error, 1)

	go h.readLoop(ctx, conn, subjectCh, errCh, cancel, baseLog)

	var subject string
	select {
	case <-ctx.Done():
		return
	case err := <-errCh:
		if err != nil {
			baseLog.Warn("websocket authentication failed", slog.Any("error", err))
		}
		return
	case subject = <-subjectCh:
	}

	subjectLog := baseLog.With(slog.String("subject", subject))
	go h.subscribeLoop(ctx, conn, errCh, cancel, subjectLog)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			subjectLog.Info("websocket connection closed", slog.Any("error", err))
		} else {
			subjectLog.Info("websocket connection closed")
		}
	}
}

func (h *WsHandler) readLoop(
	ctx context.Context,
	conn *websocket.Conn,
	subjectCh chan<- string,
	errCh chan<- error,
	cancel context.CancelFunc,
	log *slog.Logger,
) {
	authenticated := false

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			writeClose(conn, websocket.CloseAbnormalClosure, "read error")
			reportErr(errCh, cancel, fmt.Errorf("read message: %w", err))
			return
		}

		if !authenticated {
			var authMsg wsAuthMessage
			if err := json.Unmarshal(message, &authMsg); err != nil {
				writeClose(conn, websocket.ClosePolicyViolation, "invalid auth payload")
				reportErr(errCh, cancel, fmt.Errorf("decode auth payload: %w", err))
				return
			}
			if authMsg.Type != "auth" || authMsg.Token == "" {
				writeClose(conn, websocket.ClosePolicyViolation, "auth required")
				reportErr(errCh, cancel, fmt.Errorf("invalid auth message"))
				return
			}

			claims, err := h.verifier.Verify(authMsg.Token)
			if err != nil {
				writeClose(conn, websocket.ClosePolicyViolation, "unauthorized")
				reportErr(errCh, cancel, fmt.Errorf("verify token: %w", err))
				return
			}

			authenticated = true
			subjectCh <- claims.Subject
			log.Info("websocket authenticated", slog.String("subject", claims.Subject))
			continue
		}

		// 目前无需处理额外消息，保持循环以检测客户端断开。
	}
}

func writeClose(conn *websocket.Conn, code int, text string) {
	deadline := time.Now().Add(5 * time.Second)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), deadline)
}

// reportErr 向 errCh 发送错误并取消连接上下文。
// 读写两个循环共用同一个 errCh，发送必须是非阻塞的：
// 当另一个循环已经填满缓冲并触发退出时，后到的错误直接丢弃，
// 否则发送方会永久阻塞并泄漏 goroutine。
func reportErr(errCh chan<- error, cancel context.CancelFunc, err error) {
	select {
	case errCh <- err:
	default:
	}
	cancel()
}

func (h *WsHandler) subscribeLoop(
	ctx context.Context,
	conn *websocket.Conn,
	errCh chan<- error,
	cancel context.CancelFunc,
	log *slog.Logger,
) {
	pubsub := h.redisClient.Subscribe(ctx, notify.Channel)
	defer pubsub.Close()

	log.Info("subscribed to redis channel", slog.String("channel", notify.Channel))

	ch := pubsub.Channel()
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				reportErr(errCh, cancel, fmt.Errorf("pubsub channel closed"))
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				reportErr(errCh, cancel, fmt.Errorf("write message: %w", err))
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(5 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), deadline); err != nil {
				reportErr(errCh, cancel, fmt.Errorf("write ping: %w", err))
				return
			}
		}
	}
}
