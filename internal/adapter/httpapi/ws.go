package httpapi

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Nyukimin/mcpchat/internal/application/orchestrator"
	"github.com/Nyukimin/mcpchat/pkg/logger"
)

const maxFrameBytes = 64 << 10

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// 認証はトークンで行うので Origin は問わない
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsError はWebSocketで返すエラーフレーム
type wsError struct {
	Error string `json:"error"`
	Code  int    `json:"code,omitempty"`
}

// handleWebSocket は1接続を1つのチャットとして扱う。テキストフレーム1つが1発話、
// 応答は ProcessMessageResponse のJSON。接続先サーバーは ?server= で選ぶ
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	server := h.serverOrDefault(r.URL.Query().Get("server"))

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade がエラー応答を書き込み済み
		logger.WarnCF("http", "websocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameBytes)

	connID := uuid.New().String()
	limiter := h.limiter()
	fields := map[string]interface{}{"conn_id": connID, "server": server}
	logger.InfoCF("http", "websocket connected", fields)
	defer logger.InfoCF("http", "websocket closed", fields)

	ctx := r.Context()
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.WarnCF("http", "websocket read failed", map[string]interface{}{"conn_id": connID, "error": err.Error()})
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		message := strings.TrimSpace(string(data))
		if message == "" {
			continue
		}

		if !limiter.Allow() {
			if err := conn.WriteJSON(wsError{Error: "rate limit exceeded"}); err != nil {
				return
			}
			continue
		}

		resp, err := h.orchestrator.ProcessMessage(ctx, orchestrator.ProcessMessageRequest{
			Server:      server,
			UserMessage: message,
		})

		var out interface{} = resp
		if err != nil {
			_, body := statusFor(err)
			out = wsError{Error: body.Error, Code: body.Code}
		}
		if err := conn.WriteJSON(out); err != nil {
			logger.WarnCF("http", "websocket write failed", map[string]interface{}{"conn_id": connID, "error": err.Error()})
			return
		}
	}
}
