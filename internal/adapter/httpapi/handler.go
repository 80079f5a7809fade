package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/Nyukimin/mcpchat/internal/application/orchestrator"
	"github.com/Nyukimin/mcpchat/internal/domain/tool"
	"github.com/Nyukimin/mcpchat/internal/infrastructure/mcp"
	"github.com/Nyukimin/mcpchat/pkg/health"
	"github.com/Nyukimin/mcpchat/pkg/logger"
	mcpclient "github.com/Nyukimin/mcpchat/pkg/mcp"
)

// Orchestrator はメッセージ処理のインターフェース
type Orchestrator interface {
	ProcessMessage(ctx context.Context, req orchestrator.ProcessMessageRequest) (orchestrator.ProcessMessageResponse, error)
}

// ServerDirectory は登録済みツールサーバーとカタログへのアクセス
type ServerDirectory interface {
	Statuses() []mcp.ServerStatus
	Catalog(ctx context.Context, name string) (*tool.Catalog, error)
	Refresh(ctx context.Context, name string) (*tool.Catalog, error)
}

// Options はHandlerの設定
type Options struct {
	APIToken      string  // 空のときは認証なし
	DefaultServer string  // リクエストがサーバーを指定しないときの接続先
	WSRate        float64 // WebSocket 1接続あたりの毎秒メッセージ数
	WSBurst       int
}

// Handler はHTTP APIハンドラー
type Handler struct {
	orchestrator Orchestrator
	servers      ServerDirectory
	health       *health.Checker
	opts         Options
}

// NewHandler は新しいHandlerを作成
func NewHandler(orch Orchestrator, servers ServerDirectory, checker *health.Checker, opts Options) *Handler {
	if checker == nil {
		checker = health.NewChecker()
	}
	if opts.WSRate <= 0 {
		opts.WSRate = 5
	}
	if opts.WSBurst <= 0 {
		opts.WSBurst = 10
	}
	return &Handler{
		orchestrator: orch,
		servers:      servers,
		health:       checker,
		opts:         opts,
	}
}

// Router はルーティング済みのhttp.Handlerを返す
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.handleHealth)

	r.Group(func(api chi.Router) {
		api.Use(h.requireToken)

		api.Get("/servers", h.handleListServers)
		api.Route("/servers/{server}", func(r chi.Router) {
			r.Get("/tools", h.handleListTools)
			r.Post("/refresh", h.handleRefresh)
		})
		api.Post("/chat", h.handleChat)
		api.Get("/ws", h.handleWebSocket)
	})

	return r
}

// handleHealth はヘルスチェック。失敗項目があれば 503
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := h.health.Run()
	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func (h *Handler) handleListServers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"default": h.opts.DefaultServer,
		"servers": h.servers.Statuses(),
	})
}

func (h *Handler) handleListTools(w http.ResponseWriter, r *http.Request) {
	cat, err := h.servers.Catalog(r.Context(), chi.URLParam(r, "server"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, catalogView(cat))
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	cat, err := h.servers.Refresh(r.Context(), chi.URLParam(r, "server"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, catalogView(cat))
}

// ChatRequest は POST /chat のリクエストボディ
type ChatRequest struct {
	Server  string `json:"server"`
	Message string `json:"message"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "message is required"})
		return
	}

	resp, err := h.orchestrator.ProcessMessage(r.Context(), orchestrator.ProcessMessageRequest{
		Server:      h.serverOrDefault(req.Server),
		UserMessage: req.Message,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) serverOrDefault(name string) string {
	if name == "" {
		return h.opts.DefaultServer
	}
	return name
}

func (h *Handler) limiter() *rate.Limiter {
	return rate.NewLimiter(rate.Limit(h.opts.WSRate), h.opts.WSBurst)
}

// requireToken は Authorization: Bearer または token クエリを検証
// ブラウザの WebSocket はヘッダーを付けられないのでクエリも受け付ける
func (h *Handler) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.opts.APIToken == "" {
			next.ServeHTTP(w, r)
			return
		}

		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" || token == r.Header.Get("Authorization") {
			token = r.URL.Query().Get("token")
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(h.opts.APIToken)) != 1 {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		logger.InfoCF("http", "request", map[string]interface{}{
			"request_id":  middleware.GetReqID(r.Context()),
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
	})
}

type errorBody struct {
	Error string `json:"error"`
	Code  int    `json:"code,omitempty"` // JSON-RPC エラーコード
}

// statusFor はエラーをHTTPステータスに対応付ける
func statusFor(err error) (int, errorBody) {
	var rpcErr *mcpclient.RPCError
	var transportErr *mcpclient.TransportError
	switch {
	case errors.Is(err, mcp.ErrServerNotFound):
		return http.StatusNotFound, errorBody{Error: err.Error()}
	case errors.As(err, &rpcErr):
		return http.StatusBadGateway, errorBody{Error: rpcErr.Message, Code: rpcErr.Code}
	case errors.As(err, &transportErr):
		return http.StatusBadGateway, errorBody{Error: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, errorBody{Error: err.Error()}
	default:
		return http.StatusInternalServerError, errorBody{Error: err.Error()}
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, body := statusFor(err)
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WarnCF("http", "response encode failed", map[string]interface{}{"error": err.Error()})
	}
}

type propertyView struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

type toolView struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Properties  []propertyView `json:"properties"`
}

type catalogResponse struct {
	Server    string     `json:"server"`
	FetchedAt time.Time  `json:"fetched_at"`
	Tools     []toolView `json:"tools"`
}

// catalogView は宣言順を保ったままカタログをJSON向けに変換
func catalogView(cat *tool.Catalog) catalogResponse {
	out := catalogResponse{
		Server:    cat.Server(),
		FetchedAt: cat.FetchedAt(),
		Tools:     make([]toolView, 0, cat.Len()),
	}
	for _, d := range cat.Tools() {
		schema := d.Schema()
		props := make([]propertyView, 0, len(schema.Properties()))
		for _, p := range schema.Properties() {
			props = append(props, propertyView{
				Name:        p.Name,
				Type:        p.Type,
				Description: p.Description,
				Required:    schema.IsRequired(p.Name),
			})
		}
		out.Tools = append(out.Tools, toolView{Name: d.Name(), Description: d.Description(), Properties: props})
	}
	return out
}
