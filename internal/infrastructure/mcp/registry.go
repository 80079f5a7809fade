package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/Nyukimin/mcpchat/internal/domain/tool"
	"github.com/Nyukimin/mcpchat/pkg/auth"
	"github.com/Nyukimin/mcpchat/pkg/logger"
	mcpclient "github.com/Nyukimin/mcpchat/pkg/mcp"
)

// ErrServerNotFound is returned for operations on a server name that is not
// registered.
var ErrServerNotFound = errors.New("server not found")

// ServerConfig はMCPサーバー設定
type ServerConfig struct {
	Name        string                // サーバー名
	URL         string                // JSON-RPC エンドポイント
	Origin      string                // Origin ヘッダー（オプション）
	Credentials auth.CredentialSource // bearer トークンの取得元（オプション）
	Timeout     time.Duration         // 0 のときはクライアントの既定値
	Initialize  bool                  // 初回ディスカバリー前に initialize を送る
}

// Validate は設定の妥当性を検証
func (c *ServerConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("server name is required")
	}
	if c.URL == "" {
		return fmt.Errorf("url is required")
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("url must be an absolute http(s) URL: %s", c.URL)
	}
	return nil
}

// ServerStatus は登録済みサーバーの概要
type ServerStatus struct {
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Tools     int       `json:"tools"`
	Loaded    bool      `json:"loaded"`
	FetchedAt time.Time `json:"fetched_at"`
}

type server struct {
	config      ServerConfig
	client      *mcpclient.Client
	catalog     *tool.Catalog
	initialized bool
}

// Registry は名前付きツールサーバーと、そのカタログを管理する
type Registry struct {
	servers    map[string]*server
	store      tool.CatalogRepository
	clientInfo mcpclient.ClientInfo
	now        func() time.Time
	mu         sync.RWMutex
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithCatalogStore enables catalog snapshots: every refresh is saved, and a
// saved snapshot is served when discovery fails before any live catalog
// was loaded.
func WithCatalogStore(store tool.CatalogRepository) RegistryOption {
	return func(r *Registry) { r.store = store }
}

// WithClientInfo sets the identity sent during initialize.
func WithClientInfo(info mcpclient.ClientInfo) RegistryOption {
	return func(r *Registry) { r.clientInfo = info }
}

// WithClock replaces time.Now for catalog timestamps.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

// NewRegistry は新しいRegistryを作成
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		servers:    make(map[string]*server),
		clientInfo: mcpclient.ClientInfo{Name: "mcpchat", Version: "dev"},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterServer はMCPサーバーを登録
func (r *Registry) RegisterServer(config ServerConfig) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}

	opts := []mcpclient.Option{mcpclient.WithOrigin(config.Origin)}
	if config.Credentials != nil {
		opts = append(opts, mcpclient.WithCredentials(config.Credentials))
	}
	if config.Timeout > 0 {
		opts = append(opts, mcpclient.WithTimeout(config.Timeout))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.servers[config.Name]; exists {
		return fmt.Errorf("server '%s' already registered", config.Name)
	}

	r.servers[config.Name] = &server{
		config: config,
		client: mcpclient.NewClient(config.URL, opts...),
	}
	return nil
}

// UnregisterServer はMCPサーバーの登録を解除
func (r *Registry) UnregisterServer(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.servers[name]; !exists {
		return fmt.Errorf("%w: %s", ErrServerNotFound, name)
	}

	delete(r.servers, name)
	return nil
}

// ListServers は登録されているサーバー名を昇順で返す
func (r *Registry) ListServers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.servers))
	for name := range r.servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Statuses はサーバーごとの概要を名前順で返す
func (r *Registry) Statuses() []ServerStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	statuses := make([]ServerStatus, 0, len(r.servers))
	for name, srv := range r.servers {
		st := ServerStatus{Name: name, URL: srv.config.URL}
		if srv.catalog != nil {
			st.Loaded = true
			st.Tools = srv.catalog.Len()
			st.FetchedAt = srv.catalog.FetchedAt()
		}
		statuses = append(statuses, st)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses
}

// Client returns the transport of a registered server.
func (r *Registry) Client(name string) (*mcpclient.Client, error) {
	srv, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	return srv.client, nil
}

// Catalog returns the cached catalog, discovering it on first use. When
// discovery fails and a snapshot store is configured, the last saved
// snapshot is served instead.
func (r *Registry) Catalog(ctx context.Context, name string) (*tool.Catalog, error) {
	srv, err := r.lookup(name)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	cached := srv.catalog
	r.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	cat, err := r.Refresh(ctx, name)
	if err == nil {
		return cat, nil
	}
	if errors.Is(err, ErrServerNotFound) || r.store == nil {
		return nil, err
	}

	snapshot, loadErr := r.store.Load(ctx, name)
	if loadErr != nil {
		return nil, err
	}

	r.mu.Lock()
	if srv.catalog == nil {
		srv.catalog = snapshot
	}
	cat = srv.catalog
	r.mu.Unlock()

	logger.WarnCF("mcp.registry", "serving catalog snapshot", map[string]interface{}{
		"server":     name,
		"tools":      cat.Len(),
		"fetched_at": cat.FetchedAt(),
		"error":      err.Error(),
	})
	return cat, nil
}

// Refresh re-runs discovery and replaces the server's catalog wholesale.
// Readers holding the previous catalog keep a consistent copy.
func (r *Registry) Refresh(ctx context.Context, name string) (*tool.Catalog, error) {
	srv, err := r.lookup(name)
	if err != nil {
		return nil, err
	}

	if err := r.handshake(ctx, srv); err != nil {
		return nil, err
	}

	started := r.now()
	advertised, err := srv.client.ListTools(ctx)
	if err != nil {
		logger.WarnCF("mcp.registry", "discovery failed", map[string]interface{}{
			"server": name,
			"error":  err.Error(),
		})
		return nil, fmt.Errorf("discover tools on %s: %w", name, err)
	}

	descriptors := make([]tool.Descriptor, 0, len(advertised))
	for _, t := range advertised {
		d, err := tool.ParseDescriptor(t.Name, t.Description, t.InputSchema)
		if err != nil {
			logger.WarnCF("mcp.registry", "tool skipped", map[string]interface{}{
				"server": name,
				"tool":   t.Name,
				"error":  err.Error(),
			})
			continue
		}
		descriptors = append(descriptors, d)
	}
	cat := tool.NewCatalog(name, descriptors, r.now())

	r.mu.Lock()
	current, exists := r.servers[name]
	if exists && current == srv {
		current.catalog = cat
	}
	r.mu.Unlock()
	if !exists || current != srv {
		return nil, fmt.Errorf("%w: %s", ErrServerNotFound, name)
	}

	logger.InfoCF("mcp.registry", "catalog refreshed", map[string]interface{}{
		"server":      name,
		"tools":       cat.Len(),
		"skipped":     len(advertised) - cat.Len(),
		"duration_ms": r.now().Sub(started).Milliseconds(),
	})

	if r.store != nil {
		if err := r.store.Save(ctx, cat); err != nil {
			logger.WarnCF("mcp.registry", "snapshot save failed", map[string]interface{}{
				"server": name,
				"error":  err.Error(),
			})
		}
	}

	return cat, nil
}

// CallTool は指定されたサーバーのツールを呼び出す
func (r *Registry) CallTool(ctx context.Context, name, toolName string, args map[string]interface{}) (*mcpclient.CallToolResult, error) {
	srv, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	if err := r.handshake(ctx, srv); err != nil {
		return nil, err
	}
	return srv.client.CallTool(ctx, toolName, args)
}

// Ping は MCP サーバーのヘルスチェック
func (r *Registry) Ping(ctx context.Context, name string) error {
	srv, err := r.lookup(name)
	if err != nil {
		return err
	}
	return srv.client.Ping(ctx)
}

func (r *Registry) lookup(name string) (*server, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	srv, exists := r.servers[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrServerNotFound, name)
	}
	return srv, nil
}

// handshake sends initialize once per registered server when configured to.
func (r *Registry) handshake(ctx context.Context, srv *server) error {
	if !srv.config.Initialize {
		return nil
	}

	r.mu.RLock()
	done := srv.initialized
	r.mu.RUnlock()
	if done {
		return nil
	}

	result, err := srv.client.Initialize(ctx, r.clientInfo)
	if err != nil {
		return fmt.Errorf("initialize %s: %w", srv.config.Name, err)
	}

	r.mu.Lock()
	srv.initialized = true
	r.mu.Unlock()

	logger.InfoCF("mcp.registry", "server initialized", map[string]interface{}{
		"server":           srv.config.Name,
		"server_name":      result.ServerInfo.Name,
		"server_version":   result.ServerInfo.Version,
		"protocol_version": result.ProtocolVersion,
	})
	return nil
}
