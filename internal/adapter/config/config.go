package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Nyukimin/mcpchat/internal/infrastructure/mcp"
	"github.com/Nyukimin/mcpchat/pkg/auth"
)

// DefaultPath は MCPCHAT_CONFIG が未設定のときに読む設定ファイル
const DefaultPath = "./mcpchat.yaml"

// Config はアプリケーション全体の設定
type Config struct {
	Server  ServerConfig       `yaml:"server"`
	Servers []ToolServerConfig `yaml:"servers"`
	Client  ClientConfig       `yaml:"client"`
	Catalog CatalogConfig      `yaml:"catalog"`
	Chat    ChatConfig         `yaml:"chat"`
	Log     LogConfig          `yaml:"log"`
	WS      WSConfig           `yaml:"ws"`
}

// ServerConfig はHTTPサーバー設定
type ServerConfig struct {
	Host     string `yaml:"host" env:"MCPCHAT_SERVER_HOST"`
	Port     int    `yaml:"port" env:"MCPCHAT_SERVER_PORT"`
	APIToken string `yaml:"api_token" env:"MCPCHAT_SERVER_API_TOKEN"` // 空のときは認証なし
}

// ToolServerConfig は接続先ツールサーバーの設定
type ToolServerConfig struct {
	Name       string       `yaml:"name"`
	URL        string       `yaml:"url"`
	Origin     string       `yaml:"origin"`
	Token      string       `yaml:"token"`
	TokenEnv   string       `yaml:"token_env"` // 環境変数から読み込み推奨
	OAuth      *OAuthConfig `yaml:"oauth"`
	Initialize bool         `yaml:"initialize"`
}

// OAuthConfig はリフレッシュトークンによるOAuth2設定
type OAuthConfig struct {
	ClientID        string   `yaml:"client_id"`
	ClientSecret    string   `yaml:"client_secret"`
	ClientSecretEnv string   `yaml:"client_secret_env"`
	TokenURL        string   `yaml:"token_url"`
	RefreshToken    string   `yaml:"refresh_token"`
	RefreshTokenEnv string   `yaml:"refresh_token_env"`
	Scopes          []string `yaml:"scopes"`
}

// ClientConfig はJSON-RPCクライアント設定
type ClientConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds" env:"MCPCHAT_CLIENT_TIMEOUT_SECONDS"`
}

// Timeout は1リクエストのタイムアウト
func (c ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CatalogConfig はカタログスナップショット設定
type CatalogConfig struct {
	StorageDir string `yaml:"storage_dir" env:"MCPCHAT_CATALOG_STORAGE_DIR"`
}

// ChatConfig はチャット処理の設定
type ChatConfig struct {
	DefaultServer string `yaml:"default_server" env:"MCPCHAT_CHAT_DEFAULT_SERVER"`
	PreferIntents bool   `yaml:"prefer_intents" env:"MCPCHAT_CHAT_PREFER_INTENTS"`
	HelpTools     int    `yaml:"help_tools" env:"MCPCHAT_CHAT_HELP_TOOLS"`
}

// LogConfig はログ設定
type LogConfig struct {
	Level  string `yaml:"level" env:"MCPCHAT_LOG_LEVEL"`
	Format string `yaml:"format" env:"MCPCHAT_LOG_FORMAT"`
}

// WSConfig はWebSocket接続ごとの流量制限
type WSConfig struct {
	MessagesPerSecond float64 `yaml:"messages_per_second" env:"MCPCHAT_WS_MESSAGES_PER_SECOND"`
	Burst             int     `yaml:"burst" env:"MCPCHAT_WS_BURST"`
}

// Load は MCPCHAT_CONFIG（未設定なら DefaultPath）の設定ファイルを読み込む
func Load() (*Config, error) {
	// .env はあれば読む。既に設定済みの環境変数は上書きしない
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	path := os.Getenv("MCPCHAT_CONFIG")
	if path == "" {
		path = DefaultPath
	}
	return LoadConfig(path)
}

// LoadConfig は設定ファイルを読み込む
func LoadConfig(path string) (*Config, error) {
	// ファイル読み込み
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// YAMLパース
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	// 環境変数で上書き
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	// デフォルト値設定
	cfg.setDefaults()

	// バリデーション
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults はデフォルト値を設定
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}

	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}

	if c.Client.TimeoutSeconds == 0 {
		c.Client.TimeoutSeconds = 30
	}

	if c.Catalog.StorageDir == "" {
		c.Catalog.StorageDir = "./data/catalogs"
	}

	if c.Chat.DefaultServer == "" && len(c.Servers) > 0 {
		c.Chat.DefaultServer = c.Servers[0].Name
	}

	if c.Chat.HelpTools == 0 {
		c.Chat.HelpTools = 10
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.WS.MessagesPerSecond == 0 {
		c.WS.MessagesPerSecond = 5
	}

	if c.WS.Burst == 0 {
		c.WS.Burst = 10
	}
}

// Validate は設定の妥当性を検証
func (c *Config) Validate() error {
	// サーバー設定検証
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}

	// ツールサーバー設定検証
	if len(c.Servers) == 0 {
		return fmt.Errorf("at least one tool server is required")
	}

	seen := make(map[string]bool, len(c.Servers))
	for i, s := range c.Servers {
		sc := mcp.ServerConfig{Name: s.Name, URL: s.URL}
		if err := sc.Validate(); err != nil {
			return fmt.Errorf("servers[%d]: %w", i, err)
		}
		if seen[s.Name] {
			return fmt.Errorf("servers[%d]: duplicate server name '%s'", i, s.Name)
		}
		seen[s.Name] = true

		if s.OAuth != nil && (s.Token != "" || s.TokenEnv != "") {
			return fmt.Errorf("servers[%d]: token and oauth are mutually exclusive", i)
		}
	}

	if !seen[c.Chat.DefaultServer] {
		return fmt.Errorf("chat default_server '%s' is not a configured server", c.Chat.DefaultServer)
	}

	if c.Client.TimeoutSeconds < 0 {
		return fmt.Errorf("client timeout_seconds must not be negative")
	}

	if c.Chat.HelpTools < 0 {
		return fmt.Errorf("chat help_tools must not be negative")
	}

	// カタログ設定検証
	if c.Catalog.StorageDir == "" {
		return fmt.Errorf("catalog storage_dir is required")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Log.Format)
	}

	if c.WS.MessagesPerSecond < 0 || c.WS.Burst < 0 {
		return fmt.Errorf("ws limits must not be negative")
	}

	return nil
}

// ToolServers はレジストリに登録するサーバー設定を作成。OAuth を使うサーバーは
// ここでトークンソースを作るが、トークンの取得は最初の呼び出しまで行わない
func (c *Config) ToolServers(ctx context.Context) ([]mcp.ServerConfig, error) {
	out := make([]mcp.ServerConfig, 0, len(c.Servers))
	for _, s := range c.Servers {
		creds, err := s.credentials(ctx)
		if err != nil {
			return nil, fmt.Errorf("server '%s': %w", s.Name, err)
		}
		out = append(out, mcp.ServerConfig{
			Name:        s.Name,
			URL:         s.URL,
			Origin:      s.Origin,
			Credentials: creds,
			Timeout:     c.Client.Timeout(),
			Initialize:  s.Initialize,
		})
	}
	return out, nil
}

func (s ToolServerConfig) credentials(ctx context.Context) (auth.CredentialSource, error) {
	if s.OAuth != nil {
		return auth.NewRefreshingOAuth2(ctx, auth.OAuth2Config{
			ClientID:     s.OAuth.ClientID,
			ClientSecret: secret(s.OAuth.ClientSecret, s.OAuth.ClientSecretEnv),
			TokenURL:     s.OAuth.TokenURL,
			RefreshToken: secret(s.OAuth.RefreshToken, s.OAuth.RefreshTokenEnv),
			Scopes:       s.OAuth.Scopes,
		})
	}

	if token := secret(s.Token, s.TokenEnv); token != "" {
		return auth.Static(token), nil
	}
	return nil, nil
}

// secret は環境変数名が指定されていればその値を、なければ value を返す
func secret(value, envName string) string {
	if envName != "" {
		if v := os.Getenv(envName); v != "" {
			return v
		}
	}
	return value
}
