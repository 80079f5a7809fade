package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Nyukimin/mcpchat/pkg/auth"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "mcpchat.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return configPath
}

func TestLoadConfig_Success(t *testing.T) {
	configPath := writeConfig(t, `
server:
  port: 9090
  host: "127.0.0.1"

servers:
  - name: drive
    url: "http://localhost:3000/mcp"
    origin: "http://localhost"
    token: "static-token"
  - name: gmail
    url: "https://mail.example.com/mcp"
    initialize: true

client:
  timeout_seconds: 15

catalog:
  storage_dir: "./data/catalogs"

chat:
  default_server: gmail
  prefer_intents: true

log:
  level: "debug"
  format: "json"

ws:
  messages_per_second: 2
  burst: 4
`)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Expected host '127.0.0.1', got '%s'", cfg.Server.Host)
	}
	if len(cfg.Servers) != 2 {
		t.Fatalf("Expected 2 servers, got %d", len(cfg.Servers))
	}
	if cfg.Servers[0].Origin != "http://localhost" {
		t.Errorf("Expected origin, got '%s'", cfg.Servers[0].Origin)
	}
	if !cfg.Servers[1].Initialize {
		t.Error("Expected initialize to be true for gmail")
	}
	if cfg.Client.Timeout() != 15*time.Second {
		t.Errorf("Expected 15s timeout, got %v", cfg.Client.Timeout())
	}
	if cfg.Chat.DefaultServer != "gmail" || !cfg.Chat.PreferIntents {
		t.Errorf("Unexpected chat config: %+v", cfg.Chat)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Unexpected log config: %+v", cfg.Log)
	}
	if cfg.WS.MessagesPerSecond != 2 || cfg.WS.Burst != 4 {
		t.Errorf("Unexpected ws config: %+v", cfg.WS)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	configPath := writeConfig(t, `
servers:
  - name: drive
    url: "http://localhost:3000/mcp"
`)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Expected default host '0.0.0.0', got '%s'", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Client.TimeoutSeconds != 30 {
		t.Errorf("Expected default timeout 30, got %d", cfg.Client.TimeoutSeconds)
	}
	if cfg.Catalog.StorageDir != "./data/catalogs" {
		t.Errorf("Expected default storage dir, got '%s'", cfg.Catalog.StorageDir)
	}
	if cfg.Chat.DefaultServer != "drive" {
		t.Errorf("Expected first server as default, got '%s'", cfg.Chat.DefaultServer)
	}
	if cfg.Chat.HelpTools != 10 {
		t.Errorf("Expected default help_tools 10, got %d", cfg.Chat.HelpTools)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("Unexpected log defaults: %+v", cfg.Log)
	}
	if cfg.WS.MessagesPerSecond != 5 || cfg.WS.Burst != 10 {
		t.Errorf("Unexpected ws defaults: %+v", cfg.WS)
	}
}

func TestLoadConfig_WithEnvVars(t *testing.T) {
	t.Setenv("MCPCHAT_SERVER_PORT", "7070")
	t.Setenv("MCPCHAT_SERVER_API_TOKEN", "env-api-token")
	t.Setenv("MCPCHAT_LOG_LEVEL", "warn")
	t.Setenv("MCPCHAT_CHAT_PREFER_INTENTS", "true")

	configPath := writeConfig(t, `
server:
  port: 8080
servers:
  - name: drive
    url: "http://localhost:3000/mcp"
log:
  level: "debug"
`)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("Expected env port 7070, got %d", cfg.Server.Port)
	}
	if cfg.Server.APIToken != "env-api-token" {
		t.Errorf("Expected API token from env, got '%s'", cfg.Server.APIToken)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Expected env log level 'warn', got '%s'", cfg.Log.Level)
	}
	if !cfg.Chat.PreferIntents {
		t.Error("Expected prefer_intents from env")
	}
}

func TestLoad_UsesConfigEnvPath(t *testing.T) {
	configPath := writeConfig(t, `
servers:
  - name: forms
    url: "http://localhost:3001/mcp"
`)
	t.Setenv("MCPCHAT_CONFIG", configPath)

	// .env は作業ディレクトリにないので読み飛ばされる
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Servers[0].Name != "forms" {
		t.Errorf("Expected forms server, got '%s'", cfg.Servers[0].Name)
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	configPath := writeConfig(t, `
servers:
  - name: drive
    url: "http://localhost:3000/mcp"
`)
	t.Setenv("MCPCHAT_CONFIG", configPath)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("MCPCHAT_CATALOG_STORAGE_DIR=/tmp/from-dotenv\n"), 0644); err != nil {
		t.Fatalf("Failed to write .env: %v", err)
	}
	t.Chdir(dir)
	t.Cleanup(func() { os.Unsetenv("MCPCHAT_CATALOG_STORAGE_DIR") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Catalog.StorageDir != "/tmp/from-dotenv" {
		t.Errorf("Expected storage dir from .env, got '%s'", cfg.Catalog.StorageDir)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/mcpchat.yaml")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "servers: [\n  - name: drive\n")

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		cfg := Config{
			Servers: []ToolServerConfig{{Name: "drive", URL: "http://localhost:3000/mcp"}},
		}
		cfg.setDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"no servers", func(c *Config) { c.Servers = nil }, "at least one tool server"},
		{"missing name", func(c *Config) { c.Servers[0].Name = "" }, "server name is required"},
		{"relative url", func(c *Config) { c.Servers[0].URL = "/mcp" }, "absolute http(s) URL"},
		{"duplicate name", func(c *Config) {
			c.Servers = append(c.Servers, ToolServerConfig{Name: "drive", URL: "http://other/mcp"})
		}, "duplicate server name"},
		{"token with oauth", func(c *Config) {
			c.Servers[0].Token = "x"
			c.Servers[0].OAuth = &OAuthConfig{TokenURL: "http://t", RefreshToken: "r"}
		}, "mutually exclusive"},
		{"unknown default server", func(c *Config) { c.Chat.DefaultServer = "gmail" }, "default_server"},
		{"negative timeout", func(c *Config) { c.Client.TimeoutSeconds = -1 }, "timeout_seconds"},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, "invalid log level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "invalid log format"},
		{"negative burst", func(c *Config) { c.WS.Burst = -1 }, "ws limits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfig_ToolServers(t *testing.T) {
	t.Setenv("DRIVE_TOKEN", "secret-from-env")

	cfg := Config{
		Client: ClientConfig{TimeoutSeconds: 12},
		Servers: []ToolServerConfig{
			{Name: "drive", URL: "http://localhost:3000/mcp", TokenEnv: "DRIVE_TOKEN", Token: "ignored"},
			{Name: "forms", URL: "http://localhost:3001/mcp", Origin: "http://localhost", Initialize: true},
			{Name: "gmail", URL: "http://localhost:3002/mcp", OAuth: &OAuthConfig{
				ClientID:     "client",
				TokenURL:     "http://localhost:9999/token",
				RefreshToken: "refresh",
			}},
		},
	}

	servers, err := cfg.ToolServers(context.Background())
	if err != nil {
		t.Fatalf("ToolServers failed: %v", err)
	}
	if len(servers) != 3 {
		t.Fatalf("Expected 3 servers, got %d", len(servers))
	}

	token, err := servers[0].Credentials.Token(context.Background())
	if err != nil || token != "secret-from-env" {
		t.Errorf("Expected token from env, got %q (%v)", token, err)
	}
	if servers[0].Timeout != 12*time.Second {
		t.Errorf("Expected 12s timeout, got %v", servers[0].Timeout)
	}

	if servers[1].Credentials != nil {
		t.Error("Expected no credentials for forms")
	}
	if servers[1].Origin != "http://localhost" || !servers[1].Initialize {
		t.Errorf("Unexpected forms config: %+v", servers[1])
	}

	if _, ok := servers[2].Credentials.(*auth.OAuth2); !ok {
		t.Errorf("Expected OAuth2 credentials, got %T", servers[2].Credentials)
	}
}

func TestConfig_ToolServers_InvalidOAuth(t *testing.T) {
	cfg := Config{
		Servers: []ToolServerConfig{
			{Name: "gmail", URL: "http://localhost:3002/mcp", OAuth: &OAuthConfig{ClientID: "client"}},
		},
	}

	_, err := cfg.ToolServers(context.Background())
	if err == nil || !strings.Contains(err.Error(), "gmail") {
		t.Errorf("Expected error naming the server, got %v", err)
	}
}
