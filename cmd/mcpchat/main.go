package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Nyukimin/mcpchat/internal/adapter/cli"
	"github.com/Nyukimin/mcpchat/internal/adapter/config"
	"github.com/Nyukimin/mcpchat/internal/adapter/httpapi"
	"github.com/Nyukimin/mcpchat/internal/application/orchestrator"
	"github.com/Nyukimin/mcpchat/internal/infrastructure/mcp"
	"github.com/Nyukimin/mcpchat/internal/infrastructure/persistence/catalog"
	"github.com/Nyukimin/mcpchat/internal/infrastructure/render"
	"github.com/Nyukimin/mcpchat/internal/infrastructure/routing"
	"github.com/Nyukimin/mcpchat/pkg/health"
	"github.com/Nyukimin/mcpchat/pkg/logger"
	mcpclient "github.com/Nyukimin/mcpchat/pkg/mcp"
)

var version = "dev"

const usage = `Usage: mcpchat [serve|chat]

  serve   start the HTTP/WebSocket chat API (default)
  chat    start an interactive terminal chat

Configuration is read from $MCPCHAT_CONFIG (default ./mcpchat.yaml).`

func main() {
	mode := "serve"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch mode {
	case "serve":
		err = runServe(ctx)
	case "chat":
		err = runChat(ctx)
	case "-h", "--help", "help":
		fmt.Println(usage)
		return
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		logger.ErrorCF("main", "exiting", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

// Dependencies はアプリケーション依存関係
type Dependencies struct {
	cfg          *config.Config
	registry     *mcp.Registry
	orchestrator *orchestrator.ChatOrchestrator
	health       *health.Checker
}

// buildDependencies は依存関係を構築
func buildDependencies(ctx context.Context) (*Dependencies, error) {
	// 設定読み込み
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.Configure(cfg.Log.Level, cfg.Log.Format)

	// 1. カタログスナップショット
	store := catalog.NewJSONCatalogRepository(cfg.Catalog.StorageDir)

	// 2. ツールサーバーレジストリ
	registry := mcp.NewRegistry(
		mcp.WithCatalogStore(store),
		mcp.WithClientInfo(mcpclient.ClientInfo{Name: "mcpchat", Version: version}),
	)
	servers, err := cfg.ToolServers(ctx)
	if err != nil {
		return nil, err
	}

	// 3. ヘルスチェック
	checker := health.NewChecker()
	for _, sc := range servers {
		if err := registry.RegisterServer(sc); err != nil {
			return nil, err
		}
		checker.Register(sc.Name, health.ToolServerCheck(registry, sc.Name, 5*time.Second))
	}

	// 4. Application Orchestrator
	orch := orchestrator.NewChatOrchestrator(
		registry,
		routing.NewClassifier(),
		render.Markdown{},
		orchestrator.WithPreferIntents(cfg.Chat.PreferIntents),
		orchestrator.WithHelpTools(cfg.Chat.HelpTools),
	)

	logger.InfoCF("main", "dependencies ready", map[string]interface{}{
		"servers": registry.ListServers(),
		"default": cfg.Chat.DefaultServer,
		"version": version,
	})

	return &Dependencies{cfg: cfg, registry: registry, orchestrator: orch, health: checker}, nil
}

func runServe(ctx context.Context) error {
	deps, err := buildDependencies(ctx)
	if err != nil {
		return err
	}

	handler := httpapi.NewHandler(deps.orchestrator, deps.registry, deps.health, httpapi.Options{
		APIToken:      deps.cfg.Server.APIToken,
		DefaultServer: deps.cfg.Chat.DefaultServer,
		WSRate:        deps.cfg.WS.MessagesPerSecond,
		WSBurst:       deps.cfg.WS.Burst,
	})

	addr := fmt.Sprintf("%s:%d", deps.cfg.Server.Host, deps.cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.InfoCF("main", "listening", map[string]interface{}{"addr": addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.InfoC("main", "shutting down")
	return srv.Shutdown(shutdownCtx)
}

func runChat(ctx context.Context) error {
	deps, err := buildDependencies(ctx)
	if err != nil {
		return err
	}

	rl, err := cli.Open(historyPath())
	if err != nil {
		return fmt.Errorf("failed to open terminal: %w", err)
	}

	repl := cli.NewREPL(deps.orchestrator, deps.registry, deps.cfg.Chat.DefaultServer, rl.Stdout(), true)
	return repl.Run(ctx, rl)
}

// historyPath は REPL の履歴ファイル。ホームディレクトリがなければ履歴を残さない
func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".mcpchat_history")
}
