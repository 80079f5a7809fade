package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/schollz/progressbar/v3"

	"github.com/Nyukimin/mcpchat/internal/application/orchestrator"
	"github.com/Nyukimin/mcpchat/internal/domain/tool"
	"github.com/Nyukimin/mcpchat/pkg/logger"
)

const helpText = `Commands:
  /servers        list configured tool servers
  /use <name>     switch to another server
  /tools          list the current server's tools
  /refresh        re-discover the current server's tools
  /help           show this help
  /quit           exit
Anything else is sent to the current server as a chat message.`

// Orchestrator はメッセージ処理のインターフェース
type Orchestrator interface {
	ProcessMessage(ctx context.Context, req orchestrator.ProcessMessageRequest) (orchestrator.ProcessMessageResponse, error)
}

// Directory は登録済みツールサーバーとカタログへのアクセス
type Directory interface {
	ListServers() []string
	Catalog(ctx context.Context, name string) (*tool.Catalog, error)
	Refresh(ctx context.Context, name string) (*tool.Catalog, error)
}

// LineReader is the subset of *readline.Instance the REPL uses.
type LineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
	Close() error
}

// REPL は端末上の対話チャット
type REPL struct {
	orchestrator Orchestrator
	servers      Directory
	current      string
	out          io.Writer
	spinner      bool
}

// NewREPL は新しいREPLを作成。spinner が true ならツール呼び出し中にスピナーを表示
func NewREPL(orch Orchestrator, servers Directory, defaultServer string, out io.Writer, spinner bool) *REPL {
	return &REPL{
		orchestrator: orch,
		servers:      servers,
		current:      defaultServer,
		out:          out,
		spinner:      spinner,
	}
}

// Open は履歴付きの readline を開く。historyFile が空なら履歴は保存しない
func Open(historyFile string) (*readline.Instance, error) {
	return readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "/quit",
	})
}

// Current は現在の接続先サーバー名
func (r *REPL) Current() string {
	return r.current
}

func (r *REPL) prompt() string {
	return fmt.Sprintf("%s> ", r.current)
}

// Run は EOF か /quit まで行を読み続ける
func (r *REPL) Run(ctx context.Context, rl LineReader) error {
	defer rl.Close()

	fmt.Fprintf(r.out, "Connected to %s. Type /help for commands.\n", r.current)
	for {
		rl.SetPrompt(r.prompt())
		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if line == "" {
				return nil
			}
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return fmt.Errorf("read line: %w", err)
		}

		if r.Handle(ctx, line) {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Handle は1行を処理し、終了すべきなら true を返す
func (r *REPL) Handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if !strings.HasPrefix(line, "/") {
		r.chat(ctx, line)
		return false
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(r.out, helpText)
	case "/servers":
		for _, name := range r.servers.ListServers() {
			marker := " "
			if name == r.current {
				marker = "*"
			}
			fmt.Fprintf(r.out, "%s %s\n", marker, name)
		}
	case "/use":
		r.use(arg)
	case "/tools":
		cat, err := r.servers.Catalog(ctx, r.current)
		if err != nil {
			fmt.Fprintf(r.out, "Error: %v\n", err)
			return false
		}
		r.printTools(cat)
	case "/refresh":
		cat, err := r.servers.Refresh(ctx, r.current)
		if err != nil {
			fmt.Fprintf(r.out, "Error: %v\n", err)
			return false
		}
		fmt.Fprintf(r.out, "Refreshed %s: %d tools\n", r.current, cat.Len())
	default:
		fmt.Fprintf(r.out, "Unknown command %s. Type /help for commands.\n", cmd)
	}
	return false
}

func (r *REPL) use(name string) {
	if name == "" {
		fmt.Fprintln(r.out, "Usage: /use <name>")
		return
	}
	for _, s := range r.servers.ListServers() {
		if s == name {
			r.current = name
			fmt.Fprintf(r.out, "Now using %s\n", name)
			return
		}
	}
	fmt.Fprintf(r.out, "Unknown server %s\n", name)
}

func (r *REPL) printTools(cat *tool.Catalog) {
	if cat.Len() == 0 {
		fmt.Fprintln(r.out, "No tools are available on this server.")
		return
	}
	for _, d := range cat.Tools() {
		if d.Description() != "" {
			fmt.Fprintf(r.out, "- %s: %s\n", d.Name(), d.Description())
		} else {
			fmt.Fprintf(r.out, "- %s\n", d.Name())
		}
	}
}

func (r *REPL) chat(ctx context.Context, line string) {
	var resp orchestrator.ProcessMessageResponse
	var err error
	r.withSpinner(func() {
		resp, err = r.orchestrator.ProcessMessage(ctx, orchestrator.ProcessMessageRequest{
			Server:      r.current,
			UserMessage: line,
		})
	})
	if err != nil {
		logger.DebugCF("cli", "message failed", map[string]interface{}{"server": r.current, "error": err.Error()})
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(r.out, resp.Markdown)
}

// withSpinner は fn の実行中だけスピナーを回す
func (r *REPL) withSpinner(fn func()) {
	if !r.spinner {
		fn()
		return
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(r.out),
		progressbar.OptionSetDescription("working"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()

	fn()
	close(done)
	<-stopped
	_ = bar.Finish()
}
