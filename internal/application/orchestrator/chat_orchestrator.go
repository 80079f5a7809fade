package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/Nyukimin/mcpchat/internal/domain/chat"
	"github.com/Nyukimin/mcpchat/internal/domain/resolution"
	"github.com/Nyukimin/mcpchat/internal/domain/routing"
	"github.com/Nyukimin/mcpchat/internal/domain/tool"
	"github.com/Nyukimin/mcpchat/pkg/logger"
	"github.com/Nyukimin/mcpchat/pkg/mcp"
)

// DefaultHelpTools is how many tools the no-match help message lists.
const DefaultHelpTools = 10

// Status は1ターンの処理結果の分類
type Status string

const (
	StatusExecuted         Status = "executed"
	StatusMissingArguments Status = "missing_arguments"
	StatusNoTool           Status = "no_tool"
	StatusToolError        Status = "tool_error"
)

// ProcessMessageRequest はメッセージ処理リクエスト
type ProcessMessageRequest struct {
	Server      string
	UserMessage string
}

// ProcessMessageResponse はメッセージ処理レスポンス
type ProcessMessageResponse struct {
	TurnID   chat.TurnID     `json:"turn_id"`
	Status   Status          `json:"status"`
	Markdown string          `json:"markdown"`
	Tool     string          `json:"tool,omitempty"`
	Rule     resolution.Rule `json:"rule,omitempty"`
	Args     resolution.Args `json:"args"`
	Missing  []string        `json:"missing"`
}

// ToolGateway はカタログ取得とツール呼び出しを担当
type ToolGateway interface {
	Catalog(ctx context.Context, server string) (*tool.Catalog, error)
	CallTool(ctx context.Context, server, toolName string, args map[string]interface{}) (*mcp.CallToolResult, error)
}

// IntentClassifier はドメイン意図の解析を担当
type IntentClassifier interface {
	Classify(text string) (routing.Intent, bool)
}

// Renderer はツール出力の整形を担当
type Renderer interface {
	Render(raw string) string
}

// Option configures a ChatOrchestrator.
type Option func(*ChatOrchestrator)

// WithPreferIntents consults the intent classifier before the tool matcher.
func WithPreferIntents(prefer bool) Option {
	return func(o *ChatOrchestrator) { o.preferIntents = prefer }
}

// WithHelpTools sets how many tools the help message lists.
func WithHelpTools(n int) Option {
	return func(o *ChatOrchestrator) {
		if n > 0 {
			o.helpTools = n
		}
	}
}

// ChatOrchestrator は発話の解決、ツール呼び出し、結果の整形を統括
type ChatOrchestrator struct {
	tools         ToolGateway
	intents       IntentClassifier // nil のときはインテント解析を使わない
	renderer      Renderer
	preferIntents bool
	helpTools     int
}

// NewChatOrchestrator は新しいChatOrchestratorを作成
func NewChatOrchestrator(tools ToolGateway, intents IntentClassifier, renderer Renderer, opts ...Option) *ChatOrchestrator {
	o := &ChatOrchestrator{
		tools:     tools,
		intents:   intents,
		renderer:  renderer,
		helpTools: DefaultHelpTools,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ProcessMessage はメッセージを処理。ツールが見つからない、引数が足りないといった
// 結果はエラーではなくStatusで返す。エラーになるのはカタログ取得とツール呼び出しの失敗のみ
func (o *ChatOrchestrator) ProcessMessage(ctx context.Context, req ProcessMessageRequest) (ProcessMessageResponse, error) {
	turnID := chat.NewTurnID()

	// 1. カタログを取得
	cat, err := o.tools.Catalog(ctx, req.Server)
	if err != nil {
		return ProcessMessageResponse{}, fmt.Errorf("failed to load catalog: %w", err)
	}

	// 2. 発話を解決
	result := o.resolve(strings.TrimSpace(req.UserMessage), cat)

	logger.InfoCF("orchestrator", "turn resolved", map[string]interface{}{
		"turn_id": turnID.String(),
		"server":  req.Server,
		"tool":    result.Tool.Name(),
		"rule":    string(result.Rule),
		"args":    result.Args.Names(),
		"missing": result.MissingRequired,
	})

	resp := ProcessMessageResponse{
		TurnID:  turnID,
		Tool:    result.Tool.Name(),
		Rule:    result.Rule,
		Args:    result.Args,
		Missing: result.MissingRequired,
	}

	// 3. 結果に応じて応答を作成
	switch {
	case !result.Found():
		resp.Status = StatusNoTool
		resp.Markdown = o.helpMessage(cat)
		return resp, nil

	case !result.Ready():
		resp.Status = StatusMissingArguments
		resp.Markdown = missingPrompt(result)
		return resp, nil
	}

	// 4. ツールを呼び出し
	callResult, err := o.tools.CallTool(ctx, req.Server, result.Tool.Name(), result.Args.Map())
	if err != nil {
		logger.WarnCF("orchestrator", "tool call failed", map[string]interface{}{
			"turn_id": turnID.String(),
			"server":  req.Server,
			"tool":    result.Tool.Name(),
			"error":   err.Error(),
		})
		return ProcessMessageResponse{}, fmt.Errorf("tool %s failed: %w", result.Tool.Name(), err)
	}

	rendered := o.renderer.Render(callResult.Text())
	if callResult.IsError {
		resp.Status = StatusToolError
		resp.Markdown = fmt.Sprintf("⚠️ **%s reported an error**\n\n%s", result.Tool.Name(), rendered)
		return resp, nil
	}

	resp.Status = StatusExecuted
	resp.Markdown = rendered
	return resp, nil
}

// resolve runs the matcher and the intent classifier in the configured order.
func (o *ChatOrchestrator) resolve(utterance string, cat *tool.Catalog) resolution.MatchResult {
	if o.preferIntents {
		if result, ok := o.fromIntent(utterance, cat); ok {
			return result
		}
	}

	if result := resolution.Resolve(utterance, cat.Tools()); result.Found() {
		return result
	}

	if !o.preferIntents {
		if result, ok := o.fromIntent(utterance, cat); ok {
			return result
		}
	}

	return resolution.NoMatch()
}

// fromIntent maps a classified intent onto its conventional tool when the
// catalog has one. Only fields the tool declares are passed on.
func (o *ChatOrchestrator) fromIntent(utterance string, cat *tool.Catalog) (resolution.MatchResult, bool) {
	if o.intents == nil {
		return resolution.MatchResult{}, false
	}

	intent, ok := o.intents.Classify(utterance)
	if !ok {
		return resolution.MatchResult{}, false
	}

	d, found := cat.Find(intent.ToolName())
	if !found {
		return resolution.MatchResult{}, false
	}

	args := resolution.NewArgs()
	for _, p := range d.Schema().Properties() {
		if v, ok := intent.Field(p.Name); ok && v != "" {
			args = args.With(p.Name, v)
		}
	}
	return resolution.Complete(d, args, resolution.RuleIntent), true
}

func missingPrompt(result resolution.MatchResult) string {
	schema := result.Tool.Schema()

	var b strings.Builder
	fmt.Fprintf(&b, "ℹ️ **%s** needs more information:\n", result.Tool.Name())
	for _, name := range result.MissingRequired {
		p, ok := schema.Property(name)
		switch {
		case ok && p.Description != "":
			fmt.Fprintf(&b, "\n- **%s**: %s", name, p.Description)
		default:
			fmt.Fprintf(&b, "\n- **%s**", name)
		}
	}

	// 先頭の不足引数が自由文で埋められる場合だけ入力例を示す
	if first, ok := schema.FirstRequiredString(); ok && len(result.MissingRequired) > 0 && result.MissingRequired[0] == first.Name {
		fmt.Fprintf(&b, "\n\nTry: `%s <%s>`", result.Tool.SpacedName(), first.Name)
	}

	return b.String()
}

func (o *ChatOrchestrator) helpMessage(cat *tool.Catalog) string {
	tools := cat.Tools()
	if len(tools) == 0 {
		return "No tools are available on this server."
	}

	var b strings.Builder
	b.WriteString("I couldn't match that to a tool. Available tools:\n")

	shown := tools
	if len(shown) > o.helpTools {
		shown = shown[:o.helpTools]
	}
	for _, d := range shown {
		if d.Description() != "" {
			fmt.Fprintf(&b, "\n- **%s**: %s", d.Name(), d.Description())
		} else {
			fmt.Fprintf(&b, "\n- **%s**", d.Name())
		}
	}
	if rest := len(tools) - len(shown); rest > 0 {
		fmt.Fprintf(&b, "\n\n_...and %d more_", rest)
	}

	fmt.Fprintf(&b, "\n\nStart your message with a tool name, e.g. `%s`.", tools[0].SpacedName())
	return b.String()
}
