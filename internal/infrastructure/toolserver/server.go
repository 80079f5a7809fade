package toolserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Nyukimin/mcpchat/pkg/logger"
)

// ToolFunc はツール実行関数の型
type ToolFunc func(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error)

// Server はDrive/Gmail/Formsを模したデモ用ツールサーバー
type Server struct {
	mcp   *server.MCPServer
	store *Store
}

// New は全ツールを登録したServerを作成
func New(store *Store, version string) *Server {
	s := &Server{
		mcp:   server.NewMCPServer("mcpchat-demo", version, server.WithToolCapabilities(false)),
		store: store,
	}

	// ツール登録
	s.registerTools()

	return s
}

// registerTools は利用可能なツールを登録
// 引数付きツールは宣言順を保つため生のJSONスキーマで定義する
func (s *Server) registerTools() {
	s.add(mcp.NewToolWithRawSchema("search_files", "Search Drive files by name", stringParams(
		param{"query", "Text to look for in file names"},
	)), s.searchFiles)

	s.add(mcp.NewTool("list_files",
		mcp.WithDescription("List recent Drive files"),
	), s.listFiles)

	s.add(mcp.NewToolWithRawSchema("get_file", "Show details of one Drive file", stringParams(
		param{"fileId", "Drive file ID"},
	)), s.getFile)

	s.add(mcp.NewToolWithRawSchema("create_folder", "Create a Drive folder", stringParams(
		param{"name", "Folder name"},
	)), s.createFolder)

	s.add(mcp.NewTool("list_forms",
		mcp.WithDescription("List Google Forms"),
	), s.listForms)

	s.add(mcp.NewToolWithRawSchema("create_form", "Create a Google Form", stringParams(
		param{"title", "Form title"},
	)), s.createForm)

	s.add(mcp.NewTool("list_emails",
		mcp.WithDescription("List recent Gmail messages"),
	), s.listEmails)

	s.add(mcp.NewToolWithRawSchema("search_emails", "Search Gmail messages", stringParams(
		param{"query", "Gmail search query, e.g. from:alice budget"},
	)), s.searchEmails)

	s.add(mcp.NewToolWithRawSchema("send_email", "Send an email", stringParams(
		param{"to", "Recipient address"},
		param{"subject", "Subject line"},
		param{"body", "Message body"},
	)), s.sendEmail)
}

// param は必須の文字列引数1つ
type param struct {
	name        string
	description string
}

// stringParams は全引数を必須の文字列とするスキーマを宣言順のまま組み立てる。
// mcp.WithString はプロパティをmapに入れるため、広告時の順序が保証されない
func stringParams(params ...param) json.RawMessage {
	var b bytes.Buffer
	b.WriteString(`{"type":"object","properties":{`)
	names := make([]string, 0, len(params))
	for i, p := range params {
		if i > 0 {
			b.WriteByte(',')
		}
		name, _ := json.Marshal(p.name)
		desc, _ := json.Marshal(p.description)
		fmt.Fprintf(&b, `%s:{"type":"string","description":%s}`, name, desc)
		names = append(names, p.name)
	}
	required, _ := json.Marshal(names)
	fmt.Fprintf(&b, `},"required":%s}`, required)
	return b.Bytes()
}

func (s *Server) add(t mcp.Tool, fn ToolFunc) {
	s.mcp.AddTool(t, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logger.DebugCF("toolserver", "tool called", map[string]interface{}{"tool": t.Name})
		return fn(ctx, request.Params.Arguments)
	})
}

// MCP は内部の mcp-go サーバーを返す
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// ServeHTTP は POST 1回を JSON-RPC メッセージ1つとして処理
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	resp := s.mcp.HandleMessage(r.Context(), body)
	if resp == nil {
		// 通知には応答しない
		w.WriteHeader(http.StatusAccepted)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.WarnCF("toolserver", "response encode failed", map[string]interface{}{"error": err.Error()})
	}
}

// Handler は /mcp にツールサーバーを載せた http.Handler を返す
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/mcp", s)
	return mux
}

func (s *Server) searchFiles(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	query, err := stringArg(args, "query")
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return jsonResult(map[string]interface{}{"files": s.store.SearchFiles(query)})
}

func (s *Server) listFiles(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]interface{}{"files": s.store.ListFiles()})
}

func (s *Server) getFile(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	id, err := stringArg(args, "fileId")
	if err != nil {
		return errorResult(err.Error()), nil
	}
	f, ok := s.store.GetFile(id)
	if !ok {
		return errorResult(fmt.Sprintf("File not found: %s", id)), nil
	}
	return jsonResult(f)
}

func (s *Server) createFolder(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	name, err := stringArg(args, "name")
	if err != nil {
		return errorResult(err.Error()), nil
	}
	f := s.store.CreateFolder(name)
	return mcp.NewToolResultText(fmt.Sprintf("Successfully created folder \"%s\"\nID: %s\nLink: %s", f.Name, f.ID, f.WebViewLink)), nil
}

func (s *Server) listForms(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]interface{}{"forms": s.store.ListForms()})
}

func (s *Server) createForm(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	title, err := stringArg(args, "title")
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return jsonResult(s.store.CreateForm(title))
}

func (s *Server) listEmails(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]interface{}{"messages": s.store.ListEmails()})
}

func (s *Server) searchEmails(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	query, err := stringArg(args, "query")
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return jsonResult(map[string]interface{}{"messages": s.store.SearchEmails(query)})
}

func (s *Server) sendEmail(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	var fields [3]string
	for i, name := range []string{"to", "subject", "body"} {
		v, err := stringArg(args, name)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		fields[i] = v
	}
	if !strings.Contains(fields[0], "@") {
		return errorResult(fmt.Sprintf("invalid recipient: %s", fields[0])), nil
	}

	e := s.store.SendEmail(fields[0], fields[1], fields[2])
	return mcp.NewToolResultText(fmt.Sprintf("Successfully sent email to %s\nSubject: %s\nMessage ID: %s", e.To, e.Subject, e.ID)), nil
}

// stringArg は必須の文字列引数を取り出す
func stringArg(args map[string]interface{}, name string) (string, error) {
	v, ok := args[name].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("'%s' argument is required and must be a string", name)
	}
	return v, nil
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(msg)},
		IsError: true,
	}
}
