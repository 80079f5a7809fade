// Package mcp implements a minimal HTTP client for MCP tool servers: one
// JSON-RPC envelope per POST, no streaming, no retries.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Nyukimin/mcpchat/pkg/auth"
	"github.com/Nyukimin/mcpchat/pkg/logger"
)

// maxToolPages bounds tools/list pagination against servers that never stop
// returning a cursor.
const maxToolPages = 50

// Client は MCP クライアント
type Client struct {
	endpoint    string
	origin      string
	credentials auth.CredentialSource
	httpClient  *http.Client
	ids         Sequence
}

// Option configures a Client.
type Option func(*Client)

// WithOrigin sets the Origin header sent with every request.
func WithOrigin(origin string) Option {
	return func(c *Client) { c.origin = origin }
}

// WithCredentials sets the bearer credential source.
func WithCredentials(src auth.CredentialSource) Option {
	return func(c *Client) { c.credentials = src }
}

// WithHTTPClient replaces the underlying HTTP client. A nil client keeps the default.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout. A caller-supplied client is
// copied, not modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := http.Client{}
		if c.httpClient != nil {
			hc = *c.httpClient
		}
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// NewClient creates a client posting to endpoint.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:    endpoint,
		credentials: auth.Static(""),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the URL requests are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// LastID returns the id of the most recent request built by this client.
func (c *Client) LastID() int64 {
	return c.ids.Last()
}

// Call sends one request and returns the raw result. Non-2xx statuses yield
// *TransportError; an error object in the envelope yields *RPCError.
func (c *Client) Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	req := Request{
		JSONRPC: JSONRPCVersion,
		ID:      c.ids.Next(),
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.origin != "" {
		httpReq.Header.Set("Origin", c.origin)
	}

	token, err := c.credentials.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("credential: %w", err)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	started := time.Now()
	logger.DebugCF("mcp.client", "request sent", map[string]interface{}{
		"endpoint": c.endpoint,
		"method":   method,
		"id":       req.ID,
	})

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		logger.WarnCF("mcp.client", "request failed (no response received)", map[string]interface{}{
			"endpoint": c.endpoint,
			"method":   method,
			"id":       req.ID,
			"error":    err.Error(),
		})
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		logger.WarnCF("mcp.client", "response non-2xx", map[string]interface{}{
			"endpoint": c.endpoint,
			"method":   method,
			"id":       req.ID,
			"status":   httpResp.StatusCode,
		})
		return nil, &TransportError{StatusCode: httpResp.StatusCode, Body: string(respBody)}
	}

	var mcpResp Response
	if err := json.Unmarshal(respBody, &mcpResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	logger.DebugCF("mcp.client", "response received", map[string]interface{}{
		"method":      method,
		"id":          req.ID,
		"duration_ms": time.Since(started).Milliseconds(),
	})

	if mcpResp.Error != nil {
		return nil, &RPCError{Code: mcpResp.Error.Code, Message: mcpResp.Error.Message}
	}
	if len(mcpResp.Result) == 0 {
		return nil, fmt.Errorf("malformed response for %s: neither result nor error", method)
	}

	return mcpResp.Result, nil
}

// Initialize performs the MCP handshake. Servers that accept calls without
// it can be used without ever calling Initialize.
func (c *Client) Initialize(ctx context.Context, info ClientInfo) (*InitializeResult, error) {
	raw, err := c.Call(ctx, MethodInitialize, InitializeParams{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    map[string]interface{}{},
		ClientInfo:      info,
	})
	if err != nil {
		return nil, err
	}

	var result InitializeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("unmarshal initialize result: %w", err)
	}
	return &result, nil
}

// ListTools は利用可能なツール一覧を取得
func (c *Client) ListTools(ctx context.Context) ([]Tool, error) {
	var (
		tools  []Tool
		cursor string
	)

	for page := 0; page < maxToolPages; page++ {
		var params interface{}
		if cursor != "" {
			params = map[string]interface{}{"cursor": cursor}
		}

		raw, err := c.Call(ctx, MethodToolsList, params)
		if err != nil {
			return nil, err
		}

		var result ToolListResponse
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, fmt.Errorf("unmarshal tools: %w", err)
		}

		tools = append(tools, result.Tools...)
		if result.NextCursor == "" || result.NextCursor == cursor {
			return tools, nil
		}
		cursor = result.NextCursor
	}

	return tools, nil
}

// CallTool は指定されたツールを呼び出す
func (c *Client) CallTool(ctx context.Context, name string, args map[string]interface{}) (*CallToolResult, error) {
	if args == nil {
		args = map[string]interface{}{}
	}

	raw, err := c.Call(ctx, MethodToolsCall, ToolCallRequest{Name: name, Arguments: args})
	if err != nil {
		return nil, err
	}

	var result CallToolResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("unmarshal tool response: %w", err)
	}
	return &result, nil
}

// Ping は MCP サーバーのヘルスチェック
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Call(ctx, MethodPing, nil)
	return err
}
