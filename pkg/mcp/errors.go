package mcp

import "fmt"

// TransportError reports a non-2xx HTTP response. The body is kept verbatim
// so callers can decide between retry and re-authentication.
type TransportError struct {
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http status: %d", e.StatusCode)
	}
	return fmt.Sprintf("http status: %d: %s", e.StatusCode, e.Body)
}

// RPCError reports an error object inside a successful HTTP response.
// Message is the server-supplied text, unmodified.
type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("MCP error: %s", e.Message)
}
