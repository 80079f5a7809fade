package mcp

import (
	"fmt"
	"strings"
)

// Text flattens the result into the string handed to the renderer: text
// fragments verbatim, every other fragment as "[Binary data: <mimeType>]".
// A fragment without a mimeType is labelled by its type. Payloads are never
// decoded.
func (r *CallToolResult) Text() string {
	if r == nil {
		return ""
	}

	parts := make([]string, 0, len(r.Content))
	for _, c := range r.Content {
		if c.Type == "text" {
			parts = append(parts, c.Text)
			continue
		}
		label := c.MimeType
		if label == "" {
			label = c.Type
		}
		parts = append(parts, fmt.Sprintf("[Binary data: %s]", label))
	}
	return strings.Join(parts, "\n")
}
