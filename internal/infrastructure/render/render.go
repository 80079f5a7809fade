// Package render turns raw tool output into chat markdown.
//
// Dispatch is by shape: known server-formatted text is only link-rewritten,
// JSON is pretty-printed per recognized shape (file, form and email listings,
// detail and creation cards, generic code block), and anything else is
// treated as plain text with bare URLs turned into links. Rendering never
// fails: unexpected input degrades to a more generic branch.
package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/tidwall/pretty"
)

// DefaultMaxListEntries is how many entries a listing card shows before it
// appends a truncation notice.
const DefaultMaxListEntries = 15

// preformattedMarkers identify text a server already formatted for people.
var preformattedMarkers = []string{
	"Successfully created",
	"Successfully uploaded",
	"Successfully updated",
	"Successfully shared",
	"Successfully sent",
	"Successfully deleted",
	"Files found:",
	"Forms found:",
	"Emails found:",
}

var prettyOptions = &pretty.Options{Width: 0, Prefix: "", Indent: "  ", SortKeys: false}

// Markdown renders tool output. The zero value uses DefaultMaxListEntries.
type Markdown struct {
	MaxListEntries int
}

// Render renders raw with default settings.
func Render(raw string) string {
	return Markdown{}.Render(raw)
}

// Render returns markdown for raw. It never mutates its input and never fails.
func (m Markdown) Render(raw string) string {
	if IsPreformatted(raw) {
		return Linkify(raw)
	}

	value, ok := parseJSON(raw)
	if !ok {
		return Linkify(raw)
	}

	return m.renderJSON(value, raw)
}

// IsPreformatted reports whether raw contains a marker of server-formatted text.
func IsPreformatted(raw string) bool {
	for _, marker := range preformattedMarkers {
		if strings.Contains(raw, marker) {
			return true
		}
	}
	return false
}

func parseJSON(raw string) (interface{}, bool) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	// trailing garbage means this was not a single JSON document
	var extra interface{}
	if err := dec.Decode(&extra); err == nil || !errors.Is(err, io.EOF) {
		return nil, false
	}
	return v, true
}

func (m Markdown) renderJSON(value interface{}, raw string) string {
	obj, isObject := value.(map[string]interface{})
	if isObject {
		if files, ok := obj["files"].([]interface{}); ok {
			return m.fileListing(files)
		}
		if forms, ok := obj["forms"].([]interface{}); ok {
			return m.formListing(forms)
		}
		if messages, ok := obj["messages"].([]interface{}); ok {
			return m.emailListing(messages)
		}
		if present(obj, "id") && present(obj, "name") {
			return detailCard(obj)
		}
		if present(obj, "formId") && present(obj, "responderUri") {
			return createdFormCard(obj)
		}
	}

	return codeBlock(raw)
}

func codeBlock(raw string) string {
	formatted := bytes.TrimRight(pretty.PrettyOptions([]byte(strings.TrimSpace(raw)), prettyOptions), "\n")
	return "```json\n" + string(formatted) + "\n```"
}

func (m Markdown) limit() int {
	if m.MaxListEntries > 0 {
		return m.MaxListEntries
	}
	return DefaultMaxListEntries
}
