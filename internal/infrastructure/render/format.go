package render

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Icons keyed by what a mimeType says about the item.
const (
	IconFolder       = "📁"
	IconDocument     = "📝"
	IconSpreadsheet  = "📊"
	IconPresentation = "📽️"
	IconImage        = "🖼️"
	IconPDF          = "📕"
	IconVideo        = "🎬"
	IconAudio        = "🎵"
	IconForm         = "📋"
	IconGeneric      = "📄"
	IconEmail        = "📧"
	IconSuccess      = "✅"
)

// iconRules is checked top to bottom; the first substring found in the
// mimeType wins.
var iconRules = []struct {
	substr string
	icon   string
}{
	{"folder", IconFolder},
	{"document", IconDocument},
	{"spreadsheet", IconSpreadsheet},
	{"presentation", IconPresentation},
	{"image", IconImage},
	{"pdf", IconPDF},
	{"video", IconVideo},
	{"audio", IconAudio},
	{"form", IconForm},
}

// IconFor returns the icon for a mimeType.
func IconFor(mimeType string) string {
	mt := strings.ToLower(mimeType)
	for _, r := range iconRules {
		if strings.Contains(mt, r.substr) {
			return r.icon
		}
	}
	return IconGeneric
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatSize scales a byte count by powers of 1024 and rounds to at most two
// decimals: 0 -> "0 Bytes", 1536 -> "1.5 KB".
func FormatSize(bytes float64) string {
	if bytes == 0 || math.IsNaN(bytes) || math.IsInf(bytes, 0) {
		return "0 Bytes"
	}

	i := int(math.Floor(math.Log(math.Abs(bytes)) / math.Log(1024)))
	if i < 0 {
		i = 0
	}
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}

	value := math.Round(bytes/math.Pow(1024, float64(i))*100) / 100
	return strconv.FormatFloat(value, 'f', -1, 64) + " " + sizeUnits[i]
}

// FormatDate renders an RFC 3339 timestamp as "Jan 2, 2006". Anything it
// cannot parse is returned unchanged.
func FormatDate(s string) string {
	if s == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("Jan 2, 2006")
		}
	}
	return s
}

// getString reads a loosely typed field as text.
func getString(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	switch v := m[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

// getNumber reads a numeric field that may be encoded as a string, as Drive
// does for "size".
func getNumber(m map[string]interface{}, key string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	switch v := m[key].(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

func getObject(m map[string]interface{}, key string) map[string]interface{} {
	if m == nil {
		return nil
	}
	obj, _ := m[key].(map[string]interface{})
	return obj
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// present mirrors a truthiness check: missing, null, "", false and 0 are absent.
func present(m map[string]interface{}, key string) bool {
	switch v := m[key].(type) {
	case nil:
		return false
	case string:
		return v != ""
	case bool:
		return v
	case json.Number:
		f, err := v.Float64()
		return err != nil || f != 0
	case float64:
		return v != 0
	}
	return true
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
