package render

import (
	"regexp"
	"strings"
)

var urlPattern = regexp.MustCompile(`https?://[^\s<>"'\[\]]+`)

// trailingPunct is stripped from the end of a detected URL so that a link at
// the end of a sentence does not swallow the full stop.
const trailingPunct = ".,;:!?"

// labelRules is checked top to bottom against the lowercased URL. The
// generic Drive rule only applies when no Forms/Docs/Sheets path matched.
// Other docs.google.com paths (slides, drawings) get the plain link label.
var labelRules = []struct {
	substrs []string
	label   string
}{
	{[]string{"docs.google.com/forms", "forms.gle/"}, "Open Form"},
	{[]string{"docs.google.com/document"}, "Open Document"},
	{[]string{"docs.google.com/spreadsheets"}, "Open Spreadsheet"},
	{[]string{"drive.google.com"}, "Open in Drive"},
}

// LinkLabel picks the link text for a URL.
func LinkLabel(url string) string {
	u := strings.ToLower(url)
	for _, r := range labelRules {
		for _, s := range r.substrs {
			if strings.Contains(u, s) {
				return r.label
			}
		}
	}
	return "Open Link"
}

// Link formats a markdown link with the label chosen by LinkLabel.
func Link(url string) string {
	return "[" + LinkLabel(url) + "](" + url + ")"
}

// Linkify rewrites bare http(s) URLs into markdown links. URLs already
// preceded by "[" or "](" are left alone, so Linkify(Linkify(s)) == Linkify(s).
func Linkify(text string) string {
	matches := urlPattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text) + len(matches)*16)

	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		end = start + len(trimURL(text[start:end]))
		if end <= start || insideLink(text, start) {
			continue
		}

		b.WriteString(text[last:start])
		b.WriteString(Link(text[start:end]))
		last = end
	}
	b.WriteString(text[last:])

	return b.String()
}

// trimURL drops trailing sentence punctuation and any closing parenthesis
// that has no opening partner inside the URL, e.g. "(see https://x.y/a)".
func trimURL(url string) string {
	for url != "" {
		last := url[len(url)-1]
		switch {
		case strings.IndexByte(trailingPunct, last) >= 0:
			url = url[:len(url)-1]
		case last == ')' && strings.Count(url, "(") < strings.Count(url, ")"):
			url = url[:len(url)-1]
		default:
			return url
		}
	}
	return url
}

func insideLink(text string, start int) bool {
	if start >= 1 && text[start-1] == '[' {
		return true
	}
	return start >= 2 && text[start-2:start] == "]("
}
