package routing

import (
	"regexp"
	"strings"

	"github.com/Nyukimin/mcpchat/internal/domain/routing"
)

// extractor は一致したテキストからフィールドを取り出す
type extractor func(text string) map[string]string

// rule は単一のルールを表す
type rule struct {
	name    string
	pattern *regexp.Regexp
	action  routing.Action
	extract extractor
}

// RuleDictionary は正規表現ベースのルール辞書実装。ルールは上から順に評価し、最初の一致で止まる
type RuleDictionary struct {
	domain routing.Domain
	rules  []rule
}

func newRuleDictionary(domain routing.Domain, rules ...rule) *RuleDictionary {
	return &RuleDictionary{domain: domain, rules: rules}
}

// Domain returns the service the dictionary classifies for.
func (d *RuleDictionary) Domain() routing.Domain {
	return d.domain
}

// RuleNames returns rule names in evaluation order.
func (d *RuleDictionary) RuleNames() []string {
	names := make([]string, 0, len(d.rules))
	for _, r := range d.rules {
		names = append(names, r.name)
	}
	return names
}

// Match はテキストをルールと照合
func (d *RuleDictionary) Match(text string) (routing.Intent, bool) {
	for _, r := range d.rules {
		if !r.pattern.MatchString(text) {
			continue
		}
		var fields map[string]string
		if r.extract != nil {
			fields = r.extract(text)
		}
		return routing.NewIntent(d.domain, r.action, fields, r.name), true
	}

	return routing.NewIntent(d.domain, routing.ActionUnknown, nil, ""), false
}

// quote characters accepted around extracted values, straight or curly
const (
	openQuote  = `["“'‘]`
	quotedBody = `([^"“”'‘’]+)`
	closeQuote = `["”'’]`
)

// quotedAnywhere captures the first quoted span in the text. The quotes must
// stand at word edges so an apostrophe such as "Bob's" does not open one.
var quotedAnywhere = regexp.MustCompile(`(?:^|\s)` + openQuote + quotedBody + closeQuote + `(?:$|[\s.,!?;:])`)

// firstCapture runs probes in order and returns the first non-empty capture.
func firstCapture(text string, probes []*regexp.Regexp) (string, bool) {
	for _, p := range probes {
		m := p.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		if v := clean(m[1]); v != "" {
			return v, true
		}
	}
	return "", false
}

func clean(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"“”'‘’`)
	s = strings.TrimRight(s, ".!?,; ")
	return strings.TrimSpace(s)
}

// fieldsOf drops empty values.
func fieldsOf(kv ...string) map[string]string {
	fields := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			fields[kv[i]] = kv[i+1]
		}
	}
	return fields
}
