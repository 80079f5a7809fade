package routing

import (
	"regexp"

	"github.com/Nyukimin/mcpchat/internal/domain/routing"
)

var (
	formsCreate = regexp.MustCompile(`(?i)\b(?:create|make|build|start|new|set\s+up|generate)\b.*\b(?:form|survey|questionnaire|quiz|poll)\b`)
	formsList   = regexp.MustCompile(`(?i)\b(?:list|show|get|display|see|view|what\s+are)\b.*\b(?:forms|surveys)\b`)
	formsMine   = regexp.MustCompile(`(?i)^\s*(?:my\s+)?(?:forms|surveys)\s*[?.!]*\s*$`)

	// titled/called/named in quotes, then unquoted, then looser fallbacks
	titleProbes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:titled|called|named)\s*:?\s*` + openQuote + quotedBody + closeQuote),
		regexp.MustCompile(`(?i)\b(?:titled|called|named)\s*:?\s+(.+)$`),
		regexp.MustCompile(`(?i)\btitle\s*(?:is|:)?\s*` + openQuote + quotedBody + closeQuote),
		regexp.MustCompile(`(?i)\btitle\s*(?:is|:)\s*(.+)$`),
		quotedAnywhere,
		regexp.MustCompile(`(?i)\b(?:form|survey|questionnaire|quiz|poll)\s+(?:for|about|on)\s+(.+)$`),
	}
)

// NewFormsDictionary は Forms 向けのルール辞書を作成
func NewFormsDictionary() *RuleDictionary {
	return newRuleDictionary(routing.DomainForms,
		rule{name: "forms.create", pattern: formsCreate, action: routing.ActionCreate, extract: extractFormTitle},
		rule{name: "forms.list", pattern: formsList, action: routing.ActionList},
		rule{name: "forms.list.mine", pattern: formsMine, action: routing.ActionList},
	)
}

func extractFormTitle(text string) map[string]string {
	title, _ := firstCapture(text, titleProbes)
	return fieldsOf(routing.FieldTitle, title)
}
