package routing

import (
	"regexp"
	"strings"

	"github.com/Nyukimin/mcpchat/internal/domain/routing"
)

var (
	emailAddress = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

	gmailSend    = regexp.MustCompile(`(?i)\b(?:send|compose|write|draft)\b.*(?:\b(?:e-?mail|mail|message|note)\b|@)`)
	gmailEmailTo = regexp.MustCompile(`(?i)^\s*e-?mail\s+\S+@\S+`)
	gmailSearch  = regexp.MustCompile(`(?i)\b(?:search|find|look\s+for)\b.*\b(?:e-?mails?|mails?|inbox|messages?)\b`)
	gmailList    = regexp.MustCompile(`(?i)\b(?:list|show|check|read|get|display|see|view)\b.*\b(?:e-?mails?|inbox|mail|messages)\b`)
	gmailInbox   = regexp.MustCompile(`(?i)^\s*(?:my\s+)?inbox\s*[?.!]*\s*$`)

	// subjectEnd stops an unquoted subject where the body starts
	subjectEnd = `(?:,?\s+(?:(?:saying|that\s+says|says|with\s+(?:the\s+)?(?:body|message)|and\s+(?:the\s+)?(?:body|message))\b|(?:body|message)\s*:)|$)`

	subjectProbes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bsubject(?:\s+line)?\s*(?:is|of|:)?\s*` + openQuote + quotedBody + closeQuote),
		regexp.MustCompile(`(?i)\babout\s+` + openQuote + quotedBody + closeQuote),
		regexp.MustCompile(`(?i)\bsubject(?:\s+line)?\s*(?:is|of|:)?\s+(.+?)` + subjectEnd),
		regexp.MustCompile(`(?i)\babout\s+(.+?)` + subjectEnd),
	}

	// quoted forms come first: a quoted message wins over a trailing "saying ..."
	bodyProbes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:message|body)\s*(?:is|:)?\s*` + openQuote + quotedBody + closeQuote),
		regexp.MustCompile(`(?i)\b(?:saying|that\s+says|says)\s*:?\s*` + openQuote + quotedBody + closeQuote),
		regexp.MustCompile(`(?i)\b(?:saying|that\s+says|says)\s*:?\s+(.+)$`),
		regexp.MustCompile(`(?i)\b(?:message|body)\s*(?:is|:)\s*(.+)$`),
	}

	mailSenderProbe  = regexp.MustCompile(`(?i)\bfrom\s+([^\s,]+)`)
	mailSenderClause = regexp.MustCompile(`(?i)\s+from\s+[^\s,]+`)
	mailTrailer      = regexp.MustCompile(`(?i)\s+(?:in|from)\s+(?:my\s+)?(?:inbox|gmail|mail)\b.*$`)

	mailTopicProbes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:about|regarding|containing|mentioning|with\s+subject)\s+(.+)$`),
		regexp.MustCompile(`(?i)\b(?:e-?mails?|mails?|messages?|inbox)\s+for\s+(.+)$`),
	}
)

// words after "from" that name a mailbox rather than a sender
var notSenders = map[string]bool{"my": true, "the": true, "inbox": true, "gmail": true}

// NewGmailDictionary は Gmail 向けのルール辞書を作成
func NewGmailDictionary() *RuleDictionary {
	return newRuleDictionary(routing.DomainGmail,
		rule{name: "gmail.send", pattern: gmailSend, action: routing.ActionSend, extract: extractEmail},
		rule{name: "gmail.send.email_to", pattern: gmailEmailTo, action: routing.ActionSend, extract: extractEmail},
		rule{name: "gmail.search", pattern: gmailSearch, action: routing.ActionSearch, extract: extractMailQuery},
		rule{name: "gmail.list", pattern: gmailList, action: routing.ActionList},
		rule{name: "gmail.list.inbox", pattern: gmailInbox, action: routing.ActionList},
	)
}

func extractEmail(text string) map[string]string {
	to := emailAddress.FindString(text)
	subject, _ := firstCapture(text, subjectProbes)
	body, _ := firstCapture(text, bodyProbes)
	return fieldsOf(routing.FieldTo, to, routing.FieldSubject, subject, routing.FieldBody, body)
}

// extractMailQuery builds a Gmail search query: a quoted phrase as is,
// otherwise "from:<sender>" and the topic joined by a space.
func extractMailQuery(text string) map[string]string {
	if m := quotedAnywhere.FindStringSubmatch(text); len(m) > 1 {
		if q := clean(m[1]); q != "" {
			return fieldsOf(routing.FieldQuery, q)
		}
	}

	var parts []string
	if m := mailSenderProbe.FindStringSubmatch(text); len(m) > 1 && !notSenders[strings.ToLower(m[1])] {
		parts = append(parts, "from:"+clean(m[1]))
	}
	rest := mailSenderClause.ReplaceAllString(mailTrailer.ReplaceAllString(text, ""), "")
	if topic, ok := firstCapture(rest, mailTopicProbes); ok {
		parts = append(parts, topic)
	}
	return fieldsOf(routing.FieldQuery, strings.Join(parts, " "))
}
