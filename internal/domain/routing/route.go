package routing

// Domain は意図の対象となるサービス
type Domain string

// ドメインの定数定義
const (
	DomainDrive Domain = "drive"
	DomainGmail Domain = "gmail"
	DomainForms Domain = "forms"
)

// String はDomainの文字列表現を返す
func (d Domain) String() string {
	return string(d)
}

// Action はドメイン内の操作を表す閉じた列挙
type Action string

const (
	ActionUnknown      Action = ""
	ActionSearch       Action = "search"        // Drive / Gmail
	ActionList         Action = "list"          // Drive / Gmail / Forms
	ActionCreateFolder Action = "create_folder" // Drive
	ActionSend         Action = "send"          // Gmail
	ActionCreate       Action = "create"        // Forms
)

// String はActionの文字列表現を返す
func (a Action) String() string {
	if a == ActionUnknown {
		return "unknown"
	}
	return string(a)
}

// Field names extracted by the parsers.
const (
	FieldQuery   = "query"
	FieldName    = "name"
	FieldTo      = "to"
	FieldSubject = "subject"
	FieldBody    = "body"
	FieldTitle   = "title"
)

type toolKey struct {
	domain Domain
	action Action
}

// conventionalTools maps an intent to the tool name servers conventionally
// expose for it.
var conventionalTools = map[toolKey]string{
	{DomainDrive, ActionSearch}:       "search_files",
	{DomainDrive, ActionList}:         "list_files",
	{DomainDrive, ActionCreateFolder}: "create_folder",
	{DomainGmail, ActionSend}:         "send_email",
	{DomainGmail, ActionList}:         "list_emails",
	{DomainGmail, ActionSearch}:       "search_emails",
	{DomainForms, ActionCreate}:       "create_form",
	{DomainForms, ActionList}:         "list_forms",
}

// Intent は意図解析の結果を表す
type Intent struct {
	Domain Domain
	Action Action
	Fields map[string]string // 抽出できたフィールドのみ
	Rule   string            // 一致したルール名
}

// NewIntent は新しいIntentを作成
func NewIntent(domain Domain, action Action, fields map[string]string, rule string) Intent {
	if fields == nil {
		fields = map[string]string{}
	}
	return Intent{
		Domain: domain,
		Action: action,
		Fields: fields,
		Rule:   rule,
	}
}

// Known はActionが特定できたかを判定
func (i Intent) Known() bool {
	return i.Action != ActionUnknown
}

// Field returns an extracted field and whether it was present.
func (i Intent) Field(name string) (string, bool) {
	v, ok := i.Fields[name]
	return v, ok
}

// ToolName returns the conventional tool name for the intent, or "" when
// the intent is unknown.
func (i Intent) ToolName() string {
	return conventionalTools[toolKey{i.Domain, i.Action}]
}
