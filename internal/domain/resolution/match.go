package resolution

import "github.com/Nyukimin/mcpchat/internal/domain/tool"

// Rule はどの規則でツールが選ばれたかを表す
type Rule string

const (
	RuleNone        Rule = ""
	RulePrefix      Rule = "prefix"
	RuleWordOverlap Rule = "word_overlap"
	RuleIntent      Rule = "intent"
)

// MatchResult は1発話の解決結果。発話ごとに生成され、永続化されない
// 「ツールなし」「必須引数不足」もエラーではなく正常な結果として返す
type MatchResult struct {
	Tool            tool.Descriptor
	Args            Args
	MissingRequired []string
	Rule            Rule
}

// NoMatch は何も一致しなかった場合の結果
func NoMatch() MatchResult {
	return MatchResult{MissingRequired: []string{}}
}

// Found はツールが選ばれたかを判定
func (m MatchResult) Found() bool {
	return !m.Tool.IsZero()
}

// Ready はツールを即座に呼び出せるか（必須引数が揃っているか）を判定
func (m MatchResult) Ready() bool {
	return m.Found() && len(m.MissingRequired) == 0
}

// missingFrom は required のうち args に値がないものを required の順序で返す
func missingFrom(required []string, args Args) []string {
	missing := make([]string, 0, len(required))
	for _, name := range required {
		if !args.Has(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Complete は既定の引数で結果を作成し、不足している必須引数を計算する
// ルール以外の経路（インテント解析など）で選ばれたツール用
func Complete(d tool.Descriptor, args Args, rule Rule) MatchResult {
	return MatchResult{
		Tool:            d,
		Args:            args,
		MissingRequired: missingFrom(d.Schema().Required(), args),
		Rule:            rule,
	}
}
