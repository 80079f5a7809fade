package resolution

import (
	"math"
	"strings"
	"unicode"

	"github.com/Nyukimin/mcpchat/internal/domain/tool"
)

// overlapRatio is the share of a tool's name words that must appear in the
// input for the word-overlap rule to select it.
const overlapRatio = 0.7

// Resolve は発話をカタログ中のツールに解決する純粋関数
//
// ツールはカタログ順に1つずつ評価し、各ツールについて前方一致規則→単語重複規則の順に試す。
// 最初にどちらかを満たしたツールを採用し、以降のツールは見ない（スコアリングはしない）。
func Resolve(utterance string, tools []tool.Descriptor) MatchResult {
	original := strings.TrimSpace(utterance)
	normalized := strings.ToLower(original)
	inputWords := wordSet(normalized)

	for _, d := range tools {
		if d.IsZero() {
			continue
		}
		if result, ok := matchPrefix(d, original, normalized); ok {
			return result
		}
		if matchWordOverlap(d, inputWords) {
			return MatchResult{
				Tool:            d,
				Args:            Args{},
				MissingRequired: missingFrom(d.Schema().Required(), Args{}),
				Rule:            RuleWordOverlap,
			}
		}
	}

	return NoMatch()
}

// matchPrefix は完全一致または「名前 + 空白」で始まるかを判定し、残りの文字列から引数を抽出する
// 完全一致の場合は抽出を行わない
func matchPrefix(d tool.Descriptor, original, normalized string) (MatchResult, bool) {
	spaced := d.SpacedName()
	flat := d.FlatName()

	prefixLen := -1
	switch {
	case normalized == spaced || normalized == flat:
		prefixLen = len(normalized)
	case strings.HasPrefix(normalized, spaced+" "):
		prefixLen = len(spaced) + 1
	case strings.HasPrefix(normalized, flat+" "):
		prefixLen = len(flat) + 1
	}
	if prefixLen < 0 {
		return MatchResult{}, false
	}

	rest := strings.TrimSpace(cutLoweredPrefix(original, prefixLen))
	args := extractArgument(d.Schema(), rest)

	return MatchResult{
		Tool:            d,
		Args:            args,
		MissingRequired: missingFrom(d.Schema().Required(), args),
		Rule:            RulePrefix,
	}, true
}

// extractArgument は残りの文字列を1つの string プロパティに割り当てる
// 優先順: 宣言順で最初の「必須かつ string」→ 最初の string → 割り当てなし（破棄）
func extractArgument(schema tool.Schema, rest string) Args {
	if rest == "" || !schema.HasProperties() {
		return Args{}
	}

	if p, ok := schema.FirstRequiredString(); ok {
		return NewArgs(Arg{Name: p.Name, Value: rest})
	}
	if p, ok := schema.FirstString(); ok {
		return NewArgs(Arg{Name: p.Name, Value: rest})
	}
	return Args{}
}

// matchWordOverlap はツール名の単語の7割以上（切り上げ）が入力に含まれるかを判定
func matchWordOverlap(d tool.Descriptor, inputWords map[string]struct{}) bool {
	toolWords := strings.Fields(d.SpacedName())
	if len(toolWords) == 0 {
		return false
	}

	hits := 0
	for _, w := range toolWords {
		if _, ok := inputWords[w]; ok {
			hits++
		}
	}

	threshold := int(math.Ceil(overlapRatio * float64(len(toolWords))))
	return hits >= threshold
}

func wordSet(s string) map[string]struct{} {
	words := strings.Fields(s)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// cutLoweredPrefix は小文字化後の先頭 n バイトに相当する部分を original から取り除く
// 大文字小文字でバイト長が変わる文字があってもユーザーの表記を保ったまま残りを返す
func cutLoweredPrefix(original string, n int) string {
	consumed := 0
	for i, r := range original {
		if consumed >= n {
			return original[i:]
		}
		consumed += len(string(unicode.ToLower(r)))
	}
	return ""
}
