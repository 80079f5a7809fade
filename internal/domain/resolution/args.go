package resolution

import (
	"bytes"
	"encoding/json"
)

// Arg は抽出された1引数
type Arg struct {
	Name  string
	Value string
}

// Args は抽出順を保持した引数の集合
type Args struct {
	entries []Arg
}

// NewArgs は引数列からArgsを作成。同名は後勝ちで位置は最初のものを保持
func NewArgs(entries ...Arg) Args {
	var a Args
	for _, e := range entries {
		a = a.With(e.Name, e.Value)
	}
	return a
}

// With は引数を追加した新しいArgsを返す
func (a Args) With(name, value string) Args {
	out := Args{entries: make([]Arg, 0, len(a.entries)+1)}
	replaced := false
	for _, e := range a.entries {
		if e.Name == name {
			e.Value = value
			replaced = true
		}
		out.entries = append(out.entries, e)
	}
	if !replaced {
		out.entries = append(out.entries, Arg{Name: name, Value: value})
	}
	return out
}

// Get は名前で値を取得
func (a Args) Get(name string) (string, bool) {
	for _, e := range a.entries {
		if e.Name == name {
			return e.Value, true
		}
	}
	return "", false
}

// Has は値が設定済みかを判定
func (a Args) Has(name string) bool {
	_, ok := a.Get(name)
	return ok
}

// Len は引数の数を返す
func (a Args) Len() int {
	return len(a.entries)
}

// Entries は抽出順の引数を返す
func (a Args) Entries() []Arg {
	return append([]Arg(nil), a.entries...)
}

// Names は抽出順の引数名を返す
func (a Args) Names() []string {
	names := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		names = append(names, e.Name)
	}
	return names
}

// Map は tools/call に渡す arguments を作成
func (a Args) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(a.entries))
	for _, e := range a.entries {
		m[e.Name] = e.Value
	}
	return m
}

// MarshalJSON は抽出順のままオブジェクトとして出力
func (a Args) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range a.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
