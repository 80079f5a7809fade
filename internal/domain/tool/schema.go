package tool

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// Kind はプロパティ型の分類。マッチャーが区別するのは string かそれ以外のみ
type Kind string

const (
	KindString Kind = "string"
	KindOther  Kind = "other"
)

// Property は入力スキーマの1プロパティ
type Property struct {
	Name        string
	Kind        Kind
	Type        string // 宣言された JSON Schema の type（表示用）
	Description string
}

// Schema は宣言順を保持した入力スキーマ
type Schema struct {
	properties []Property
	required   []string
}

// NewSchema は新しいSchemaを作成
func NewSchema(properties []Property, required []string) Schema {
	return Schema{
		properties: append([]Property(nil), properties...),
		required:   append([]string(nil), required...),
	}
}

// ParseSchema は生の inputSchema を宣言順のまま Schema に変換
// 空の入力は空のスキーマとして扱う
func ParseSchema(raw []byte) (Schema, error) {
	if len(raw) == 0 {
		return Schema{}, nil
	}
	if !gjson.ValidBytes(raw) {
		return Schema{}, fmt.Errorf("invalid inputSchema JSON")
	}

	root := gjson.ParseBytes(raw)
	if root.Type == gjson.Null {
		return Schema{}, nil
	}
	if !root.IsObject() {
		return Schema{}, fmt.Errorf("inputSchema must be an object")
	}

	var props []Property
	root.Get("properties").ForEach(func(key, value gjson.Result) bool {
		typ := value.Get("type").String()
		kind := KindOther
		if typ == "string" {
			kind = KindString
		}
		props = append(props, Property{
			Name:        key.String(),
			Kind:        kind,
			Type:        typ,
			Description: value.Get("description").String(),
		})
		return true
	})

	var required []string
	for _, r := range root.Get("required").Array() {
		if r.Type == gjson.String {
			required = append(required, r.String())
		}
	}

	return Schema{properties: props, required: required}, nil
}

// Properties は宣言順のプロパティを返す
func (s Schema) Properties() []Property {
	return append([]Property(nil), s.properties...)
}

// Required は必須プロパティ名を宣言順で返す
func (s Schema) Required() []string {
	return append([]string(nil), s.required...)
}

// HasProperties はプロパティが1つ以上宣言されているかを判定
func (s Schema) HasProperties() bool {
	return len(s.properties) > 0
}

// Property は名前でプロパティを検索
func (s Schema) Property(name string) (Property, bool) {
	for _, p := range s.properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// IsRequired は指定プロパティが必須かを判定
func (s Schema) IsRequired(name string) bool {
	for _, r := range s.required {
		if r == name {
			return true
		}
	}
	return false
}

// FirstRequiredString は宣言順で最初の「必須かつ string」のプロパティを返す
func (s Schema) FirstRequiredString() (Property, bool) {
	for _, p := range s.properties {
		if p.Kind == KindString && s.IsRequired(p.Name) {
			return p, true
		}
	}
	return Property{}, false
}

// FirstString は宣言順で最初の string プロパティを返す（必須かどうかは問わない）
func (s Schema) FirstString() (Property, bool) {
	for _, p := range s.properties {
		if p.Kind == KindString {
			return p, true
		}
	}
	return Property{}, false
}
