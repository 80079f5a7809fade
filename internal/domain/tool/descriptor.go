package tool

import (
	"fmt"
	"strings"
)

// Descriptor はツールサーバーが公開する1ツールのメタデータ
// 取得後は不変。再ディスカバリー時はカタログごと置き換える
type Descriptor struct {
	name        string
	description string
	schema      Schema
}

// NewDescriptor は新しいDescriptorを作成
func NewDescriptor(name, description string, schema Schema) Descriptor {
	return Descriptor{
		name:        name,
		description: description,
		schema:      schema,
	}
}

// ParseDescriptor は生の inputSchema からDescriptorを作成
func ParseDescriptor(name, description string, rawSchema []byte) (Descriptor, error) {
	schema, err := ParseSchema(rawSchema)
	if err != nil {
		return Descriptor{}, fmt.Errorf("tool %q: %w", name, err)
	}
	return NewDescriptor(name, description, schema), nil
}

// Name はツール名を返す
func (d Descriptor) Name() string {
	return d.name
}

// Description は説明を返す
func (d Descriptor) Description() string {
	return d.description
}

// Schema は入力スキーマを返す
func (d Descriptor) Schema() Schema {
	return d.schema
}

// SpacedName はアンダースコアを空白に置き換えた小文字名を返す
// 例: search_files -> "search files"
func (d Descriptor) SpacedName() string {
	return strings.ToLower(strings.ReplaceAll(d.name, "_", " "))
}

// FlatName は小文字化したツール名を返す
func (d Descriptor) FlatName() string {
	return strings.ToLower(d.name)
}

// IsZero はDescriptorがゼロ値かを判定
func (d Descriptor) IsZero() bool {
	return d.name == ""
}
