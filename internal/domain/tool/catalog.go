package tool

import "time"

// Catalog は1サーバーから取得したツール一覧
// 順序には意味がある（マッチャーは先頭から評価し、最初に一致したものを採用する）
type Catalog struct {
	server    string
	tools     []Descriptor
	fetchedAt time.Time
}

// NewCatalog は新しいCatalogを作成
func NewCatalog(server string, tools []Descriptor, fetchedAt time.Time) *Catalog {
	return &Catalog{
		server:    server,
		tools:     append([]Descriptor(nil), tools...),
		fetchedAt: fetchedAt,
	}
}

// Server はサーバー名を返す
func (c *Catalog) Server() string {
	return c.server
}

// Tools はカタログ順のツール一覧を返す
func (c *Catalog) Tools() []Descriptor {
	if c == nil {
		return nil
	}
	return append([]Descriptor(nil), c.tools...)
}

// Len はツール数を返す
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.tools)
}

// FetchedAt は取得時刻を返す
func (c *Catalog) FetchedAt() time.Time {
	return c.fetchedAt
}

// Find は名前でツールを検索
func (c *Catalog) Find(name string) (Descriptor, bool) {
	if c == nil {
		return Descriptor{}, false
	}
	for _, d := range c.tools {
		if d.name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}
