package tool

import "context"

// CatalogRepository はカタログのスナップショット永続化の抽象化
type CatalogRepository interface {
	Save(ctx context.Context, catalog *Catalog) error
	Load(ctx context.Context, server string) (*Catalog, error)
	Delete(ctx context.Context, server string) error
	Exists(ctx context.Context, server string) (bool, error)
}
