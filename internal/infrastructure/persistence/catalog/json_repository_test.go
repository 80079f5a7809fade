package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Nyukimin/mcpchat/internal/domain/tool"
)

func sampleCatalog(t *testing.T, server string) *tool.Catalog {
	t.Helper()
	search, err := tool.ParseDescriptor("search_files", "Search Drive", []byte(`{
		"type":"object",
		"properties":{
			"query":{"type":"string","description":"Search text"},
			"pageSize":{"type":"integer"},
			"folder":{"type":"string"}
		},
		"required":["query"]
	}`))
	if err != nil {
		t.Fatalf("ParseDescriptor failed: %v", err)
	}
	list, err := tool.ParseDescriptor("list_files", "", nil)
	if err != nil {
		t.Fatalf("ParseDescriptor failed: %v", err)
	}
	fetched := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	return tool.NewCatalog(server, []tool.Descriptor{search, list}, fetched)
}

func TestJSONCatalogRepository_SaveAndLoad(t *testing.T) {
	repo := NewJSONCatalogRepository(filepath.Join(t.TempDir(), "catalogs"))
	original := sampleCatalog(t, "drive")

	if err := repo.Save(context.Background(), original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := repo.Load(context.Background(), "drive")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Server() != "drive" {
		t.Errorf("Expected server 'drive', got '%s'", loaded.Server())
	}
	if !loaded.FetchedAt().Equal(original.FetchedAt()) {
		t.Errorf("Expected fetchedAt %v, got %v", original.FetchedAt(), loaded.FetchedAt())
	}
	if loaded.Len() != 2 {
		t.Fatalf("Expected 2 tools, got %d", loaded.Len())
	}

	tools := loaded.Tools()
	if tools[0].Name() != "search_files" || tools[1].Name() != "list_files" {
		t.Errorf("Catalog order not preserved: %s, %s", tools[0].Name(), tools[1].Name())
	}

	props := tools[0].Schema().Properties()
	wantOrder := []string{"query", "pageSize", "folder"}
	for i, name := range wantOrder {
		if props[i].Name != name {
			t.Errorf("Property %d: expected '%s', got '%s'", i, name, props[i].Name)
		}
	}
	if props[0].Kind != tool.KindString || props[1].Kind != tool.KindOther {
		t.Errorf("Property kinds not restored: %s, %s", props[0].Kind, props[1].Kind)
	}
	if props[0].Description != "Search text" {
		t.Errorf("Expected description 'Search text', got '%s'", props[0].Description)
	}

	first, ok := tools[0].Schema().FirstRequiredString()
	if !ok || first.Name != "query" {
		t.Errorf("Expected first required string 'query', got '%s'", first.Name)
	}
	if tools[1].Schema().HasProperties() {
		t.Error("list_files should have no properties")
	}
}

func TestJSONCatalogRepository_SaveOverwrites(t *testing.T) {
	repo := NewJSONCatalogRepository(t.TempDir())

	if err := repo.Save(context.Background(), sampleCatalog(t, "drive")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := repo.Save(context.Background(), tool.NewCatalog("drive", nil, time.Now())); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := repo.Load(context.Background(), "drive")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Len() != 0 {
		t.Errorf("Expected empty catalog after overwrite, got %d tools", loaded.Len())
	}
}

func TestJSONCatalogRepository_LoadNotFound(t *testing.T) {
	repo := NewJSONCatalogRepository(t.TempDir())

	_, err := repo.Load(context.Background(), "missing")
	if !errors.Is(err, ErrCatalogNotFound) {
		t.Errorf("Expected ErrCatalogNotFound, got %v", err)
	}
}

func TestJSONCatalogRepository_LoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "drive.json"), []byte("{not json"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	_, err := NewJSONCatalogRepository(dir).Load(context.Background(), "drive")
	if err == nil {
		t.Fatal("Expected error for corrupt snapshot")
	}
	if errors.Is(err, ErrCatalogNotFound) {
		t.Error("Corrupt snapshot should not be reported as not found")
	}
}

func TestJSONCatalogRepository_ExistsAndDelete(t *testing.T) {
	repo := NewJSONCatalogRepository(t.TempDir())
	ctx := context.Background()

	exists, err := repo.Exists(ctx, "drive")
	if err != nil || exists {
		t.Fatalf("Expected no snapshot, got exists=%v err=%v", exists, err)
	}

	if err := repo.Save(ctx, sampleCatalog(t, "drive")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	exists, _ = repo.Exists(ctx, "drive")
	if !exists {
		t.Error("Expected snapshot to exist after Save")
	}

	if err := repo.Delete(ctx, "drive"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	exists, _ = repo.Exists(ctx, "drive")
	if exists {
		t.Error("Expected snapshot to be gone after Delete")
	}

	// 存在しないスナップショットの削除はエラーにしない
	if err := repo.Delete(ctx, "drive"); err != nil {
		t.Errorf("Delete of missing snapshot should succeed, got %v", err)
	}
}

func TestJSONCatalogRepository_RejectsUnsafeServerNames(t *testing.T) {
	repo := NewJSONCatalogRepository(t.TempDir())

	for _, name := range []string{"", "../etc", "a/b", ".hidden"} {
		if _, err := repo.Load(context.Background(), name); err == nil || errors.Is(err, ErrCatalogNotFound) {
			t.Errorf("Expected invalid name error for %q, got %v", name, err)
		}
		if err := repo.Save(context.Background(), tool.NewCatalog(name, nil, time.Now())); err == nil {
			t.Errorf("Expected Save to reject %q", name)
		}
	}
}
