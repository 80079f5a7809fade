package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/Nyukimin/mcpchat/internal/domain/tool"
)

// ErrCatalogNotFound is returned by Load when no snapshot exists for a server.
var ErrCatalogNotFound = errors.New("catalog not found")

// server names become file names, so only a safe subset is accepted
var serverNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// JSONCatalogRepository はJSONファイルベースのCatalogRepository実装
type JSONCatalogRepository struct {
	baseDir string
}

// NewJSONCatalogRepository は新しいJSONCatalogRepositoryを作成
func NewJSONCatalogRepository(baseDir string) *JSONCatalogRepository {
	return &JSONCatalogRepository{
		baseDir: baseDir,
	}
}

// catalogDTO はJSONシリアライズ用のDTO
type catalogDTO struct {
	Server    string    `json:"server"`
	FetchedAt time.Time `json:"fetched_at"`
	Tools     []toolDTO `json:"tools"`
}

// toolDTO はJSONシリアライズ用のDTO。プロパティは配列にして宣言順を保つ
type toolDTO struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Properties  []propertyDTO `json:"properties,omitempty"`
	Required    []string      `json:"required,omitempty"`
}

type propertyDTO struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// Save はカタログを保存
func (r *JSONCatalogRepository) Save(ctx context.Context, c *tool.Catalog) error {
	filePath, err := r.getFilePath(c.Server())
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(r.toDTO(c), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	if err := os.MkdirAll(r.baseDir, 0755); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}

	// 書き込み途中のファイルを読まれないよう一時ファイル経由で置き換える
	tmp, err := os.CreateTemp(r.baseDir, ".catalog-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write catalog file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write catalog file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		return fmt.Errorf("failed to replace catalog file: %w", err)
	}

	return nil
}

// Load はカタログをロード
func (r *JSONCatalogRepository) Load(ctx context.Context, server string) (*tool.Catalog, error) {
	filePath, err := r.getFilePath(server)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrCatalogNotFound, server)
		}
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var dto catalogDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}

	return r.fromDTO(server, &dto), nil
}

// Exists はスナップショットが存在するか確認
func (r *JSONCatalogRepository) Exists(ctx context.Context, server string) (bool, error) {
	filePath, err := r.getFilePath(server)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Delete はスナップショットを削除
func (r *JSONCatalogRepository) Delete(ctx context.Context, server string) error {
	filePath, err := r.getFilePath(server)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return nil // 既に存在しない場合はエラーとしない
		}
		return fmt.Errorf("failed to delete catalog file: %w", err)
	}
	return nil
}

// getFilePath はサーバー名からファイルパスを生成
func (r *JSONCatalogRepository) getFilePath(server string) (string, error) {
	if !serverNamePattern.MatchString(server) {
		return "", fmt.Errorf("invalid server name for catalog file: %q", server)
	}
	return filepath.Join(r.baseDir, server+".json"), nil
}

// toDTO はCatalogをDTOに変換
func (r *JSONCatalogRepository) toDTO(c *tool.Catalog) *catalogDTO {
	tools := make([]toolDTO, 0, c.Len())
	for _, d := range c.Tools() {
		schema := d.Schema()
		props := make([]propertyDTO, 0, len(schema.Properties()))
		for _, p := range schema.Properties() {
			props = append(props, propertyDTO{
				Name:        p.Name,
				Type:        p.Type,
				Description: p.Description,
			})
		}
		tools = append(tools, toolDTO{
			Name:        d.Name(),
			Description: d.Description(),
			Properties:  props,
			Required:    schema.Required(),
		})
	}

	return &catalogDTO{
		Server:    c.Server(),
		FetchedAt: c.FetchedAt(),
		Tools:     tools,
	}
}

// fromDTO はDTOからCatalogを生成
func (r *JSONCatalogRepository) fromDTO(server string, dto *catalogDTO) *tool.Catalog {
	descriptors := make([]tool.Descriptor, 0, len(dto.Tools))
	for _, t := range dto.Tools {
		props := make([]tool.Property, 0, len(t.Properties))
		for _, p := range t.Properties {
			kind := tool.KindOther
			if p.Type == "string" {
				kind = tool.KindString
			}
			props = append(props, tool.Property{
				Name:        p.Name,
				Kind:        kind,
				Type:        p.Type,
				Description: p.Description,
			})
		}
		descriptors = append(descriptors, tool.NewDescriptor(t.Name, t.Description, tool.NewSchema(props, t.Required)))
	}

	return tool.NewCatalog(server, descriptors, dto.FetchedAt)
}
