package command

import (
	"fmt"
	"os"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-orbis/internal/catalog"
	"github.com/pixil98/go-orbis/internal/storage"
	"github.com/pixil98/go-orbis/internal/world"
)

const DefaultCheckpointID = "quicksave"

type StorageConfig struct {
	// Assets holds the catalog entries; AssetRoot is where their files live.
	Assets      AssetConfig[*catalog.AssetSpec] `json:"assets"`
	AssetRoot   string                          `json:"asset_root"`
	Objects     AssetConfig[*world.ObjectClass] `json:"objects"`
	Structs     AssetConfig[*world.StructClass] `json:"structs"`
	Checkpoints AssetConfig[*world.Checkpoint]  `json:"checkpoints"`
	// CheckpointID is loaded at startup when present and written at shutdown.
	CheckpointID string `json:"checkpoint_id"`
}

func (c *StorageConfig) validate() error {
	el := errors.NewErrorList()
	el.Add(c.Assets.Validate("assets"))
	el.Add(c.Objects.Validate("objects"))
	el.Add(c.Structs.Validate("structs"))
	el.Add(c.Checkpoints.Validate("checkpoints"))
	return el.Err()
}

func (c *StorageConfig) BuildCatalog() (*catalog.Catalog, error) {
	store, err := c.Assets.BuildFileStore()
	if err != nil {
		return nil, fmt.Errorf("creating asset store: %w", err)
	}

	root := c.AssetRoot
	if root == "" {
		root = c.Assets.Path
	}

	cat, err := catalog.New(store, root)
	if err != nil {
		return nil, fmt.Errorf("building catalog: %w", err)
	}
	return cat, nil
}

func (c *StorageConfig) BuildLibrary(cat *catalog.Catalog) (*world.Library, error) {
	objects, err := c.Objects.BuildFileStore()
	if err != nil {
		return nil, fmt.Errorf("creating object class store: %w", err)
	}
	structs, err := c.Structs.BuildFileStore()
	if err != nil {
		return nil, fmt.Errorf("creating struct class store: %w", err)
	}

	lib, err := world.NewLibrary(objects, structs, cat)
	if err != nil {
		return nil, fmt.Errorf("resolving classes: %w", err)
	}
	return lib, nil
}

func (c *StorageConfig) BuildCheckpointStore() (*storage.FileStore[*world.Checkpoint], string, error) {
	store, err := c.Checkpoints.BuildFileStore()
	if err != nil {
		return nil, "", fmt.Errorf("creating checkpoint store: %w", err)
	}

	id := c.CheckpointID
	if id == "" {
		id = DefaultCheckpointID
	}
	return store, id, nil
}

type AssetConfig[T storage.ValidatingSpec] struct {
	Path string `json:"path"`
}

func (c *AssetConfig[T]) Validate(name string) error {
	if c.Path == "" {
		return fmt.Errorf("%s: path is required", name)
	}
	_, err := os.Stat(c.Path)
	if err != nil {
		return fmt.Errorf("%s: invalid path %q: %w", name, c.Path, err)
	}

	return nil
}

func (c *AssetConfig[T]) BuildFileStore() (*storage.FileStore[T], error) {
	return storage.NewFileStore[T](c.Path)
}
