// Package catalog maps asset names to the dense integer ids the resource cache
// is indexed by.
package catalog

import (
	"fmt"
	"path/filepath"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-orbis/internal/resource"
	"github.com/pixil98/go-orbis/internal/storage"
)

// AssetSpec is the stored description of one loadable asset.
type AssetSpec struct {
	Kind        resource.Kind `json:"kind"`
	Path        string        `json:"path"`
	Description string        `json:"description,omitempty"`
}

func (s *AssetSpec) Validate() error {
	if s == nil {
		return fmt.Errorf("spec must be set")
	}

	el := errors.NewErrorList()

	if !s.Kind.Valid() {
		el.Add(fmt.Errorf("kind %d is not valid", int(s.Kind)))
	}
	if s.Path == "" {
		el.Add(fmt.Errorf("path is required"))
	}

	return el.Err()
}

// Entry is a resolved catalog record.
type Entry struct {
	ID          int           `json:"id" yaml:"id"`
	Name        string        `json:"name" yaml:"name"`
	Kind        resource.Kind `json:"kind" yaml:"kind"`
	Path        string        `json:"path" yaml:"path"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
}

// Catalog is immutable once built and safe for concurrent readers.
type Catalog struct {
	assets  storage.Storer[*AssetSpec]
	root    string
	entries []Entry
	index   map[string]int
	byKind  map[resource.Kind][]int
}

// Load reads every asset under dir. Relative asset paths resolve against root.
func Load(dir string, root string) (*Catalog, error) {
	store, err := storage.NewFileStore[*AssetSpec](dir)
	if err != nil {
		return nil, fmt.Errorf("loading asset store: %w", err)
	}
	return New(store, root)
}

// New assigns ids in identifier order so the same asset set always yields the
// same ids.
func New(store storage.Storer[*AssetSpec], root string) (*Catalog, error) {
	keys := store.Keys()

	c := &Catalog{
		assets:  store,
		root:    root,
		entries: make([]Entry, 0, len(keys)),
		index:   make(map[string]int, len(keys)),
		byKind:  map[resource.Kind][]int{},
	}

	el := errors.NewErrorList()
	for _, name := range keys {
		spec, ok := store.Get(name)
		if !ok {
			el.Add(fmt.Errorf("asset %q vanished while building catalog", name))
			continue
		}

		path, err := expandPath(spec.Path, pathData{Name: name, Kind: spec.Kind.String()})
		if err != nil {
			el.Add(fmt.Errorf("asset %q: %w", name, err))
			continue
		}
		if !filepath.IsAbs(path) && root != "" {
			path = filepath.Join(root, path)
		}

		id := len(c.entries)
		c.entries = append(c.entries, Entry{
			ID:          id,
			Name:        name,
			Kind:        spec.Kind,
			Path:        path,
			Description: spec.Description,
		})
		c.index[name] = id
		c.byKind[spec.Kind] = append(c.byKind[spec.Kind], id)
	}

	if err := el.Err(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Catalog) Root() string {
	return c.root
}

func (c *Catalog) Len() int {
	return len(c.entries)
}

func (c *Catalog) Lookup(id int) (resource.Kind, string, bool) {
	e, ok := c.Entry(id)
	if !ok {
		return 0, "", false
	}
	return e.Kind, e.Path, true
}

func (c *Catalog) Entry(id int) (Entry, bool) {
	if id < 0 || id >= len(c.entries) {
		return Entry{}, false
	}
	return c.entries[id], true
}

// Entries returns every entry in id order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Catalog) Index(name string) (int, bool) {
	id, ok := c.index[name]
	return id, ok
}

// IDs returns the ids of every asset of kind.
func (c *Catalog) IDs(kind resource.Kind) []int {
	return append([]int(nil), c.byKind[kind]...)
}

// Name returns the identifier id was assigned from.
func (c *Catalog) Name(id int) (string, bool) {
	e, ok := c.Entry(id)
	if !ok {
		return "", false
	}
	return e.Name, true
}
