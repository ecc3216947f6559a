package world

import (
	"fmt"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-orbis/internal/catalog"
	"github.com/pixil98/go-orbis/internal/resource"
	"github.com/pixil98/go-orbis/internal/storage"
)

// ObjectClass describes a kind of dynamic object.
type ObjectClass struct {
	Name   string      `json:"name"`
	Model  catalog.Ref `json:"model"`
	Sound  catalog.Ref `json:"sound"`
	Debris catalog.Ref `json:"debris"`
	// DebrisCount frags are emitted when the object expires.
	DebrisCount int `json:"debris_count,omitempty"`
	// DebrisLife is the frag lifetime in ticks.
	DebrisLife int `json:"debris_life,omitempty"`
	// Lifetime in ticks. Zero lives until removed.
	Lifetime int     `json:"lifetime,omitempty"`
	Mass     float64 `json:"mass"`
}

func (c *ObjectClass) Validate() error {
	if c == nil {
		return fmt.Errorf("spec must be set")
	}

	el := errors.NewErrorList()

	if c.Name == "" {
		el.Add(fmt.Errorf("name is required"))
	}
	if !c.Model.IsSet() {
		el.Add(fmt.Errorf("model is required"))
	}
	if c.Lifetime < 0 {
		el.Add(fmt.Errorf("lifetime must not be negative"))
	}
	if c.Mass < 0 {
		el.Add(fmt.Errorf("mass must not be negative"))
	}
	if c.DebrisCount < 0 {
		el.Add(fmt.Errorf("debris_count must not be negative"))
	}
	if c.DebrisCount > 0 && !c.Debris.IsSet() {
		el.Add(fmt.Errorf("debris_count requires debris"))
	}
	if c.Debris.IsSet() && c.DebrisLife <= 0 {
		el.Add(fmt.Errorf("debris_life must be positive"))
	}

	return el.Err()
}

func (c *ObjectClass) resolve(cat *catalog.Catalog) error {
	el := errors.NewErrorList()
	el.Add(c.Model.Resolve(cat, resource.KindModel))
	el.Add(c.Sound.Resolve(cat, resource.KindSound))
	el.Add(c.Debris.Resolve(cat, resource.KindFragPool))
	return el.Err()
}

// StructClass describes a static structure compiled from a map.
type StructClass struct {
	Name   string      `json:"name"`
	Visual catalog.Ref `json:"visual"`
	Audio  catalog.Ref `json:"audio"`
	// Extent is the half size of the structure's footprint.
	Extent Vec2 `json:"extent"`
}

func (c *StructClass) Validate() error {
	if c == nil {
		return fmt.Errorf("spec must be set")
	}

	el := errors.NewErrorList()

	if c.Name == "" {
		el.Add(fmt.Errorf("name is required"))
	}
	if !c.Visual.IsSet() {
		el.Add(fmt.Errorf("visual is required"))
	}
	if c.Extent.X < 0 || c.Extent.Y < 0 {
		el.Add(fmt.Errorf("extent must not be negative"))
	}

	return el.Err()
}

func (c *StructClass) resolve(cat *catalog.Catalog) error {
	el := errors.NewErrorList()
	el.Add(c.Visual.Resolve(cat, resource.KindMapVisual))
	el.Add(c.Audio.Resolve(cat, resource.KindMapAudio))
	return el.Err()
}

// Library holds every class the world can instantiate, with asset references
// resolved against the catalog.
type Library struct {
	objects storage.Storer[*ObjectClass]
	structs storage.Storer[*StructClass]
}

func NewLibrary(objects storage.Storer[*ObjectClass], structs storage.Storer[*StructClass], cat *catalog.Catalog) (*Library, error) {
	el := errors.NewErrorList()

	for _, id := range objects.Keys() {
		c, _ := objects.Get(id)
		if err := c.resolve(cat); err != nil {
			el.Add(fmt.Errorf("object class %s: %w", id, err))
		}
	}
	for _, id := range structs.Keys() {
		c, _ := structs.Get(id)
		if err := c.resolve(cat); err != nil {
			el.Add(fmt.Errorf("struct class %s: %w", id, err))
		}
	}

	if err := el.Err(); err != nil {
		return nil, err
	}

	return &Library{objects: objects, structs: structs}, nil
}

// LoadLibrary reads object and struct classes from their asset directories.
func LoadLibrary(objectsDir, structsDir string, cat *catalog.Catalog) (*Library, error) {
	objects, err := storage.NewFileStore[*ObjectClass](objectsDir)
	if err != nil {
		return nil, fmt.Errorf("loading object classes: %w", err)
	}
	structs, err := storage.NewFileStore[*StructClass](structsDir)
	if err != nil {
		return nil, fmt.Errorf("loading struct classes: %w", err)
	}
	return NewLibrary(objects, structs, cat)
}

func (l *Library) Object(id string) (*ObjectClass, bool) {
	return l.objects.Get(id)
}

func (l *Library) Struct(id string) (*StructClass, bool) {
	return l.structs.Get(id)
}

func (l *Library) ObjectClasses() []string {
	return l.objects.Keys()
}

func (l *Library) StructClasses() []string {
	return l.structs.Keys()
}
