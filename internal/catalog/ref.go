package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/pixil98/go-orbis/internal/resource"
	"github.com/pixil98/go-orbis/internal/storage"
)

// Ref names a catalog asset from another asset. Resolving it checks the
// asset's kind and binds the dense id the cache is indexed by. An empty Ref
// means "none".
type Ref struct {
	asset storage.SmartIdentifier[*AssetSpec]
	id    int
}

func NewRef(name string) Ref {
	return Ref{asset: storage.NewSmartIdentifier[*AssetSpec](name), id: -1}
}

func (r *Ref) UnmarshalJSON(b []byte) error {
	r.id = -1
	return json.Unmarshal(b, &r.asset)
}

func (r Ref) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.asset)
}

func (r Ref) Name() string {
	return r.asset.Get()
}

func (r Ref) IsSet() bool {
	return r.asset.Validate() == nil
}

// ID returns the resolved id, or -1 when unset or unresolved.
func (r Ref) ID() int {
	if !r.IsSet() {
		return -1
	}
	return r.id
}

// Resolve binds the ref to an id, checking the asset exists and is of kind.
func (r *Ref) Resolve(c *Catalog, kind resource.Kind) error {
	r.id = -1
	if !r.IsSet() {
		return nil
	}

	if err := r.asset.Resolve(c.assets); err != nil {
		return fmt.Errorf("%s %q not found", kind, r.Name())
	}

	spec := r.asset.Id()
	if spec.Kind != kind {
		return fmt.Errorf("asset %q is a %s, expected %s", r.Name(), spec.Kind, kind)
	}

	id, ok := c.Index(r.Name())
	if !ok {
		return fmt.Errorf("%s %q not found", kind, r.Name())
	}
	r.id = id
	return nil
}
