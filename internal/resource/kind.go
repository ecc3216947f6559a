package resource

import (
	"fmt"
)

// Kind is the closed set of resource classes the cache manages. Each kind has
// its own sweep cadence and its own device upload path.
type Kind int

const (
	KindTexture Kind = iota
	KindSound
	KindModel
	KindMapVisual
	KindMapAudio
	KindFragPool

	kindCount
)

var kindNames = [kindCount]string{
	KindTexture:   "texture",
	KindSound:     "sound",
	KindModel:     "model",
	KindMapVisual: "map_visual",
	KindMapAudio:  "map_audio",
	KindFragPool:  "frag_pool",
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

func (k Kind) Valid() bool {
	return k >= 0 && k < kindCount
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown resource kind: %s", s)
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("unknown resource kind: %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
