// Package scene keeps resource references in step with world membership and
// presents what is ready.
package scene

import (
	"github.com/pixil98/go-orbis/internal/resource"
	"github.com/pixil98/go-orbis/internal/synapse"
)

// Cache is the part of the resource cache the scene uses.
type Cache interface {
	Request(id int) resource.Handle
	Release(id int)
	Get(id int) (resource.Handle, bool)
}

// World answers which resources an entity needs.
type World interface {
	Resources(kind synapse.EntityKind, index int) ([]int, bool)
}

type entity struct {
	kind  synapse.EntityKind
	index int
}

// Tracker holds one cache reference per resource per live entity. It must
// only be used on the main goroutine.
type Tracker struct {
	cache Cache
	world World
	held  map[entity][]int
}

func NewTracker(cache Cache, world World) *Tracker {
	return &Tracker{
		cache: cache,
		world: world,
		held:  make(map[entity][]int),
	}
}

// Apply updates references from one tick's mutations. Removals go first; an
// entity added and removed within the same tick is never requested.
func (t *Tracker) Apply(snap synapse.Snapshot) (requested int, released int) {
	for _, kind := range synapse.EntityKinds() {
		for _, i := range snap.Removed(kind) {
			released += t.drop(entity{kind: kind, index: i})
		}
	}

	for _, kind := range synapse.EntityKinds() {
		for _, i := range snap.Added(kind) {
			e := entity{kind: kind, index: i}
			if _, ok := t.held[e]; ok {
				continue
			}
			ids, ok := t.world.Resources(kind, i)
			if !ok {
				continue
			}
			for _, id := range ids {
				t.cache.Request(id)
			}
			t.held[e] = ids
			requested += len(ids)
		}
	}

	return requested, released
}

func (t *Tracker) drop(e entity) int {
	ids, ok := t.held[e]
	if !ok {
		return 0
	}
	for _, id := range ids {
		t.cache.Release(id)
	}
	delete(t.held, e)
	return len(ids)
}

// ReleaseAll drops every reference the tracker holds.
func (t *Tracker) ReleaseAll() int {
	n := 0
	for e := range t.held {
		n += t.drop(e)
	}
	return n
}

// Len returns the number of tracked entities.
func (t *Tracker) Len() int {
	return len(t.held)
}

// Holds reports the resource ids held for an entity.
func (t *Tracker) Holds(kind synapse.EntityKind, index int) ([]int, bool) {
	ids, ok := t.held[entity{kind: kind, index: index}]
	return ids, ok
}
