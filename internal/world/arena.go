package world

// arena stores entities by index. A freed index is withheld for one full
// update so that anything still holding it can notice the slot went empty
// before a new entity takes it over.
type arena[T any] struct {
	items []*T
	count int

	freeing   []int
	waiting   []int
	available []int
}

func (a *arena[T]) add(v *T) int {
	if n := len(a.available); n > 0 {
		i := a.available[n-1]
		a.available = a.available[:n-1]
		a.items[i] = v
		a.count++
		return i
	}

	a.items = append(a.items, v)
	a.count++
	return len(a.items) - 1
}

func (a *arena[T]) get(i int) (*T, bool) {
	if i < 0 || i >= len(a.items) || a.items[i] == nil {
		return nil, false
	}
	return a.items[i], true
}

func (a *arena[T]) remove(i int) {
	a.items[i] = nil
	a.count--
	a.freeing = append(a.freeing, i)
}

// rotate runs at the start of every update.
func (a *arena[T]) rotate() {
	a.available = append(a.available, a.waiting...)
	a.waiting, a.freeing = a.freeing, a.waiting[:0]
}

// each calls fn for every live entity. Entities added by fn are not visited.
func (a *arena[T]) each(fn func(i int, v *T)) {
	_ = a.walk(func(i int, v *T) error {
		fn(i, v)
		return nil
	})
}

// walk is each with a callback that can fail. It stops at the first error.
func (a *arena[T]) walk(fn func(i int, v *T) error) error {
	n := len(a.items)
	for i := 0; i < n; i++ {
		if a.items[i] != nil {
			if err := fn(i, a.items[i]); err != nil {
				return err
			}
		}
	}
	return nil
}
