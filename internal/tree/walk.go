package tree

import (
	"gedtree/pkg/domain"
)

// DefaultMaxDepth bounds every traversal unless overridden with MaxDepth.
const DefaultMaxDepth = 512

// Option tunes a query.
type Option func(*queryConfig)

type queryConfig struct {
	maxDepth int
}

// MaxDepth overrides the traversal depth bound. Non-positive values are ignored.
func MaxDepth(n int) Option {
	return func(c *queryConfig) {
		if n > 0 {
			c.maxDepth = n
		}
	}
}

func newQueryConfig(opts []Option) queryConfig {
	cfg := queryConfig{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// walker carries the persons on the current traversal path and the depth
// bound. The same person reached along two different paths is fine; only a
// revisit along one path is a cycle.
type walker struct {
	t        *Tree
	maxDepth int
	path     map[domain.PersonID]struct{}
}

func newWalker(t *Tree, opts []Option) *walker {
	cfg := newQueryConfig(opts)
	return &walker{t: t, maxDepth: cfg.maxDepth, path: make(map[domain.PersonID]struct{})}
}

// enter resolves id and pushes it onto the path. Callers must pair a
// successful enter with leave.
func (w *walker) enter(id domain.PersonID, depth int) (*domain.Person, error) {
	if depth > w.maxDepth {
		return nil, domain.ErrDepthExceeded
	}
	if _, onPath := w.path[id]; onPath {
		return nil, &domain.CycleError{ID: id}
	}
	p, err := w.t.person(id)
	if err != nil {
		return nil, err
	}
	w.path[id] = struct{}{}
	return p, nil
}

func (w *walker) leave(id domain.PersonID) {
	delete(w.path, id)
}

// parents returns the non-empty spouse slots of the person's family of origin.
func (w *walker) parents(p *domain.Person) ([]domain.PersonID, error) {
	if p.ChildOf == "" {
		return nil, nil
	}
	fam, err := w.t.family(p.ChildOf)
	if err != nil {
		return nil, err
	}
	out := make([]domain.PersonID, 0, 2)
	if fam.Spouse1 != "" {
		out = append(out, fam.Spouse1)
	}
	if fam.Spouse2 != "" {
		out = append(out, fam.Spouse2)
	}
	return out, nil
}

type orderedSet[T comparable] struct {
	items []T
	seen  map[T]struct{}
}

func newOrderedSet[T comparable]() *orderedSet[T] {
	return &orderedSet[T]{seen: make(map[T]struct{})}
}

func (s *orderedSet[T]) add(v T) {
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}

func (s *orderedSet[T]) has(v T) bool {
	_, ok := s.seen[v]
	return ok
}
