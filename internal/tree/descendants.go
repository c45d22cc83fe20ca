package tree

import (
	"fmt"
	"strings"

	"gedtree/pkg/domain"
)

const (
	childMarker  = "|--"
	spouseMarker = "+"
)

// Descendants writes the descendant chart rooted at id in pre-order: the
// person, then for each spouse-family the co-spouse and, one level deeper,
// every child in record order.
//
//	John KENNEDY
//	+Jacqueline BOUVIER, m: 12 SEP 1953 Newport
//	|--Caroline KENNEDY
//	|  +Edwin SCHLOSSBERG
//	|  |--Rose SCHLOSSBERG
func Descendants(t *Tree, id domain.PersonID, sink Sink, opts ...Option) error {
	if _, err := t.person(id); err != nil {
		return err
	}
	return newWalker(t, opts).descend(sink, id, "", 0)
}

func (w *walker) descend(sink Sink, id domain.PersonID, prefix string, depth int) error {
	p, err := w.enter(id, depth)
	if err != nil {
		return err
	}
	defer w.leave(id)

	if err := sink.WriteLine(prefix + p.String()); err != nil {
		return err
	}
	famPrefix := prefix
	if strings.HasSuffix(famPrefix, "--") {
		famPrefix = famPrefix[:len(famPrefix)-2] + "  "
	}
	for _, famID := range p.SpouseOf {
		fam, err := w.t.family(famID)
		if err != nil {
			return fmt.Errorf("spouse family of %s: %w", id, err)
		}
		if other := fam.CoSpouse(id); other != "" {
			spouse, err := w.t.person(other)
			if err != nil {
				return fmt.Errorf("spouse in %s: %w", famID, err)
			}
			if err := sink.WriteLine(famPrefix + spouseMarker + spouse.String() + marriageSuffix(fam)); err != nil {
				return err
			}
		}
		for _, child := range fam.Children {
			if err := w.descend(sink, child, famPrefix+childMarker, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func marriageSuffix(f *domain.Family) string {
	if f.Marriage == nil || f.Marriage.Empty() {
		return ""
	}
	return ", m: " + f.Marriage.String()
}

// IsDescendant reports whether candidate is ancestor itself or is reachable
// from ancestor through spouse-family children.
func IsDescendant(t *Tree, ancestor, candidate domain.PersonID, opts ...Option) (bool, error) {
	if _, err := t.person(ancestor); err != nil {
		return false, err
	}
	if _, err := t.person(candidate); err != nil {
		return false, err
	}
	w := newWalker(t, opts)
	visited := make(map[domain.PersonID]struct{})
	return w.reaches(ancestor, candidate, 0, visited)
}

func (w *walker) reaches(from, target domain.PersonID, depth int, visited map[domain.PersonID]struct{}) (bool, error) {
	if from == target {
		return true, nil
	}
	if _, done := visited[from]; done {
		return false, nil
	}
	visited[from] = struct{}{}
	p, err := w.enter(from, depth)
	if err != nil {
		return false, err
	}
	defer w.leave(from)
	for _, famID := range p.SpouseOf {
		fam, err := w.t.family(famID)
		if err != nil {
			return false, err
		}
		for _, child := range fam.Children {
			found, err := w.reaches(child, target, depth+1, visited)
			if err != nil || found {
				return found, err
			}
		}
	}
	return false, nil
}
