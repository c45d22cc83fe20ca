package tree

import (
	"fmt"
	"strconv"

	"gedtree/pkg/domain"
)

// NoCousins is emitted when a cousin query finds nobody.
const NoCousins = "No cousins"

// OrdinalSuffix picks st/nd/rd/th from the last decimal digit only, so 11
// renders as "11st".
func OrdinalSuffix(n int) string {
	s := strconv.Itoa(n)
	switch s[len(s)-1] {
	case '1':
		return "st"
	case '2':
		return "nd"
	case '3':
		return "rd"
	default:
		return "th"
	}
}

// Cousins writes the nth-cousins of id: a header line followed by one
// indented line per cousin, or NoCousins.
func Cousins(t *Tree, id domain.PersonID, n int, sink Sink, opts ...Option) error {
	ids, err := CousinIDs(t, id, n, opts...)
	if err != nil {
		return err
	}
	subject, err := t.person(id)
	if err != nil {
		return err
	}
	if err := sink.WriteLine(fmt.Sprintf("%d%s cousins for %s", n, OrdinalSuffix(n), subject.Name())); err != nil {
		return err
	}
	if len(ids) == 0 {
		return sink.WriteLine(NoCousins)
	}
	for _, cid := range ids {
		if err := sink.WriteLine("  " + t.persons[cid].String()); err != nil {
			return err
		}
	}
	return nil
}

// CousinIDs computes the nth-cousins of id in three phases: collect the
// families of origin of the generation-n ancestors, take their children other
// than those ancestors, then descend n generations from each of them.
// An empty result is not an error.
func CousinIDs(t *Tree, id domain.PersonID, n int, opts ...Option) ([]domain.PersonID, error) {
	if n < 1 {
		return nil, &domain.UnsupportedQueryError{Query: "cousins", Reason: fmt.Sprintf("degree must be at least 1, got %d", n)}
	}
	if _, err := t.person(id); err != nil {
		return nil, err
	}
	w := newWalker(t, opts)

	families := newOrderedSet[domain.FamilyID]()
	exclude := newOrderedSet[domain.PersonID]()
	if err := w.ancestorFamilies(id, n, 0, families, exclude); err != nil {
		return nil, err
	}

	siblings := newOrderedSet[domain.PersonID]()
	for _, famID := range families.items {
		fam, err := t.family(famID)
		if err != nil {
			return nil, err
		}
		for _, child := range fam.Children {
			if !exclude.has(child) {
				siblings.add(child)
			}
		}
	}

	cousins := newOrderedSet[domain.PersonID]()
	for _, sib := range siblings.items {
		if err := w.descendN(sib, n, 0, cousins); err != nil {
			return nil, err
		}
	}
	return cousins.items, nil
}

// ancestorFamilies walks up remaining generations. When remaining reaches 0
// the current person is a generation-n ancestor and its family of origin is
// collected; one step earlier its parents are recorded as excluded.
func (w *walker) ancestorFamilies(id domain.PersonID, remaining, depth int, families *orderedSet[domain.FamilyID], exclude *orderedSet[domain.PersonID]) error {
	p, err := w.enter(id, depth)
	if err != nil {
		return err
	}
	defer w.leave(id)

	if p.ChildOf == "" {
		return nil
	}
	if remaining == 0 {
		families.add(p.ChildOf)
		return nil
	}
	parents, err := w.parents(p)
	if err != nil {
		return err
	}
	for _, parent := range parents {
		if remaining == 1 {
			exclude.add(parent)
		}
		if err := w.ancestorFamilies(parent, remaining-1, depth+1, families, exclude); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) descendN(id domain.PersonID, remaining, depth int, out *orderedSet[domain.PersonID]) error {
	p, err := w.enter(id, depth)
	if err != nil {
		return err
	}
	defer w.leave(id)

	for _, famID := range p.SpouseOf {
		fam, err := w.t.family(famID)
		if err != nil {
			return err
		}
		for _, child := range fam.Children {
			if remaining > 1 {
				if err := w.descendN(child, remaining-1, depth+1, out); err != nil {
					return err
				}
				continue
			}
			if _, err := w.t.person(child); err != nil {
				return err
			}
			out.add(child)
		}
	}
	return nil
}
