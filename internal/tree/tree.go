// Package tree holds the loaded person/family arena and the read-only graph
// queries over it. Entities reference each other only by identifier; the two
// arenas own every record.
package tree

import (
	"sort"

	"gedtree/pkg/domain"
)

// Tree is an immutable loaded family tree. It is safe for concurrent queries.
type Tree struct {
	persons   map[domain.PersonID]*domain.Person
	families  map[domain.FamilyID]*domain.Family
	personIDs []domain.PersonID
	familyIDs []domain.FamilyID
}

// Person returns a copy of the person with the given identifier.
func (t *Tree) Person(id domain.PersonID) (domain.Person, error) {
	p, err := t.person(id)
	if err != nil {
		return domain.Person{}, err
	}
	return p.Clone(), nil
}

// Family returns a copy of the family with the given identifier.
func (t *Tree) Family(id domain.FamilyID) (domain.Family, error) {
	f, err := t.family(id)
	if err != nil {
		return domain.Family{}, err
	}
	return f.Clone(), nil
}

// Persons lists every person sorted by identifier.
func (t *Tree) Persons() []domain.Person {
	out := make([]domain.Person, 0, len(t.personIDs))
	for _, id := range t.personIDs {
		out = append(out, t.persons[id].Clone())
	}
	return out
}

// Families lists every family sorted by identifier.
func (t *Tree) Families() []domain.Family {
	out := make([]domain.Family, 0, len(t.familyIDs))
	for _, id := range t.familyIDs {
		out = append(out, t.families[id].Clone())
	}
	return out
}

// NumPersons returns the size of the person arena.
func (t *Tree) NumPersons() int { return len(t.persons) }

// NumFamilies returns the size of the family arena.
func (t *Tree) NumFamilies() int { return len(t.families) }

func (t *Tree) person(id domain.PersonID) (*domain.Person, error) {
	p, ok := t.persons[id]
	if !ok {
		return nil, domain.ErrNotFound{Entity: domain.EntityPerson, ID: string(id)}
	}
	return p, nil
}

func (t *Tree) family(id domain.FamilyID) (*domain.Family, error) {
	f, ok := t.families[id]
	if !ok {
		return nil, domain.ErrNotFound{Entity: domain.EntityFamily, ID: string(id)}
	}
	return f, nil
}

// Builder accumulates records during a parse. It is not safe for concurrent
// use; Build freezes it into a Tree.
type Builder struct {
	persons  map[domain.PersonID]*domain.Person
	families map[domain.FamilyID]*domain.Family
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		persons:  make(map[domain.PersonID]*domain.Person),
		families: make(map[domain.FamilyID]*domain.Family),
	}
}

// Person returns the record for id, creating it on first sight. A repeated
// header for the same identifier continues the existing record.
func (b *Builder) Person(id domain.PersonID) *domain.Person {
	if p, ok := b.persons[id]; ok {
		return p
	}
	p := &domain.Person{ID: id}
	b.persons[id] = p
	return p
}

// Family returns the record for id, creating it on first sight.
func (b *Builder) Family(id domain.FamilyID) *domain.Family {
	if f, ok := b.families[id]; ok {
		return f
	}
	f := &domain.Family{ID: id}
	b.families[id] = f
	return f
}

// Len reports how many persons and families have been created so far.
func (b *Builder) Len() (persons, families int) {
	return len(b.persons), len(b.families)
}

// Build freezes the accumulated records. The builder must not be used
// afterwards.
func (b *Builder) Build() *Tree {
	t := &Tree{
		persons:   b.persons,
		families:  b.families,
		personIDs: make([]domain.PersonID, 0, len(b.persons)),
		familyIDs: make([]domain.FamilyID, 0, len(b.families)),
	}
	for id := range b.persons {
		t.personIDs = append(t.personIDs, id)
	}
	for id := range b.families {
		t.familyIDs = append(t.familyIDs, id)
	}
	sort.Slice(t.personIDs, func(i, j int) bool { return t.personIDs[i] < t.personIDs[j] })
	sort.Slice(t.familyIDs, func(i, j int) bool { return t.familyIDs[i] < t.familyIDs[j] })
	b.persons, b.families = nil, nil
	return t
}
