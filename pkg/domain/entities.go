// Package domain defines the genealogical entities, identifier types, and
// error kinds shared by the parser, the query engine, and the service layer.
package domain

import "strings"

// EntityType identifies the kind of record an identifier belongs to.
type EntityType string

// Supported entity types. Each has its own identifier namespace.
const (
	// EntityPerson identifies an individual (INDI) record.
	EntityPerson EntityType = "person"
	// EntityFamily identifies a family (FAM) record.
	EntityFamily EntityType = "family"
)

// PersonID is the pointer value of an INDI record with the '@' delimiters removed.
type PersonID string

// FamilyID is the pointer value of a FAM record with the '@' delimiters removed.
type FamilyID string

// NoEventRecord is rendered for an event that carries neither date nor place.
const NoEventRecord = "No record of date and place"

// Event holds the optional date and place of a birth, death, or marriage.
type Event struct {
	Date  string `json:"date,omitempty"`
	Place string `json:"place,omitempty"`
}

// Empty reports whether neither date nor place was recorded.
func (e Event) Empty() bool { return e.Date == "" && e.Place == "" }

func (e Event) String() string {
	if e.Empty() {
		return NoEventRecord
	}
	return joinNonEmpty(e.Date, e.Place)
}

// Person is an individual. References to families are identifiers resolved
// through the owning tree, never pointers.
type Person struct {
	ID       PersonID   `json:"id"`
	Given    string     `json:"given"`
	Surname  string     `json:"surname"`
	Suffix   string     `json:"suffix"`
	Birth    *Event     `json:"birth,omitempty"`
	Death    *Event     `json:"death,omitempty"`
	SpouseOf []FamilyID `json:"spouse_of,omitempty"`
	ChildOf  FamilyID   `json:"child_of,omitempty"`
}

// Name returns the display name with the surname upper-cased. The stored
// surname is left untouched.
func (p Person) Name() string {
	return joinNonEmpty(p.Given, strings.ToUpper(p.Surname), p.Suffix)
}

// String renders the name followed by birth and death events when recorded.
func (p Person) String() string {
	var b strings.Builder
	b.WriteString(p.Name())
	if p.Birth != nil {
		b.WriteString(", b: ")
		b.WriteString(p.Birth.String())
	}
	if p.Death != nil {
		b.WriteString(", d: ")
		b.WriteString(p.Death.String())
	}
	return b.String()
}

// Clone returns a deep copy so callers cannot mutate arena-owned state.
func (p Person) Clone() Person {
	out := p
	if p.Birth != nil {
		b := *p.Birth
		out.Birth = &b
	}
	if p.Death != nil {
		d := *p.Death
		out.Death = &d
	}
	if p.SpouseOf != nil {
		out.SpouseOf = append([]FamilyID(nil), p.SpouseOf...)
	}
	return out
}

// Family is a couple and their children. Either spouse slot may be empty.
type Family struct {
	ID       FamilyID   `json:"id"`
	Spouse1  PersonID   `json:"spouse1,omitempty"` // husband role
	Spouse2  PersonID   `json:"spouse2,omitempty"` // wife role
	Children []PersonID `json:"children,omitempty"`
	Marriage *Event     `json:"marriage,omitempty"`
}

// CoSpouse returns the other spouse of id, or "" when the slot is empty.
func (f Family) CoSpouse(id PersonID) PersonID {
	if f.Spouse1 == id {
		return f.Spouse2
	}
	return f.Spouse1
}

// Clone returns a deep copy.
func (f Family) Clone() Family {
	out := f
	if f.Children != nil {
		out.Children = append([]PersonID(nil), f.Children...)
	}
	if f.Marriage != nil {
		m := *f.Marriage
		out.Marriage = &m
	}
	return out
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
