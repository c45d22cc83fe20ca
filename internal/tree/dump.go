package tree

import (
	"strings"

	"gedtree/pkg/domain"
)

// Dump writes the diagnostic listing: every person, a blank line, every
// family, a blank line. Both blocks are sorted by identifier.
//
//	I1:John KENNEDY | asChild: F1 | asSpouse: F2,F3
//	F1: Husband: I4 Wife: I5 Children: I1,I2
func Dump(t *Tree, sink Sink) error {
	for _, id := range t.personIDs {
		p := t.persons[id]
		if err := sink.WriteLine(string(id) + ":" + p.String() + linkInfo(p)); err != nil {
			return err
		}
	}
	if err := sink.WriteLine(""); err != nil {
		return err
	}
	for _, id := range t.familyIDs {
		if err := sink.WriteLine(string(id) + ":" + familyInfo(t.families[id])); err != nil {
			return err
		}
	}
	return sink.WriteLine("")
}

func linkInfo(p *domain.Person) string {
	var b strings.Builder
	if p.ChildOf != "" {
		b.WriteString(" | asChild: ")
		b.WriteString(string(p.ChildOf))
	}
	if len(p.SpouseOf) > 0 {
		ids := make([]string, len(p.SpouseOf))
		for i, f := range p.SpouseOf {
			ids[i] = string(f)
		}
		b.WriteString(" | asSpouse: ")
		b.WriteString(strings.Join(ids, ","))
	}
	return b.String()
}

func familyInfo(f *domain.Family) string {
	var b strings.Builder
	if f.Spouse1 != "" {
		b.WriteString(" Husband: ")
		b.WriteString(string(f.Spouse1))
	}
	if f.Spouse2 != "" {
		b.WriteString(" Wife: ")
		b.WriteString(string(f.Spouse2))
	}
	if len(f.Children) > 0 {
		ids := make([]string, len(f.Children))
		for i, c := range f.Children {
			ids[i] = string(c)
		}
		b.WriteString(" Children: ")
		b.WriteString(strings.Join(ids, ","))
	}
	return b.String()
}
