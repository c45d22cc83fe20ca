package gedcom

import (
	"bufio"
	"fmt"
	"io"

	"gedtree/internal/tree"
	"gedtree/pkg/domain"
)

// Encode writes t as GEDCOM lines: a minimal header, every INDI record, every
// FAM record, and the trailer. Parsing the output yields equal entities.
func Encode(w io.Writer, t *tree.Tree) error {
	e := &encoder{w: bufio.NewWriter(w)}
	e.line(0, "", "HEAD", "")
	e.line(1, "", "SOUR", "gedtree")
	for _, p := range t.Persons() {
		e.person(p)
	}
	for _, f := range t.Families() {
		e.family(f)
	}
	e.line(0, "", "TRLR", "")
	if e.err != nil {
		return e.err
	}
	return e.w.Flush()
}

type encoder struct {
	w   *bufio.Writer
	err error
}

func (e *encoder) line(level int, xref, tag, value string) {
	if e.err != nil {
		return
	}
	switch {
	case xref != "":
		_, e.err = fmt.Fprintf(e.w, "%d @%s@ %s\n", level, xref, tag)
	case value != "":
		_, e.err = fmt.Fprintf(e.w, "%d %s %s\n", level, tag, value)
	default:
		_, e.err = fmt.Fprintf(e.w, "%d %s\n", level, tag)
	}
}

func (e *encoder) person(p domain.Person) {
	e.line(0, string(p.ID), TagIndividual, "")
	if name := FormatName(p.Given, p.Surname, p.Suffix); name != "" {
		e.line(1, "", TagName, name)
	}
	e.event(TagBirth, p.Birth)
	e.event(TagDeath, p.Death)
	if p.ChildOf != "" {
		e.line(1, "", TagChildOf, ref(string(p.ChildOf)))
	}
	for _, f := range p.SpouseOf {
		e.line(1, "", TagSpouseOf, ref(string(f)))
	}
}

func (e *encoder) family(f domain.Family) {
	e.line(0, string(f.ID), TagFamily, "")
	if f.Spouse1 != "" {
		e.line(1, "", TagHusband, ref(string(f.Spouse1)))
	}
	if f.Spouse2 != "" {
		e.line(1, "", TagWife, ref(string(f.Spouse2)))
	}
	for _, c := range f.Children {
		e.line(1, "", TagChild, ref(string(c)))
	}
	e.event(TagMarriage, f.Marriage)
}

func (e *encoder) event(tag string, ev *domain.Event) {
	if ev == nil {
		return
	}
	e.line(1, "", tag, "")
	if ev.Date != "" {
		e.line(2, "", TagDate, ev.Date)
	}
	if ev.Place != "" {
		e.line(2, "", TagPlace, ev.Place)
	}
}

func ref(id string) string { return pointerDelim + id + pointerDelim }
