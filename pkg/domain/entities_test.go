package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestPersonNameUpperCasesSurnameOnDisplay(t *testing.T) {
	p := Person{ID: "I1", Given: "John Fitzgerald", Surname: "Kennedy", Suffix: "Jr."}
	if got := p.Name(); got != "John Fitzgerald KENNEDY Jr." {
		t.Fatalf("unexpected name %q", got)
	}
	if p.Surname != "Kennedy" {
		t.Fatalf("stored surname must not be transformed, got %q", p.Surname)
	}
	if got := (Person{Given: "Rose"}).Name(); got != "Rose" {
		t.Fatalf("expected bare given name, got %q", got)
	}
}

func TestPersonStringIncludesEvents(t *testing.T) {
	p := Person{
		Given:   "Joseph",
		Surname: "Kennedy",
		Birth:   &Event{Date: "6 SEP 1888", Place: "Boston"},
		Death:   &Event{},
	}
	want := "Joseph KENNEDY, b: 6 SEP 1888 Boston, d: " + NoEventRecord
	if got := p.String(); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestEventRendering(t *testing.T) {
	cases := []struct {
		ev   Event
		want string
	}{
		{Event{}, NoEventRecord},
		{Event{Date: "1900"}, "1900"},
		{Event{Place: "Dallas"}, "Dallas"},
		{Event{Date: "1900", Place: "Dallas"}, "1900 Dallas"},
	}
	for _, tc := range cases {
		if got := tc.ev.String(); got != tc.want {
			t.Fatalf("%+v: got %q want %q", tc.ev, got, tc.want)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	p := Person{ID: "I1", Birth: &Event{Date: "1"}, SpouseOf: []FamilyID{"F1"}}
	c := p.Clone()
	c.Birth.Date = "2"
	c.SpouseOf[0] = "F9"
	if p.Birth.Date != "1" || p.SpouseOf[0] != "F1" {
		t.Fatalf("person clone shares state")
	}
	f := Family{ID: "F1", Children: []PersonID{"I2"}, Marriage: &Event{Place: "x"}}
	fc := f.Clone()
	fc.Children[0] = "I9"
	fc.Marriage.Place = "y"
	if f.Children[0] != "I2" || f.Marriage.Place != "x" {
		t.Fatalf("family clone shares state")
	}
}

func TestCoSpouse(t *testing.T) {
	f := Family{Spouse1: "I1", Spouse2: "I2"}
	if f.CoSpouse("I1") != "I2" || f.CoSpouse("I2") != "I1" {
		t.Fatalf("unexpected co-spouse")
	}
	if (Family{Spouse2: "I2"}).CoSpouse("I2") != "" {
		t.Fatalf("expected empty co-spouse")
	}
}

func TestErrorHelpers(t *testing.T) {
	nf := fmt.Errorf("lookup: %w", ErrNotFound{Entity: EntityPerson, ID: "I9"})
	if !IsNotFound(nf) || IsMalformedLine(nf) {
		t.Fatalf("expected not found classification")
	}
	if nf.Error() != "lookup: person I9 not found" {
		t.Fatalf("unexpected message %q", nf.Error())
	}
	ml := fmt.Errorf("load: %w", &MalformedLineError{Line: 3, Text: "X BADTAG", Reason: "missing level"})
	if !IsMalformedLine(ml) {
		t.Fatalf("expected malformed line classification")
	}
	uq := &UnsupportedQueryError{Query: "cousins", Reason: "degree must be at least 1"}
	if !IsUnsupportedQuery(uq) || IsNotFound(uq) {
		t.Fatalf("expected unsupported query classification")
	}
	if !errors.Is(fmt.Errorf("x: %w", ErrDepthExceeded), ErrDepthExceeded) {
		t.Fatalf("expected depth sentinel to unwrap")
	}
}

func TestHasBlocking(t *testing.T) {
	if HasBlocking([]Violation{{Severity: SeverityWarn}}) {
		t.Fatalf("warn must not block")
	}
	if !HasBlocking([]Violation{{Severity: SeverityWarn}, {Severity: SeverityBlock}}) {
		t.Fatalf("expected blocking")
	}
}
