package gedcom

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"gedtree/internal/tree"
	"gedtree/pkg/domain"
)

// Recognized tags.
const (
	TagIndividual = "INDI"
	TagFamily     = "FAM"
	TagName       = "NAME"
	TagSpouseOf   = "FAMS"
	TagChildOf    = "FAMC"
	TagBirth      = "BIRT"
	TagDeath      = "DEAT"
	TagMarriage   = "MARR"
	TagDate       = "DATE"
	TagPlace      = "PLAC"
	TagHusband    = "HUSB"
	TagWife       = "WIFE"
	TagChild      = "CHIL"
)

// LineSource yields raw lines in order. *bufio.Scanner satisfies it.
type LineSource interface {
	Scan() bool
	Text() string
	Err() error
}

// State is the position of the record state machine.
type State int

// Parser states.
const (
	StateStart State = iota
	StateInPerson
	StateInFamily
	StateInBirth
	StateInDeath
	StateInMarriage
	StateSkip
	StateDone
)

var stateNames = [...]string{"start", "in_person", "in_family", "in_birth", "in_death", "in_marriage", "skip", "done"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ErrParserClosed is returned by Feed after Close.
var ErrParserClosed = errors.New("gedcom: parser closed")

const maxLineBytes = 1 << 20

// Parse reads a whole stream and returns the loaded tree. Any malformed line
// discards the load.
func Parse(r io.Reader) (*tree.Tree, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return ParseLines(sc)
}

// ParseLines drives a Parser over src until it is exhausted.
func ParseLines(src LineSource) (*tree.Tree, error) {
	p := NewParser()
	for src.Scan() {
		if err := p.Feed(src.Text()); err != nil {
			return nil, err
		}
	}
	if err := src.Err(); err != nil {
		return nil, fmt.Errorf("read gedcom: %w", err)
	}
	return p.Close()
}

// Parser is the per-record state machine. Each fed line is fully tokenized
// and validated before the builder is touched, so a failing line leaves the
// accumulated records unchanged.
type Parser struct {
	b      *tree.Builder
	state  State
	line   int
	person *domain.Person
	family *domain.Family
	event  *domain.Event
}

// NewParser returns a parser in StateStart.
func NewParser() *Parser {
	return &Parser{b: tree.NewBuilder(), state: StateStart}
}

// State reports the current machine state.
func (p *Parser) State() State { return p.state }

// Feed consumes the next raw line.
func (p *Parser) Feed(text string) error {
	if p.state == StateDone {
		return ErrParserClosed
	}
	p.line++
	ln, ok, err := ParseLine(p.line, text)
	if err != nil || !ok {
		return err
	}
	return p.apply(ln)
}

// Close ends input. The open record, if any, is complete as it stands.
func (p *Parser) Close() (*tree.Tree, error) {
	if p.state == StateDone {
		return nil, ErrParserClosed
	}
	p.closeEvent()
	p.state = StateDone
	return p.b.Build(), nil
}

func (p *Parser) apply(ln Line) error {
	if ln.Level == 0 {
		p.closeEvent()
		p.startRecord(ln)
		return nil
	}
	switch p.state {
	case StateInBirth, StateInDeath, StateInMarriage:
		if p.consumeEventField(ln) {
			return nil
		}
		p.closeEvent()
	}
	if ln.Level != 1 {
		return nil
	}
	switch p.state {
	case StateInPerson:
		return p.personField(ln)
	case StateInFamily:
		return p.familyField(ln)
	default:
		return nil
	}
}

func (p *Parser) startRecord(ln Line) {
	p.person, p.family = nil, nil
	switch {
	case ln.Xref != "" && ln.Tag == TagIndividual:
		p.person = p.b.Person(domain.PersonID(ln.Xref))
		p.state = StateInPerson
	case ln.Xref != "" && ln.Tag == TagFamily:
		p.family = p.b.Family(domain.FamilyID(ln.Xref))
		p.state = StateInFamily
	default:
		p.state = StateSkip
	}
}

func (p *Parser) personField(ln Line) error {
	switch ln.Tag {
	case TagName:
		p.person.Given, p.person.Surname, p.person.Suffix = SplitName(ln.Value)
	case TagSpouseOf:
		id, err := pointer(ln)
		if err != nil {
			return err
		}
		p.person.SpouseOf = append(p.person.SpouseOf, domain.FamilyID(id))
	case TagChildOf:
		id, err := pointer(ln)
		if err != nil {
			return err
		}
		p.person.ChildOf = domain.FamilyID(id)
	case TagBirth:
		p.event = &domain.Event{}
		p.person.Birth = p.event
		p.state = StateInBirth
	case TagDeath:
		p.event = &domain.Event{}
		p.person.Death = p.event
		p.state = StateInDeath
	}
	return nil
}

func (p *Parser) familyField(ln Line) error {
	switch ln.Tag {
	case TagHusband, TagWife, TagChild:
		id, err := pointer(ln)
		if err != nil {
			return err
		}
		pid := domain.PersonID(id)
		switch ln.Tag {
		case TagHusband:
			p.family.Spouse1 = pid
		case TagWife:
			p.family.Spouse2 = pid
		default:
			p.family.Children = append(p.family.Children, pid)
		}
	case TagMarriage:
		p.event = &domain.Event{}
		p.family.Marriage = p.event
		p.state = StateInMarriage
	}
	return nil
}

// consumeEventField accepts a DATE first and then a PLAC, both one level
// below the event. Anything else ends the event.
func (p *Parser) consumeEventField(ln Line) bool {
	if ln.Level < 2 {
		return false
	}
	switch ln.Tag {
	case TagDate:
		if p.event.Date == "" && p.event.Place == "" {
			p.event.Date = ln.Value
			return true
		}
	case TagPlace:
		if p.event.Place == "" {
			p.event.Place = ln.Value
			return true
		}
	}
	return false
}

func (p *Parser) closeEvent() {
	if p.event == nil {
		return
	}
	p.event = nil
	switch p.state {
	case StateInBirth, StateInDeath:
		p.state = StateInPerson
	case StateInMarriage:
		p.state = StateInFamily
	}
}

func pointer(ln Line) (string, error) {
	id, ok := ExtractPointer(ln.Value)
	if !ok {
		return "", &domain.MalformedLineError{Line: ln.Number, Text: ln.Raw, Reason: fmt.Sprintf("%s payload is not a pointer", ln.Tag)}
	}
	return id, nil
}
