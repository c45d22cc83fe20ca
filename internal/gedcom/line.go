// Package gedcom turns a GEDCOM-like stream of leveled, tagged lines into a
// tree.Tree and writes trees back out in the same shape.
package gedcom

import (
	"strconv"
	"strings"

	"gedtree/pkg/domain"
)

const (
	pointerDelim  = "@"
	minTagLen     = 3
	byteOrderMark = "\ufeff"
)

// Line is one tokenized input line: `level [@xref@] tag [value]`.
type Line struct {
	Number int
	Level  int
	Xref   string
	Tag    string
	Value  string
	Raw    string
}

// ParseLine tokenizes a single line. Blank lines report ok=false with no
// error. number is 1-based and only used for error reporting and BOM removal.
func ParseLine(number int, text string) (line Line, ok bool, err error) {
	text = strings.TrimRight(text, "\r\n")
	if number == 1 {
		text = strings.TrimPrefix(text, byteOrderMark)
	}
	if strings.TrimSpace(text) == "" {
		return Line{}, false, nil
	}
	malformed := func(reason string) (Line, bool, error) {
		return Line{}, false, &domain.MalformedLineError{Line: number, Text: text, Reason: reason}
	}

	levelTok, rest := nextToken(text)
	level, convErr := strconv.Atoi(levelTok)
	if convErr != nil || level < 0 {
		return malformed("missing level")
	}
	tok, rest := nextToken(rest)
	var xref string
	if strings.HasPrefix(tok, pointerDelim) {
		if len(tok) < 3 || !strings.HasSuffix(tok, pointerDelim) {
			return malformed("unterminated pointer")
		}
		xref = tok[1 : len(tok)-1]
		tok, rest = nextToken(rest)
	}
	switch {
	case tok == "":
		return malformed("missing tag")
	case len(tok) < minTagLen:
		return malformed("tag too short")
	}
	return Line{
		Number: number,
		Level:  level,
		Xref:   xref,
		Tag:    tok,
		Value:  strings.TrimSpace(rest),
		Raw:    text,
	}, true, nil
}

func nextToken(s string) (tok, rest string) {
	s = strings.TrimLeft(s, " \t")
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

// ExtractPointer returns the identifier inside a `@ID@` payload, ignoring
// anything after the closing delimiter.
func ExtractPointer(value string) (string, bool) {
	if !strings.HasPrefix(value, pointerDelim) {
		return "", false
	}
	end := strings.Index(value[1:], pointerDelim)
	if end <= 0 {
		return "", false
	}
	return value[1 : 1+end], true
}

// SplitName splits a NAME payload on the '/' surname markers into given
// name, surname and suffix, each trimmed.
func SplitName(value string) (given, surname, suffix string) {
	parts := strings.SplitN(value, "/", 3)
	given = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		surname = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		suffix = strings.TrimSpace(parts[2])
	}
	return given, surname, suffix
}

// FormatName is the inverse of SplitName.
func FormatName(given, surname, suffix string) string {
	if surname == "" && suffix == "" {
		return given
	}
	name := strings.TrimSpace(given + " /" + surname + "/")
	if suffix != "" {
		name += " " + suffix
	}
	return name
}
