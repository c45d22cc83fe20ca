package tree

import (
	"io"
	"strings"
)

// Sink receives the text lines a query emits, in order.
type Sink interface {
	WriteLine(line string) error
}

type writerSink struct{ w io.Writer }

// WriterSink adapts an io.Writer, terminating every line with '\n'.
func WriterSink(w io.Writer) Sink { return writerSink{w: w} }

func (s writerSink) WriteLine(line string) error {
	_, err := io.WriteString(s.w, line+"\n")
	return err
}

// LineBuffer collects lines in memory.
type LineBuffer struct {
	lines []string
}

// WriteLine implements Sink.
func (b *LineBuffer) WriteLine(line string) error {
	b.lines = append(b.lines, line)
	return nil
}

// Lines returns a copy of the collected lines.
func (b *LineBuffer) Lines() []string {
	return append([]string(nil), b.lines...)
}

// String joins the collected lines with trailing newlines.
func (b *LineBuffer) String() string {
	if len(b.lines) == 0 {
		return ""
	}
	return strings.Join(b.lines, "\n") + "\n"
}
