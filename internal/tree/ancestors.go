package tree

import (
	"fmt"
	"strings"

	"gedtree/pkg/domain"
)

const generationIndent = "   "

// Ancestors writes the ancestor chart of id in post-order: father's line,
// mother's line, then the person. Each line is labelled with its generation,
// 0 being the subject, and indented three spaces per generation.
func Ancestors(t *Tree, id domain.PersonID, sink Sink, opts ...Option) error {
	if _, err := t.person(id); err != nil {
		return err
	}
	return newWalker(t, opts).ascend(sink, id, 0)
}

func (w *walker) ascend(sink Sink, id domain.PersonID, generation int) error {
	p, err := w.enter(id, generation)
	if err != nil {
		return err
	}
	defer w.leave(id)

	parents, err := w.parents(p)
	if err != nil {
		return fmt.Errorf("family of origin of %s: %w", id, err)
	}
	for _, parent := range parents {
		if err := w.ascend(sink, parent, generation+1); err != nil {
			return err
		}
	}
	return sink.WriteLine(fmt.Sprintf("%s%d %s", strings.Repeat(generationIndent, generation), generation, p))
}
