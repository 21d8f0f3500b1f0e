package ol

import (
	"fmt"

	"github.com/kevinxiao27/ot-delta/delta"
)

// Apply runs d over the plain elements of a document. Attributes are
// ignored; use delta.Compose to keep them.
func Apply[E comparable, A delta.Attributes[A]](doc []E, d delta.Delta[E, A]) ([]E, error) {
	if base := d.BaseLen(); base != len(doc) {
		return nil, fmt.Errorf("%w: apply: document has %d elements, delta consumes %d", delta.ErrLengthMismatch, len(doc), base)
	}

	out := make([]E, 0, d.TargetLen())
	pos := 0
	for _, op := range d.Ops() {
		switch op.Type {
		case delta.Insert:
			out = append(out, op.Content...)
		case delta.Retain:
			out = append(out, doc[pos:pos+op.Count]...)
			pos += op.Count
		case delta.Delete:
			pos += op.Count
		}
	}
	return out, nil
}

// Checkout replays revs, in order, on top of the initial document and returns
// the resulting document delta.
func Checkout[E comparable, A delta.Attributes[A]](initial delta.Delta[E, A], revs []Revision[E, A]) (delta.Delta[E, A], error) {
	doc := initial
	for _, rev := range revs {
		var err error
		if doc, err = delta.Compose(doc, rev.Delta); err != nil {
			return delta.Delta[E, A]{}, fmt.Errorf("checkout revision %d: %w", rev.Rev, err)
		}
	}
	return doc, nil
}

// Checkout returns the elements of the head document.
func (l *OpLog[E, A]) Checkout() ([]E, error) {
	_, doc := l.Snapshot()
	return doc.Content()
}
