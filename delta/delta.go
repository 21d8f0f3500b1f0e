package delta

import (
	"fmt"
	"slices"

	"github.com/kevinxiao27/ot-delta/util"
)

// Delta is a normalized, immutable sequence of ops. The zero value is the
// empty delta. Deltas are only produced by a Builder, Compose, Transform or
// the JSON decoder, all of which normalize:
//
//   - no zero-length op is stored;
//   - adjacent ops of the same type with equal attributes are merged;
//   - an insert never directly follows a delete.
type Delta[E comparable, A Attributes[A]] struct {
	ops []Op[E, A]
}

// Ops returns a deep copy of the op sequence; modifying it leaves the delta
// untouched.
func (d Delta[E, A]) Ops() []Op[E, A] {
	ops := make([]Op[E, A], len(d.ops))
	for i, op := range d.ops {
		op.Content = slices.Clone(op.Content)
		op.Attributes = op.Attributes.Clone()
		ops[i] = op
	}
	return ops
}

// Len is the number of ops.
func (d Delta[E, A]) Len() int {
	return len(d.ops)
}

// BaseLen is the length of the document the delta applies to.
func (d Delta[E, A]) BaseLen() int {
	return util.Reduce(d.ops, func(op Op[E, A], n int) int { return n + op.BaseLen() }, 0)
}

// TargetLen is the length of the document the delta produces.
func (d Delta[E, A]) TargetLen() int {
	return util.Reduce(d.ops, func(op Op[E, A], n int) int { return n + op.TargetLen() }, 0)
}

// Equal reports structural equality of the normalized op sequences.
func (d Delta[E, A]) Equal(other Delta[E, A]) bool {
	return slices.EqualFunc(d.ops, other.ops, func(a, b Op[E, A]) bool { return a.Equal(b) })
}

// Normalize pushes every op through a fresh builder. On a delta that came
// from a builder it returns an equal delta.
func (d Delta[E, A]) Normalize() Delta[E, A] {
	b := NewBuilder[E, A]()
	for _, op := range d.ops {
		b.push(op)
	}
	return b.delta()
}

// Chop drops trailing retains that carry no attributes. The result no longer
// spans the whole base document; ExpandTo restores it.
func (d Delta[E, A]) Chop() Delta[E, A] {
	n := len(d.ops)
	for n > 0 && d.ops[n-1].Type == Retain && d.ops[n-1].Attributes.IsEmpty() {
		n--
	}
	return Delta[E, A]{ops: slices.Clone(d.ops[:n])}
}

// ExpandTo appends the implicit trailing retain so that the delta applies to
// a document of length n.
func (d Delta[E, A]) ExpandTo(n int) (Delta[E, A], error) {
	base := d.BaseLen()
	if base > n {
		return Delta[E, A]{}, lengthMismatch("expand base length", n, base)
	}
	var zero A
	b := builderFrom(d)
	b.push(RetainOp[E](n-base, zero))
	return b.delta(), nil
}

// Content returns the elements of a document delta, one made of inserts only.
func (d Delta[E, A]) Content() ([]E, error) {
	var content []E
	for i, op := range d.ops {
		if op.Type != Insert {
			return nil, fmt.Errorf("%w: op %d: %s in document delta", ErrInvalidOperation, i, op.Type)
		}
		content = append(content, op.Content...)
	}
	return content, nil
}

func (d Delta[E, A]) String() string {
	b, err := d.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("%v", d.ops)
	}
	return string(b)
}

// Builder accumulates ops into a normalized Delta. The first invalid op is
// remembered and reported by Build.
type Builder[E comparable, A Attributes[A]] struct {
	ops []Op[E, A]
	err error
}

func NewBuilder[E comparable, A Attributes[A]]() *Builder[E, A] {
	return &Builder[E, A]{}
}

func builderFrom[E comparable, A Attributes[A]](d Delta[E, A]) *Builder[E, A] {
	return &Builder[E, A]{ops: slices.Clone(d.ops)}
}

func (b *Builder[E, A]) Insert(content []E, attrs A) *Builder[E, A] {
	return b.Push(InsertOp(content, attrs))
}

func (b *Builder[E, A]) Retain(n int, attrs A) *Builder[E, A] {
	return b.Push(RetainOp[E](n, attrs))
}

func (b *Builder[E, A]) Delete(n int) *Builder[E, A] {
	return b.Push(DeleteOp[E, A](n))
}

// Push appends op, merging it into the last op where possible.
func (b *Builder[E, A]) Push(op Op[E, A]) *Builder[E, A] {
	if b.err != nil {
		return b
	}
	switch op.Type {
	case Insert:
	case Retain, Delete:
		if op.Count < 0 {
			b.err = invalidOperation(len(b.ops), op)
			return b
		}
	default:
		b.err = invalidOperation(len(b.ops), op)
		return b
	}
	b.push(op)
	return b
}

func (b *Builder[E, A]) Build() (Delta[E, A], error) {
	if b.err != nil {
		return Delta[E, A]{}, b.err
	}
	return b.delta(), nil
}

// MustBuild is like Build but panics on an invalid op.
func (b *Builder[E, A]) MustBuild() Delta[E, A] {
	d, err := b.Build()
	if err != nil {
		panic(err)
	}
	return d
}

func (b *Builder[E, A]) delta() Delta[E, A] {
	return Delta[E, A]{ops: slices.Clone(b.ops)}
}

// push assumes op has a known type and non-negative length.
func (b *Builder[E, A]) push(op Op[E, A]) {
	if op.Len() == 0 {
		return
	}
	switch op.Type {
	case Insert:
		op.Content = slices.Clone(op.Content)
		op.Attributes = op.Attributes.Prune()
	case Retain:
		op.Attributes = op.Attributes.Clone()
	case Delete:
		var zero A
		op.Attributes = zero
	}

	n := len(b.ops)
	if n == 0 {
		b.ops = append(b.ops, op)
		return
	}
	last := &b.ops[n-1]

	switch {
	case last.Type == Delete && op.Type == Delete:
		last.Count += op.Count
	case last.Type == Delete && op.Type == Insert:
		// Inserts go before deletes so equivalent deltas compare equal.
		del := *last
		b.ops = b.ops[:n-1]
		b.push(op)
		b.ops = append(b.ops, del)
	case last.Type == Insert && op.Type == Insert && last.Attributes.Equal(op.Attributes):
		last.Content = append(slices.Clip(last.Content), op.Content...)
	case last.Type == Retain && op.Type == Retain && last.Attributes.Equal(op.Attributes):
		last.Count += op.Count
	default:
		b.ops = append(b.ops, op)
	}
}
