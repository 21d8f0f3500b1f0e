// Package delta implements the operational transformation algebra over
// ordered edit sequences: the insert/retain/delete operation model, its
// normalization rules, and the Compose and Transform engines.
//
// A Delta is generic over its element type E (rune for plain text) and its
// attribute type A. The engine never looks inside attributes; it only calls
// the methods of the Attributes constraint.
package delta

import "slices"

type OpType string

const (
	Insert OpType = "insert"
	Retain OpType = "retain"
	Delete OpType = "delete"
)

// Attributes is the capability an attribute value must provide to be carried
// by inserts and retains. The receiver is the existing (or base) value.
//
// Merge combines an annotation with one applied after it. Transform resolves
// two annotations applied concurrently to the same content; priority is true
// when the receiver's side wins ties. Equal decides whether adjacent ops can
// be merged and IsEmpty whether the value is written to the wire at all.
//
// Clone returns a value that shares no memory with the receiver; value types
// return themselves. Prune drops clearing markers: an insert has nothing to
// clear, so its attributes are pruned when pushed. Types without markers
// return themselves.
type Attributes[A any] interface {
	Merge(incoming A) (A, error)
	Transform(concurrent A, priority bool) (A, error)
	Equal(other A) bool
	IsEmpty() bool
	Clone() A
	Prune() A
}

// Op is a single insert, retain or delete.
type Op[E comparable, A Attributes[A]] struct {
	Type       OpType
	Content    []E // only meaningful for Insert
	Count      int // only meaningful for Retain/Delete
	Attributes A   // ignored for Delete
}

func InsertOp[E comparable, A Attributes[A]](content []E, attrs A) Op[E, A] {
	return Op[E, A]{Type: Insert, Content: content, Attributes: attrs}
}

func RetainOp[E comparable, A Attributes[A]](n int, attrs A) Op[E, A] {
	return Op[E, A]{Type: Retain, Count: n, Attributes: attrs}
}

func DeleteOp[E comparable, A Attributes[A]](n int) Op[E, A] {
	return Op[E, A]{Type: Delete, Count: n}
}

// Len is the number of elements the op covers, whichever side they are on.
func (op Op[E, A]) Len() int {
	if op.Type == Insert {
		return len(op.Content)
	}
	return op.Count
}

// BaseLen is the number of elements the op consumes from its input document.
func (op Op[E, A]) BaseLen() int {
	if op.Type == Insert {
		return 0
	}
	return op.Count
}

// TargetLen is the number of elements the op produces in its output document.
func (op Op[E, A]) TargetLen() int {
	switch op.Type {
	case Insert:
		return len(op.Content)
	case Retain:
		return op.Count
	default:
		return 0
	}
}

func (op Op[E, A]) Equal(other Op[E, A]) bool {
	if op.Type != other.Type {
		return false
	}
	switch op.Type {
	case Insert:
		return slices.Equal(op.Content, other.Content) && op.Attributes.Equal(other.Attributes)
	case Retain:
		return op.Count == other.Count && op.Attributes.Equal(other.Attributes)
	default:
		return op.Count == other.Count
	}
}

func (op Op[E, A]) valid() bool {
	switch op.Type {
	case Insert:
		return len(op.Content) > 0
	case Retain, Delete:
		return op.Count > 0
	default:
		return false
	}
}

// slice returns the part of op covering [offset, offset+n).
func (op Op[E, A]) slice(offset, n int) Op[E, A] {
	switch op.Type {
	case Insert:
		return Op[E, A]{Type: Insert, Content: op.Content[offset : offset+n], Attributes: op.Attributes}
	case Retain:
		return Op[E, A]{Type: Retain, Count: n, Attributes: op.Attributes}
	default:
		return Op[E, A]{Type: Delete, Count: n}
	}
}
