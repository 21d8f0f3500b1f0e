package delta

import (
	"errors"
	"fmt"
)

var (
	// ErrLengthMismatch is returned when two deltas do not line up: transform
	// over different base lengths, or compose where the change does not
	// consume exactly what the base produces.
	ErrLengthMismatch = errors.New("delta: length mismatch")

	// ErrInvalidOperation is returned for zero or negative length ops, empty
	// inserts and unknown op types.
	ErrInvalidOperation = errors.New("delta: invalid operation")
)

func lengthMismatch(what string, want, got int) error {
	return fmt.Errorf("%w: %s: want %d, got %d", ErrLengthMismatch, what, want, got)
}

func invalidOperation[E comparable, A Attributes[A]](index int, op Op[E, A]) error {
	return fmt.Errorf("%w: op %d: %s of length %d", ErrInvalidOperation, index, op.Type, op.Len())
}

// validate rejects ops that the builder would never store.
func validate[E comparable, A Attributes[A]](d Delta[E, A]) error {
	for i, op := range d.ops {
		if !op.valid() {
			return invalidOperation(i, op)
		}
	}
	return nil
}
