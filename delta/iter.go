package delta

// iter walks an op sequence and hands out pieces of the current op. index is
// the op being consumed and offset how much of it has been handed out.
type iter[E comparable, A Attributes[A]] struct {
	ops    []Op[E, A]
	index  int
	offset int
}

func newIter[E comparable, A Attributes[A]](d Delta[E, A]) *iter[E, A] {
	return &iter[E, A]{ops: d.ops}
}

func (it *iter[E, A]) hasNext() bool {
	return it.index < len(it.ops)
}

// peekType is empty once the iterator is exhausted.
func (it *iter[E, A]) peekType() OpType {
	if !it.hasNext() {
		return ""
	}
	return it.ops[it.index].Type
}

// peekLen is the remaining length of the current op.
func (it *iter[E, A]) peekLen() int {
	if !it.hasNext() {
		return 0
	}
	return it.ops[it.index].Len() - it.offset
}

// next consumes at most n elements of the current op.
func (it *iter[E, A]) next(n int) Op[E, A] {
	op := it.ops[it.index]
	rest := op.Len() - it.offset
	if n >= rest {
		n = rest
	}
	piece := op.slice(it.offset, n)
	if n == rest {
		it.index++
		it.offset = 0
	} else {
		it.offset += n
	}
	return piece
}

// done reports whether both iterators are exhausted.
func done[E comparable, A Attributes[A]](a, b *iter[E, A]) bool {
	return !a.hasNext() && !b.hasNext()
}
