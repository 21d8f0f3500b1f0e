package delta

// Compose returns the delta equivalent to applying base and then change.
// change must consume exactly the document base produces.
//
// Both deltas are walked together, each step consuming the shorter of the
// two current ops:
//
//	base \ change | insert | retain            | delete
//	insert        | change | insert, merged    | dropped
//	retain        | change | retain, merged    | delete
//	delete        | base   | base              | base
//
// Inserts from change and deletes from base are copied as they are; the
// other cells consume the same length from both sides.
func Compose[E comparable, A Attributes[A]](base, change Delta[E, A]) (Delta[E, A], error) {
	if err := validate(base); err != nil {
		return Delta[E, A]{}, err
	}
	if err := validate(change); err != nil {
		return Delta[E, A]{}, err
	}
	if want, got := base.TargetLen(), change.BaseLen(); want != got {
		return Delta[E, A]{}, lengthMismatch("compose change base length", want, got)
	}

	bi, ci := newIter(base), newIter(change)
	out := NewBuilder[E, A]()

	for !done(bi, ci) {
		if ci.peekType() == Insert {
			out.push(ci.next(ci.peekLen()))
			continue
		}
		if bi.peekType() == Delete {
			out.push(bi.next(bi.peekLen()))
			continue
		}
		if !bi.hasNext() || !ci.hasNext() {
			// Unreachable once the lengths above agree.
			return Delta[E, A]{}, lengthMismatch("compose remainder", bi.peekLen(), ci.peekLen())
		}

		n := min(bi.peekLen(), ci.peekLen())
		bop, cop := bi.next(n), ci.next(n)

		switch cop.Type {
		case Retain:
			attrs, err := bop.Attributes.Merge(cop.Attributes)
			if err != nil {
				return Delta[E, A]{}, err
			}
			if bop.Type == Insert {
				out.push(InsertOp(bop.Content, attrs))
			} else {
				out.push(RetainOp[E](n, attrs))
			}
		case Delete:
			if bop.Type == Retain {
				out.push(DeleteOp[E, A](n))
			}
		}
	}

	return out.delta(), nil
}
