package delta

// Transform rebases a over b, where both were produced against the same
// document. The result applies after b and has the effect a intended:
//
//	compose(b, Transform(a, b, p)) == compose(a, Transform(b, a, !p))
//
// priority breaks ties between inserts at the same position: when true, a's
// insert lands before b's. Exactly one side of a pair must pass true.
//
//	a \ b  | insert         | retain              | delete
//	insert | a first if p   | insert              | insert
//	retain | retain over b  | retain, transformed | nothing
//	delete | retain over b  | delete              | nothing
func Transform[E comparable, A Attributes[A]](a, b Delta[E, A], priority bool) (Delta[E, A], error) {
	if err := validate(a); err != nil {
		return Delta[E, A]{}, err
	}
	if err := validate(b); err != nil {
		return Delta[E, A]{}, err
	}
	if want, got := b.BaseLen(), a.BaseLen(); want != got {
		return Delta[E, A]{}, lengthMismatch("transform base length", want, got)
	}

	ai, bi := newIter(a), newIter(b)
	out := NewBuilder[E, A]()
	var zero A

	for !done(ai, bi) {
		if ai.peekType() == Insert && (priority || bi.peekType() != Insert) {
			out.push(ai.next(ai.peekLen()))
			continue
		}
		if bi.peekType() == Insert {
			out.push(RetainOp[E](bi.next(bi.peekLen()).Len(), zero))
			continue
		}
		if !ai.hasNext() || !bi.hasNext() {
			// Unreachable once the base lengths agree.
			return Delta[E, A]{}, lengthMismatch("transform remainder", bi.peekLen(), ai.peekLen())
		}

		n := min(ai.peekLen(), bi.peekLen())
		aop, bop := ai.next(n), bi.next(n)
		if bop.Type != Retain {
			// b deleted the range; there is nothing left for a to act on.
			continue
		}

		switch aop.Type {
		case Retain:
			attrs, err := aop.Attributes.Transform(bop.Attributes, priority)
			if err != nil {
				return Delta[E, A]{}, err
			}
			out.push(RetainOp[E](n, attrs))
		case Delete:
			out.push(DeleteOp[E, A](n))
		}
	}

	return out.delta(), nil
}
