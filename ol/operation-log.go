package ol

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/kevinxiao27/ot-delta/delta"
	"github.com/kevinxiao27/ot-delta/util"
)

var (
	ErrInvalidRevision = errors.New("ol: invalid revision")
	ErrOutOfOrder      = errors.New("ol: sequence number out of order")
)

// NewOpLog starts a log whose revision 0 is doc. doc must be a document
// delta, one that applies to the empty document.
func NewOpLog[E comparable, A delta.Attributes[A]](doc delta.Delta[E, A], opts ...Option) (*OpLog[E, A], error) {
	if n := doc.BaseLen(); n != 0 {
		return nil, fmt.Errorf("%w: initial document consumes %d elements", delta.ErrLengthMismatch, n)
	}
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &OpLog[E, A]{
		revs:    []Revision[E, A]{},
		lengths: []int{doc.TargetLen()},
		byID:    make(map[ID]int),
		doc:     doc,
		version: make(RemoteVersion),
		logger:  o.logger,
	}, nil
}

// Submit accepts a delta made by id against revision baseRev. The delta is
// expanded to the length of that revision, transformed against every
// revision accepted since, and appended. Accepted revisions win ties against
// the incoming delta.
//
// Resubmitting an accepted id returns the stored revision. Sequence numbers
// of an agent must otherwise increase by one.
func (l *OpLog[E, A]) Submit(id ID, baseRev int, d delta.Delta[E, A]) (Revision[E, A], error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	agent, seq := id.Unpack()
	last := l.version[agent]
	if seq <= last {
		if i, ok := l.byID[id]; ok {
			l.logger.Debug("duplicate submission", "agent", agent, "seq", seq, "rev", l.revs[i].Rev)
			return l.revs[i], nil
		}
	}
	if seq != last+1 {
		return Revision[E, A]{}, fmt.Errorf("%w: agent %s: want seq %d, got %d", ErrOutOfOrder, agent, last+1, seq)
	}
	if baseRev < 0 || baseRev > len(l.revs) {
		return Revision[E, A]{}, fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidRevision, baseRev, len(l.revs))
	}

	d, err := d.ExpandTo(l.lengths[baseRev])
	if err != nil {
		return Revision[E, A]{}, fmt.Errorf("expand to revision %d: %w", baseRev, err)
	}
	for _, rev := range l.revs[baseRev:] {
		if d, err = delta.Transform(d, rev.Delta, false); err != nil {
			return Revision[E, A]{}, fmt.Errorf("transform against revision %d: %w", rev.Rev, err)
		}
	}
	doc, err := delta.Compose(l.doc, d)
	if err != nil {
		return Revision[E, A]{}, fmt.Errorf("compose revision %d: %w", len(l.revs)+1, err)
	}

	rev := Revision[E, A]{Rev: len(l.revs) + 1, ID: id, Delta: d}
	l.byID[id] = len(l.revs)
	l.revs = append(l.revs, rev)
	l.lengths = append(l.lengths, doc.TargetLen())
	l.doc = doc
	l.version[agent] = seq

	l.logger.Debug("accepted revision",
		"agent", agent,
		"seq", seq,
		"base", baseRev,
		"rev", rev.Rev,
		"transformed", rev.Rev-1-baseRev)
	return rev, nil
}

// Since returns the revisions accepted after rev.
func (l *OpLog[E, A]) Since(rev int) ([]Revision[E, A], error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if rev < 0 || rev > len(l.revs) {
		return nil, fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidRevision, rev, len(l.revs))
	}
	return util.Filter(l.revs, func(r Revision[E, A]) bool { return r.Rev > rev }), nil
}

// Head is the number of accepted revisions.
func (l *OpLog[E, A]) Head() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.revs)
}

// Snapshot returns the head revision and the document at that revision.
func (l *OpLog[E, A]) Snapshot() (int, delta.Delta[E, A]) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.revs), l.doc
}

// Version returns a copy of the last accepted sequence number per agent.
func (l *OpLog[E, A]) Version() RemoteVersion {
	l.mu.Lock()
	defer l.mu.Unlock()
	v := make(RemoteVersion, len(l.version))
	for agent, seq := range l.version {
		v[agent] = seq
	}
	return v
}
