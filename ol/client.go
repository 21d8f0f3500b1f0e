package ol

import (
	"errors"
	"fmt"

	"github.com/kevinxiao27/ot-delta/delta"
)

var ErrNotAwaiting = errors.New("ol: no submission awaiting acknowledgement")

// Submission is a local delta on its way to the log.
type Submission[E comparable, A delta.Attributes[A]] struct {
	ID      ID                `json:"id"`
	BaseRev int               `json:"base"`
	Delta   delta.Delta[E, A] `json:"delta"`
}

// Client tracks one replica of a document. At most one submission is in
// flight; local edits made meanwhile are composed into a buffer and sent once
// the in-flight submission is acknowledged.
type Client[E comparable, A delta.Attributes[A]] struct {
	agent string
	seq   int
	rev   int
	doc   delta.Delta[E, A]

	outstanding *delta.Delta[E, A]
	buffer      *delta.Delta[E, A]
}

// NewClient starts a replica at revision rev of doc.
func NewClient[E comparable, A delta.Attributes[A]](agent string, rev int, doc delta.Delta[E, A]) *Client[E, A] {
	return &Client[E, A]{agent: agent, rev: rev, doc: doc}
}

func (c *Client[E, A]) Agent() string               { return c.agent }
func (c *Client[E, A]) Revision() int               { return c.rev }
func (c *Client[E, A]) Document() delta.Delta[E, A] { return c.doc }

// Awaiting reports whether a submission is in flight.
func (c *Client[E, A]) Awaiting() bool { return c.outstanding != nil }

// ApplyLocal applies a local edit. It returns a submission to send when
// nothing else is in flight, or nil when the edit was buffered.
func (c *Client[E, A]) ApplyLocal(d delta.Delta[E, A]) (*Submission[E, A], error) {
	doc, err := delta.Compose(c.doc, d)
	if err != nil {
		return nil, fmt.Errorf("apply local: %w", err)
	}

	switch {
	case c.outstanding == nil:
		c.outstanding = &d
		c.doc = doc
		return c.submission(d), nil
	case c.buffer == nil:
		c.buffer = &d
	default:
		buf, err := delta.Compose(*c.buffer, d)
		if err != nil {
			return nil, fmt.Errorf("buffer local: %w", err)
		}
		c.buffer = &buf
	}
	c.doc = doc
	return nil, nil
}

// ApplyRemote applies a revision made by another agent. The in-flight and
// buffered deltas are rebased over it; the log's history wins ties.
func (c *Client[E, A]) ApplyRemote(r Revision[E, A]) error {
	if r.Rev != c.rev+1 {
		return fmt.Errorf("%w: at %d, received %d", ErrInvalidRevision, c.rev, r.Rev)
	}

	remote := r.Delta
	for _, pending := range []**delta.Delta[E, A]{&c.outstanding, &c.buffer} {
		if *pending == nil {
			continue
		}
		mine, err := delta.Transform(**pending, remote, false)
		if err != nil {
			return fmt.Errorf("rebase over revision %d: %w", r.Rev, err)
		}
		if remote, err = delta.Transform(remote, **pending, true); err != nil {
			return fmt.Errorf("rebase revision %d: %w", r.Rev, err)
		}
		*pending = &mine
	}

	doc, err := delta.Compose(c.doc, remote)
	if err != nil {
		return fmt.Errorf("apply revision %d: %w", r.Rev, err)
	}
	c.doc = doc
	c.rev = r.Rev
	return nil
}

// Ack records that the in-flight submission was accepted as the next
// revision. The buffer, if any, becomes the next submission.
func (c *Client[E, A]) Ack() (*Submission[E, A], error) {
	if c.outstanding == nil {
		return nil, ErrNotAwaiting
	}
	c.rev++
	c.outstanding, c.buffer = c.buffer, nil
	if c.outstanding == nil {
		return nil, nil
	}
	return c.submission(*c.outstanding), nil
}

func (c *Client[E, A]) submission(d delta.Delta[E, A]) *Submission[E, A] {
	c.seq++
	return &Submission[E, A]{ID: ID{Agent: c.agent, Seq: c.seq}, BaseRev: c.rev, Delta: d}
}
