// Package ol keeps the revision log of a shared document: the sequencing loop
// that orders concurrent deltas into a single history, and the client-side
// state machine that talks to it.
package ol

import (
	"log/slog"
	"sync"

	"github.com/kevinxiao27/ot-delta/delta"
)

// ID identifies a submitted delta by the agent that made it and the agent's
// own sequence number, starting at 1.
type ID struct {
	Agent string `json:"agent"`
	Seq   int    `json:"seq"`
}

func (id ID) Unpack() (string, int) {
	return id.Agent, id.Seq
}

// Revision is an accepted delta. Rev counts from 1; revision 0 is the
// initial document.
type Revision[E comparable, A delta.Attributes[A]] struct {
	Rev   int               `json:"rev"`
	ID    ID                `json:"id"`
	Delta delta.Delta[E, A] `json:"delta"`
}

type RemoteVersion map[string]int // [agent] : last accepted sequence number

// OpLog serializes submissions for one document. It is safe for concurrent
// use; submissions are processed one at a time.
type OpLog[E comparable, A delta.Attributes[A]] struct {
	mu      sync.Mutex
	revs    []Revision[E, A]
	lengths []int // lengths[k] is the document length after k revisions
	byID    map[ID]int
	doc     delta.Delta[E, A]
	version RemoteVersion
	logger  *slog.Logger
}

type options struct {
	logger *slog.Logger
}

type Option func(*options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}
