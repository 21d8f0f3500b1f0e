package main

import (
	"fmt"
	"log"

	"github.com/sanity-io/litter"

	"github.com/kevinxiao27/ot-delta/attr"
	"github.com/kevinxiao27/ot-delta/delta"
	"github.com/kevinxiao27/ot-delta/ol"
)

type text = delta.Delta[rune, attr.Map]

func edit() *delta.Builder[rune, attr.Map] {
	return delta.NewBuilder[rune, attr.Map]()
}

// Two replicas edit "Hello World" concurrently, the log sequences both
// edits, and every copy ends up as "Hello, World!".
func main() {
	litter.Config.HidePrivateFields = false

	initial := edit().Insert([]rune("Hello World"), nil).MustBuild()
	oplog, err := ol.NewOpLog(initial)
	if err != nil {
		log.Fatal(err)
	}
	alice := ol.NewClient("alice", 0, initial)
	bob := ol.NewClient("bob", 0, initial)

	comma, err := alice.ApplyLocal(edit().Retain(5, nil).Insert([]rune(","), nil).Retain(6, nil).MustBuild())
	if err != nil {
		log.Fatal(err)
	}
	bang, err := bob.ApplyLocal(edit().Retain(11, nil).Insert([]rune("!"), attr.Map{"bold": true}).MustBuild())
	if err != nil {
		log.Fatal(err)
	}

	revs := make([]ol.Revision[rune, attr.Map], 0, 2)
	for _, sub := range []*ol.Submission[rune, attr.Map]{comma, bang} {
		rev, err := oplog.Submit(sub.ID, sub.BaseRev, sub.Delta)
		if err != nil {
			log.Fatal(err)
		}
		revs = append(revs, rev)
	}

	if _, err := alice.Ack(); err != nil {
		log.Fatal(err)
	}
	if err := alice.ApplyRemote(revs[1]); err != nil {
		log.Fatal(err)
	}
	if err := bob.ApplyRemote(revs[0]); err != nil {
		log.Fatal(err)
	}
	if _, err := bob.Ack(); err != nil {
		log.Fatal(err)
	}

	litter.Dump(revs)

	_, head := oplog.Snapshot()
	for name, doc := range map[string]text{"log": head, "alice": alice.Document(), "bob": bob.Document()} {
		content, err := doc.Content()
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%-5s → '%s' %s\n", name, string(content), doc)
	}
}
