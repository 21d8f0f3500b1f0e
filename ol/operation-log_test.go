package ol_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevinxiao27/ot-delta/attr"
	"github.com/kevinxiao27/ot-delta/delta"
	"github.com/kevinxiao27/ot-delta/ol"
)

type text = delta.Delta[rune, attr.Map]

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newText() *delta.Builder[rune, attr.Map] {
	return delta.NewBuilder[rune, attr.Map]()
}

func doc(s string) text {
	return newText().Insert([]rune(s), nil).MustBuild()
}

func newLog(t *testing.T, s string) *ol.OpLog[rune, attr.Map] {
	t.Helper()
	l, err := ol.NewOpLog(doc(s), ol.WithLogger(quiet))
	require.NoError(t, err)
	return l
}

func checkout(t *testing.T, l *ol.OpLog[rune, attr.Map]) string {
	t.Helper()
	content, err := l.Checkout()
	require.NoError(t, err)
	return string(content)
}

func TestNewOpLogRejectsEdit(t *testing.T) {
	_, err := ol.NewOpLog(newText().Retain(2, nil).MustBuild())
	require.ErrorIs(t, err, delta.ErrLengthMismatch)
}

func TestSubmitSequential(t *testing.T) {
	l := newLog(t, "ab")

	rev, err := l.Submit(ol.ID{Agent: "a", Seq: 1}, 0, newText().Retain(2, nil).Insert([]rune("c"), nil).MustBuild())
	require.NoError(t, err)
	assert.Equal(t, 1, rev.Rev)

	rev, err = l.Submit(ol.ID{Agent: "b", Seq: 1}, 1, newText().Delete(1).Retain(2, nil).MustBuild())
	require.NoError(t, err)
	assert.Equal(t, 2, rev.Rev)

	assert.Equal(t, 2, l.Head())
	assert.Equal(t, "bc", checkout(t, l))
	assert.Equal(t, ol.RemoteVersion{"a": 1, "b": 1}, l.Version())
}

func TestSubmitConcurrentHistoryWinsTies(t *testing.T) {
	l := newLog(t, "ab")

	_, err := l.Submit(ol.ID{Agent: "a", Seq: 1}, 0, newText().Insert([]rune("x"), nil).Retain(2, nil).MustBuild())
	require.NoError(t, err)
	rev, err := l.Submit(ol.ID{Agent: "b", Seq: 1}, 0, newText().Insert([]rune("y"), nil).Retain(2, nil).MustBuild())
	require.NoError(t, err)

	want := newText().Retain(1, nil).Insert([]rune("y"), nil).Retain(2, nil).MustBuild()
	assert.Truef(t, want.Equal(rev.Delta), "got %s", rev.Delta)
	assert.Equal(t, "xyab", checkout(t, l))
}

func TestSubmitExpandsChoppedDelta(t *testing.T) {
	l := newLog(t, "hello")

	_, err := l.Submit(ol.ID{Agent: "a", Seq: 1}, 0, newText().Insert([]rune(">"), nil).MustBuild())
	require.NoError(t, err)
	_, err = l.Submit(ol.ID{Agent: "b", Seq: 1}, 0, newText().Retain(1, nil).Delete(1).Insert([]rune("a"), nil).MustBuild())
	require.NoError(t, err)

	assert.Equal(t, ">hallo", checkout(t, l))
}

func TestSubmitDuplicate(t *testing.T) {
	l := newLog(t, "")
	id := ol.ID{Agent: "a", Seq: 1}

	first, err := l.Submit(id, 0, doc("x"))
	require.NoError(t, err)
	again, err := l.Submit(id, 0, doc("x"))
	require.NoError(t, err)

	assert.Equal(t, first.Rev, again.Rev)
	assert.Equal(t, 1, l.Head())
	assert.Equal(t, "x", checkout(t, l))
}

func TestSubmitErrors(t *testing.T) {
	l := newLog(t, "ab")
	_, err := l.Submit(ol.ID{Agent: "a", Seq: 1}, 0, newText().Retain(2, nil).MustBuild())
	require.NoError(t, err)

	tests := []struct {
		name    string
		id      ol.ID
		baseRev int
		d       text
		want    error
	}{
		{"sequence gap", ol.ID{Agent: "a", Seq: 3}, 1, newText().Retain(2, nil).MustBuild(), ol.ErrOutOfOrder},
		{"sequence starts above one", ol.ID{Agent: "b", Seq: 2}, 1, newText().Retain(2, nil).MustBuild(), ol.ErrOutOfOrder},
		{"future revision", ol.ID{Agent: "b", Seq: 1}, 2, newText().Retain(2, nil).MustBuild(), ol.ErrInvalidRevision},
		{"negative revision", ol.ID{Agent: "b", Seq: 1}, -1, newText().Retain(2, nil).MustBuild(), ol.ErrInvalidRevision},
		{"delta too long", ol.ID{Agent: "b", Seq: 1}, 1, newText().Retain(3, nil).MustBuild(), delta.ErrLengthMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Submit(tt.id, tt.baseRev, tt.d)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, 1, l.Head())
		})
	}
}

func TestSince(t *testing.T) {
	l := newLog(t, "")
	for i, s := range []string{"a", "b", "c"} {
		_, err := l.Submit(ol.ID{Agent: "a", Seq: i + 1}, i, newText().Retain(i, nil).Insert([]rune(s), nil).MustBuild())
		require.NoError(t, err)
	}

	revs, err := l.Since(1)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, 2, revs[0].Rev)
	assert.Equal(t, 3, revs[1].Rev)

	revs, err = l.Since(3)
	require.NoError(t, err)
	assert.Empty(t, revs)

	_, err = l.Since(4)
	require.ErrorIs(t, err, ol.ErrInvalidRevision)
}

func TestCheckoutReplaysHistory(t *testing.T) {
	l := newLog(t, "ab")
	bold := attr.Map{"bold": true}
	_, err := l.Submit(ol.ID{Agent: "a", Seq: 1}, 0, newText().Retain(1, bold).Insert([]rune("!"), nil).MustBuild())
	require.NoError(t, err)
	_, err = l.Submit(ol.ID{Agent: "b", Seq: 1}, 0, newText().Retain(1, nil).Delete(1).MustBuild())
	require.NoError(t, err)

	revs, err := l.Since(0)
	require.NoError(t, err)
	replayed, err := ol.Checkout(doc("ab"), revs)
	require.NoError(t, err)

	rev, head := l.Snapshot()
	assert.Equal(t, 2, rev)
	assert.Truef(t, head.Equal(replayed), "head %s, replayed %s", head, replayed)

	want := newText().Insert([]rune("a"), bold).Insert([]rune("!"), nil).MustBuild()
	assert.Truef(t, want.Equal(head), "got %s", head)
}

func TestApply(t *testing.T) {
	d := newText().Retain(1, nil).Delete(1).Insert([]rune("a"), attr.Map{"bold": true}).Retain(3, nil).MustBuild()
	out, err := ol.Apply([]rune("hello"), d)
	require.NoError(t, err)
	assert.Equal(t, "hallo", string(out))

	_, err = ol.Apply([]rune("hi"), d)
	require.ErrorIs(t, err, delta.ErrLengthMismatch)
}
