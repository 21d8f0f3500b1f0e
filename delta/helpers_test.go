package delta_test

import (
	"testing"

	"github.com/sanity-io/litter"
	"github.com/stretchr/testify/require"

	"github.com/kevinxiao27/ot-delta/attr"
	"github.com/kevinxiao27/ot-delta/delta"
)

type text = delta.Delta[rune, attr.Map]

var (
	bold   = attr.Map{"bold": true}
	italic = attr.Map{"italic": true}
	dump   = litter.Options{HidePrivateFields: false, Compact: true}
)

func newText() *delta.Builder[rune, attr.Map] {
	return delta.NewBuilder[rune, attr.Map]()
}

func requireDeltaEqual[E comparable, A delta.Attributes[A]](t *testing.T, want, got delta.Delta[E, A]) {
	t.Helper()
	require.Truef(t, want.Equal(got), "want %s\n got %s\n%s", want, got, dump.Sdump(got.Ops()))
}

func compose(t *testing.T, base, change text) text {
	t.Helper()
	out, err := delta.Compose(base, change)
	require.NoError(t, err)
	return out
}

func transform(t *testing.T, a, b text, priority bool) text {
	t.Helper()
	out, err := delta.Transform(a, b, priority)
	require.NoError(t, err)
	return out
}
