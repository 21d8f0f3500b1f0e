package delta_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevinxiao27/ot-delta/attr"
	"github.com/kevinxiao27/ot-delta/delta"
)

func TestMarshalJSON(t *testing.T) {
	d := newText().
		Insert([]rune("Gandalf"), bold).
		Insert([]rune(" the "), nil).
		Retain(3, attr.Map{"color": nil}).
		Delete(2).
		MustBuild()

	got, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"insert": "Gandalf", "attributes": {"bold": true}},
		{"insert": " the "},
		{"retain": 3, "attributes": {"color": null}},
		{"delete": 2}
	]`, string(got))

	empty, err := json.Marshal(text{})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}

func TestUnmarshalJSON(t *testing.T) {
	want := newText().
		Insert([]rune("Grey"), attr.Map{"color": "#ccc"}).
		Retain(2, nil).
		Delete(1).
		MustBuild()

	for _, input := range []string{
		`[{"insert":"Grey","attributes":{"color":"#ccc"}},{"retain":2},{"delete":1}]`,
		`{"ops":[{"attributes":{"color":"#ccc"},"insert":"Gr"},{"insert":"ey","attributes":{"color":"#ccc"}},{"retain":1},{"retain":1},{"delete":1}]}`,
	} {
		var got text
		require.NoError(t, json.Unmarshal([]byte(input), &got), input)
		requireDeltaEqual(t, want, got)
	}
}

func TestUnmarshalJSONRejectsMalformedRecords(t *testing.T) {
	for _, input := range []string{
		`[{"retain":0}]`,
		`[{"delete":-2}]`,
		`[{"insert":""}]`,
		`[{"insert":"a","retain":1}]`,
		`[{"attributes":{"bold":true}}]`,
	} {
		var got text
		err := json.Unmarshal([]byte(input), &got)
		require.ErrorIs(t, err, delta.ErrInvalidOperation, input)
	}

	var got text
	require.Error(t, json.Unmarshal([]byte(`[{"insert":42}]`), &got))
}

func TestJSONRoundTripPreservesUnknownAttributes(t *testing.T) {
	input := `[{"insert":"x","attributes":{"data-id":"n1","width":120,"nested":{"a":[1,2]}}},{"retain":4,"attributes":{"link":"https://example.com"}}]`

	var d text
	require.NoError(t, json.Unmarshal([]byte(input), &d))
	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(out))
}

func TestJSONNonTextContent(t *testing.T) {
	d := delta.NewBuilder[int, attr.LastWriteWins[string]]().
		Insert([]int{1, 2, 3}, attr.Some("x")).
		Retain(2, attr.LastWriteWins[string]{}).
		MustBuild()

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"insert":[1,2,3],"attributes":"x"},{"retain":2}]`, string(out))

	var back delta.Delta[int, attr.LastWriteWins[string]]
	require.NoError(t, json.Unmarshal(out, &back))
	requireDeltaEqual(t, d, back)
}
