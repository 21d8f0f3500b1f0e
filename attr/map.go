// Package attr provides attribute policies for delta.Delta: a flat key/value
// Map compatible with Quill's attribute objects, a whole-value LastWriteWins
// and None for plain text.
package attr

import (
	"maps"
	"reflect"

	mapset "github.com/deckarep/golang-set/v2"
)

// Map is a flat set of formatting attributes. A nil value is a clearing
// marker: on a retain it removes the key from the retained content, on an
// insert it means nothing and is pruned.
//
// Merge is last-write-wins per key. Transform keeps, for every key either
// side set, the value of the priority side if both set it and otherwise the
// value of whichever side did.
type Map map[string]any

func (m Map) Merge(incoming Map) (Map, error) {
	if len(incoming) == 0 {
		return m.Clone(), nil
	}
	out := make(Map, len(m)+len(incoming))
	maps.Copy(out, m)
	maps.Copy(out, incoming)
	return out, nil
}

func (m Map) Transform(concurrent Map, priority bool) (Map, error) {
	keys := mapset.NewThreadUnsafeSet[string]()
	for k := range m {
		keys.Add(k)
	}
	for k := range concurrent {
		keys.Add(k)
	}
	if keys.Cardinality() == 0 {
		return nil, nil
	}

	out := make(Map, keys.Cardinality())
	for _, k := range keys.ToSlice() {
		mine, inMine := m[k]
		theirs, inTheirs := concurrent[k]
		switch {
		case inMine && inTheirs:
			if priority {
				out[k] = mine
			} else {
				out[k] = theirs
			}
		case inMine:
			out[k] = mine
		default:
			out[k] = theirs
		}
	}
	return out, nil
}

func (m Map) Equal(other Map) bool {
	if len(m) != len(other) {
		return false
	}
	for k, v := range m {
		ov, ok := other[k]
		if !ok || !reflect.DeepEqual(v, ov) {
			return false
		}
	}
	return true
}

func (m Map) IsEmpty() bool {
	return len(m) == 0
}

// Clone returns a copy, or nil for an empty map.
func (m Map) Clone() Map {
	if len(m) == 0 {
		return nil
	}
	return maps.Clone(m)
}

// Prune drops clearing markers.
func (m Map) Prune() Map {
	var out Map
	for k, v := range m {
		if v == nil {
			continue
		}
		if out == nil {
			out = make(Map, len(m))
		}
		out[k] = v
	}
	return out
}
