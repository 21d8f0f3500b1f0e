package attr

import "encoding/json"

// LastWriteWins holds a single optional value. The later of two sequential
// writes wins; between concurrent writes the priority side wins, and a side
// that wrote nothing defers to the other.
type LastWriteWins[T comparable] struct {
	Value T
	Set   bool
}

func Some[T comparable](v T) LastWriteWins[T] {
	return LastWriteWins[T]{Value: v, Set: true}
}

func (w LastWriteWins[T]) Merge(incoming LastWriteWins[T]) (LastWriteWins[T], error) {
	if incoming.Set {
		return incoming, nil
	}
	return w, nil
}

func (w LastWriteWins[T]) Transform(concurrent LastWriteWins[T], priority bool) (LastWriteWins[T], error) {
	if priority {
		return w.or(concurrent), nil
	}
	return concurrent.or(w), nil
}

func (w LastWriteWins[T]) Equal(other LastWriteWins[T]) bool {
	return w == other
}

func (w LastWriteWins[T]) IsEmpty() bool {
	return !w.Set
}

// Clone and Prune return w unchanged; an unset value is the only way to
// express "no write".
func (w LastWriteWins[T]) Clone() LastWriteWins[T] { return w }
func (w LastWriteWins[T]) Prune() LastWriteWins[T] { return w }

func (w LastWriteWins[T]) or(other LastWriteWins[T]) LastWriteWins[T] {
	if w.Set {
		return w
	}
	return other
}

func (w LastWriteWins[T]) MarshalJSON() ([]byte, error) {
	if !w.Set {
		return []byte("null"), nil
	}
	return json.Marshal(w.Value)
}

func (w *LastWriteWins[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*w = LastWriteWins[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*w = Some(v)
	return nil
}

// None is the attribute type of plain text: there is nothing to merge.
type None struct{}

func (None) Merge(None) (None, error)           { return None{}, nil }
func (None) Transform(None, bool) (None, error) { return None{}, nil }
func (None) Equal(None) bool                    { return true }
func (None) IsEmpty() bool                      { return true }
func (None) Clone() None                        { return None{} }
func (None) Prune() None                        { return None{} }
