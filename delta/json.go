package delta

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// record is the Quill wire shape of one op. Exactly one of Insert, Retain
// and Delete is set.
type record struct {
	Insert     json.RawMessage `json:"insert,omitempty"`
	Retain     *int            `json:"retain,omitempty"`
	Delete     *int            `json:"delete,omitempty"`
	Attributes json.RawMessage `json:"attributes,omitempty"`
}

// MarshalJSON writes rune content as a JSON string and any other element type
// as a JSON array. Empty attributes are omitted.
func (op Op[E, A]) MarshalJSON() ([]byte, error) {
	var rec record
	switch op.Type {
	case Insert:
		content, err := marshalContent(op.Content)
		if err != nil {
			return nil, err
		}
		rec.Insert = content
	case Retain:
		n := op.Count
		rec.Retain = &n
	case Delete:
		n := op.Count
		rec.Delete = &n
	default:
		return nil, fmt.Errorf("%w: unknown op type %q", ErrInvalidOperation, op.Type)
	}
	if op.Type != Delete && !op.Attributes.IsEmpty() {
		attrs, err := json.Marshal(op.Attributes)
		if err != nil {
			return nil, fmt.Errorf("marshal attributes: %w", err)
		}
		rec.Attributes = attrs
	}
	return json.Marshal(rec)
}

func (op *Op[E, A]) UnmarshalJSON(data []byte) error {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}

	set := 0
	for _, present := range []bool{rec.Insert != nil, rec.Retain != nil, rec.Delete != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("%w: record must have exactly one of insert, retain, delete: %s", ErrInvalidOperation, data)
	}

	var attrs A
	if len(rec.Attributes) > 0 && !bytes.Equal(rec.Attributes, []byte("null")) {
		if err := json.Unmarshal(rec.Attributes, &attrs); err != nil {
			return fmt.Errorf("unmarshal attributes: %w", err)
		}
	}

	switch {
	case rec.Insert != nil:
		content, err := unmarshalContent[E](rec.Insert)
		if err != nil {
			return err
		}
		if len(content) == 0 {
			return fmt.Errorf("%w: empty insert", ErrInvalidOperation)
		}
		*op = InsertOp(content, attrs)
	case rec.Retain != nil:
		if *rec.Retain <= 0 {
			return fmt.Errorf("%w: retain %d", ErrInvalidOperation, *rec.Retain)
		}
		*op = RetainOp[E](*rec.Retain, attrs)
	default:
		if *rec.Delete <= 0 {
			return fmt.Errorf("%w: delete %d", ErrInvalidOperation, *rec.Delete)
		}
		*op = DeleteOp[E, A](*rec.Delete)
	}
	return nil
}

// MarshalJSON writes the delta as an array of op records.
func (d Delta[E, A]) MarshalJSON() ([]byte, error) {
	ops := d.ops
	if ops == nil {
		ops = []Op[E, A]{}
	}
	return json.Marshal(ops)
}

// UnmarshalJSON reads an array of op records, or Quill's {"ops": [...]}
// envelope, and normalizes the result.
func (d *Delta[E, A]) UnmarshalJSON(data []byte) error {
	var ops []Op[E, A]
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope struct {
			Ops []Op[E, A] `json:"ops"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return err
		}
		ops = envelope.Ops
	} else if err := json.Unmarshal(trimmed, &ops); err != nil {
		return err
	}

	b := NewBuilder[E, A]()
	for _, op := range ops {
		b.Push(op)
	}
	out, err := b.Build()
	if err != nil {
		return err
	}
	*d = out
	return nil
}

func marshalContent[E comparable](content []E) ([]byte, error) {
	if runes, ok := any(content).([]rune); ok {
		return json.Marshal(string(runes))
	}
	return json.Marshal(content)
}

func unmarshalContent[E comparable](data []byte) ([]E, error) {
	var content []E
	if _, ok := any(content).([]rune); ok {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("unmarshal insert: %w", err)
		}
		return any([]rune(s)).([]E), nil
	}
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("unmarshal insert: %w", err)
	}
	return content, nil
}
