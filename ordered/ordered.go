// Package ordered provides an insertion-ordered representation of JSON
// objects and a decoder that produces it.
//
// Plain map[string]any trees lose member order, which makes wildcard and
// descendant selection order depend on map iteration. Decoding with
// [Unmarshal] yields *[Object] values whose members iterate in document
// order, so query results are reproducible and follow the input.
package ordered

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/go-json-experiment/json/jsontext"
)

// ErrDecode is returned when a JSON document cannot be decoded.
var ErrDecode = errors.New("ordered: decode error")

// Object is a JSON object whose members preserve insertion order.
// The zero value is an empty object ready for use.
type Object struct {
	names  []string
	values map[string]any
}

// NewObject creates an empty Object.
func NewObject() *Object {
	return &Object{}
}

// Len returns the number of members.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.names)
}

// Get returns the value for name and whether the member exists.
func (o *Object) Get(name string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[name]
	return v, ok
}

// Set adds or replaces the member for name. A replaced member keeps its
// original position.
func (o *Object) Set(name string, value any) {
	if o.values == nil {
		o.values = make(map[string]any)
	}
	if _, exists := o.values[name]; !exists {
		o.names = append(o.names, name)
	}
	o.values[name] = value
}

// Names returns an iterator over member names in insertion order.
func (o *Object) Names() iter.Seq[string] {
	return func(yield func(string) bool) {
		if o == nil {
			return
		}
		for _, name := range o.names {
			if !yield(name) {
				return
			}
		}
	}
}

// Members returns an iterator over (name, value) pairs in insertion order.
func (o *Object) Members() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if o == nil {
			return
		}
		for _, name := range o.names {
			if !yield(name, o.values[name]) {
				return
			}
		}
	}
}

// Map returns the members as a plain map. Order is lost; the values are
// shared, not copied.
func (o *Object) Map() map[string]any {
	m := make(map[string]any, o.Len())
	for name, v := range o.Members() {
		m[name] = v
	}
	return m
}

// Unmarshal decodes src into a JSON value tree in which objects are
// *[Object] (insertion-ordered), arrays are []any, and scalars are string,
// float64, bool, or nil.
func Unmarshal(src []byte) (any, error) {
	dec := jsontext.NewDecoder(bytes.NewReader(src))
	v, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	// Nothing may follow the top-level value.
	if _, err := dec.ReadToken(); err != io.EOF {
		return nil, fmt.Errorf("%w: unexpected data after top-level value", ErrDecode)
	}
	return v, nil
}

// decodeValue decodes the next complete JSON value from dec.
func decodeValue(dec *jsontext.Decoder) (any, error) {
	tok, err := dec.ReadToken()
	if err != nil {
		return nil, err
	}

	switch tok.Kind() {
	case 'n':
		return nil, nil
	case 't', 'f':
		return tok.Bool(), nil
	case '"':
		return tok.String(), nil
	case '0':
		return tok.Float(), nil
	case '[':
		arr := []any{}
		for dec.PeekKind() != ']' {
			elem, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		if _, err := dec.ReadToken(); err != nil {
			return nil, err
		}
		return arr, nil
	case '{':
		obj := NewObject()
		for dec.PeekKind() != '}' {
			name, err := dec.ReadToken()
			if err != nil {
				return nil, err
			}
			key := name.String()
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			obj.Set(key, val)
		}
		if _, err := dec.ReadToken(); err != nil {
			return nil, err
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}
