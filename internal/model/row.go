package model

import (
	"github.com/iancoleman/orderedmap"
)

// Row is a string-keyed map that remembers insertion order.
// It backs result rows and decoded JSON objects, so report columns
// follow the order the remote service emitted them.
type Row struct {
	m *orderedmap.OrderedMap
}

// NewRow returns an empty row.
func NewRow() *Row {
	return &Row{m: newMap()}
}

func newMap() *orderedmap.OrderedMap {
	m := orderedmap.New()
	m.SetEscapeHTML(false)
	return m
}

// Set stores v under k. Overwriting keeps the original position.
func (r *Row) Set(k string, v any) {
	if r.m == nil {
		r.m = newMap()
	}
	r.m.Set(k, v)
}

// Get returns the value stored under k.
func (r *Row) Get(k string) (any, bool) {
	if r == nil || r.m == nil {
		return nil, false
	}
	return r.m.Get(k)
}

// Has reports whether k is present.
func (r *Row) Has(k string) bool {
	_, ok := r.Get(k)
	return ok
}

// Delete removes k.
func (r *Row) Delete(k string) {
	if r.Has(k) {
		r.m.Delete(k)
	}
}

// Rename moves the value under from to to, keeping from's position.
// Nothing happens if from is absent.
func (r *Row) Rename(from, to string) {
	v, ok := r.Get(from)
	if !ok || from == to {
		return
	}
	next := newMap()
	for _, k := range r.m.Keys() {
		switch k {
		case from:
			next.Set(to, v)
		case to:
		default:
			cur, _ := r.m.Get(k)
			next.Set(k, cur)
		}
	}
	r.m = next
}

// Keys returns the keys in insertion order.
func (r *Row) Keys() []string {
	if r == nil || r.m == nil {
		return nil
	}
	return append([]string(nil), r.m.Keys()...)
}

// Len returns the number of keys.
func (r *Row) Len() int {
	if r == nil || r.m == nil {
		return 0
	}
	return len(r.m.Keys())
}

// MarshalJSON writes the row as an object in insertion order.
func (r *Row) MarshalJSON() ([]byte, error) {
	if r == nil || r.m == nil {
		return []byte("{}"), nil
	}
	return r.m.MarshalJSON()
}
