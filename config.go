// FILE: lixenwraith/wiring/config.go
package wiring

import (
	"fmt"
	"reflect"
)

// Tree is a resolved configuration: nested mappings, sequences, scalars and,
// once components are built, live component values.
//
// A Tree returned from a Processor or Store is owned by the caller. The
// package never mutates it after resolution, and guards nothing against
// concurrent writes by the application.
type Tree map[string]any

// Lookup returns the value at a dotted path. Numeric segments index sequences.
func (t Tree) Lookup(path string) (any, bool) {
	if t == nil {
		return nil, false
	}
	return lookupPath(map[string]any(t), splitPath(path))
}

// Get returns the value at a dotted path or an error pointing the user at the
// most likely misconfiguration.
func (t Tree) Get(path string) (any, error) {
	val, found := t.Lookup(path)
	if !found {
		return nil, fmt.Errorf("%w: the required key %q was not found in your configuration. %s",
			ErrKeyNotFound, path, configHint)
	}
	return val, nil
}

// Has reports whether path resolves.
func (t Tree) Has(path string) bool {
	_, found := t.Lookup(path)
	return found
}

// Keys returns the top-level keys in sorted order.
func (t Tree) Keys() []string {
	return sortedKeys(map[string]any(t))
}

// ComponentAt fetches the value at path and asserts it to T.
// Typical use is retrieving a built component by its interface type.
func ComponentAt[T any](t Tree, path string) (T, error) {
	var zero T
	val, err := t.Get(path)
	if err != nil {
		return zero, err
	}
	typed, ok := val.(T)
	if !ok {
		return zero, fmt.Errorf("value at %q has type %T, not %s", path, val, reflect.TypeOf((*T)(nil)).Elem())
	}
	return typed, nil
}
