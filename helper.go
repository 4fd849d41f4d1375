// FILE: lixenwraith/wiring/helper.go
package wiring

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// splitPath splits a dotted path into its segments. Empty paths yield no segments.
func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// sortedKeys returns the keys of a mapping in a stable order.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// child fetches one step below node: a key for mappings, an index for sequences.
func child(node any, segment string) (any, bool) {
	switch n := node.(type) {
	case map[string]any:
		v, ok := n[segment]
		return v, ok
	case Tree:
		v, ok := n[segment]
		return v, ok
	case []any:
		i, err := strconv.Atoi(segment)
		if err != nil || i < 0 || i >= len(n) {
			return nil, false
		}
		return n[i], true
	default:
		return nil, false
	}
}

// lookupPath walks segments from root. Every segment must resolve.
func lookupPath(root any, segments []string) (any, bool) {
	current := root
	for _, segment := range segments {
		next, ok := child(current, segment)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// assignPath stores value at segments below container and returns the container,
// which differs from the input only when a sequence had to grow.
// Intermediate nodes must already exist.
func assignPath(container any, segments []string, value any) (any, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrPathNotFound)
	}
	head, rest := segments[0], segments[1:]

	switch c := container.(type) {
	case map[string]any:
		if len(rest) == 0 {
			c[head] = value
			return c, nil
		}
		next, ok := c[head]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, head)
		}
		updated, err := assignPath(next, rest, value)
		if err != nil {
			return nil, err
		}
		c[head] = updated
		return c, nil

	case []any:
		if len(rest) == 0 && head == "-" {
			return append(c, value), nil
		}
		i, err := strconv.Atoi(head)
		if err != nil || i < 0 || i > len(c) || (i == len(c) && len(rest) > 0) {
			return nil, fmt.Errorf("%w: index %s", ErrPathNotFound, head)
		}
		if len(rest) == 0 {
			if i == len(c) {
				return append(c, value), nil
			}
			c[i] = value
			return c, nil
		}
		updated, err := assignPath(c[i], rest, value)
		if err != nil {
			return nil, err
		}
		c[i] = updated
		return c, nil

	default:
		return nil, fmt.Errorf("%w: %s is below a scalar (%T)", ErrPathNotFound, head, container)
	}
}

// removePath deletes the node at segments below container and returns the
// updated container together with the removed value.
func removePath(container any, segments []string) (any, any, error) {
	if len(segments) == 0 {
		return nil, nil, fmt.Errorf("%w: empty path", ErrPathNotFound)
	}
	head, rest := segments[0], segments[1:]

	switch c := container.(type) {
	case map[string]any:
		next, ok := c[head]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrPathNotFound, head)
		}
		if len(rest) == 0 {
			delete(c, head)
			return c, next, nil
		}
		updated, removed, err := removePath(next, rest)
		if err != nil {
			return nil, nil, err
		}
		c[head] = updated
		return c, removed, nil

	case []any:
		i, err := strconv.Atoi(head)
		if err != nil || i < 0 || i >= len(c) {
			return nil, nil, fmt.Errorf("%w: index %s", ErrPathNotFound, head)
		}
		if len(rest) == 0 {
			removed := c[i]
			return append(c[:i:i], c[i+1:]...), removed, nil
		}
		updated, removed, err := removePath(c[i], rest)
		if err != nil {
			return nil, nil, err
		}
		c[i] = updated
		return c, removed, nil

	default:
		return nil, nil, fmt.Errorf("%w: %s is below a scalar (%T)", ErrPathNotFound, head, container)
	}
}

// sameNode reports whether a and b are the very same mapping or sequence.
// Scalars never count as the same node.
func sameNode(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() || va.Kind() != vb.Kind() {
		return false
	}
	switch va.Kind() {
	case reflect.Map:
		return va.UnsafePointer() == vb.UnsafePointer()
	case reflect.Slice:
		return va.Len() == vb.Len() && va.UnsafePointer() == vb.UnsafePointer()
	default:
		return false
	}
}
