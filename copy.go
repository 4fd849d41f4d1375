// FILE: lixenwraith/wiring/copy.go
package wiring

import (
	"fmt"

	"github.com/mitchellh/copystructure"
)

// CopyKey marks a node to be replaced by a deep copy of another part of the tree.
const CopyKey = "__copy__"

// copyHandler resolves copy directives against a list of snapshots ordered
// oldest to newest. The newest snapshot is normally the source being merged,
// everything before it is the tree as it stood before that merge.
type copyHandler struct {
	snapshots []map[string]any
}

func newCopyHandler(snapshots ...map[string]any) *copyHandler {
	return &copyHandler{snapshots: snapshots}
}

func (h *copyHandler) Keys() []string { return []string{CopyKey} }

func (h *copyHandler) Handle(name string, node map[string]any) (any, error) {
	path, ok := node[CopyKey].(string)
	if !ok || path == "" {
		return nil, &ResolutionError{Directive: CopyKey, Key: name, Path: fmt.Sprint(node[CopyKey]),
			Err: fmt.Errorf("%w: path must be a non-empty string", ErrInvalidDirective)}
	}
	segments := splitPath(path)

	// A node that finds itself in the newest snapshot is overriding a key of the
	// same name, so it copies the previous generation instead.
	var (
		value any
		found bool
	)
	newest := h.snapshots[len(h.snapshots)-1:]
	if v, ok := resolveNewestFirst(newest, segments); ok && sameNode(v, node) {
		value, found = resolveNewestFirst(h.snapshots[:len(h.snapshots)-1], segments)
	} else {
		value, found = resolveNewestFirst(h.snapshots, segments)
	}
	if !found {
		return nil, &ResolutionError{Directive: CopyKey, Key: name, Path: path, Err: ErrPathNotFound}
	}

	copied, err := copystructure.Copy(value)
	if err != nil {
		return nil, &ResolutionError{Directive: CopyKey, Key: name, Path: path, Err: err}
	}
	if len(node) == 1 {
		return copied, nil
	}

	target, ok := asMapping(copied)
	if !ok {
		return nil, &ResolutionError{Directive: CopyKey, Key: name, Path: path,
			Err: fmt.Errorf("%w: cannot override keys of a %T", ErrInvalidDirective, copied)}
	}
	_, recursive := target[CopyKey]
	_, long := node[FactoryKey]
	_, short := node[ShortFactoryKey]
	if long || short {
		// Either spelling in the overrides replaces the copied factory.
		delete(target, FactoryKey)
		delete(target, ShortFactoryKey)
	}
	for k, v := range node {
		target[k] = v
	}
	if !recursive {
		delete(target, CopyKey)
	}
	return target, nil
}

// resolveNewestFirst returns the value at segments in the newest snapshot
// where every segment resolves.
func resolveNewestFirst(snapshots []map[string]any, segments []string) (any, bool) {
	for i := len(snapshots) - 1; i >= 0; i-- {
		if v, ok := lookupPath(snapshots[i], segments); ok {
			return v, true
		}
	}
	return nil, false
}

func asMapping(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Tree:
		return map[string]any(m), true
	default:
		return nil, false
	}
}
