// FILE: lixenwraith/wiring/walk.go
package wiring

import (
	"fmt"
	"strconv"
)

// Handler resolves one kind of directive. Keys lists the directive keys the
// handler answers to; Handle receives the name the node is stored under in its
// parent (a mapping key, or the stringified index inside a sequence) and the
// node itself, whose children are already resolved. The returned value replaces
// the node in its parent.
type Handler interface {
	Keys() []string
	Handle(name string, node map[string]any) (any, error)
}

// Finisher is implemented by handlers that need a hook once their phase has
// walked the whole tree.
type Finisher interface {
	Finish() error
}

// rootKey names the synthetic mapping that wraps the tree during a phase so the
// root itself may be replaced.
const rootKey = "root"

// runPhase walks root with handlers and calls any Finish hooks afterwards.
// It returns the possibly replaced root, which must still be a mapping.
func runPhase(root map[string]any, handlers ...Handler) (map[string]any, error) {
	wrapped := map[string]any{rootKey: root}
	w := &walker{handlers: handlers}
	if err := w.walkMapping(wrapped); err != nil {
		return nil, err
	}

	for _, h := range handlers {
		if f, ok := h.(Finisher); ok {
			if err := f.Finish(); err != nil {
				return nil, err
			}
		}
	}

	switch out := wrapped[rootKey].(type) {
	case map[string]any:
		return out, nil
	case Tree:
		return map[string]any(out), nil
	default:
		return nil, fmt.Errorf("%w: got %T", ErrRootNotMapping, out)
	}
}

type walker struct {
	handlers []Handler
}

// walkMapping resolves every child of m in sorted key order, replacing
// directive nodes in place.
func (w *walker) walkMapping(m map[string]any) error {
	for _, key := range sortedKeys(m) {
		value, ok := m[key]
		if !ok {
			// removed by a handler earlier in this walk
			continue
		}
		replaced, err := w.walkValue(key, value)
		if err != nil {
			return err
		}
		m[key] = replaced
	}
	return nil
}

func (w *walker) walkSequence(s []any) error {
	for i, item := range s {
		replaced, err := w.walkValue(strconv.Itoa(i), item)
		if err != nil {
			return err
		}
		s[i] = replaced
	}
	return nil
}

// walkValue resolves a single value stored under name. Mappings are walked
// before their own directive is dispatched, so handlers always see resolved
// children. A replacement is never walked again by the same phase.
func (w *walker) walkValue(name string, value any) (any, error) {
	switch v := value.(type) {
	case Tree:
		return w.walkValue(name, map[string]any(v))
	case map[string]any:
		if err := w.walkMapping(v); err != nil {
			return nil, err
		}
		return w.dispatch(name, v)
	case []any:
		if err := w.walkSequence(v); err != nil {
			return nil, err
		}
		return v, nil
	default:
		return value, nil
	}
}

// dispatch hands node to the handler owning its directive key, if any.
// Two directive keys of the same phase in one node are a conflict.
func (w *walker) dispatch(name string, node map[string]any) (any, error) {
	var (
		matched    Handler
		matchedKey string
	)
	for _, h := range w.handlers {
		for _, key := range h.Keys() {
			if _, ok := node[key]; !ok {
				continue
			}
			if matched != nil {
				return nil, fmt.Errorf("%w: node %q carries both %q and %q",
					ErrDirectiveConflict, name, matchedKey, key)
			}
			matched, matchedKey = h, key
		}
	}
	if matched == nil {
		return node, nil
	}
	return matched.Handle(name, node)
}
