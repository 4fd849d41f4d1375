// FILE: lixenwraith/wiring/patch.go
package wiring

import (
	"fmt"
	"reflect"

	"github.com/jmespath/go-jmespath"
	"github.com/mitchellh/copystructure"
)

const (
	// PatchKey marks a node carrying structural edits of the merged tree.
	PatchKey = "__patch__"
	// LegacyPatchKey is the historical spelling of PatchKey. It accepts the same
	// operations; embedded code is rejected.
	LegacyPatchKey = "__python__"
)

// Patch operations.
const (
	OpSet     = "set"
	OpAdd     = "add" // alias of set
	OpReplace = "replace"
	OpRemove  = "remove"
	OpCopy    = "copy"
	OpMove    = "move"
	OpMerge   = "merge"
	OpTest    = "test"
)

// PatchOp is one structural edit. Path and From are dotted paths from the root
// of the merged tree; numeric segments index sequences and "-" appends.
// When, if set, is a JMESPath expression evaluated against the tree; the
// operation only runs if the result is truthy.
type PatchOp struct {
	Op    string `toml:"op"`
	Path  string `toml:"path"`
	From  string `toml:"from"`
	Value any    `toml:"value"`
	When  string `toml:"when"`
}

// patchHandler applies patch directives to the whole merged tree.
type patchHandler struct {
	root map[string]any
}

func newPatchHandler(root map[string]any) *patchHandler {
	return &patchHandler{root: root}
}

func (h *patchHandler) Keys() []string { return []string{PatchKey, LegacyPatchKey} }

func (h *patchHandler) Handle(name string, node map[string]any) (any, error) {
	key := PatchKey
	if _, ok := node[key]; !ok {
		key = LegacyPatchKey
	}

	ops, err := decodePatchOps(node[key])
	if err != nil {
		return nil, &ResolutionError{Directive: key, Key: name, Path: name, Err: err}
	}
	for i, op := range ops {
		if err := h.apply(op); err != nil {
			return nil, &PatchError{Index: i, Op: op.Op, Path: op.Path, Err: err}
		}
	}

	delete(node, key)
	return node, nil
}

// decodePatchOps accepts a single operation mapping or a sequence of them.
func decodePatchOps(raw any) ([]PatchOp, error) {
	var items []any
	switch v := raw.(type) {
	case map[string]any, Tree:
		items = []any{v}
	case []any:
		items = v
	case string:
		return nil, fmt.Errorf("%w: embedded code is not supported, use patch operations", ErrInvalidDirective)
	default:
		return nil, fmt.Errorf("%w: expected an operation or a list of operations, got %T", ErrInvalidDirective, raw)
	}

	ops := make([]PatchOp, 0, len(items))
	for i, item := range items {
		if _, ok := asMapping(item); !ok {
			return nil, fmt.Errorf("%w: operation #%d is a %T", ErrInvalidDirective, i, item)
		}
		var op PatchOp
		if err := decodeInto(item, &op); err != nil {
			return nil, fmt.Errorf("%w: operation #%d: %v", ErrInvalidDirective, i, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func (h *patchHandler) apply(op PatchOp) error {
	if op.When != "" {
		ok, err := h.condition(op.When)
		if err != nil || !ok {
			return err
		}
	}

	path := splitPath(op.Path)
	if len(path) == 0 {
		return fmt.Errorf("%w: missing path", ErrInvalidDirective)
	}

	switch op.Op {
	case OpSet, OpAdd:
		return h.assign(path, op.Value)

	case OpReplace:
		if _, ok := lookupPath(h.root, path); !ok {
			return ErrPathNotFound
		}
		return h.assign(path, op.Value)

	case OpRemove:
		_, _, err := removePath(h.root, path)
		return err

	case OpCopy:
		value, ok := lookupPath(h.root, splitPath(op.From))
		if !ok || op.From == "" {
			return fmt.Errorf("%w: from %q", ErrPathNotFound, op.From)
		}
		return h.assign(path, value)

	case OpMove:
		if op.From == "" {
			return fmt.Errorf("%w: move needs a from path", ErrInvalidDirective)
		}
		_, removed, err := removePath(h.root, splitPath(op.From))
		if err != nil {
			return err
		}
		_, err = assignPath(h.root, path, removed)
		return err

	case OpMerge:
		return h.merge(path, op.Value)

	case OpTest:
		actual, ok := lookupPath(h.root, path)
		if !ok {
			return ErrPathNotFound
		}
		if !reflect.DeepEqual(actual, op.Value) {
			return fmt.Errorf("%w: have %v, want %v", ErrPatchTestFailed, actual, op.Value)
		}
		return nil

	default:
		return fmt.Errorf("%w: unknown operation %q", ErrInvalidDirective, op.Op)
	}
}

// assign stores a private copy of value so later edits never alias the source.
func (h *patchHandler) assign(path []string, value any) error {
	copied, err := copystructure.Copy(value)
	if err != nil {
		return err
	}
	_, err = assignPath(h.root, path, copied)
	return err
}

// merge shallow-updates the mapping at path with the keys of value.
func (h *patchHandler) merge(path []string, value any) error {
	updates, ok := asMapping(value)
	if !ok {
		return fmt.Errorf("%w: merge value must be a mapping, got %T", ErrInvalidDirective, value)
	}
	existing, found := lookupPath(h.root, path)
	if !found {
		return ErrPathNotFound
	}
	target, ok := asMapping(existing)
	if !ok {
		return fmt.Errorf("%w: merge target is a %T", ErrInvalidDirective, existing)
	}
	copied, err := copystructure.Copy(updates)
	if err != nil {
		return err
	}
	for k, v := range copied.(map[string]any) {
		target[k] = v
	}
	return nil
}

func (h *patchHandler) condition(expr string) (bool, error) {
	result, err := jmespath.Search(expr, jmespathView(h.root))
	if err != nil {
		return false, fmt.Errorf("%w: condition %q: %v", ErrInvalidDirective, expr, err)
	}
	return truthy(result), nil
}

// jmespathView converts the tree to the JSON shapes the query engine compares
// against: all numbers become float64.
func jmespathView(v any) any {
	switch n := v.(type) {
	case Tree:
		return jmespathView(map[string]any(n))
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, child := range n {
			out[k] = jmespathView(child)
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, child := range n {
			out[i] = jmespathView(child)
		}
		return out
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}

// truthy follows JMESPath: false, null and empty strings, lists or objects are false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}
