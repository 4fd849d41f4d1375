// FILE: lixenwraith/wiring/builtins.go
package wiring

import "fmt"

// Factories under the "builtins" module, registered in every registry
// created by NewRegistry.
const (
	BuiltinDict = "builtins:dict"
	BuiltinList = "builtins:list"
)

func registerBuiltins(r *Registry) {
	// dict returns its keyword arguments as a plain mapping.
	r.MustRegister(BuiltinDict, func(args map[string]any) (any, error) {
		return args, nil
	})

	// list returns the "items" argument as a sequence.
	r.MustRegister(BuiltinList, func(args map[string]any) (any, error) {
		items, ok := args["items"]
		if !ok {
			return []any{}, nil
		}
		seq, ok := items.([]any)
		if !ok {
			return nil, fmt.Errorf("builtins:list: items must be a sequence, got %T", items)
		}
		return seq, nil
	})
}
