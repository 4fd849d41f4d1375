// FILE: lixenwraith/wiring/registry.go
package wiring

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Factory builds a component from the keyword arguments of a factory directive.
// Arguments are already resolved: nested factory directives arrive as live values.
type Factory func(args map[string]any) (any, error)

// Registry maps dotted names to factories.
//
// Names follow two spellings. With a colon, everything before it is the module
// path and everything after is an attribute chain ("pkg.models:Linear.New").
// Without one, the name is split on its last dot into a module path and a single
// attribute ("pkg.models.Linear"). Both spellings resolve to the same entry
// when they describe the same module and chain.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]map[string]Factory // module path -> attribute chain -> factory
}

// NewRegistry creates a registry holding only the builtins module.
func NewRegistry() *Registry {
	r := &Registry{modules: make(map[string]map[string]Factory)}
	registerBuiltins(r)
	return r
}

// DefaultRegistry is used by processors that are not given a registry of their own.
var DefaultRegistry = NewRegistry()

// Register adds a factory under a dotted name. Registering a name twice is an error.
func (r *Registry) Register(name string, factory Factory) error {
	if factory == nil {
		return fmt.Errorf("nil factory for %q", name)
	}
	module, chain, err := splitDottedName(name)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	attrs, ok := r.modules[module]
	if !ok {
		attrs = make(map[string]Factory)
		r.modules[module] = attrs
	}
	if _, exists := attrs[chain]; exists {
		return fmt.Errorf("factory %q already registered", canonicalName(module, chain))
	}
	attrs[chain] = factory
	return nil
}

// MustRegister is like Register but panics on error
func (r *Registry) MustRegister(name string, factory Factory) {
	if err := r.Register(name, factory); err != nil {
		panic(fmt.Sprintf("factory registration failed: %v", err))
	}
}

// Resolve looks a dotted name up.
func (r *Registry) Resolve(dotted string) (Factory, error) {
	module, chain, err := splitDottedName(dotted)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	attrs, ok := r.modules[module]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrModuleNotFound, module)
	}
	factory, ok := attrs[chain]
	if !ok {
		return nil, fmt.Errorf("%w: module %q has no attribute %q", ErrAttributeNotFound, module, chain)
	}
	return factory, nil
}

// Names lists every registered factory in canonical "module:chain" form, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for module, attrs := range r.modules {
		for chain := range attrs {
			names = append(names, canonicalName(module, chain))
		}
	}
	sort.Strings(names)
	return names
}

// Register adds a factory to DefaultRegistry.
func Register(name string, factory Factory) error {
	return DefaultRegistry.Register(name, factory)
}

// MustRegister adds a factory to DefaultRegistry and panics on error.
func MustRegister(name string, factory Factory) {
	DefaultRegistry.MustRegister(name, factory)
}

// splitDottedName separates module path and attribute chain.
func splitDottedName(dotted string) (module, chain string, err error) {
	if i := strings.IndexByte(dotted, ':'); i >= 0 {
		module, chain = dotted[:i], dotted[i+1:]
		if strings.ContainsRune(chain, ':') {
			return "", "", fmt.Errorf("%w: %q has more than one colon", ErrInvalidDottedName, dotted)
		}
	} else {
		i := strings.LastIndexByte(dotted, '.')
		if i < 0 {
			return "", "", fmt.Errorf("%w: %q has neither a colon nor a dot", ErrInvalidDottedName, dotted)
		}
		module, chain = dotted[:i], dotted[i+1:]
	}

	if module == "" || chain == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidDottedName, dotted)
	}
	for _, attr := range strings.Split(chain, ".") {
		if attr == "" {
			return "", "", fmt.Errorf("%w: empty attribute in %q", ErrInvalidDottedName, dotted)
		}
	}
	return module, chain, nil
}

func canonicalName(module, chain string) string {
	return module + ":" + chain
}

var optionValidator = validator.New(validator.WithRequiredStructEnabled())

// Constructor adapts a typed constructor into a Factory. Keyword arguments are
// decoded into T using the "toml" struct tag and then checked against its
// "validate" tags. Fields meant to receive other components should be
// interface-typed so the live value is assigned without conversion.
func Constructor[T any](fn func(opts T) (any, error)) Factory {
	return func(args map[string]any) (any, error) {
		var opts T
		if err := decodeInto(args, &opts); err != nil {
			return nil, fmt.Errorf("decode factory arguments: %w", err)
		}
		if isStruct(opts) {
			if err := optionValidator.Struct(opts); err != nil {
				return nil, fmt.Errorf("invalid factory arguments: %w", err)
			}
		}
		return fn(opts)
	}
}

func isStruct(v any) bool {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t != nil && t.Kind() == reflect.Struct
}
