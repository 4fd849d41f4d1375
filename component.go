// FILE: lixenwraith/wiring/component.go
package wiring

import (
	"fmt"
)

const (
	// FactoryKey marks a node to be replaced by the component its factory builds.
	FactoryKey = "__factory__"
	// ShortFactoryKey is the short spelling of FactoryKey.
	ShortFactoryKey = "!"
)

// Keyed is implemented by components that want to know the configuration key
// they were built under.
type Keyed interface {
	SetConfigKey(key string)
}

// Initializer is implemented by components needing the fully resolved tree.
// InitializeComponent is called once per component after every component
// exists, in the order the components were built.
type Initializer interface {
	InitializeComponent(tree Tree) error
}

// Tagged can be embedded in a component struct to record its configuration key.
type Tagged struct {
	configKey string
}

// SetConfigKey implements Keyed.
func (t *Tagged) SetConfigKey(key string) { t.configKey = key }

// ConfigKey returns the key the component was built under.
func (t *Tagged) ConfigKey() string { return t.configKey }

// componentHandler builds components bottom-up and initializes them once the
// whole tree is resolved.
type componentHandler struct {
	registry   *Registry
	root       Tree
	components []any
}

func newComponentHandler(registry *Registry, root map[string]any) *componentHandler {
	return &componentHandler{registry: registry, root: Tree(root)}
}

func (h *componentHandler) Keys() []string { return []string{FactoryKey, ShortFactoryKey} }

func (h *componentHandler) Handle(name string, node map[string]any) (any, error) {
	key := FactoryKey
	if _, ok := node[key]; !ok {
		key = ShortFactoryKey
	}

	dotted, ok := node[key].(string)
	if !ok {
		return nil, &ResolutionError{Directive: key, Key: name, Path: fmt.Sprint(node[key]),
			Err: fmt.Errorf("%w: factory name must be a string, got %T", ErrInvalidDirective, node[key])}
	}
	factory, err := h.registry.Resolve(dotted)
	if err != nil {
		return nil, &ResolutionError{Directive: key, Key: name, Path: dotted, Err: err}
	}

	args := make(map[string]any, len(node)-1)
	for k, v := range node {
		if k != key {
			args[k] = v
		}
	}

	component, err := factory(args)
	if err != nil {
		return nil, err
	}
	if keyed, ok := component.(Keyed); ok {
		keyed.SetConfigKey(name)
	}
	h.components = append(h.components, component)
	return component, nil
}

// Finish runs initialization hooks in build order.
func (h *componentHandler) Finish() error {
	for _, component := range h.components {
		if initializer, ok := component.(Initializer); ok {
			if err := initializer.InitializeComponent(h.root); err != nil {
				return err
			}
		}
	}
	return nil
}

// Components returns the built components in build order.
func (h *componentHandler) Components() []any {
	return h.components
}
