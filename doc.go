// File: lixenwraith/wiring/doc.go

// Package wiring builds an application's object graph from layered,
// declarative configuration sources.
//
// Sources are nested mappings read from TOML, JSON, YAML or HCL files.
// They are merged left to right, later sources replacing top-level keys of
// earlier ones. Three reserved keys mark nodes for special handling:
//
//   - "__copy__": replace the node with a deep copy of the value at a dotted
//     path, overriding keys given next to the directive. A source may copy a
//     key of the same name to extend what earlier sources defined.
//   - "__patch__" (historically "__python__"): apply structural edits
//     (set, remove, copy, move, merge, test) to the merged tree, optionally
//     guarded by a JMESPath condition.
//   - "__factory__" or "!": replace the node with the component built by the
//     named factory, called with the node's other keys as arguments.
//
// Resolution runs in a fixed order: copies as each source is merged, patches
// once, factories once (children before parents), then InitializeComponent
// on every component implementing Initializer, in build order.
//
// Quick Start:
//
//	type DatasetOptions struct {
//	    Path string `toml:"path" validate:"required"`
//	}
//
//	wiring.MustRegister("app.data:NewDataset", wiring.Constructor(
//	    func(o DatasetOptions) (any, error) { return NewDataset(o.Path) },
//	))
//
//	// WIRING_CONFIG=base.toml,prod.toml
//	tree, err := wiring.GetConfig(nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ds, err := wiring.ComponentAt[*Dataset](tree, "dataset")
//
// Factory names take the form "module:Attr.Chain" or "module.Attr".
//
// Thread Safety:
// A Store builds its tree once; concurrent callers wait for the first build
// and share its result. Reads after that take no lock. The resolved tree is
// shared, and callers must not modify it concurrently.
package wiring
