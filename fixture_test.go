// FILE: lixenwraith/wiring/fixture_test.go
package wiring

import (
	"sync"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"
)

const dummyFactory = "wiring.tests:Dummy"

// dummyComponent records how it was built and initialized.
type dummyComponent struct {
	Tagged
	Arg1         any
	Arg2         any
	Subcomponent any

	initializedWith Tree
	initCalls       int
	journal         *journal
}

func (d *dummyComponent) InitializeComponent(tree Tree) error {
	d.initCalls++
	d.initializedWith = tree
	d.journal.add("init:" + d.ConfigKey())
	return nil
}

// journal collects build and init events in order.
type journal struct {
	mu     sync.Mutex
	events []string
}

func (j *journal) add(event string) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, event)
}

func (j *journal) Events() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.events...)
}

// newTestRegistry returns a registry with the dummy factory and the journal it writes to.
func newTestRegistry(t testing.TB) (*Registry, *journal) {
	t.Helper()
	j := &journal{}
	r := NewRegistry()
	require.NoError(t, r.Register(dummyFactory, func(args map[string]any) (any, error) {
		j.add("build")
		return &dummyComponent{
			Arg1:         args["arg1"],
			Arg2:         args["arg2"],
			Subcomponent: args["subcomponent"],
			journal:      j,
		}, nil
	}))
	return r, j
}

// newTestProcessor builds a quiet processor that records the logging decision.
func newTestProcessor(r *Registry) (*Processor, *loggingCall) {
	call := &loggingCall{}
	p := NewProcessor(
		WithRegistry(r),
		WithLogger(hclog.NewNullLogger()),
		WithLoggingFunc(func(spec any, present bool) error {
			call.spec, call.present, call.calls = spec, present, call.calls+1
			return nil
		}),
	)
	return p, call
}

type loggingCall struct {
	spec    any
	present bool
	calls   int
}

func config1() map[string]any {
	return map[string]any{
		"mycomponent": map[string]any{
			FactoryKey: dummyFactory,
			"arg1":     int64(3),
			"arg2":     map[string]any{"no": "factory"},
			"subcomponent": map[string]any{
				FactoryKey: dummyFactory,
				"arg1": map[string]any{
					"subsubcomponent": map[string]any{
						FactoryKey: dummyFactory,
						"arg1":     "wobwob",
						"arg2":     int64(9),
					},
				},
				"arg2": int64(6),
			},
		},
		"mylistofcomponents": []any{
			map[string]any{
				FactoryKey: dummyFactory,
				"arg1":     "wobwob",
			},
			"somethingelse",
		},
		"mynestedlistofcomponents": []any{
			[]any{
				map[string]any{
					FactoryKey: dummyFactory,
					"arg1":     "feep",
					"arg2": map[string]any{
						FactoryKey: dummyFactory,
						"arg1":     int64(6),
					},
				},
			},
		},
		"myconstant": int64(42),
		"mycopiedconstant": map[string]any{
			CopyKey: "mycomponent.arg1",
		},
		"mydict": map[string]any{
			"arg1": int64(1),
			"mycopiedcomponent": map[string]any{
				CopyKey: "mycomponent",
				"arg2":  nil,
			},
		},
		PatchKey: []any{
			map[string]any{
				"op":    "set",
				"path":  "mynestedlistofcomponents.0.0.arg2.__factory__",
				"value": BuiltinDict,
			},
			map[string]any{
				"op":    "set",
				"path":  "myotherconstant",
				"value": int64(13),
			},
		},
	}
}

func config2() map[string]any {
	return map[string]any{
		"mydict": map[string]any{
			CopyKey: "mydict",
			"arg1":  int64(3),
			"arg2":  nil,
		},
		"mynewdict": map[string]any{
			CopyKey: "mydict",
			"arg2":  int64(2),
		},
		"mysupernewdict": map[string]any{
			CopyKey: "mynewdict",
		},
		"mycopiedconstant": map[string]any{
			CopyKey: "mycopiedconstant",
		},
	}
}

// same reports whether two trees share the same underlying mapping.
func same(a, b Tree) bool {
	return sameNode(map[string]any(a), map[string]any(b))
}
