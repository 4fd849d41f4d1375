// FILE: lixenwraith/wiring/store.go
package wiring

import (
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// DefaultEnvVar holds the comma-separated list of sources read by a Store.
const DefaultEnvVar = "WIRING_CONFIG"

// State is the lifecycle stage of a Store. Initializing moves to Initialized
// when the build succeeds and back to Uninitialized when it fails, so a later
// call may retry.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateInitialized
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateInitialized:
		return "initialized"
	default:
		return "unknown"
	}
}

// Store builds a tree once, on first use, and hands the same tree to every
// caller afterwards.
//
// The first Get or Initialize runs the whole resolution under a mutex; callers
// arriving meanwhile wait and receive the same result. Once built, Get does
// not lock. A failed build leaves the store uninitialized so the error reaches
// every caller and a later call may try again.
//
// Factories must not call Get on the store that is building them; the call
// would deadlock.
type Store struct {
	mu    sync.Mutex
	state atomic.Int32
	tree  Tree

	envVar    string
	files     []string
	loader    *Loader
	processor *Processor
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithEnvVar names the environment variable listing the sources.
func WithEnvVar(name string) StoreOption {
	return func(s *Store) {
		s.envVar = name
	}
}

// WithFiles sets the source list explicitly. The environment variable is
// then ignored.
func WithFiles(paths ...string) StoreOption {
	return func(s *Store) {
		s.files = append(s.files, paths...)
	}
}

// WithLoader sets the loader used to read sources.
func WithLoader(l *Loader) StoreOption {
	return func(s *Store) {
		s.loader = l
	}
}

// WithProcessor sets the processor used to resolve sources.
func WithProcessor(p *Processor) StoreOption {
	return func(s *Store) {
		s.processor = p
	}
}

// NewStore creates an uninitialized store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{envVar: DefaultEnvVar}
	for _, opt := range opts {
		opt(s)
	}
	if s.loader == nil {
		s.loader = NewLoader(nil)
	}
	if s.processor == nil {
		s.processor = NewProcessor()
	}
	return s
}

// State reports the current lifecycle stage.
func (s *Store) State() State {
	return State(s.state.Load())
}

// Get returns the tree, building it first if needed. extra seeds the tree
// with keys that sources may override; it only has an effect on the call that
// performs the build.
func (s *Store) Get(extra map[string]any) (Tree, error) {
	if s.State() == StateInitialized {
		return s.tree, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() == StateInitialized {
		return s.tree, nil
	}
	return s.build(extra)
}

// Initialize builds the tree and fails with ErrAlreadyInitialized if it was
// already built. It is meant for callers that must configure the process first.
func (s *Store) Initialize(extra map[string]any) (Tree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() == StateInitialized {
		return nil, ErrAlreadyInitialized
	}
	return s.build(extra)
}

// build runs with s.mu held.
func (s *Store) build(extra map[string]any) (Tree, error) {
	s.state.Store(int32(StateInitializing))

	tree, err := s.resolve(extra)
	if err != nil {
		s.state.Store(int32(StateUninitialized))
		return nil, err
	}

	s.tree = tree
	s.state.Store(int32(StateInitialized))
	return tree, nil
}

func (s *Store) resolve(extra map[string]any) (Tree, error) {
	seed := make(map[string]any, len(extra))
	for k, v := range extra {
		seed[k] = v
	}

	paths := s.files
	if len(paths) == 0 {
		list, ok := os.LookupEnv(s.envVar)
		if !ok || strings.TrimSpace(list) == "" {
			// Nothing to resolve: the tree is the seed as given.
			return Tree(seed), nil
		}
		var err error
		paths, err = s.loader.Locations(list)
		if err != nil {
			return nil, err
		}
	}

	sources, err := s.loader.LoadAll(paths)
	if err != nil {
		return nil, err
	}
	return s.processor.Process(append([]map[string]any{seed}, sources...)...)
}

var (
	defaultStore     *Store
	defaultStoreOnce sync.Once
)

// DefaultStore returns the process-wide store reading DefaultEnvVar.
func DefaultStore() *Store {
	defaultStoreOnce.Do(func() {
		defaultStore = NewStore()
	})
	return defaultStore
}

// GetConfig returns the process-wide tree, building it on first use.
func GetConfig(extra map[string]any) (Tree, error) {
	return DefaultStore().Get(extra)
}

// InitializeConfig builds the process-wide tree and fails if it already exists.
func InitializeConfig(extra map[string]any) (Tree, error) {
	return DefaultStore().Initialize(extra)
}
