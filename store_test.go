// FILE: lixenwraith/wiring/store_test.go
package wiring

import (
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// countingFs counts how often each file is opened.
type countingFs struct {
	afero.Fs
	mu    sync.Mutex
	opens map[string]int
}

func newCountingFs(fs afero.Fs) *countingFs {
	return &countingFs{Fs: fs, opens: make(map[string]int)}
}

func (c *countingFs) Open(name string) (afero.File, error) {
	c.mu.Lock()
	c.opens[name]++
	c.mu.Unlock()
	return c.Fs.Open(name)
}

func (c *countingFs) Opens(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opens[name]
}

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
}

// newTestStore builds a store over an in-memory filesystem reading envVar.
func newTestStore(t *testing.T, fs afero.Fs, envVar string) *Store {
	t.Helper()
	r, _ := newTestRegistry(t)
	p, _ := newTestProcessor(r)
	return NewStore(WithEnvVar(envVar), WithLoader(NewLoader(fs)), WithProcessor(p))
}

// TestStoreLifecycle tests lazy building and state transitions
func TestStoreLifecycle(t *testing.T) {
	t.Run("NoSourcesYieldsExtras", func(t *testing.T) {
		os.Unsetenv("WIRING_TEST_UNSET")
		s := newTestStore(t, afero.NewMemMapFs(), "WIRING_TEST_UNSET")
		assert.Equal(t, StateUninitialized, s.State())

		extra := map[string]any{"a": map[string]any{FactoryKey: dummyFactory}}
		tree, err := s.Get(extra)
		require.NoError(t, err)

		// Without sources nothing is resolved
		assert.Equal(t, extra["a"], tree["a"])
		assert.Equal(t, StateInitialized, s.State())
	})

	t.Run("BuildsFromEnvVar", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFile(t, fs, "/etc/app/base.toml", `
name = "base"
[component]
__factory__ = "wiring.tests:Dummy"
arg1 = "from-base"
`)
		writeFile(t, fs, "/etc/app/override.json", `{"name": "override"}`)
		t.Setenv("WIRING_TEST_SOURCES", " /etc/app/base.toml , /etc/app/override.json ")

		s := newTestStore(t, fs, "WIRING_TEST_SOURCES")
		tree, err := s.Get(map[string]any{"seeded": true, "name": "seed"})
		require.NoError(t, err)

		assert.Equal(t, "override", tree["name"])
		assert.Equal(t, true, tree["seeded"])
		c, err := ComponentAt[*dummyComponent](tree, "component")
		require.NoError(t, err)
		assert.Equal(t, "from-base", c.Arg1)
	})

	t.Run("ExtrasOnlyApplyToFirstBuild", func(t *testing.T) {
		os.Unsetenv("WIRING_TEST_UNSET")
		s := newTestStore(t, afero.NewMemMapFs(), "WIRING_TEST_UNSET")

		first, err := s.Get(map[string]any{"k": "first"})
		require.NoError(t, err)
		second, err := s.Get(map[string]any{"k": "second"})
		require.NoError(t, err)

		assert.Equal(t, "first", second["k"])
		assert.True(t, same(first, second))
	})

	t.Run("InitializeTwiceFails", func(t *testing.T) {
		os.Unsetenv("WIRING_TEST_UNSET")
		s := newTestStore(t, afero.NewMemMapFs(), "WIRING_TEST_UNSET")

		_, err := s.Initialize(nil)
		require.NoError(t, err)

		_, err = s.Initialize(nil)
		assert.ErrorIs(t, err, ErrAlreadyInitialized)

		// Get still works after the failed second initialization
		_, err = s.Get(nil)
		assert.NoError(t, err)
	})

	t.Run("InitializeAfterGetFails", func(t *testing.T) {
		os.Unsetenv("WIRING_TEST_UNSET")
		s := newTestStore(t, afero.NewMemMapFs(), "WIRING_TEST_UNSET")

		_, err := s.Get(nil)
		require.NoError(t, err)
		_, err = s.Initialize(nil)
		assert.ErrorIs(t, err, ErrAlreadyInitialized)
	})

	t.Run("FailureLeavesStoreUninitialized", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFile(t, fs, "/conf/bad.toml", `broken = { __copy__ = "does.not.exist" }`)
		t.Setenv("WIRING_TEST_BAD", "/conf/bad.toml")

		s := newTestStore(t, fs, "WIRING_TEST_BAD")
		_, err := s.Get(nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrPathNotFound)
		assert.Equal(t, StateUninitialized, s.State())

		// Fix the source; the next call builds again
		writeFile(t, fs, "/conf/bad.toml", `fixed = true`)
		tree, err := s.Get(nil)
		require.NoError(t, err)
		assert.Equal(t, true, tree["fixed"])
		assert.Equal(t, StateInitialized, s.State())
	})

	t.Run("MissingSource", func(t *testing.T) {
		t.Setenv("WIRING_TEST_MISSING", "/nowhere.toml")
		s := newTestStore(t, afero.NewMemMapFs(), "WIRING_TEST_MISSING")

		_, err := s.Get(nil)
		assert.ErrorIs(t, err, ErrSourceNotFound)
	})

	t.Run("ExplicitFilesIgnoreEnvVar", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFile(t, fs, "/a.yaml", "from: file\n")
		t.Setenv("WIRING_TEST_IGNORED", "/nowhere.toml")

		r, _ := newTestRegistry(t)
		p, _ := newTestProcessor(r)
		s := NewStore(WithEnvVar("WIRING_TEST_IGNORED"), WithFiles("/a.yaml"), WithLoader(NewLoader(fs)), WithProcessor(p))

		tree, err := s.Get(nil)
		require.NoError(t, err)
		assert.Equal(t, "file", tree["from"])
	})
}

// TestStoreConcurrentGet checks that concurrent first callers share one build
func TestStoreConcurrentGet(t *testing.T) {
	mem := afero.NewMemMapFs()
	writeFile(t, mem, "/srv/config.toml", `
[shared]
__factory__ = "wiring.tests:Dummy"
arg1 = "once"
`)
	fs := newCountingFs(mem)
	t.Setenv("WIRING_TEST_CONCURRENT", "/srv/config.toml")

	r, j := newTestRegistry(t)
	p, _ := newTestProcessor(r)
	s := NewStore(WithEnvVar("WIRING_TEST_CONCURRENT"), WithLoader(NewLoader(fs)), WithProcessor(p))

	const callers = 32
	results := make([]Tree, callers)
	var g errgroup.Group
	for i := 0; i < callers; i++ {
		i := i
		g.Go(func() error {
			tree, err := s.Get(nil)
			results[i] = tree
			return err
		})
	}
	require.NoError(t, g.Wait())

	first, err := ComponentAt[*dummyComponent](results[0], "shared")
	require.NoError(t, err)
	for _, tree := range results[1:] {
		assert.True(t, same(results[0], tree))
		c, err := ComponentAt[*dummyComponent](tree, "shared")
		require.NoError(t, err)
		assert.Same(t, first, c)
	}

	assert.Equal(t, 1, fs.Opens("/srv/config.toml"))
	assert.Equal(t, []string{"build", "init:shared"}, j.Events())
}

// TestStoreGlobSources tests glob expansion of the source list
func TestStoreGlobSources(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/conf.d/10-base.toml", `order = "base"
base = true`)
	writeFile(t, fs, "/conf.d/20-site.yaml", "order: site\nsite: true\n")
	writeFile(t, fs, "/conf.d/notes.txt", "ignored")
	t.Setenv("WIRING_TEST_GLOB", "/conf.d/*.{toml,yaml}")

	s := newTestStore(t, fs, "WIRING_TEST_GLOB")
	tree, err := s.Get(nil)
	require.NoError(t, err)

	assert.Equal(t, "site", tree["order"])
	assert.Equal(t, true, tree["base"])
	assert.Equal(t, true, tree["site"])
}

// TestDefaultStore exercises the process-wide helpers
func TestDefaultStore(t *testing.T) {
	os.Unsetenv(DefaultEnvVar)

	assert.Same(t, DefaultStore(), DefaultStore())

	tree, err := GetConfig(map[string]any{"process": "wide"})
	require.NoError(t, err)
	assert.Equal(t, "wide", tree["process"])

	_, err = InitializeConfig(nil)
	assert.True(t, errors.Is(err, ErrAlreadyInitialized))
}
