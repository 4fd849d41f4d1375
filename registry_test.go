// FILE: lixenwraith/wiring/registry_test.go
package wiring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRegistryNames tests both spellings of factory names
func TestRegistryNames(t *testing.T) {
	r := NewRegistry()
	ok := func(map[string]any) (any, error) { return "ok", nil }

	t.Run("ColonForm", func(t *testing.T) {
		require.NoError(t, r.Register("pkg.models:Linear.New", ok))

		f, err := r.Resolve("pkg.models:Linear.New")
		require.NoError(t, err)
		v, _ := f(nil)
		assert.Equal(t, "ok", v)
	})

	t.Run("DotFormSplitsOnLastDot", func(t *testing.T) {
		require.NoError(t, r.Register("pkg.data.Loader", ok))

		_, err := r.Resolve("pkg.data:Loader")
		assert.NoError(t, err, "dot and colon forms name the same factory")
		_, err = r.Resolve("pkg.data.Loader")
		assert.NoError(t, err)
	})

	t.Run("DuplicateRegistration", func(t *testing.T) {
		err := r.Register("pkg.data:Loader", ok)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "already registered")
	})

	t.Run("InvalidNames", func(t *testing.T) {
		for _, name := range []string{"plain", "a:b:c", ":Attr", "mod:", "mod:a..b", "mod.", ".attr"} {
			_, err := r.Resolve(name)
			assert.ErrorIs(t, err, ErrInvalidDottedName, "name %q", name)
		}
	})

	t.Run("MissingModuleAndAttribute", func(t *testing.T) {
		_, err := r.Resolve("other.pkg:Thing")
		assert.ErrorIs(t, err, ErrModuleNotFound)

		_, err = r.Resolve("pkg.models:Linear.Fit")
		assert.ErrorIs(t, err, ErrAttributeNotFound)
	})

	t.Run("NilFactory", func(t *testing.T) {
		assert.Error(t, r.Register("pkg:Nil", nil))
	})

	t.Run("Names", func(t *testing.T) {
		assert.Equal(t, []string{
			BuiltinDict,
			BuiltinList,
			"pkg.data:Loader",
			"pkg.models:Linear.New",
		}, r.Names())
	})

	t.Run("MustRegisterPanics", func(t *testing.T) {
		assert.Panics(t, func() { r.MustRegister("pkg.data.Loader", ok) })
	})
}

// TestBuiltins tests the builtins module
func TestBuiltins(t *testing.T) {
	r := NewRegistry()

	dict, err := r.Resolve(BuiltinDict)
	require.NoError(t, err)
	v, err := dict(map[string]any{"a": int64(1)})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": int64(1)}, v)

	list, err := r.Resolve("builtins.list")
	require.NoError(t, err)
	v, err = list(map[string]any{"items": []any{"x", int64(2)}})
	require.NoError(t, err)
	assert.Equal(t, []any{"x", int64(2)}, v)

	v, err = list(map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, []any{}, v)

	_, err = list(map[string]any{"items": "nope"})
	assert.Error(t, err)
}

type serverOptions struct {
	Host    string        `toml:"host" validate:"required,hostname"`
	Port    int           `toml:"port" validate:"min=1,max=65535"`
	Timeout time.Duration `toml:"timeout"`
	Tags    []string      `toml:"tags"`
	Backend any           `toml:"backend"`
}

// TestConstructor tests typed factory adaptation
func TestConstructor(t *testing.T) {
	factory := Constructor(func(o serverOptions) (any, error) { return o, nil })

	t.Run("DecodesArguments", func(t *testing.T) {
		backend := &dummyComponent{}
		v, err := factory(map[string]any{
			"host":    "api.example.com",
			"port":    int64(8443),
			"timeout": "2m30s",
			"tags":    "a,b",
			"backend": backend,
		})
		require.NoError(t, err)

		o := v.(serverOptions)
		assert.Equal(t, "api.example.com", o.Host)
		assert.Equal(t, 8443, o.Port)
		assert.Equal(t, 150*time.Second, o.Timeout)
		assert.Equal(t, []string{"a", "b"}, o.Tags)
		assert.Same(t, backend, o.Backend)
	})

	t.Run("ValidatesArguments", func(t *testing.T) {
		_, err := factory(map[string]any{"host": "api.example.com", "port": int64(0)})
		assert.ErrorContains(t, err, "invalid factory arguments")

		_, err = factory(map[string]any{"port": int64(80)})
		assert.ErrorContains(t, err, "invalid factory arguments")
	})

	t.Run("RejectsUndecodable", func(t *testing.T) {
		_, err := factory(map[string]any{"host": "h", "port": "not-a-number"})
		assert.ErrorContains(t, err, "decode factory arguments")
	})

	t.Run("NonStructOptions", func(t *testing.T) {
		f := Constructor(func(m map[string]int) (any, error) { return m, nil })
		v, err := f(map[string]any{"a": int64(1)})
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"a": 1}, v)
	})
}
