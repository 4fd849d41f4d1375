// FILE: lixenwraith/wiring/convenience_test.go
package wiring

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dumpFixture() Tree {
	return Tree{
		"name": "svc",
		"server": map[string]any{
			"port":  int64(8080),
			"ratio": 0.5,
			"tags":  []any{"a", "b"},
		},
	}
}

// TestQuickFunctions tests the convenience Quick* functions
func TestQuickFunctions(t *testing.T) {
	restoreDefaultLogger(t)
	hclog.SetDefault(hclog.NewNullLogger())

	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "quick.toml")
	require.NoError(t, os.WriteFile(configFile, []byte(`
host = "quickhost"
port = 7777

[logging]
level = "error"
output = "stderr"
`), 0644))

	t.Run("Quick", func(t *testing.T) {
		tree, err := Quick(configFile)
		require.NoError(t, err)

		host, err := tree.String("host")
		require.NoError(t, err)
		assert.Equal(t, "quickhost", host)

		// The logging section was applied to the default logger
		assert.False(t, hclog.Default().IsWarn())
	})

	t.Run("MustQuickPanic", func(t *testing.T) {
		assert.Panics(t, func() {
			MustQuick(filepath.Join(tmpDir, "missing.toml"))
		})
	})
}

// TestDump tests writing a tree in each format
func TestDump(t *testing.T) {
	loader := NewLoader(afero.NewMemMapFs())

	for _, format := range []string{FormatTOML, FormatJSON, FormatYAML} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Dump(&buf, dumpFixture(), format))

			// The output parses back to the same tree
			parsed, err := loader.Parse(buf.Bytes(), format, "dump."+format, "/")
			require.NoError(t, err)
			assert.Equal(t, map[string]any(dumpFixture()), parsed)
		})
	}

	t.Run("JSONIndented", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Dump(&buf, Tree{"a": map[string]any{"b": int64(1)}}, FormatJSON))
		assert.Equal(t, "{\n  \"a\": {\n    \"b\": 1\n  }\n}\n", buf.String())
	})

	t.Run("Unsupported", func(t *testing.T) {
		var buf bytes.Buffer
		assert.ErrorIs(t, Dump(&buf, dumpFixture(), FormatHCL), ErrUnsupportedFormat)
	})
}

// TestSave tests atomic writes to disk
func TestSave(t *testing.T) {
	dir := t.TempDir()

	t.Run("FormatFromExtension", func(t *testing.T) {
		path := filepath.Join(dir, "nested", "out.yaml")
		require.NoError(t, Save(path, dumpFixture(), ""))

		loaded, err := NewLoader(nil).LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, map[string]any(dumpFixture()), loaded)

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

		// No temporary files are left behind
		entries, err := os.ReadDir(filepath.Dir(path))
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("ExplicitFormatOverwrites", func(t *testing.T) {
		path := filepath.Join(dir, "out.conf")
		require.NoError(t, Save(path, Tree{"v": int64(1)}, FormatJSON))
		require.NoError(t, Save(path, Tree{"v": int64(2)}, FormatJSON))

		loaded, err := NewLoader(nil).LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, int64(2), loaded["v"])
	})

	t.Run("UnknownExtension", func(t *testing.T) {
		err := Save(filepath.Join(dir, "out.ini"), dumpFixture(), "")
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})
}
