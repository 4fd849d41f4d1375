// FILE: lixenwraith/wiring/convenience.go
package wiring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Quick resolves the given source files with DefaultRegistry in a single call
func Quick(files ...string) (Tree, error) {
	return NewBuilder().WithFiles(files...).Build()
}

// MustQuick is like Quick but panics on error
func MustQuick(files ...string) Tree {
	tree, err := Quick(files...)
	if err != nil {
		panic(fmt.Sprintf("config initialization failed: %v", err))
	}
	return tree
}

// Dump writes a declarative tree, typically the result of Processor.Merge,
// to w in the given format. Built components cannot be encoded.
func Dump(w io.Writer, tree Tree, format string) error {
	data := map[string]any(tree)
	switch format {
	case FormatTOML:
		return toml.NewEncoder(w).Encode(data)
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(data); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return fmt.Errorf("%w: cannot dump as %q", ErrUnsupportedFormat, format)
	}
}

// Save writes tree to path atomically. The format follows the extension when
// format is empty.
func Save(path string, tree Tree, format string) error {
	if format == "" {
		format = detectFileFormat(path)
	}

	var buf bytes.Buffer
	if err := Dump(&buf, tree, format); err != nil {
		return fmt.Errorf("failed to marshal config data: %w", err)
	}
	return atomicWriteFile(path, buf.Bytes())
}

// atomicWriteFile performs atomic file write
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	tempPath := tempFile.Name()
	defer os.Remove(tempPath) // Clean up on any error

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}
