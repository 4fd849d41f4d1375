// FILE: lixenwraith/wiring/loader.go
package wiring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Source formats.
const (
	FormatTOML = "toml"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatHCL  = "hcl"
)

// Loader reads configuration sources from a filesystem.
type Loader struct {
	fs          afero.Fs
	maxFileSize int64
	lookupEnv   func(string) (string, bool)
	environ     func() []string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithMaxFileSize rejects sources larger than n bytes. Zero disables the check.
func WithMaxFileSize(n int64) LoaderOption {
	return func(l *Loader) {
		l.maxFileSize = n
	}
}

// NewLoader creates a loader over fs, or the OS filesystem if fs is nil.
func NewLoader(fs afero.Fs, opts ...LoaderOption) *Loader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	l := &Loader{
		fs:        fs,
		lookupEnv: os.LookupEnv,
		environ:   os.Environ,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Locations expands a comma-separated source list. Entries are trimmed and
// empty ones dropped; entries holding glob metacharacters are expanded with
// doublestar syntax in sorted order and must match at least one file.
func (l *Loader) Locations(list string) ([]string, error) {
	var paths []string
	for _, entry := range splitSources(list) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.ContainsAny(entry, "*?[{") {
			paths = append(paths, entry)
			continue
		}

		matches, err := l.glob(entry)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%w: pattern %q matched no files", ErrSourceNotFound, entry)
		}
		paths = append(paths, matches...)
	}
	return paths, nil
}

// splitSources splits on commas outside brace alternations.
func splitSources(list string) []string {
	var entries []string
	depth, start := 0, 0
	for i, r := range list {
		switch r {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				entries = append(entries, list[start:i])
				start = i + 1
			}
		}
	}
	return append(entries, list[start:])
}

func (l *Loader) glob(pattern string) ([]string, error) {
	base, rest := doublestar.SplitPattern(filepath.ToSlash(pattern))
	base = filepath.FromSlash(base)
	if !filepath.IsAbs(base) {
		abs, err := filepath.Abs(base)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve glob base '%s': %w", base, err)
		}
		base = abs
	}

	fsys := afero.NewIOFS(afero.NewBasePathFs(l.fs, base))
	matches, err := doublestar.Glob(fsys, rest)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}
	sort.Strings(matches)

	paths := make([]string, len(matches))
	for i, m := range matches {
		paths[i] = filepath.Join(base, filepath.FromSlash(m))
	}
	return paths, nil
}

// LoadAll loads every path in order.
func (l *Loader) LoadAll(paths []string) ([]map[string]any, error) {
	sources := make([]map[string]any, 0, len(paths))
	for _, path := range paths {
		source, err := l.LoadFile(path)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	return sources, nil
}

// LoadFile reads one source. The format comes from the file extension, or
// from the content when the extension is not recognised. The source must
// describe a mapping.
func (l *Loader) LoadFile(path string) (map[string]any, error) {
	info, err := l.fs.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat config file '%s': %w", path, err)
	}
	if l.maxFileSize > 0 && info.Size() > l.maxFileSize {
		return nil, fmt.Errorf("config file '%s' exceeds maximum size %d bytes", path, l.maxFileSize)
	}

	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	here, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory of '%s': %w", path, err)
	}

	format := detectFileFormat(path)
	if format == "" {
		format = detectFormatFromContent(data)
	}
	return l.Parse(data, format, path, here)
}

// Parse decodes raw source data. name is used in error messages and as the
// HCL filename; here is the directory substituted for ${here}.
func (l *Loader) Parse(data []byte, format, name, here string) (map[string]any, error) {
	var parsed any
	switch format {
	case FormatHCL:
		v, err := evalHCLLiteral(data, name, here, l.environMap())
		if err != nil {
			return nil, err
		}
		parsed = v

	case FormatTOML:
		m := make(map[string]any)
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config file '%s': %w", name, err)
		}
		parsed = m

	case FormatJSON:
		var m map[string]any
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber() // Preserve number precision
		if err := decoder.Decode(&m); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config file '%s': %w", name, err)
		}
		parsed = m

	case FormatYAML:
		var m map[string]any
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config file '%s': %w", name, err)
		}
		parsed = m

	default:
		return nil, fmt.Errorf("%w: cannot determine format of '%s'", ErrUnsupportedFormat, name)
	}

	normalized, err := l.normalize(parsed, format != FormatHCL, here)
	if err != nil {
		return nil, fmt.Errorf("config file '%s': %w", name, err)
	}
	if normalized == nil {
		return make(map[string]any), nil
	}
	source, ok := normalized.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("config file '%s' must describe a mapping, got %T", name, normalized)
	}
	if source == nil {
		source = make(map[string]any)
	}
	return source, nil
}

func (l *Loader) environMap() map[string]string {
	env := make(map[string]string)
	for _, kv := range l.environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// normalize converts decoded values to the tree representation: int64 for
// integers, float64 for other numbers, map[string]any for mappings and []any
// for sequences. With expand set, ${here} and ${env:NAME} are substituted in
// strings.
func (l *Loader) normalize(v any, expand bool, here string) (any, error) {
	switch n := v.(type) {
	case map[string]any:
		for k, child := range n {
			c, err := l.normalize(child, expand, here)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			n[k] = c
		}
		return n, nil
	case map[any]any:
		out := make(map[string]any, len(n))
		for k, child := range n {
			c, err := l.normalize(child, expand, here)
			if err != nil {
				return nil, fmt.Errorf("%v: %w", k, err)
			}
			out[fmt.Sprint(k)] = c
		}
		return out, nil
	case []map[string]any:
		out := make([]any, len(n))
		for i, child := range n {
			c, err := l.normalize(child, expand, here)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	case []any:
		for i, child := range n {
			c, err := l.normalize(child, expand, here)
			if err != nil {
				return nil, err
			}
			n[i] = c
		}
		return n, nil
	case string:
		if !expand {
			return n, nil
		}
		return l.expand(n, here)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		return n.Float64()
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case uint:
		if uint64(n) > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d overflows int64", n)
		}
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d overflows int64", n)
		}
		return int64(n), nil
	case float32:
		return float64(n), nil
	default:
		return v, nil
	}
}

var placeholderPattern = regexp.MustCompile(`\$\{(here|env:[A-Za-z_][A-Za-z0-9_]*)\}`)

// expand substitutes ${here} and ${env:NAME}. An unset variable is an error.
func (l *Loader) expand(s, here string) (string, error) {
	var missing []string
	out := placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := match[2 : len(match)-1]
		if name == "here" {
			return here
		}
		key := strings.TrimPrefix(name, "env:")
		val, ok := l.lookupEnv(key)
		if !ok {
			missing = append(missing, key)
			return match
		}
		return val
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("environment variable %s is not set", strings.Join(missing, ", "))
	}
	return out, nil
}

// detectFileFormat determines format from file extension
func detectFileFormat(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml", ".tml":
		return FormatTOML
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".hcl":
		return FormatHCL
	default:
		return ""
	}
}

// detectFormatFromContent attempts to detect format by parsing
func detectFormatFromContent(data []byte) string {
	// Try JSON first (strict format)
	var jsonTest any
	if err := json.Unmarshal(data, &jsonTest); err == nil {
		return FormatJSON
	}

	// Try YAML (superset of JSON, so check after JSON)
	var yamlTest map[string]any
	if err := yaml.Unmarshal(data, &yamlTest); err == nil && yamlTest != nil {
		return FormatYAML
	}

	// Try TOML last
	var tomlTest map[string]any
	if err := toml.Unmarshal(data, &tomlTest); err == nil {
		return FormatTOML
	}

	return ""
}
