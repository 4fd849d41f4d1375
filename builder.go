// FILE: lixenwraith/wiring/builder.go
package wiring

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
)

// ValidatorFunc checks a resolved tree. It runs after the build and should
// return an error if the tree is unusable.
type ValidatorFunc func(tree Tree) error

// Builder provides a fluent interface for assembling a Store
type Builder struct {
	registry    *Registry
	files       []string
	envVar      string
	extra       map[string]any
	fs          afero.Fs
	logger      hclog.Logger
	loggingFunc LoggingFunc
	loggingSet  bool
	maxFileSize int64
	discovery   *FileDiscoveryOptions
	validators  []ValidatorFunc
}

// NewBuilder creates a builder reading DefaultEnvVar from the OS filesystem
func NewBuilder() *Builder {
	return &Builder{
		envVar:     DefaultEnvVar,
		extra:      make(map[string]any),
		validators: make([]ValidatorFunc, 0),
	}
}

// WithRegistry sets the factory registry
func (b *Builder) WithRegistry(r *Registry) *Builder {
	b.registry = r
	return b
}

// WithFiles sets the source files explicitly, bypassing the environment variable
func (b *Builder) WithFiles(paths ...string) *Builder {
	b.files = append(b.files, paths...)
	return b
}

// WithEnvVar sets the environment variable listing the sources
func (b *Builder) WithEnvVar(name string) *Builder {
	b.envVar = name
	return b
}

// WithExtra adds seed keys that sources may override
func (b *Builder) WithExtra(extra map[string]any) *Builder {
	for k, v := range extra {
		b.extra[k] = v
	}
	return b
}

// WithFs sets the filesystem sources are read from
func (b *Builder) WithFs(fs afero.Fs) *Builder {
	b.fs = fs
	return b
}

// WithLogger sets the logger for resolution diagnostics
func (b *Builder) WithLogger(l hclog.Logger) *Builder {
	b.logger = l
	return b
}

// WithLoggingFunc replaces the logging decision; nil disables it
func (b *Builder) WithLoggingFunc(fn LoggingFunc) *Builder {
	b.loggingFunc = fn
	b.loggingSet = true
	return b
}

// WithMaxFileSize limits the size of each source file
func (b *Builder) WithMaxFileSize(n int64) *Builder {
	b.maxFileSize = n
	return b
}

// WithValidator adds a validation function that runs at the end of the build process
// Multiple validators can be added and are executed in the order they are added
func (b *Builder) WithValidator(fn ValidatorFunc) *Builder {
	if fn != nil {
		b.validators = append(b.validators, fn)
	}
	return b
}

// WithFileDiscovery enables automatic config file discovery when no files are set
func (b *Builder) WithFileDiscovery(opts FileDiscoveryOptions) *Builder {
	b.discovery = &opts
	return b
}

// Store assembles an uninitialized Store from the builder settings
func (b *Builder) Store() (*Store, error) {
	loader := NewLoader(b.fs, WithMaxFileSize(b.maxFileSize))

	procOpts := []ProcessorOption{WithRegistry(b.registry), WithLogger(b.logger)}
	if b.loggingSet {
		procOpts = append(procOpts, WithLoggingFunc(b.loggingFunc))
	}

	files := b.files
	if len(files) == 0 && b.discovery != nil {
		if found := Discover(loader.fs, *b.discovery); found != "" {
			locations, err := loader.Locations(found)
			if err != nil {
				return nil, fmt.Errorf("discovered config: %w", err)
			}
			files = locations
		}
	}

	return NewStore(
		WithEnvVar(b.envVar),
		WithFiles(files...),
		WithLoader(loader),
		WithProcessor(NewProcessor(procOpts...)),
	), nil
}

// Build resolves the configuration and runs the validators
func (b *Builder) Build() (Tree, error) {
	store, err := b.Store()
	if err != nil {
		return nil, err
	}

	tree, err := store.Get(b.extra)
	if err != nil {
		return nil, err
	}

	// Run validators
	for _, validator := range b.validators {
		if err := validator(tree); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}
	return tree, nil
}

// MustBuild is like Build but panics on error
func (b *Builder) MustBuild() Tree {
	tree, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("config build failed: %v", err))
	}
	return tree
}

// BuildAndScan builds and decodes the section at path into the provided target pointer
func (b *Builder) BuildAndScan(path string, target any) error {
	tree, err := b.Build()
	if err != nil {
		return err
	}

	if err := tree.Scan(path, target); err != nil {
		return fmt.Errorf("failed to scan final config into target: %w", err)
	}
	return nil
}
