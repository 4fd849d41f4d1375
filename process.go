// FILE: lixenwraith/wiring/process.go
package wiring

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/copystructure"
)

// Processor resolves a list of sources into a single tree of live components.
//
// A run proceeds in fixed order: each source is merged into the accumulated
// tree and its copy directives are resolved, then patches run once, then
// factories run once bottom-up, then initialization hooks, and finally the
// logging decision.
//
// Process takes ownership of the sources: their mappings become part of the
// result and are modified in place.
type Processor struct {
	registry    *Registry
	logger      hclog.Logger
	loggingFunc LoggingFunc
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithRegistry sets the registry factories are resolved from.
func WithRegistry(r *Registry) ProcessorOption {
	return func(p *Processor) {
		if r != nil {
			p.registry = r
		}
	}
}

// WithLogger sets the logger for resolution diagnostics.
func WithLogger(l hclog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = l
	}
}

// WithLoggingFunc replaces the logging decision applied at the end of Process.
func WithLoggingFunc(fn LoggingFunc) ProcessorOption {
	return func(p *Processor) {
		p.loggingFunc = fn
	}
}

// NewProcessor creates a processor using DefaultRegistry and ConfigureLogging
// unless told otherwise.
func NewProcessor(opts ...ProcessorOption) *Processor {
	p := &Processor{
		registry:    DefaultRegistry,
		loggingFunc: ConfigureLogging,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs the full pipeline over sources, applied left to right.
func (p *Processor) Process(sources ...map[string]any) (Tree, error) {
	start := time.Now()
	log := p.runLogger()

	merged, err := p.mergeAndPatch(log, sources)
	if err != nil {
		return nil, err
	}

	components := newComponentHandler(p.registry, merged)
	root, err := runPhase(merged, components)
	if err != nil {
		return nil, fmt.Errorf("component phase: %w", err)
	}
	log.Debug("components built", "count", len(components.Components()))

	spec, present := root[LoggingKey]
	if p.loggingFunc != nil {
		if err := p.loggingFunc(spec, present); err != nil {
			return nil, fmt.Errorf("logging configuration: %w", err)
		}
	}

	log.Info("configuration resolved",
		"sources", len(sources),
		"components", len(components.Components()),
		"elapsed", time.Since(start))
	return Tree(root), nil
}

// Merge resolves copies and patches but builds nothing. The result is the
// declarative tree the factories would be called with.
func (p *Processor) Merge(sources ...map[string]any) (Tree, error) {
	merged, err := p.mergeAndPatch(p.runLogger(), sources)
	if err != nil {
		return nil, err
	}
	return Tree(merged), nil
}

func (p *Processor) runLogger() hclog.Logger {
	log := p.logger
	if log == nil {
		log = hclog.L().Named("wiring")
	}
	return log.With("run_id", uuid.NewString())
}

func (p *Processor) mergeAndPatch(log hclog.Logger, sources []map[string]any) (map[string]any, error) {
	accumulated := make(map[string]any)

	for i, source := range sources {
		previous, err := copystructure.Copy(accumulated)
		if err != nil {
			return nil, fmt.Errorf("snapshot before source %d: %w", i, err)
		}
		for k, v := range source {
			accumulated[k] = v
		}

		// Copies of copies settle in the second pass, once the first has
		// replaced the targets they point at.
		accumulated, err = runPhase(accumulated, newCopyHandler(previous.(map[string]any), source))
		if err != nil {
			return nil, fmt.Errorf("copy phase, source %d: %w", i, err)
		}
		accumulated, err = runPhase(accumulated, newCopyHandler(accumulated, map[string]any{}))
		if err != nil {
			return nil, fmt.Errorf("copy phase, source %d: %w", i, err)
		}
		log.Trace("source merged", "index", i, "keys", len(source))
	}

	accumulated, err := runPhase(accumulated, newPatchHandler(accumulated))
	if err != nil {
		return nil, fmt.Errorf("patch phase: %w", err)
	}
	log.Debug("sources merged", "count", len(sources), "keys", len(accumulated))
	return accumulated, nil
}
