// FILE: lixenwraith/wiring/errors.go
package wiring

import (
	"errors"
	"fmt"
)

var (
	// ErrKeyNotFound is returned by Tree accessors when a path is missing.
	ErrKeyNotFound = errors.New("key not found")
	// ErrPathNotFound means a dotted path did not resolve in any candidate tree.
	ErrPathNotFound = errors.New("path not found")
	// ErrInvalidDottedName means a factory name is neither "module.attr" nor "module:attr.chain".
	ErrInvalidDottedName = errors.New("invalid dotted name")
	// ErrModuleNotFound means no factory was ever registered under the module path.
	ErrModuleNotFound = errors.New("module not registered")
	// ErrAttributeNotFound means the module exists but the attribute chain does not.
	ErrAttributeNotFound = errors.New("attribute not found")
	// ErrDirectiveConflict means a node carries more than one directive handled by the same phase.
	ErrDirectiveConflict = errors.New("conflicting directives")
	// ErrInvalidDirective means a directive value has the wrong shape.
	ErrInvalidDirective = errors.New("invalid directive")
	// ErrRootNotMapping means a phase replaced the configuration root with a non-mapping value.
	ErrRootNotMapping = errors.New("configuration root is not a mapping")
	// ErrPatchTestFailed is returned when a patch "test" operation does not match.
	ErrPatchTestFailed = errors.New("patch test failed")
	// ErrAlreadyInitialized is returned by Initialize when the store was already built.
	ErrAlreadyInitialized = errors.New("configuration was already initialized")
	// ErrSourceNotFound means a configured source location matched no file.
	ErrSourceNotFound = errors.New("configuration source not found")
	// ErrUnsupportedFormat means a source's format could not be determined or is unknown.
	ErrUnsupportedFormat = errors.New("unsupported configuration format")
)

// configHint is appended to missing-key errors, the most common cause being an unset source variable.
const configHint = "Maybe you forgot to set the environment variable " + DefaultEnvVar +
	" to point to your configuration files?"

// ResolutionError reports a directive that could not be resolved.
// It names the directive, the mapping key the node lives under and the
// offending path or factory name.
type ResolutionError struct {
	Directive string
	Key       string
	Path      string
	Err       error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %s %q (key %q): %v", e.Directive, e.Path, e.Key, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// PatchError reports a failed patch operation.
type PatchError struct {
	Index int
	Op    string
	Path  string
	Err   error
}

func (e *PatchError) Error() string {
	return fmt.Sprintf("patch operation #%d (%s %q) failed: %v", e.Index, e.Op, e.Path, e.Err)
}

func (e *PatchError) Unwrap() error {
	return e.Err
}
