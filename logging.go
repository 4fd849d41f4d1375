// FILE: lixenwraith/wiring/logging.go
package wiring

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// LoggingKey is the reserved top-level key holding the logging configuration.
const LoggingKey = "logging"

// LoggingFunc applies the logging decision at the end of a run. spec is the
// value under LoggingKey and present reports whether the key existed.
type LoggingFunc func(spec any, present bool) error

// LoggingSpec is the shape of the "logging" section understood by ConfigureLogging.
type LoggingSpec struct {
	Name            string `toml:"name"`
	Level           string `toml:"level"`
	Format          string `toml:"format"` // text or json
	Output          string `toml:"output"` // stderr, stdout or a file path
	IncludeLocation bool   `toml:"include_location"`
	TimeFormat      string `toml:"time_format"`
	Color           string `toml:"color"` // auto, always or never
}

// ConfigureLogging installs the process-wide default hclog logger.
// Without a logging section, logs go to stderr at debug level.
func ConfigureLogging(spec any, present bool) error {
	if !present {
		hclog.SetDefault(hclog.New(&hclog.LoggerOptions{
			Level:  hclog.Debug,
			Output: os.Stderr,
		}))
		return nil
	}

	if _, ok := asMapping(spec); !ok {
		return fmt.Errorf("%w: %q must be a mapping, got %T", ErrInvalidDirective, LoggingKey, spec)
	}
	var ls LoggingSpec
	if err := decodeInto(spec, &ls); err != nil {
		return fmt.Errorf("invalid logging configuration: %w", err)
	}
	opts, err := ls.LoggerOptions()
	if err != nil {
		return err
	}
	hclog.SetDefault(hclog.New(opts))
	return nil
}

// LoggerOptions converts the section into hclog options.
func (ls LoggingSpec) LoggerOptions() (*hclog.LoggerOptions, error) {
	opts := &hclog.LoggerOptions{
		Name:            ls.Name,
		Level:           hclog.Info,
		IncludeLocation: ls.IncludeLocation,
		TimeFormat:      ls.TimeFormat,
	}

	if ls.Level != "" {
		opts.Level = hclog.LevelFromString(ls.Level)
		if opts.Level == hclog.NoLevel {
			return nil, fmt.Errorf("unknown log level %q", ls.Level)
		}
	}

	switch strings.ToLower(ls.Format) {
	case "", "text":
	case "json":
		opts.JSONFormat = true
	default:
		return nil, fmt.Errorf("unknown log format %q", ls.Format)
	}

	switch strings.ToLower(ls.Color) {
	case "", "never":
		opts.Color = hclog.ColorOff
	case "auto":
		opts.Color = hclog.AutoColor
	case "always":
		opts.Color = hclog.ForceColor
	default:
		return nil, fmt.Errorf("unknown color option %q", ls.Color)
	}

	out, err := logOutput(ls.Output)
	if err != nil {
		return nil, err
	}
	opts.Output = out
	return opts, nil
}

func logOutput(target string) (io.Writer, error) {
	switch target {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	default:
		// The file stays open for the life of the process.
		f, err := os.OpenFile(target, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file '%s': %w", target, err)
		}
		return f, nil
	}
}
