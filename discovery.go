// FILE: lixenwraith/wiring/discovery.go
package wiring

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
)

// FileDiscoveryOptions controls where Discover looks for a source list.
type FileDiscoveryOptions struct {
	// Name is the file base name, without extension.
	Name       string
	Extensions []string
	// Paths are searched before the current and XDG directories.
	Paths []string

	// EnvVar names a variable holding an explicit source list.
	EnvVar string

	// CLIFlag is looked up in Args, as "--config x" or "--config=x".
	CLIFlag string
	Args    []string

	UseXDG        bool
	UseCurrentDir bool
}

// DefaultDiscoveryOptions returns options for an application named appName.
func DefaultDiscoveryOptions(appName string) FileDiscoveryOptions {
	return FileDiscoveryOptions{
		Name:          appName,
		Extensions:    []string{".toml", ".yaml", ".yml", ".json", ".hcl"},
		EnvVar:        strings.ToUpper(appName) + "_CONFIG",
		CLIFlag:       "--config",
		Args:          os.Args[1:],
		UseXDG:        true,
		UseCurrentDir: true,
	}
}

// Discover returns a source list, or "" when nothing is found.
// An explicit CLI flag wins over the environment variable, which wins over a
// search of the custom paths, the current directory and the XDG directories.
// Flag and variable values are returned verbatim, so they may hold several
// comma-separated entries or globs.
func Discover(fs afero.Fs, opts FileDiscoveryOptions) string {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	if v, ok := flagValue(opts.Args, opts.CLIFlag); ok {
		return v
	}
	if opts.EnvVar != "" {
		if v := os.Getenv(opts.EnvVar); v != "" {
			return v
		}
	}

	for _, dir := range searchDirs(opts) {
		for _, ext := range opts.Extensions {
			candidate := filepath.Join(dir, opts.Name+ext)
			if info, err := fs.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}
	}
	return ""
}

func flagValue(args []string, flag string) (string, bool) {
	if flag == "" {
		return "", false
	}
	for i, arg := range args {
		if arg == flag && i+1 < len(args) {
			return args[i+1], true
		}
		if v, ok := strings.CutPrefix(arg, flag+"="); ok {
			return v, true
		}
	}
	return "", false
}

func searchDirs(opts FileDiscoveryOptions) []string {
	dirs := append([]string(nil), opts.Paths...)
	if opts.UseCurrentDir {
		if cwd, err := os.Getwd(); err == nil {
			dirs = append(dirs, cwd)
		}
	}
	if opts.UseXDG {
		dirs = append(dirs, xdgConfigDirs(opts.Name)...)
	}
	return dirs
}

// xdgConfigDirs lists the per-user then system-wide XDG config directories for app.
func xdgConfigDirs(app string) []string {
	var dirs []string
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		dirs = append(dirs, filepath.Join(home, app))
	} else if home, err := homedir.Dir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", app))
	}

	system := filepath.SplitList(os.Getenv("XDG_CONFIG_DIRS"))
	if len(system) == 0 {
		system = []string{"/etc/xdg", "/etc"}
	}
	for _, dir := range system {
		dirs = append(dirs, filepath.Join(dir, app))
	}
	return dirs
}
