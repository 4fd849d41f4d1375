// FILE: lixenwraith/wiring/cmd/wiring/root.go
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/lixenwraith/wiring"
)

type rootOptions struct {
	envVar   string
	logLevel string
}

func newRootCommand(version, commit, date string) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "wiring",
		Short: "Inspect and resolve declarative component configurations",
		Long: `wiring resolves layered configuration sources the way an application
would at startup: sources are merged left to right, __copy__ and __patch__
directives are applied, and __factory__ nodes are built bottom-up.

Sources are given as arguments or, when none are given, read from the
comma-separated list in the WIRING_CONFIG environment variable.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.envVar, "env-var", wiring.DefaultEnvVar,
		"environment variable listing the sources when none are given as arguments")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn",
		"level of resolution diagnostics written to stderr")

	// Add subcommands
	rootCmd.AddCommand(
		newResolveCommand(opts),
		newBuildCommand(opts),
		newFactoriesCommand(),
	)

	return rootCmd
}

// sources loads the given files, falling back to the environment variable.
func (o *rootOptions) sources(args []string) ([]map[string]any, error) {
	loader := wiring.NewLoader(nil)

	paths := args
	if len(paths) == 0 {
		list := os.Getenv(o.envVar)
		if strings.TrimSpace(list) == "" {
			return nil, fmt.Errorf("no sources given and %s is not set", o.envVar)
		}
		var err error
		paths, err = loader.Locations(list)
		if err != nil {
			return nil, err
		}
	}
	return loader.LoadAll(paths)
}

func (o *rootOptions) logger(cmd *cobra.Command) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "wiring",
		Level:  hclog.LevelFromString(o.logLevel),
		Output: cmd.ErrOrStderr(),
	})
}

func newResolveCommand(opts *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "resolve [source...]",
		Short: "Print the merged configuration after copies and patches",
		Long: `Resolve merges the sources, applies copy and patch directives and prints
the result. Factories are not called, so the output shows exactly the
arguments each component would be built with.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, err := opts.sources(args)
			if err != nil {
				return err
			}
			tree, err := wiring.NewProcessor(wiring.WithLogger(opts.logger(cmd))).Merge(sources...)
			if err != nil {
				return err
			}
			return wiring.Dump(cmd.OutOrStdout(), tree, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", wiring.FormatYAML, "output format: toml, json or yaml")
	return cmd
}

func newBuildCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [source...]",
		Short: "Build every component and list what was produced",
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, err := opts.sources(args)
			if err != nil {
				return err
			}
			processor := wiring.NewProcessor(
				wiring.WithLogger(opts.logger(cmd)),
				wiring.WithLoggingFunc(nil),
			)
			tree, err := processor.Process(sources...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, key := range tree.Keys() {
				fmt.Fprintf(out, "%s\t%T\n", key, tree[key])
			}
			return nil
		},
	}
	return cmd
}

func newFactoriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "factories",
		Short: "List the registered factory names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range wiring.DefaultRegistry.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
