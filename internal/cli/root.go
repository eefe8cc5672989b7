// Package cli implements the autosplit command line: running a module
// against a replayed memory trace and printing its settings schema.
package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

// RootOptions contains global flags shared by all commands.
type RootOptions struct {
	Verbose bool
	Config  Config
}

// NewRootCommand creates the root command for the autosplit CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "autosplit",
		Short: "Run and inspect auto splitter modules",
		Long: `autosplit loads auto splitter modules (JavaScript, Lua or YAML rules),
steps them against recorded memory traces and reports the timer actions
they produce.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig()
			if err != nil {
				return WrapExitError(ExitCommandError, "load config", err)
			}
			opts.Config = cfg
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewSettingsCommand(opts))

	return cmd
}

func newLogger(w io.Writer, opts *RootOptions) (*slog.Logger, error) {
	level, err := opts.Config.Level(opts.Verbose)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "configure logging", err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

func moduleError(path string, err error) error {
	return WrapExitError(ExitCommandError, fmt.Sprintf("load module %s", path), err)
}
