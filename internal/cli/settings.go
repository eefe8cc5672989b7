package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	autosplit "github.com/goliatone/go-autosplit"
	"github.com/goliatone/go-autosplit/schema/openapi"
)

// SettingsOptions contains flags for the settings command.
type SettingsOptions struct {
	*RootOptions
	Format  string
	Set     []string
	Save    bool
	Profile ProfileOptions
}

// NewSettingsCommand creates the settings command.
func NewSettingsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SettingsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "settings <module>",
		Short: "Print the settings a module declares",
		Long: `Load a module, run its on_init and print the declared settings as JSON,
either as flat field descriptors or as an OpenAPI document.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return printSettings(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Format, "format", string(autosplit.SchemaFormatDescriptors), "output format: descriptors or openapi")
	cmd.Flags().StringArrayVar(&opts.Set, "set", nil, "override a setting before printing (key=value, repeatable)")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "save the resulting values to the selected profile")
	opts.Profile.bind(cmd)

	return cmd
}

func printSettings(ctx context.Context, stdout, stderr io.Writer, path string, opts *SettingsOptions) error {
	var generator autosplit.SchemaGenerator
	switch autosplit.SchemaFormat(opts.Format) {
	case autosplit.SchemaFormatDescriptors:
		generator = autosplit.DefaultSchemaGenerator()
	case autosplit.SchemaFormatOpenAPI:
		generator = openapi.NewGenerator(openapi.WithCurrentValues())
	default:
		return WrapExitError(ExitCommandError, "invalid format", fmt.Errorf("unknown format %q", opts.Format))
	}

	logger, err := newLogger(stderr, opts.RootOptions)
	if err != nil {
		return err
	}
	runtimeOpts := append(opts.Config.RuntimeOptions(), autosplit.WithLogger(logger))

	store := autosplit.NewSettingsStore()
	if err := restoreProfile(ctx, logger, opts.Config, &opts.Profile, path, store); err != nil {
		return err
	}
	rt, err := autosplit.New(path, store, newConsoleTimer(io.Discard, 0), runtimeOpts...)
	if err != nil {
		return moduleError(path, err)
	}
	defer rt.Close()

	if err := applyOverrides(store, opts.Set); err != nil {
		return WrapExitError(ExitCommandError, "apply settings", err)
	}
	if opts.Save {
		if err := saveProfile(ctx, logger, opts.Config, &opts.Profile, path, store); err != nil {
			return err
		}
	}

	doc, err := store.Schema(generator)
	if err != nil {
		return WrapExitError(ExitFailure, "generate schema", err)
	}
	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc.Document); err != nil {
		return WrapExitError(ExitFailure, "write schema", err)
	}
	return nil
}
