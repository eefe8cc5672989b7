package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	autosplit "github.com/goliatone/go-autosplit"
	"github.com/goliatone/go-autosplit/pkg/replay"
)

// RunOptions contains flags for the run command.
type RunOptions struct {
	*RootOptions
	Trace    string
	Steps    int
	Splits   int
	Set      []string
	Realtime bool
	Strict   bool
	Profile  ProfileOptions
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <module>",
		Short: "Step a module against a memory trace",
		Long: `Load a module, run its on_init, then call on_update once per step while
replaying the memory trace given with --trace. Timer actions are printed as
they happen, followed by a summary line.

Examples:
  autosplit run splitter.js --trace run.yaml
  autosplit run splitter.lua --trace run.yaml --splits 3 --set category=hundred
  autosplit run rules.yaml --steps 600 --realtime`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModule(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Trace, "trace", "", "memory trace to replay (YAML)")
	cmd.Flags().IntVar(&opts.Steps, "steps", 0, "number of steps (default: trace length, or 1 without a trace)")
	cmd.Flags().IntVar(&opts.Splits, "splits", 0, "segments per run; 0 never ends the run")
	cmd.Flags().StringArrayVar(&opts.Set, "set", nil, "override a setting after on_init (key=value, repeatable)")
	cmd.Flags().BoolVar(&opts.Realtime, "realtime", false, "sleep one tick interval between steps")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "exit with an error when any step faults")
	opts.Profile.bind(cmd)

	return cmd
}

func runModule(ctx context.Context, stdout, stderr io.Writer, path string, opts *RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger, err := newLogger(stderr, opts.RootOptions)
	if err != nil {
		return err
	}

	runtimeOpts := append(opts.Config.RuntimeOptions(), autosplit.WithLogger(logger))
	var trace *replay.Replay
	if opts.Trace != "" {
		trace, err = replay.Load(opts.Trace)
		if err != nil {
			return WrapExitError(ExitCommandError, "load trace", err)
		}
		runtimeOpts = append(runtimeOpts, autosplit.WithProcessProvider(trace))
	}

	steps := opts.Steps
	if steps <= 0 {
		steps = 1
		if trace != nil {
			steps = trace.Len()
		}
	}

	timer := newConsoleTimer(stdout, opts.Splits)
	store := autosplit.NewSettingsStore()
	if err := restoreProfile(ctx, logger, opts.Config, &opts.Profile, path, store); err != nil {
		return err
	}
	rt, err := autosplit.New(path, store, timer, runtimeOpts...)
	if err != nil {
		return moduleError(path, err)
	}
	defer rt.Close()

	if err := applyOverrides(store, opts.Set); err != nil {
		return WrapExitError(ExitCommandError, "apply settings", err)
	}

	faults := 0
	for i := 1; i <= steps; i++ {
		if err := ctx.Err(); err != nil {
			break
		}
		if trace != nil {
			trace.Advance()
		}
		timer.setStep(uint64(i))
		if !rt.StepContext(ctx) {
			faults++
		}
		if opts.Realtime && i < steps {
			sleep(ctx, rt.TickInterval())
		}
	}

	if err := rt.Close(); err != nil {
		logger.Warn("module exit failed", "error", err)
	}
	summary := timer.summary()
	fmt.Fprintf(stdout, "steps=%d faults=%d splits=%d state=%s tick_rate=%d game_time=%s\n",
		rt.Steps(), faults, summary.splits, summary.state, rt.TickRate(), summary.gameTime)

	if opts.Strict && faults > 0 {
		return WrapExitError(ExitFailure, "module faulted", fmt.Errorf("%d of %d steps faulted: %w", faults, steps, rt.LastFault()))
	}
	return nil
}

// applyOverrides parses key=value pairs against the declared settings.
func applyOverrides(store *autosplit.SettingsStore, pairs []string) error {
	var errs []error
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok {
			errs = append(errs, fmt.Errorf("%q is not key=value", pair))
			continue
		}
		setting, ok := store.Lookup(key)
		if !ok {
			errs = append(errs, &autosplit.UnknownKeyError{Key: key})
			continue
		}
		value, err := autosplit.ParseSettingValue(setting.Kind, raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		if err := store.Set(key, value); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
