package cli

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	autosplit "github.com/goliatone/go-autosplit"
	"github.com/goliatone/go-autosplit/pkg/state"
)

// ProfileOptions selects a saved settings profile.
type ProfileOptions struct {
	Dir  string
	Name string
}

func (o *ProfileOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Dir, "profile-dir", "", "settings profile directory (default: $AUTOSPLIT_PROFILE_DIR)")
	cmd.Flags().StringVar(&o.Name, "profile", state.DefaultProfile, "settings profile name")
}

func (o *ProfileOptions) profiles(cfg Config) (state.Profiles, bool) {
	dir := o.Dir
	if dir == "" {
		dir = cfg.ProfileDir
	}
	if dir == "" {
		return state.Profiles{}, false
	}
	return state.Profiles{Store: state.FileStore{Dir: dir}}, true
}

func (o *ProfileOptions) ref(modulePath string) state.Ref {
	return state.Ref{Module: filepath.Base(modulePath), Profile: o.Name}
}

// restoreProfile loads the selected profile into store before the module
// declares its settings.
func restoreProfile(ctx context.Context, logger *slog.Logger, cfg Config, opts *ProfileOptions, modulePath string, store *autosplit.SettingsStore) error {
	profiles, ok := opts.profiles(cfg)
	if !ok {
		return nil
	}
	ref := opts.ref(modulePath)
	meta, found, err := profiles.Restore(ctx, ref, store)
	if err != nil {
		return WrapExitError(ExitCommandError, "restore profile", err)
	}
	if found {
		logger.Debug("profile restored", "module", ref.Module, "profile", ref.Profile, "etag", meta.ETag)
	}
	return nil
}

func saveProfile(ctx context.Context, logger *slog.Logger, cfg Config, opts *ProfileOptions, modulePath string, store *autosplit.SettingsStore) error {
	profiles, ok := opts.profiles(cfg)
	if !ok {
		return WrapExitError(ExitCommandError, "save profile", errNoProfileDir)
	}
	ref := opts.ref(modulePath)
	meta, err := profiles.Save(ctx, ref, store, state.Meta{})
	if err != nil {
		return WrapExitError(ExitFailure, "save profile", err)
	}
	logger.Info("profile saved", "module", ref.Module, "profile", ref.Profile, "etag", meta.ETag)
	return nil
}
