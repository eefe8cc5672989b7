package state

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	autosplit "github.com/goliatone/go-autosplit"
)

var ErrETagMismatch = errors.New("state: etag mismatch")

// DefaultProfile is used when Ref.Profile is empty.
const DefaultProfile = "default"

// Ref identifies one saved profile of one module.
type Ref struct {
	Module  string
	Profile string
}

// Meta is storage-owned metadata used for concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty" yaml:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty" yaml:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Snapshot holds setting values as bool, int64 or string, keyed by setting key.
type Snapshot map[string]any

// Store loads/saves one snapshot for a single profile reference.
type Store interface {
	Load(ctx context.Context, ref Ref) (snapshot Snapshot, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, snapshot Snapshot, meta Meta) (Meta, error)
}

// Mutator edits a snapshot in place.
type Mutator func(Snapshot) error

// Identifier returns the canonical storage key "module/profile".
func (r Ref) Identifier() (string, error) {
	module := strings.TrimSpace(r.Module)
	if module == "" {
		return "", fmt.Errorf("state: module is required")
	}
	profile := strings.TrimSpace(r.Profile)
	if profile == "" {
		profile = DefaultProfile
	}
	for _, part := range []string{module, profile} {
		if strings.ContainsAny(part, `/\`) || part == "." || part == ".." {
			return "", fmt.Errorf("state: invalid path segment %q", part)
		}
	}
	return module + "/" + profile, nil
}

// Profiles moves settings between a SettingsStore and a Store.
type Profiles struct {
	Store Store
}

// Restore loads ref into settings. It reports false when nothing was saved.
func (p Profiles) Restore(ctx context.Context, ref Ref, settings *autosplit.SettingsStore) (Meta, bool, error) {
	if p.Store == nil {
		return Meta{}, false, fmt.Errorf("state: store is required")
	}
	if settings == nil {
		return Meta{}, false, fmt.Errorf("state: settings store is required")
	}
	snapshot, meta, ok, err := p.Store.Load(ctx, ref)
	if err != nil {
		return Meta{}, false, fmt.Errorf("state: load %q: %w", ref.Module, err)
	}
	if !ok {
		return Meta{}, false, nil
	}
	values, err := snapshot.Values()
	if err != nil {
		return meta, true, err
	}
	if err := settings.Restore(values); err != nil {
		return meta, true, fmt.Errorf("state: restore %q: %w", ref.Module, err)
	}
	return meta, true, nil
}

// Save stores the current values of settings under ref.
func (p Profiles) Save(ctx context.Context, ref Ref, settings *autosplit.SettingsStore, meta Meta) (Meta, error) {
	if settings == nil {
		return Meta{}, fmt.Errorf("state: settings store is required")
	}
	return p.Mutate(ctx, ref, meta, func(snapshot Snapshot) error {
		for key, value := range SnapshotOf(settings) {
			snapshot[key] = value
		}
		return nil
	})
}

// Mutate loads one snapshot, applies fn, validates the values, then saves.
func (p Profiles) Mutate(ctx context.Context, ref Ref, meta Meta, fn Mutator) (Meta, error) {
	if p.Store == nil {
		return Meta{}, fmt.Errorf("state: store is required")
	}
	if _, err := ref.Identifier(); err != nil {
		return Meta{}, err
	}
	if fn == nil {
		return Meta{}, fmt.Errorf("state: mutator is required")
	}

	snapshot, loadedMeta, ok, err := p.Store.Load(ctx, ref)
	if err != nil {
		return Meta{}, fmt.Errorf("state: load %q: %w", ref.Module, err)
	}
	if !ok || snapshot == nil {
		snapshot = Snapshot{}
		loadedMeta = Meta{}
	}

	if meta.ETag != "" && loadedMeta.ETag != "" && meta.ETag != loadedMeta.ETag {
		return loadedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loadedMeta.ETag)
	}

	if err := fn(snapshot); err != nil {
		return loadedMeta, err
	}
	if _, err := snapshot.Values(); err != nil {
		return loadedMeta, err
	}

	saveMeta := mergeMeta(loadedMeta, meta)
	saveMeta.ETag = snapshot.ETag()
	savedMeta, err := p.Store.Save(ctx, ref, snapshot, saveMeta)
	if err != nil {
		return loadedMeta, fmt.Errorf("state: save %q: %w", ref.Module, err)
	}
	return savedMeta, nil
}

// SnapshotOf captures the current values of settings.
func SnapshotOf(settings *autosplit.SettingsStore) Snapshot {
	values := settings.Snapshot()
	out := make(Snapshot, len(values))
	for key, value := range values {
		out[key] = value.Any()
	}
	return out
}

// Values converts the snapshot into typed setting values.
func (s Snapshot) Values() (map[string]autosplit.SettingValue, error) {
	out := make(map[string]autosplit.SettingValue, len(s))
	var errs []error
	for key, raw := range s {
		value, err := valueOf(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("state: setting %q: %w", key, err))
			continue
		}
		out[key] = value
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

// ETag is a content hash of the snapshot, independent of map order.
func (s Snapshot) ETag() string {
	keys := make([]string, 0, len(s))
	for key := range s {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	hash := sha256.New()
	for _, key := range keys {
		if value, err := valueOf(s[key]); err == nil {
			fmt.Fprintf(hash, "%s=%s:%s\n", key, value.Kind, value)
			continue
		}
		fmt.Fprintf(hash, "%s=%T:%v\n", key, s[key], s[key])
	}
	return hex.EncodeToString(hash.Sum(nil))[:16]
}

func valueOf(raw any) (autosplit.SettingValue, error) {
	switch v := raw.(type) {
	case bool:
		return autosplit.BoolValue(v), nil
	case string:
		return autosplit.ChoiceValue(v), nil
	case int:
		return autosplit.IntValue(int64(v)), nil
	case int64:
		return autosplit.IntValue(v), nil
	case uint64:
		return autosplit.IntValue(int64(v)), nil
	case float64:
		if v != float64(int64(v)) {
			return autosplit.SettingValue{}, fmt.Errorf("%w: %v is not an integer", autosplit.ErrInvalidSetting, v)
		}
		return autosplit.IntValue(int64(v)), nil
	default:
		return autosplit.SettingValue{}, fmt.Errorf("%w: unsupported value type %T", autosplit.ErrInvalidSetting, raw)
	}
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.SnapshotID != "" {
		out.SnapshotID = override.SnapshotID
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}
