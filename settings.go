package autosplit

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// SettingKind identifies the type of a setting value.
type SettingKind int

const (
	SettingInvalid SettingKind = iota
	SettingBool
	SettingInt
	SettingChoice
)

func (k SettingKind) String() string {
	switch k {
	case SettingBool:
		return "bool"
	case SettingInt:
		return "int"
	case SettingChoice:
		return "choice"
	default:
		return "invalid"
	}
}

// ParseSettingKind maps "bool", "int" and "choice" (plus a few aliases) to
// a SettingKind.
func ParseSettingKind(name string) (SettingKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bool", "boolean":
		return SettingBool, nil
	case "int", "integer":
		return SettingInt, nil
	case "choice", "enum":
		return SettingChoice, nil
	default:
		return SettingInvalid, fmt.Errorf("%w: unknown kind %q", ErrInvalidSetting, name)
	}
}

// SettingValue is a tagged setting value. Only the field matching Kind is
// meaningful.
type SettingValue struct {
	Kind   SettingKind
	Bool   bool
	Int    int64
	Choice string
}

// BoolValue returns a boolean setting value.
func BoolValue(v bool) SettingValue {
	return SettingValue{Kind: SettingBool, Bool: v}
}

// IntValue returns an integer setting value.
func IntValue(v int64) SettingValue {
	return SettingValue{Kind: SettingInt, Int: v}
}

// ChoiceValue returns a choice setting value selecting the option key v.
func ChoiceValue(v string) SettingValue {
	return SettingValue{Kind: SettingChoice, Choice: v}
}

// Any returns the value as bool, int64 or string.
func (v SettingValue) Any() any {
	switch v.Kind {
	case SettingBool:
		return v.Bool
	case SettingInt:
		return v.Int
	case SettingChoice:
		return v.Choice
	default:
		return nil
	}
}

func (v SettingValue) String() string {
	switch v.Kind {
	case SettingBool:
		return strconv.FormatBool(v.Bool)
	case SettingInt:
		return strconv.FormatInt(v.Int, 10)
	case SettingChoice:
		return v.Choice
	default:
		return "<invalid>"
	}
}

// ParseSettingValue parses raw into a value of the given kind.
func ParseSettingValue(kind SettingKind, raw string) (SettingValue, error) {
	raw = strings.TrimSpace(raw)
	switch kind {
	case SettingBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return SettingValue{}, fmt.Errorf("%w: %v", ErrInvalidSetting, err)
		}
		return BoolValue(b), nil
	case SettingInt:
		i, err := strconv.ParseInt(raw, 0, 64)
		if err != nil {
			return SettingValue{}, fmt.Errorf("%w: %v", ErrInvalidSetting, err)
		}
		return IntValue(i), nil
	case SettingChoice:
		return ChoiceValue(raw), nil
	default:
		return SettingValue{}, fmt.Errorf("%w: unknown kind", ErrInvalidSetting)
	}
}

// Choice is one option of a choice setting.
type Choice struct {
	Key   string
	Label string
}

// Setting is a declared setting. Values returned by the store are copies.
type Setting struct {
	Key     string
	Label   string
	Tooltip string
	Parent  string
	Kind    SettingKind
	Default SettingValue
	Value   SettingValue
	Choices []Choice
}

func (s Setting) clone() Setting {
	if len(s.Choices) > 0 {
		s.Choices = append([]Choice(nil), s.Choices...)
	}
	return s
}

func (s Setting) hasChoice(key string) bool {
	for _, choice := range s.Choices {
		if choice.Key == key {
			return true
		}
	}
	return false
}

// DeclareOption configures optional setting metadata.
type DeclareOption func(*Setting)

// WithTooltip attaches a tooltip to the setting.
func WithTooltip(tooltip string) DeclareOption {
	return func(s *Setting) {
		s.Tooltip = tooltip
	}
}

// WithParent nests the setting under an already declared setting.
func WithParent(parent string) DeclareOption {
	return func(s *Setting) {
		s.Parent = normalizeKey(parent)
	}
}

// WithChoices sets the options of a choice setting.
func WithChoices(choices ...Choice) DeclareOption {
	return func(s *Setting) {
		s.Choices = append([]Choice(nil), choices...)
	}
}

// SettingsStore is an ordered registry of module-declared settings. The host
// creates it, the module populates it during on_init, and either side may
// read or update values between steps.
type SettingsStore struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]*Setting
	pending map[string]SettingValue
}

// NewSettingsStore returns an empty store.
func NewSettingsStore() *SettingsStore {
	return &SettingsStore{
		entries: map[string]*Setting{},
		pending: map[string]SettingValue{},
	}
}

// Declare registers a new setting with def as its default value.
func (s *SettingsStore) Declare(key, label string, def SettingValue, opts ...DeclareOption) error {
	setting := Setting{
		Key:     normalizeKey(key),
		Label:   label,
		Kind:    def.Kind,
		Default: def,
		Value:   def,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&setting)
		}
	}
	if setting.Key == "" {
		return fmt.Errorf("%w: key must not be empty", ErrInvalidSetting)
	}
	if setting.Kind == SettingInvalid {
		return fmt.Errorf("%w: setting %q has no kind", ErrInvalidSetting, setting.Key)
	}
	if setting.Label == "" {
		setting.Label = setting.Key
	}
	if setting.Kind == SettingChoice {
		if len(setting.Choices) == 0 {
			return fmt.Errorf("%w: choice setting %q has no choices", ErrInvalidSetting, setting.Key)
		}
		if !setting.hasChoice(def.Choice) {
			return fmt.Errorf("%w: default %q is not a choice of %q", ErrInvalidSetting, def.Choice, setting.Key)
		}
	} else {
		setting.Choices = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureMaps()
	if _, exists := s.entries[setting.Key]; exists {
		return &DuplicateKeyError{Key: setting.Key}
	}
	if setting.Parent != "" {
		if _, exists := s.entries[setting.Parent]; !exists {
			return &UnknownKeyError{Key: setting.Parent}
		}
	}
	if restored, ok := s.pending[setting.Key]; ok {
		delete(s.pending, setting.Key)
		if restored.Kind == setting.Kind && (setting.Kind != SettingChoice || setting.hasChoice(restored.Choice)) {
			setting.Value = restored
		}
	}
	s.entries[setting.Key] = &setting
	s.order = append(s.order, setting.Key)
	return nil
}

// Get returns the current value of key.
func (s *SettingsStore) Get(key string) (SettingValue, error) {
	key = normalizeKey(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	setting, ok := s.entries[key]
	if !ok {
		return SettingValue{}, &UnknownKeyError{Key: key}
	}
	return setting.Value, nil
}

// Lookup returns a copy of the setting declared under key.
func (s *SettingsStore) Lookup(key string) (Setting, bool) {
	key = normalizeKey(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	setting, ok := s.entries[key]
	if !ok {
		return Setting{}, false
	}
	return setting.clone(), true
}

// Set overwrites the current value of key. A failed Set leaves the store
// unchanged.
func (s *SettingsStore) Set(key string, value SettingValue) error {
	key = normalizeKey(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	setting, ok := s.entries[key]
	if !ok {
		return &UnknownKeyError{Key: key}
	}
	if value.Kind != setting.Kind {
		return &TypeMismatchError{Key: key, Expected: setting.Kind, Got: value.Kind}
	}
	if setting.Kind == SettingChoice && !setting.hasChoice(value.Choice) {
		return fmt.Errorf("%w: %q is not a choice of %q", ErrInvalidSetting, value.Choice, key)
	}
	setting.Value = value
	return nil
}

// SetTooltip replaces the tooltip of key.
func (s *SettingsStore) SetTooltip(key, tooltip string) error {
	key = normalizeKey(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	setting, ok := s.entries[key]
	if !ok {
		return &UnknownKeyError{Key: key}
	}
	setting.Tooltip = tooltip
	return nil
}

// List returns every setting in declaration order.
func (s *SettingsStore) List() []Setting {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Setting, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.entries[key].clone())
	}
	return out
}

// Len returns the number of declared settings.
func (s *SettingsStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Snapshot returns the current values keyed by setting key, suitable for
// persistence by the host.
func (s *SettingsStore) Snapshot() map[string]SettingValue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]SettingValue, len(s.entries))
	for key, setting := range s.entries {
		out[key] = setting.Value
	}
	return out
}

// Restore applies previously persisted values. Declared keys are updated
// with the same checks as Set; keys not declared yet are held back and
// applied when the module declares them.
func (s *SettingsStore) Restore(values map[string]SettingValue) error {
	var errs []error
	for key, value := range values {
		key = normalizeKey(key)
		s.mu.Lock()
		s.ensureMaps()
		_, declared := s.entries[key]
		if !declared {
			s.pending[key] = value
		}
		s.mu.Unlock()
		if !declared {
			continue
		}
		if err := s.Set(key, value); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *SettingsStore) ensureMaps() {
	if s.entries == nil {
		s.entries = map[string]*Setting{}
	}
	if s.pending == nil {
		s.pending = map[string]SettingValue{}
	}
}

func normalizeKey(key string) string {
	return norm.NFC.String(strings.TrimSpace(key))
}
