package autosplit

import (
	"errors"
	"fmt"
)

// ErrInvalidSetting reports a malformed declaration or an out-of-range value.
var ErrInvalidSetting = errors.New("autosplit: invalid setting")

// DuplicateKeyError is returned when a key is declared twice.
type DuplicateKeyError struct {
	Key string
}

func (e *DuplicateKeyError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("autosplit: setting %q already declared", e.Key)
}

// UnknownKeyError is returned when a key has not been declared.
type UnknownKeyError struct {
	Key string
}

func (e *UnknownKeyError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("autosplit: setting %q not declared", e.Key)
}

// TypeMismatchError is returned when a value's kind differs from the
// declared kind.
type TypeMismatchError struct {
	Key      string
	Expected SettingKind
	Got      SettingKind
}

func (e *TypeMismatchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("autosplit: setting %q is %s, got %s", e.Key, e.Expected, e.Got)
}
