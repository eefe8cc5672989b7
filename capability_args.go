package autosplit

import (
	"fmt"
	"math"
	"time"
)

func toInt(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case float32:
		return floatToInt(float64(v))
	case float64:
		return floatToInt(v)
	default:
		return 0, fmt.Errorf("expected integer, got %T", value)
	}
}

func floatToInt(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Trunc(f) != f {
		return 0, fmt.Errorf("expected integer, got %v", f)
	}
	if f >= math.MaxUint64 || f < math.MinInt64 {
		return 0, fmt.Errorf("integer %v out of range", f)
	}
	if f > math.MaxInt64 {
		return int64(uint64(f)), nil
	}
	return int64(f), nil
}

func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case uint64:
		return float64(v), nil
	default:
		i, err := toInt(value)
		if err != nil {
			return 0, fmt.Errorf("expected number, got %T", value)
		}
		return float64(i), nil
	}
}

// scalarString formats nil, booleans, strings and numbers. Tables, objects
// and functions are rejected.
func scalarString(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "nil", nil
	case string:
		return v, nil
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(v), nil
	default:
		return "", fmt.Errorf("expected scalar, got %T", value)
	}
}

// args gives positional access to capability arguments with type checks.
// Every accessor records the first failure; check err once at the end.
type args struct {
	name   string
	values []any
	err    error
}

func newArgs(name string, values []any) *args {
	return &args{name: name, values: values}
}

func (a *args) fail(index int, err error) {
	if a.err == nil {
		a.err = capabilityError("%s: argument %d: %v", a.name, index+1, err)
	}
}

func (a *args) present(index int) bool {
	return index < len(a.values) && a.values[index] != nil
}

func (a *args) string(index int) string {
	if !a.present(index) {
		a.fail(index, fmt.Errorf("missing string"))
		return ""
	}
	s, ok := a.values[index].(string)
	if !ok {
		a.fail(index, fmt.Errorf("expected string, got %T", a.values[index]))
	}
	return s
}

func (a *args) optString(index int, def string) string {
	if !a.present(index) {
		return def
	}
	return a.string(index)
}

func (a *args) int(index int) int64 {
	if !a.present(index) {
		a.fail(index, fmt.Errorf("missing integer"))
		return 0
	}
	i, err := toInt(a.values[index])
	if err != nil {
		a.fail(index, err)
	}
	return i
}

func (a *args) float(index int) float64 {
	if !a.present(index) {
		a.fail(index, fmt.Errorf("missing number"))
		return 0
	}
	f, err := toFloat(a.values[index])
	if err != nil {
		a.fail(index, err)
	}
	return f
}

// duration reads a non-negative count of unit and rejects values that do
// not fit in a time.Duration.
func (a *args) duration(index int, unit time.Duration) time.Duration {
	f := a.float(index)
	if a.err != nil {
		return 0
	}
	if math.IsNaN(f) || f < 0 || f >= float64(math.MaxInt64)/float64(unit) {
		a.fail(index, fmt.Errorf("duration %v out of range", f))
		return 0
	}
	return time.Duration(f * float64(unit))
}

// scalar formats a scalar argument.
func (a *args) scalar(index int) string {
	if index >= len(a.values) {
		a.fail(index, fmt.Errorf("missing value"))
		return ""
	}
	s, err := scalarString(a.values[index])
	if err != nil {
		a.fail(index, err)
	}
	return s
}

func (a *args) bool(index int) bool {
	if !a.present(index) {
		a.fail(index, fmt.Errorf("missing boolean"))
		return false
	}
	b, ok := a.values[index].(bool)
	if !ok {
		a.fail(index, fmt.Errorf("expected boolean, got %T", a.values[index]))
	}
	return b
}

func (a *args) handle(index int) ProcessHandle {
	return ProcessHandle(a.int(index))
}

func (a *args) address(index int) uint64 {
	return uint64(a.int(index))
}

// table returns a map argument; nil and absent arguments yield an empty map.
func (a *args) table(index int) map[string]any {
	if !a.present(index) {
		return map[string]any{}
	}
	m, ok := a.values[index].(map[string]any)
	if !ok {
		a.fail(index, fmt.Errorf("expected table, got %T", a.values[index]))
		return map[string]any{}
	}
	return m
}

// list returns a sequence argument.
func (a *args) list(index int) []any {
	if !a.present(index) {
		a.fail(index, fmt.Errorf("missing list"))
		return nil
	}
	switch v := a.values[index].(type) {
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	case map[string]any:
		if len(v) == 0 {
			return nil
		}
	}
	a.fail(index, fmt.Errorf("expected list, got %T", a.values[index]))
	return nil
}
