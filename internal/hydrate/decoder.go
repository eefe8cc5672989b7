// Package hydrate turns loosely typed YAML or map documents into typed
// structs with hook points before and after decoding.
package hydrate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Context identifies the document being decoded.
type Context struct {
	// Source names the document in errors, usually a file name.
	Source string
	// Format is "yaml" for DecodeYAML; hooks may branch on it.
	Format string
}

// Stage names the step of the pipeline an error came from.
type Stage string

const (
	StageParse    Stage = "parse"
	StagePrepare  Stage = "pre-hook"
	StageDecode   Stage = "decode"
	StageValidate Stage = "validate"
)

// DecodeError reports which stage rejected which document.
type DecodeError struct {
	Source string
	Stage  Stage
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("hydrate: %s %s: %v", e.Stage, e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// PreHook rewrites the raw document before decoding. Returning nil keeps
// the document as it is.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook validates or completes the decoded value.
type PostHook[T any] func(Context, *T) error

// CustomDecoder replaces the JSON decoding stage.
type CustomDecoder[T any] func(Context, map[string]any) (T, error)

// DecoderOption configures a Decoder.
type DecoderOption[T any] func(*Decoder[T])

// Decoder runs parse, pre-hooks, decode and post-hooks in that order.
type Decoder[T any] struct {
	strict    bool
	useNumber bool
	pre       []PreHook
	post      []PostHook[T]
	custom    CustomDecoder[T]
}

func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.pre = append(d.pre, hook)
		}
	}
}

func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.post = append(d.post, hook)
		}
	}
}

// WithUseNumber keeps numbers bound to interface fields as json.Number.
func WithUseNumber[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.useNumber = true
	}
}

// WithDisallowUnknownFields rejects keys T does not declare.
func WithDisallowUnknownFields[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.strict = true
	}
}

func WithCustomDecoder[T any](decoder CustomDecoder[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.custom = decoder
	}
}

func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// DecodeYAML parses data, which must hold a mapping, and decodes it.
func (d *Decoder[T]) DecodeYAML(ctx Context, data []byte) (T, error) {
	var zero T
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return zero, &DecodeError{Source: ctx.Source, Stage: StageParse, Err: err}
	}
	payload, ok := copyValue(raw).(map[string]any)
	if !ok {
		return zero, &DecodeError{Source: ctx.Source, Stage: StageParse, Err: fmt.Errorf("document must be a mapping, got %T", raw)}
	}
	if ctx.Format == "" {
		ctx.Format = "yaml"
	}
	return d.run(ctx, payload)
}

// Decode decodes a copy of payload; the caller's map is never modified.
func (d *Decoder[T]) Decode(ctx Context, payload map[string]any) (T, error) {
	if payload == nil {
		var zero T
		return zero, &DecodeError{Source: ctx.Source, Stage: StageDecode, Err: fmt.Errorf("payload is nil")}
	}
	return d.run(ctx, copyValue(payload).(map[string]any))
}

func (d *Decoder[T]) run(ctx Context, payload map[string]any) (T, error) {
	var zero T
	for _, hook := range d.pre {
		next, err := hook(ctx, payload)
		if err != nil {
			return zero, &DecodeError{Source: ctx.Source, Stage: StagePrepare, Err: err}
		}
		if next != nil {
			payload = next
		}
	}

	result, err := d.decode(ctx, payload)
	if err != nil {
		return zero, &DecodeError{Source: ctx.Source, Stage: StageDecode, Err: err}
	}

	for _, hook := range d.post {
		if err := hook(ctx, &result); err != nil {
			return zero, &DecodeError{Source: ctx.Source, Stage: StageValidate, Err: err}
		}
	}
	return result, nil
}

func (d *Decoder[T]) decode(ctx Context, payload map[string]any) (T, error) {
	if d.custom != nil {
		return d.custom(ctx, payload)
	}
	var result T
	encoded, err := json.Marshal(payload)
	if err != nil {
		return result, err
	}
	dec := json.NewDecoder(bytes.NewReader(encoded))
	if d.strict {
		dec.DisallowUnknownFields()
	}
	if d.useNumber {
		dec.UseNumber()
	}
	err = dec.Decode(&result)
	return result, err
}

// copyValue deep-copies maps and slices, converting map[any]any (YAML
// mappings with non-string keys) to map[string]any.
func copyValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = copyValue(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[fmt.Sprint(key)] = copyValue(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}
