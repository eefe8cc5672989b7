package hydrate

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

type watcher struct {
	Name    string `json:"name"`
	Address uint64 `json:"address"`
	Type    string `json:"type"`
}

type document struct {
	Name     string    `json:"name"`
	TickRate float64   `json:"tick_rate"`
	Watchers []watcher `json:"watchers"`
}

func TestDecodeYAMLCases(t *testing.T) {
	cases := []struct {
		name      string
		input     string
		opts      []DecoderOption[document]
		expect    document
		expectErr string
	}{
		{
			name: "basic document",
			input: `
name: Demo
tick_rate: 60
watchers:
  - {name: level, address: 0x10, type: u32}
`,
			expect: document{Name: "Demo", TickRate: 60, Watchers: []watcher{{Name: "level", Address: 16, Type: "u32"}}},
		},
		{
			name:      "unknown field rejected",
			input:     "name: Demo\nticks: 60\n",
			opts:      []DecoderOption[document]{WithDisallowUnknownFields[document]()},
			expectErr: `unknown field "ticks"`,
		},
		{
			name:   "unknown field ignored by default",
			input:  "name: Demo\nticks: 60\n",
			expect: document{Name: "Demo"},
		},
		{
			name:      "scalar document",
			input:     "just a string",
			expectErr: "must be a mapping",
		},
		{
			name:      "invalid yaml",
			input:     "name: [unterminated",
			expectErr: "parse",
		},
		{
			name:  "pre hook renames keys",
			input: "title: Renamed\n",
			opts: []DecoderOption[document]{WithPreHook[document](func(_ Context, raw map[string]any) (map[string]any, error) {
				raw["name"] = raw["title"]
				delete(raw, "title")
				return raw, nil
			})},
			expect: document{Name: "Renamed"},
		},
		{
			name:  "post hook validation",
			input: "name: ''\n",
			opts: []DecoderOption[document]{WithPostHook[document](func(_ Context, doc *document) error {
				if doc.Name == "" {
					return errors.New("name is required")
				}
				return nil
			})},
			expectErr: "name is required",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decoder := NewDecoder[document](tc.opts...)
			result, err := decoder.DecodeYAML(Context{Source: "demo.yaml"}, []byte(tc.input))

			if tc.expectErr != "" {
				if err == nil {
					t.Fatalf("expected error %q, got nil", tc.expectErr)
				}
				if !strings.Contains(err.Error(), tc.expectErr) {
					t.Fatalf("expected error containing %q, got %v", tc.expectErr, err)
				}
				if !strings.Contains(err.Error(), "demo.yaml") {
					t.Fatalf("expected error to name the source, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}
			if !reflect.DeepEqual(tc.expect, result) {
				t.Fatalf("decoded document mismatch:\nwant: %#v\n got: %#v", tc.expect, result)
			}
		})
	}
}

func TestDecodeNilPayload(t *testing.T) {
	_, err := NewDecoder[document]().Decode(Context{Source: "nil"}, nil)
	if err == nil || !strings.Contains(err.Error(), "payload is nil") {
		t.Fatalf("expected nil payload error, got %v", err)
	}
}

func TestDecodeDoesNotMutateInput(t *testing.T) {
	input := map[string]any{"name": "Original"}
	decoder := NewDecoder[document](WithPreHook[document](func(_ Context, raw map[string]any) (map[string]any, error) {
		raw["name"] = "Changed"
		return raw, nil
	}))
	result, err := decoder.Decode(Context{Source: "inline"}, input)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Name != "Changed" {
		t.Fatalf("expected hook to apply, got %q", result.Name)
	}
	if input["name"] != "Original" {
		t.Fatalf("expected input to stay untouched, got %v", input["name"])
	}
}

func TestWithUseNumber(t *testing.T) {
	decoder := NewDecoder[map[string]any](WithUseNumber[map[string]any]())
	result, err := decoder.Decode(Context{Source: "numbers"}, map[string]any{"value": 12})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := result["value"].(json.Number); !ok {
		t.Fatalf("expected json.Number, got %T", result["value"])
	}
}

func TestCustomDecoderAndHookErrors(t *testing.T) {
	custom := NewDecoder[document](WithCustomDecoder[document](func(ctx Context, raw map[string]any) (document, error) {
		if ctx.Format != "yaml" {
			return document{}, errors.New("expected yaml format")
		}
		return document{Name: strings.ToUpper(raw["name"].(string))}, nil
	}))
	result, err := custom.DecodeYAML(Context{Source: "custom.yaml"}, []byte("name: loud\n"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Name != "LOUD" {
		t.Fatalf("expected custom decoder result, got %q", result.Name)
	}

	failing := NewDecoder[document](WithPreHook[document](func(Context, map[string]any) (map[string]any, error) {
		return nil, errors.New("boom")
	}))
	_, err = failing.Decode(Context{Source: "hook"}, map[string]any{})
	if err == nil || !strings.Contains(err.Error(), "pre-hook") {
		t.Fatalf("expected pre-hook error, got %v", err)
	}
}

func TestDecodeErrorStages(t *testing.T) {
	decoder := NewDecoder[document](
		WithDisallowUnknownFields[document](),
		WithPostHook[document](func(Context, *document) error { return errors.New("invalid") }),
	)
	cases := map[string]Stage{
		"name: [":       StageParse,
		"- a\n- b\n":    StageParse,
		"bogus: true\n": StageDecode,
		"name: fine\n":  StageValidate,
	}
	for input, stage := range cases {
		_, err := decoder.DecodeYAML(Context{Source: "stages.yaml"}, []byte(input))
		var decodeErr *DecodeError
		if !errors.As(err, &decodeErr) {
			t.Fatalf("%q: expected DecodeError, got %v", input, err)
		}
		if decodeErr.Stage != stage || decodeErr.Source != "stages.yaml" {
			t.Fatalf("%q: expected stage %s, got %+v", input, stage, decodeErr)
		}
	}
}
