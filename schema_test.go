package autosplit

import "testing"

func TestDescriptorSchema(t *testing.T) {
	store := NewSettingsStore()
	declareDefaults(t, store)
	if err := store.Set("levels", BoolValue(true)); err != nil {
		t.Fatalf("set: %v", err)
	}

	doc, err := store.Schema(nil)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if doc.Format != SchemaFormatDescriptors {
		t.Fatalf("unexpected format %q", doc.Format)
	}
	fields, ok := doc.Document.([]FieldDescriptor)
	if !ok || len(fields) != 4 {
		t.Fatalf("unexpected document %#v", doc.Document)
	}
	levels := fields[1]
	if levels.Path != "splits.levels" || levels.Type != "bool" || levels.Default != false || levels.Value != true {
		t.Fatalf("unexpected levels descriptor %+v", levels)
	}
	category := fields[3]
	if len(category.Choices) != 2 || category.Choices[1] != "hundred" {
		t.Fatalf("unexpected choices %v", category.Choices)
	}
}

func TestDescriptorSchemaEmptyStore(t *testing.T) {
	doc, err := NewSettingsStore().Schema(DefaultSchemaGenerator())
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if fields := doc.Document.([]FieldDescriptor); len(fields) != 0 {
		t.Fatalf("expected no fields, got %v", fields)
	}
}

func TestSettingPath(t *testing.T) {
	parents := map[string]string{
		"a": "",
		"b": "a",
		"c": "b",
		"x": "y",
		"y": "x",
	}
	cases := map[string]string{
		"a":       "a",
		"c":       "a.b.c",
		"x":       "y.x",
		"missing": "missing",
	}
	for key, want := range cases {
		if got := SettingPath(key, parents); got != want {
			t.Fatalf("SettingPath(%q): expected %q, got %q", key, want, got)
		}
	}
}
