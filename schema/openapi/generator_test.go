package openapi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	autosplit "github.com/goliatone/go-autosplit"
)

func declaredStore(t *testing.T) *autosplit.SettingsStore {
	t.Helper()
	store := autosplit.NewSettingsStore()
	require.NoError(t, store.Declare("splits", "Splits", autosplit.BoolValue(true)))
	require.NoError(t, store.Declare("split_levels", "Split on levels", autosplit.BoolValue(true),
		autosplit.WithParent("splits"),
		autosplit.WithTooltip("Split when a level ends"),
	))
	require.NoError(t, store.Declare("delay", "Delay", autosplit.IntValue(3)))
	require.NoError(t, store.Declare("category", "Category", autosplit.ChoiceValue("any"),
		autosplit.WithChoices(
			autosplit.Choice{Key: "any", Label: "Any%"},
			autosplit.Choice{Key: "hundred", Label: "100%"},
		),
	))
	return store
}

func requestSchema(t *testing.T, document map[string]any, path, method, contentType string) map[string]any {
	t.Helper()
	paths := document["paths"].(map[string]any)
	operation := paths[path].(map[string]any)[method].(map[string]any)
	body := operation["requestBody"].(map[string]any)
	content := body["content"].(map[string]any)[contentType].(map[string]any)
	return content["schema"].(map[string]any)
}

func TestNewGeneratorOptions(t *testing.T) {
	custom := NewGenerator(
		WithOpenAPIVersion("3.1.0"),
		WithInfo("Custom Splitter", "2.0.0", "custom schema"),
		WithOperation("/modules/demo/settings", "POST", "", "Store settings"),
		WithContentType("application/x-www-form-urlencoded"),
		WithResponse("201", "Created"),
	)

	internal, ok := custom.(generator)
	require.True(t, ok, "expected generator implementation, got %T", custom)

	cfg := internal.config
	assert.Equal(t, "3.1.0", cfg.openAPIVersion)
	assert.Equal(t, "Custom Splitter", cfg.title)
	assert.Equal(t, "2.0.0", cfg.version)
	assert.Equal(t, "custom schema", cfg.description)
	assert.Equal(t, "/modules/demo/settings", cfg.path)
	assert.Equal(t, "post", cfg.method)
	assert.Equal(t, "post:/modules/demo/settings", cfg.resolvedOperationID())
	assert.Equal(t, "application/x-www-form-urlencoded", cfg.contentType)
	assert.Equal(t, "Created", cfg.responses["201"])
	assert.Contains(t, cfg.responses, "204", "default response should remain configured")
}

func TestGeneratorRendersSettingsInline(t *testing.T) {
	doc, err := declaredStore(t).Schema(NewGenerator())
	require.NoError(t, err)
	assert.Equal(t, autosplit.SchemaFormatOpenAPI, doc.Format)

	document, ok := doc.Document.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "3.0.3", document["openapi"])
	assert.NotContains(t, document, "components")

	schema := requestSchema(t, document, "/settings", "put", "application/json")
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, false, schema["additionalProperties"])

	properties := schema["properties"].(map[string]any)
	require.Len(t, properties, 4)

	levels := properties["split_levels"].(map[string]any)
	assert.Equal(t, "boolean", levels["type"])
	assert.Equal(t, "Split on levels", levels["title"])
	assert.Equal(t, "Split when a level ends", levels["description"])
	assert.Equal(t, "splits.split_levels", levels["x-autosplit-path"])
	assert.Equal(t, "splits", levels["x-autosplit-parent"])
	assert.Equal(t, 1, levels["x-autosplit-order"])

	delay := properties["delay"].(map[string]any)
	assert.Equal(t, "integer", delay["type"])
	assert.Equal(t, int64(3), delay["default"])

	category := properties["category"].(map[string]any)
	assert.Equal(t, "string", category["type"])
	assert.Equal(t, []any{"any", "hundred"}, category["enum"])
	assert.Equal(t, map[string]any{"any": "Any%", "hundred": "100%"}, category["x-autosplit-choice-labels"])
}

func TestGeneratorRootComponentAndCurrentValues(t *testing.T) {
	store := declaredStore(t)
	require.NoError(t, store.Set("delay", autosplit.IntValue(9)))

	doc, err := store.Schema(NewGenerator(
		WithRootComponent("DemoSettings"),
		WithCurrentValues(),
		WithoutExtensions(),
	))
	require.NoError(t, err)
	document := doc.Document.(map[string]any)

	ref := requestSchema(t, document, "/settings", "put", "application/json")
	assert.Equal(t, "#/components/schemas/DemoSettings", ref["$ref"])

	schemas := document["components"].(map[string]any)["schemas"].(map[string]any)
	schema := schemas["DemoSettings"].(map[string]any)
	delay := schema["properties"].(map[string]any)["delay"].(map[string]any)
	assert.Equal(t, int64(9), delay["default"])
	assert.NotContains(t, delay, "x-autosplit-order")
}

func TestGeneratorEmptyStoreIsSerialisable(t *testing.T) {
	doc, err := autosplit.NewSettingsStore().Schema(NewGenerator())
	require.NoError(t, err)

	raw, err := json.Marshal(doc.Document)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"properties":{}`)
}

func TestGeneratorRejectsInvalidKind(t *testing.T) {
	_, err := NewGenerator().Generate([]autosplit.Setting{{Key: "broken", Kind: autosplit.SettingInvalid}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}
