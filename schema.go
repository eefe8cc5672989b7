package autosplit

import "strings"

// SchemaFormat identifies the representation a schema document encodes.
type SchemaFormat string

const (
	// SchemaFormatDescriptors represents the flattened field descriptors.
	SchemaFormatDescriptors SchemaFormat = "descriptors"
	// SchemaFormatOpenAPI represents OpenAPI-compatible JSON Schema documents.
	SchemaFormatOpenAPI SchemaFormat = "openapi"
)

// SchemaDocument encapsulates a generated schema output alongside its format
// identifier. Implementations must ensure Document is JSON-serialisable.
type SchemaDocument struct {
	Format   SchemaFormat
	Document any
}

// SchemaGenerator transforms a settings listing into a schema document that a
// host can render without knowing what the settings mean. Implementations
// MUST handle an empty listing by returning an empty document.
type SchemaGenerator interface {
	Generate(settings []Setting) (SchemaDocument, error)
}

// FieldDescriptor describes one setting at its nested display path.
type FieldDescriptor struct {
	Path    string   `json:"path"`
	Type    string   `json:"type"`
	Label   string   `json:"label"`
	Tooltip string   `json:"tooltip,omitempty"`
	Default any      `json:"default"`
	Value   any      `json:"value"`
	Choices []string `json:"choices,omitempty"`
}

// DefaultSchemaGenerator returns the built-in descriptor-based schema generator.
func DefaultSchemaGenerator() SchemaGenerator {
	return descriptorGenerator{}
}

type descriptorGenerator struct{}

func (descriptorGenerator) Generate(settings []Setting) (SchemaDocument, error) {
	parents := make(map[string]string, len(settings))
	for _, setting := range settings {
		parents[setting.Key] = setting.Parent
	}
	fields := make([]FieldDescriptor, 0, len(settings))
	for _, setting := range settings {
		field := FieldDescriptor{
			Path:    SettingPath(setting.Key, parents),
			Type:    setting.Kind.String(),
			Label:   setting.Label,
			Tooltip: setting.Tooltip,
			Default: setting.Default.Any(),
			Value:   setting.Value.Any(),
		}
		for _, choice := range setting.Choices {
			field.Choices = append(field.Choices, choice.Key)
		}
		fields = append(fields, field)
	}
	return SchemaDocument{
		Format:   SchemaFormatDescriptors,
		Document: fields,
	}, nil
}

// SettingPath joins key with its ancestors using ".". parents maps each key
// to its parent key; cycles and unknown parents end the walk.
func SettingPath(key string, parents map[string]string) string {
	segments := []string{key}
	seen := map[string]bool{key: true}
	for current := parents[key]; current != "" && !seen[current]; current = parents[current] {
		seen[current] = true
		segments = append(segments, current)
	}
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return strings.Join(segments, ".")
}

// Schema renders the store through generator, falling back to the
// descriptor generator when generator is nil.
func (s *SettingsStore) Schema(generator SchemaGenerator) (SchemaDocument, error) {
	if generator == nil {
		generator = DefaultSchemaGenerator()
	}
	return generator.Generate(s.List())
}
