package openapi

import (
	"fmt"
	"sort"

	autosplit "github.com/goliatone/go-autosplit"
)

type generator struct {
	config generatorConfig
}

// NewGenerator constructs a SchemaGenerator that renders settings as an
// OpenAPI document with one request body schema.
func NewGenerator(opts ...GeneratorOption) autosplit.SchemaGenerator {
	cfg := defaultGeneratorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return generator{config: cfg}
}

func (g generator) Generate(settings []autosplit.Setting) (autosplit.SchemaDocument, error) {
	schema, err := g.settingsSchema(settings)
	if err != nil {
		return autosplit.SchemaDocument{}, err
	}

	bodySchema := schema
	document := map[string]any{
		"openapi": g.config.openAPIVersion,
		"info":    g.info(),
	}
	if g.config.rootComponent != "" {
		document["components"] = map[string]any{
			"schemas": map[string]any{g.config.rootComponent: schema},
		}
		bodySchema = map[string]any{"$ref": "#/components/schemas/" + g.config.rootComponent}
	}
	document["paths"] = g.paths(bodySchema)

	return autosplit.SchemaDocument{
		Format:   autosplit.SchemaFormatOpenAPI,
		Document: document,
	}, nil
}

func (g generator) settingsSchema(settings []autosplit.Setting) (map[string]any, error) {
	parents := make(map[string]string, len(settings))
	for _, setting := range settings {
		parents[setting.Key] = setting.Parent
	}

	properties := make(map[string]any, len(settings))
	for index, setting := range settings {
		property, err := g.property(setting)
		if err != nil {
			return nil, err
		}
		if g.config.extensions {
			property["x-autosplit-order"] = index
			property["x-autosplit-path"] = autosplit.SettingPath(setting.Key, parents)
			if setting.Parent != "" {
				property["x-autosplit-parent"] = setting.Parent
			}
		}
		properties[setting.Key] = property
	}
	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}, nil
}

func (g generator) property(setting autosplit.Setting) (map[string]any, error) {
	value := setting.Default
	if g.config.currentValues {
		value = setting.Value
	}

	property := map[string]any{
		"title":   setting.Label,
		"default": value.Any(),
	}
	if setting.Tooltip != "" {
		property["description"] = setting.Tooltip
	}

	switch setting.Kind {
	case autosplit.SettingBool:
		property["type"] = "boolean"
	case autosplit.SettingInt:
		property["type"] = "integer"
		property["format"] = "int64"
	case autosplit.SettingChoice:
		keys := make([]any, 0, len(setting.Choices))
		labels := make(map[string]any, len(setting.Choices))
		for _, choice := range setting.Choices {
			keys = append(keys, choice.Key)
			labels[choice.Key] = choice.Label
		}
		property["type"] = "string"
		property["enum"] = keys
		if g.config.extensions {
			property["x-autosplit-choice-labels"] = labels
		}
	default:
		return nil, fmt.Errorf("openapi: setting %q has unsupported kind %s", setting.Key, setting.Kind)
	}
	return property, nil
}

func (g generator) info() map[string]any {
	info := map[string]any{
		"title":   g.config.title,
		"version": g.config.version,
	}
	if g.config.description != "" {
		info["description"] = g.config.description
	}
	return info
}

func (g generator) paths(bodySchema map[string]any) map[string]any {
	statuses := make([]string, 0, len(g.config.responses))
	for status := range g.config.responses {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	responses := make(map[string]any, len(statuses))
	for _, status := range statuses {
		responses[status] = map[string]any{"description": g.config.responses[status]}
	}

	operation := map[string]any{
		"operationId": g.config.resolvedOperationID(),
		"requestBody": map[string]any{
			"required": true,
			"content": map[string]any{
				g.config.contentType: map[string]any{"schema": bodySchema},
			},
		},
		"responses": responses,
	}
	if g.config.summary != "" {
		operation["summary"] = g.config.summary
	}
	return map[string]any{
		g.config.path: map[string]any{g.config.method: operation},
	}
}
