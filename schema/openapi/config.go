package openapi

import "strings"

type generatorConfig struct {
	openAPIVersion string
	title          string
	version        string
	description    string
	path           string
	method         string
	operationID    string
	summary        string
	contentType    string
	responses      map[string]string
	rootComponent  string
	currentValues  bool
	extensions     bool
}

func defaultGeneratorConfig() generatorConfig {
	return generatorConfig{
		openAPIVersion: "3.0.3",
		title:          "Autosplitter Settings",
		version:        "1.0.0",
		path:           "/settings",
		method:         "put",
		contentType:    "application/json",
		responses:      map[string]string{"204": "Settings stored"},
		extensions:     true,
	}
}

func (cfg generatorConfig) resolvedOperationID() string {
	if cfg.operationID != "" {
		return cfg.operationID
	}
	return cfg.method + ":" + cfg.path
}

// GeneratorOption configures the OpenAPI generator.
type GeneratorOption func(*generatorConfig)

// WithOpenAPIVersion overrides the OpenAPI version string (default: 3.0.3).
func WithOpenAPIVersion(version string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if version != "" {
			cfg.openAPIVersion = version
		}
	}
}

// WithInfo sets the info block. Empty strings keep the defaults.
func WithInfo(title, version, description string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if title != "" {
			cfg.title = title
		}
		if version != "" {
			cfg.version = version
		}
		cfg.description = description
	}
}

// WithOperation sets the path and method a host would use to submit the
// settings. The operationId defaults to "method:path".
func WithOperation(path, method, operationID, summary string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if path != "" {
			cfg.path = path
		}
		if method != "" {
			cfg.method = strings.ToLower(method)
		}
		cfg.operationID = operationID
		cfg.summary = summary
	}
}

// WithContentType sets the request body content type.
func WithContentType(contentType string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if contentType != "" {
			cfg.contentType = contentType
		}
	}
}

// WithResponse adds or replaces the response documented for status.
func WithResponse(status, description string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if status == "" {
			return
		}
		if cfg.responses == nil {
			cfg.responses = map[string]string{}
		}
		cfg.responses[status] = description
	}
}

// WithRootComponent publishes the settings schema under components with the
// provided name and references it from the request body.
func WithRootComponent(name string) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.rootComponent = name
	}
}

// WithCurrentValues uses each setting's current value as the schema default
// instead of its declared default.
func WithCurrentValues() GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.currentValues = true
	}
}

// WithoutExtensions drops the x-autosplit-* vendor extensions.
func WithoutExtensions() GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.extensions = false
	}
}
