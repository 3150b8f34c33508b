package openapi

import "strings"

type generatorConfig struct {
	openAPIVersion string
	info           infoConfig
	operation      operationConfig
	contentType    string
	responses      map[string]string
	component      string
}

type infoConfig struct {
	Title       string
	Version     string
	Description string
}

type operationConfig struct {
	Path        string
	Method      string
	OperationID string
	Summary     string
}

func defaultGeneratorConfig() generatorConfig {
	return generatorConfig{
		openAPIVersion: "3.0.3",
		info: infoConfig{
			Title:   "Engine Options",
			Version: "1.0.0",
		},
		operation: operationConfig{
			Path:   "/v1/presets/{domain}/{scope}",
			Method: "put",
		},
		contentType: "application/json",
		responses: map[string]string{
			"200": "Saved",
			"412": "ETag mismatch",
		},
	}
}

// GeneratorOption configures the OpenAPI generator.
type GeneratorOption func(*generatorConfig)

// WithOpenAPIVersion overrides the OpenAPI version string (default 3.0.3).
func WithOpenAPIVersion(version string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if version != "" {
			cfg.openAPIVersion = version
		}
	}
}

// WithInfo sets the info block. Empty strings keep the current values.
func WithInfo(title, version, description string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if title != "" {
			cfg.info.Title = title
		}
		if version != "" {
			cfg.info.Version = version
		}
		if description != "" {
			cfg.info.Description = description
		}
	}
}

// WithOperation sets the path and method the request body is published
// under. An empty operationID is derived as "<method>:<path>".
func WithOperation(path, method, operationID, summary string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if path != "" {
			cfg.operation.Path = path
		}
		if method != "" {
			cfg.operation.Method = strings.ToLower(method)
		}
		cfg.operation.OperationID = operationID
		cfg.operation.Summary = summary
	}
}

func WithContentType(contentType string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if contentType != "" {
			cfg.contentType = contentType
		}
	}
}

// WithResponse registers or overrides the description for status.
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

// WithComponent publishes the options schema under components.schemas.name
// and references it from the request body.
func WithComponent(name string) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.component = name
	}
}
