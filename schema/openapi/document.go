package openapi

import (
	"fmt"
	"sort"

	ffopts "github.com/goliatone/go-ffoptions"
)

// Extension keys carried on every option property.
const (
	extCategory = "x-ffopts-category"
	extOrder    = "x-ffopts-order"
	extScopes   = "x-ffopts-scopes"
)

func buildDocument(cfg generatorConfig, store *ffopts.Store) (map[string]any, error) {
	body := optionsSchema(store)

	var schema map[string]any
	document := map[string]any{
		"openapi": cfg.openAPIVersion,
		"info":    buildInfo(cfg.info),
	}
	if cfg.component != "" {
		document["components"] = map[string]any{
			"schemas": map[string]any{cfg.component: body},
		}
		schema = map[string]any{"$ref": "#/components/schemas/" + cfg.component}
	} else {
		schema = body
	}
	if scopes := store.SchemaScopes(); len(scopes) > 0 {
		document[extScopes] = scopes
	}
	document["paths"] = buildPaths(cfg, schema)

	if err := validateDocument(document); err != nil {
		return nil, err
	}
	return document, nil
}

// optionsSchema describes the preset document accepted by ParsePreset: one
// object per category, one property per staged key, the staged value as the
// default.
func optionsSchema(store *ffopts.Store) map[string]any {
	categories := map[string]any{}
	order := 0
	for _, category := range ffopts.Categories() {
		options := store.Category(category)
		if len(options) == 0 {
			continue
		}
		properties := make(map[string]any, len(options))
		for _, opt := range options {
			properties[opt.Key] = propertySchema(opt, order)
			order++
		}
		categories[category.String()] = map[string]any{
			"type":                 "object",
			"properties":           properties,
			"additionalProperties": map[string]any{"type": []string{"string", "integer"}},
			extCategory:            int(category),
		}
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":        map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
			"options": map[string]any{
				"type":       "object",
				"properties": categories,
			},
			"rules": map[string]any{
				"type":  "array",
				"items": ruleSchema(),
			},
		},
	}
}

func propertySchema(opt ffopts.Option, order int) map[string]any {
	prop := map[string]any{
		"default": opt.Value.Any(),
		extOrder:  order,
	}
	switch opt.Value.Kind {
	case ffopts.KindInt:
		prop["type"] = "integer"
		prop["format"] = "int64"
	default:
		prop["type"] = "string"
	}
	return prop
}

func ruleSchema() map[string]any {
	names := make([]any, 0, len(ffopts.Categories()))
	for _, category := range ffopts.Categories() {
		names = append(names, category.String())
	}
	return map[string]any{
		"type":     "object",
		"required": []string{"category", "key", "value"},
		"properties": map[string]any{
			"name":     map[string]any{"type": "string"},
			"when":     map[string]any{"type": "string"},
			"category": map[string]any{"type": "string", "enum": names},
			"key":      map[string]any{"type": "string", "minLength": 1},
			"value":    map[string]any{"type": []string{"string", "integer", "boolean"}},
		},
	}
}

func buildInfo(info infoConfig) map[string]any {
	out := map[string]any{
		"title":   info.Title,
		"version": info.Version,
	}
	if info.Description != "" {
		out["description"] = info.Description
	}
	return out
}

func buildPaths(cfg generatorConfig, schema map[string]any) map[string]any {
	method := cfg.operation.Method
	if method == "" {
		method = "put"
	}
	operationID := cfg.operation.OperationID
	if operationID == "" {
		operationID = fmt.Sprintf("%s:%s", method, cfg.operation.Path)
	}

	statuses := make([]string, 0, len(cfg.responses))
	for status := range cfg.responses {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	responses := make(map[string]any, len(statuses))
	for _, status := range statuses {
		responses[status] = map[string]any{"description": cfg.responses[status]}
	}

	operation := map[string]any{
		"operationId": operationID,
		"requestBody": map[string]any{
			"required": true,
			"content": map[string]any{
				cfg.contentType: map[string]any{"schema": schema},
			},
		},
		"responses": responses,
	}
	if cfg.operation.Summary != "" {
		operation["summary"] = cfg.operation.Summary
	}
	return map[string]any{
		cfg.operation.Path: map[string]any{method: operation},
	}
}

func validateDocument(document map[string]any) error {
	if version, _ := document["openapi"].(string); version == "" {
		return fmt.Errorf("openapi: document missing version string")
	}
	info, _ := document["info"].(map[string]any)
	if info == nil {
		return fmt.Errorf("openapi: document missing info section")
	}
	if title, _ := info["title"].(string); title == "" {
		return fmt.Errorf("openapi: info.title must be set")
	}
	if version, _ := info["version"].(string); version == "" {
		return fmt.Errorf("openapi: info.version must be set")
	}
	paths, _ := document["paths"].(map[string]any)
	for path := range paths {
		if path == "" {
			return fmt.Errorf("openapi: operation path must be set")
		}
	}
	if len(paths) == 0 {
		return fmt.Errorf("openapi: document must define at least one path")
	}
	return nil
}
