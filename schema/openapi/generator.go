// Package openapi generates an OpenAPI 3 document whose request body
// describes the preset format for the options staged in a store.
package openapi

import (
	ffopts "github.com/goliatone/go-ffoptions"
)

type generator struct {
	config generatorConfig
}

// NewGenerator constructs the generator.
func NewGenerator(opts ...GeneratorOption) ffopts.SchemaGenerator {
	cfg := defaultGeneratorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return generator{config: cfg}
}

// Option wires the generator into a store.
func Option(opts ...GeneratorOption) ffopts.StoreOption {
	return ffopts.WithSchemaGenerator(NewGenerator(opts...))
}

func (g generator) Generate(store *ffopts.Store) (ffopts.SchemaDocument, error) {
	document, err := buildDocument(g.config, store)
	if err != nil {
		return ffopts.SchemaDocument{}, err
	}
	return ffopts.SchemaDocument{
		Format:   ffopts.SchemaFormatOpenAPI,
		Document: document,
		Scopes:   store.SchemaScopes(),
	}, nil
}
