package ffopts

// FieldDescriptor describes one staged option and the type of its value.
type FieldDescriptor struct {
	Path     string `json:"path"`
	Category string `json:"category"`
	Key      string `json:"key"`
	Type     string `json:"type"`
	Value    any    `json:"value"`
}

// DefaultSchemaGenerator returns the built-in descriptor-based schema generator.
func DefaultSchemaGenerator() SchemaGenerator {
	return descriptorGenerator{}
}

type descriptorGenerator struct{}

func (descriptorGenerator) Generate(store *Store) (SchemaDocument, error) {
	return SchemaDocument{
		Format:   SchemaFormatDescriptors,
		Document: Describe(store),
	}, nil
}

// Describe lists the staged options of store in apply order. A nil or empty
// store yields an empty, non-nil slice.
func Describe(store *Store) []FieldDescriptor {
	descriptors := make([]FieldDescriptor, 0, store.Len())
	store.Each(func(opt Option) bool {
		descriptors = append(descriptors, FieldDescriptor{
			Path:     opt.Path(),
			Category: opt.Category.String(),
			Key:      opt.Key,
			Type:     opt.Value.Kind.String(),
			Value:    opt.Value.Any(),
		})
		return true
	})
	return descriptors
}

// Schema describes the staged options using the configured generator, or the
// descriptor generator when none is configured. With WithScopeSchema(true) the
// document also lists the scopes the store was built from.
func (s *Store) Schema() (SchemaDocument, error) {
	generator := DefaultSchemaGenerator()
	if s != nil && s.cfg.schemaGenerator != nil {
		generator = s.cfg.schemaGenerator
	}
	doc, err := generator.Generate(s)
	if err != nil {
		return SchemaDocument{}, err
	}
	if s != nil && s.cfg.scopeSchema && len(doc.Scopes) == 0 {
		doc.Scopes = s.schemaScopes()
	}
	return doc, nil
}

// SchemaScopes returns the scope entries describing s, strongest first.
func (s *Store) SchemaScopes() []SchemaScope {
	return s.schemaScopes()
}

func (s *Store) schemaScopes() []SchemaScope {
	if s == nil {
		return nil
	}
	if len(s.layers) == 0 {
		if s.cfg.scope.isZero() {
			return nil
		}
		return []SchemaScope{{
			Name:     s.cfg.scope.Name,
			Label:    s.cfg.scope.Label,
			Priority: s.cfg.scope.Priority,
			Metadata: copyMetadata(s.cfg.scope.Metadata),
		}}
	}
	out := make([]SchemaScope, len(s.layers))
	for i, layer := range s.layers {
		out[i] = SchemaScope{
			Name:       layer.Scope.Name,
			Label:      layer.Scope.Label,
			Priority:   layer.Scope.Priority,
			Metadata:   copyMetadata(layer.Scope.Metadata),
			SnapshotID: layer.SnapshotID,
		}
	}
	return out
}
