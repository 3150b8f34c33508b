package ffopts

import (
	"errors"
	"fmt"
	"sort"

	"github.com/goliatone/go-ffoptions/layering"
)

// Scope models a named precedence bucket (system, tenant, device, ...). Higher
// priority values represent stronger layers.
type Scope struct {
	Name     string         `json:"name"`
	Label    string         `json:"label,omitempty"`
	Priority int            `json:"priority"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ScopeOption configures metadata on Scope creation.
type ScopeOption func(*scopeConfig)

type scopeConfig struct {
	label    string
	metadata map[string]any
}

// WithScopeLabel sets a human-friendly label on the scope.
func WithScopeLabel(label string) ScopeOption {
	return func(cfg *scopeConfig) {
		cfg.label = label
	}
}

// WithScopeMetadata attaches metadata to the scope. The map is copied.
func WithScopeMetadata(metadata map[string]any) ScopeOption {
	return func(cfg *scopeConfig) {
		if len(metadata) == 0 {
			return
		}
		cfg.metadata = copyMetadata(metadata)
	}
}

// NewScope builds a Scope. Validation is deferred to NewStack.
func NewScope(name string, priority int, opts ...ScopeOption) Scope {
	cfg := scopeConfig{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	return Scope{
		Name:     name,
		Label:    cfg.label,
		Priority: priority,
		Metadata: copyMetadata(cfg.metadata),
	}
}

func (s Scope) clone() Scope {
	return Scope{
		Name:     s.Name,
		Label:    s.Label,
		Priority: s.Priority,
		Metadata: copyMetadata(s.Metadata),
	}
}

func (s Scope) isZero() bool {
	return s.Name == "" && s.Label == "" && s.Priority == 0 && len(s.Metadata) == 0
}

// Layer pairs a scope with the options staged for it.
type Layer struct {
	Scope      Scope
	Options    *Store
	SnapshotID string
}

// LayerOption configures optional metadata for a layer.
type LayerOption func(*Layer)

// WithSnapshotID sets the snapshot identifier reported by traces and activity.
func WithSnapshotID(id string) LayerOption {
	return func(layer *Layer) {
		layer.SnapshotID = id
	}
}

// NewLayer constructs a Layer holding a copy of store. A nil store yields an
// empty layer.
func NewLayer(scope Scope, store *Store, opts ...LayerOption) Layer {
	layer := Layer{
		Scope:   scope.clone(),
		Options: store.Clone(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&layer)
	}
	return layer
}

var (
	// ErrScopeNameRequired indicates a missing scope name.
	ErrScopeNameRequired = errors.New("scope: name must be provided")
	// ErrDuplicateScopeName indicates NewStack received several layers with the
	// same scope name.
	ErrDuplicateScopeName = errors.New("scope: names must be unique")
	// ErrPriorityOrder indicates NewStack found duplicate priorities.
	ErrPriorityOrder = errors.New("scope: priorities must be strictly ordered")
	// ErrEmptyStack is returned when merging a stack without layers.
	ErrEmptyStack = errors.New("scope: stack must include at least one layer")
)

// Stack is an immutable set of layers ordered from strongest to weakest.
type Stack struct {
	layers []Layer
}

// NewStack validates the layers and sorts them so that the highest priority
// comes first. Layers are copied.
func NewStack(layers ...Layer) (*Stack, error) {
	if len(layers) == 0 {
		return &Stack{}, nil
	}

	seenNames := make(map[string]struct{}, len(layers))
	copied := make([]Layer, len(layers))
	for i, layer := range layers {
		layer := cloneLayer(layer)
		if layer.Scope.Name == "" {
			return nil, ErrScopeNameRequired
		}
		if _, ok := seenNames[layer.Scope.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateScopeName, layer.Scope.Name)
		}
		seenNames[layer.Scope.Name] = struct{}{}
		copied[i] = layer
	}

	sort.Slice(copied, func(i, j int) bool {
		if copied[i].Scope.Priority == copied[j].Scope.Priority {
			return copied[i].Scope.Name < copied[j].Scope.Name
		}
		return copied[i].Scope.Priority > copied[j].Scope.Priority
	})

	for i := 1; i < len(copied); i++ {
		if copied[i-1].Scope.Priority <= copied[i].Scope.Priority {
			return nil, fmt.Errorf("%w: %d", ErrPriorityOrder, copied[i].Scope.Priority)
		}
	}

	return &Stack{layers: copied}, nil
}

// Layers returns copies of the layers, strongest first.
func (s *Stack) Layers() []Layer {
	if s == nil || len(s.layers) == 0 {
		return nil
	}
	out := make([]Layer, len(s.layers))
	for i := range s.layers {
		out[i] = cloneLayer(s.layers[i])
	}
	return out
}

// Len returns the number of layers in the stack.
func (s *Stack) Len() int {
	if s == nil {
		return 0
	}
	return len(s.layers)
}

// Merge resolves the stack into a single staging Store. For every option the
// strongest layer wins; the weakest layer that introduces an option fixes its
// apply position. The result remembers each layer so ResolveWithTrace can
// report provenance. opts configure the resulting store.
func (s *Stack) Merge(opts ...StoreOption) (*Store, error) {
	if s == nil || len(s.layers) == 0 {
		return nil, ErrEmptyStack
	}
	entries := make([][]layering.Entry[optionKey, Value], len(s.layers))
	snapshots := make([]layerSnapshot, len(s.layers))
	for i, layer := range s.layers {
		options := layer.Options.Options()
		bucket := make([]layering.Entry[optionKey, Value], len(options))
		for j, opt := range options {
			bucket[j] = layering.Entry[optionKey, Value]{
				Key:   optionKey{category: opt.Category, key: opt.Key},
				Value: opt.Value,
			}
		}
		entries[i] = bucket
		snapshots[i] = layerSnapshot{
			Scope:      layer.Scope.clone(),
			Options:    options,
			SnapshotID: layer.SnapshotID,
		}
	}

	merged := New(opts...)
	for _, entry := range layering.Merge(entries...) {
		if err := merged.set(entry.Key.category, entry.Key.key, entry.Value); err != nil {
			return nil, err
		}
	}
	merged.layers = snapshots
	return merged, nil
}

func cloneLayer(layer Layer) Layer {
	return Layer{
		Scope:      layer.Scope.clone(),
		Options:    layer.Options.Clone(),
		SnapshotID: layer.SnapshotID,
	}
}

type layerSnapshot struct {
	Scope      Scope
	Options    []Option
	SnapshotID string
}

func (l layerSnapshot) lookup(category Category, key string) (Value, bool) {
	for _, opt := range l.Options {
		if opt.Category == category && opt.Key == key {
			return opt.Value, true
		}
	}
	return Value{}, false
}

func cloneLayerSnapshots(layers []layerSnapshot) []layerSnapshot {
	if len(layers) == 0 {
		return nil
	}
	out := make([]layerSnapshot, len(layers))
	for i, layer := range layers {
		out[i] = layerSnapshot{
			Scope:      layer.Scope.clone(),
			Options:    append([]Option(nil), layer.Options...),
			SnapshotID: layer.SnapshotID,
		}
	}
	return out
}

// LayerScopes returns the scopes a merged store was built from, strongest
// first. Stores not produced by Stack.Merge return nil.
func (s *Store) LayerScopes() []Scope {
	if s == nil || len(s.layers) == 0 {
		return nil
	}
	out := make([]Scope, len(s.layers))
	for i, layer := range s.layers {
		out[i] = layer.Scope.clone()
	}
	return out
}

func copyMetadata(origin map[string]any) map[string]any {
	if len(origin) == 0 {
		return nil
	}
	out := make(map[string]any, len(origin))
	for key, value := range origin {
		out[key] = value
	}
	return out
}
