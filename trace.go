package ffopts

import (
	"encoding/json"
	"fmt"
)

// Trace captures how each scoped layer contributed to one option.
type Trace struct {
	Path   string       `json:"path"`
	Layers []Provenance `json:"layers"`
}

// Provenance details how a specific scope contributed to a traced option.
type Provenance struct {
	Scope      Scope  `json:"scope"`
	SnapshotID string `json:"snapshot_id,omitempty"`
	Path       string `json:"path"`
	Value      any    `json:"value,omitempty"`
	Found      bool   `json:"found"`
}

// Winner returns the strongest provenance entry that carried a value.
func (t Trace) Winner() (Provenance, bool) {
	for _, layer := range t.Layers {
		if layer.Found {
			return layer, true
		}
	}
	return Provenance{}, false
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON decodes a payload produced by ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}

// ResolveWithTrace returns the staged value for (category, key) together with
// the contribution of every layer, strongest first. Stores that were not
// produced by Stack.Merge, and keys set or deleted after the merge, report a
// single provenance entry for the store's own scope. ErrOptionNotFound is returned, along with the trace, when the option
// is not staged.
func (s *Store) ResolveWithTrace(category Category, key string) (Value, Trace, error) {
	if err := validateOption(category, key); err != nil {
		return Value{}, Trace{}, err
	}
	path := optionPath(category, key)
	trace := Trace{Path: path}
	if s == nil {
		return Value{}, trace, fmt.Errorf("%w: %s", ErrOptionNotFound, path)
	}

	_, edited := s.edited[optionKey{category: category, key: key}]
	if len(s.layers) == 0 || edited {
		value, ok := s.Get(category, key)
		entry := Provenance{Scope: s.cfg.scope.clone(), Path: path, Found: ok}
		if ok {
			entry.Value = value.Any()
		}
		trace.Layers = []Provenance{entry}
	} else {
		trace.Layers = make([]Provenance, len(s.layers))
		for i, layer := range s.layers {
			value, ok := layer.lookup(category, key)
			entry := Provenance{
				Scope:      layer.Scope.clone(),
				SnapshotID: layer.SnapshotID,
				Path:       path,
				Found:      ok,
			}
			if ok {
				entry.Value = value.Any()
			}
			trace.Layers[i] = entry
		}
	}

	value, ok := s.Get(category, key)
	if !ok {
		return Value{}, trace, fmt.Errorf("%w: %s", ErrOptionNotFound, path)
	}
	return value, trace, nil
}
