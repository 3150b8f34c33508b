package ffopts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/goliatone/go-ffoptions/internal/hydrate"
	"github.com/natefinch/atomic"
)

// Preset is a named set of options plus the rules that refine them for a
// given playback context.
type Preset struct {
	Name        string
	Description string
	Options     *Store
	Rules       []Rule
}

type presetDocument struct {
	Name        string                                `json:"name"`
	Description string                                `json:"description,omitempty"`
	Options     map[string]map[string]json.RawMessage `json:"options,omitempty"`
	Rules       []Rule                                `json:"rules,omitempty"`
}

// ParsePreset decodes a JSONC preset document:
//
//	{
//	  "name": "low-latency",
//	  "options": {"player": {"max-fps": 30}, "format": {"user-agent": "x"}},
//	  "rules": [{"when": "args.network == 'cellular'", "category": "format", "key": "timeout", "value": 60000000}]
//	}
//
// Option values must be strings, integers or booleans (staged as 0 or 1).
// Options are staged category by category in category order, keys sorted.
func ParsePreset(data []byte) (*Preset, error) {
	return parsePreset(hydrate.Context{}, data)
}

// LoadPresetFile reads and parses the preset stored at path.
func LoadPresetFile(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ffopts: read preset: %w", err)
	}
	return parsePreset(hydrate.Context{Source: path}, data)
}

func parsePreset(ctx hydrate.Context, data []byte) (*Preset, error) {
	decoder := hydrate.NewDecoder[presetDocument](
		hydrate.WithDisallowUnknownFields[presetDocument](),
	)
	doc, err := decoder.DecodeBytes(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("ffopts: preset: %w", err)
	}
	return doc.preset()
}

func (doc presetDocument) preset() (*Preset, error) {
	store := New()
	byCategory := make(map[Category]map[string]json.RawMessage, len(doc.Options))
	for name, keys := range doc.Options {
		category, err := ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("ffopts: preset %q: %w", doc.Name, err)
		}
		if _, dup := byCategory[category]; dup {
			return nil, fmt.Errorf("ffopts: preset %q: category %s listed twice", doc.Name, category)
		}
		byCategory[category] = keys
	}
	for _, category := range Categories() {
		keys, ok := byCategory[category]
		if !ok {
			continue
		}
		sorted := make([]string, 0, len(keys))
		for key := range keys {
			sorted = append(sorted, key)
		}
		sort.Strings(sorted)
		for _, key := range sorted {
			var value Value
			if err := json.Unmarshal(keys[key], &value); err != nil {
				return nil, fmt.Errorf("ffopts: preset %q option %s: %w", doc.Name, optionPath(category, key), err)
			}
			if err := store.Set(category, key, value); err != nil {
				return nil, fmt.Errorf("ffopts: preset %q: %w", doc.Name, err)
			}
		}
	}
	// Rule conditions must compile at load time.
	if _, err := NewRuleset(doc.Rules); err != nil {
		return nil, fmt.Errorf("ffopts: preset %q: %w", doc.Name, err)
	}
	return &Preset{
		Name:        doc.Name,
		Description: doc.Description,
		Options:     store,
		Rules:       append([]Rule(nil), doc.Rules...),
	}, nil
}

// Build returns a staging store holding the preset options followed by the
// rules that match ctx. opts configure both the store and the rule evaluator.
func (p *Preset) Build(ctx RuleContext, opts ...StoreOption) (*Store, error) {
	if p == nil {
		return nil, fmt.Errorf("ffopts: preset is nil")
	}
	store := p.Options.WithOptions(opts...)
	if len(p.Rules) == 0 {
		return store, nil
	}
	rules, err := NewRuleset(p.Rules, opts...)
	if err != nil {
		return nil, fmt.Errorf("ffopts: preset %q: %w", p.Name, err)
	}
	if _, err := rules.Stage(store, ctx); err != nil {
		return nil, fmt.Errorf("ffopts: preset %q: %w", p.Name, err)
	}
	return store, nil
}

// MarshalJSON encodes the preset in the document form ParsePreset accepts.
func (p *Preset) MarshalJSON() ([]byte, error) {
	doc := presetDocument{
		Name:        p.Name,
		Description: p.Description,
		Rules:       p.Rules,
	}
	if p.Options.Len() > 0 {
		doc.Options = map[string]map[string]json.RawMessage{}
		var err error
		p.Options.Each(func(opt Option) bool {
			var raw []byte
			raw, err = json.Marshal(opt.Value)
			if err != nil {
				return false
			}
			bucket, ok := doc.Options[opt.Category.String()]
			if !ok {
				bucket = map[string]json.RawMessage{}
				doc.Options[opt.Category.String()] = bucket
			}
			bucket[opt.Key] = raw
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	return json.MarshalIndent(doc, "", "  ")
}

// SavePresetFile writes p to path atomically.
func SavePresetFile(path string, p *Preset) error {
	if p == nil {
		return fmt.Errorf("ffopts: preset is nil")
	}
	data, err := p.MarshalJSON()
	if err != nil {
		return fmt.Errorf("ffopts: encode preset: %w", err)
	}
	data = append(data, '\n')
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("ffopts: write preset: %w", err)
	}
	return nil
}
