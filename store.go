package ffopts

import (
	"encoding/json"
	"fmt"
)

// New constructs an empty Store in the staging state.
func New(opts ...StoreOption) *Store {
	return &Store{
		index: make(map[optionKey]int),
		cfg:   applyStoreOptions(opts),
	}
}

// SetString stages a string value for (category, key), replacing any previous
// value of either type.
func (s *Store) SetString(category Category, key, value string) error {
	return s.set(category, key, StringValue(value))
}

// SetInt stages an integer value for (category, key), replacing any previous
// value of either type.
func (s *Store) SetInt(category Category, key string, value int64) error {
	return s.set(category, key, IntValue(value))
}

// Set stages an already tagged value.
func (s *Store) Set(category Category, key string, value Value) error {
	if !value.Valid() {
		return fmt.Errorf("%w: kind %d for %s", ErrUnsupportedValue, value.Kind, optionPath(category, key))
	}
	return s.set(category, key, value)
}

func (s *Store) set(category Category, key string, value Value) error {
	if err := validateOption(category, key); err != nil {
		return err
	}
	if s.index == nil {
		s.index = make(map[optionKey]int)
	}
	k := optionKey{category: category, key: key}
	s.markEdited(k)
	if pos, ok := s.index[k]; ok {
		s.entries[pos].Value = value
		return nil
	}
	s.index[k] = len(s.entries)
	s.entries = append(s.entries, Option{Category: category, Key: key, Value: value})
	return nil
}

func (s *Store) SetFormatString(key, value string) error {
	return s.SetString(CategoryFormat, key, value)
}

func (s *Store) SetFormatInt(key string, value int64) error {
	return s.SetInt(CategoryFormat, key, value)
}

func (s *Store) SetCodecString(key, value string) error {
	return s.SetString(CategoryCodec, key, value)
}

func (s *Store) SetCodecInt(key string, value int64) error {
	return s.SetInt(CategoryCodec, key, value)
}

func (s *Store) SetSwsString(key, value string) error {
	return s.SetString(CategorySws, key, value)
}

func (s *Store) SetSwsInt(key string, value int64) error {
	return s.SetInt(CategorySws, key, value)
}

func (s *Store) SetPlayerString(key, value string) error {
	return s.SetString(CategoryPlayer, key, value)
}

func (s *Store) SetPlayerInt(key string, value int64) error {
	return s.SetInt(CategoryPlayer, key, value)
}

func (s *Store) SetSwrString(key, value string) error {
	return s.SetString(CategorySwr, key, value)
}

func (s *Store) SetSwrInt(key string, value int64) error {
	return s.SetInt(CategorySwr, key, value)
}

// Get returns the staged value for (category, key).
func (s *Store) Get(category Category, key string) (Value, bool) {
	if s == nil {
		return Value{}, false
	}
	pos, ok := s.index[optionKey{category: category, key: key}]
	if !ok {
		return Value{}, false
	}
	return s.entries[pos].Value, true
}

// Has reports whether (category, key) is staged.
func (s *Store) Has(category Category, key string) bool {
	_, ok := s.Get(category, key)
	return ok
}

// Delete removes (category, key) and reports whether it was present. The
// relative order of the remaining options is preserved.
func (s *Store) Delete(category Category, key string) bool {
	if s == nil {
		return false
	}
	k := optionKey{category: category, key: key}
	pos, ok := s.index[k]
	if !ok {
		return false
	}
	s.markEdited(k)
	s.entries = append(s.entries[:pos], s.entries[pos+1:]...)
	delete(s.index, k)
	for i := pos; i < len(s.entries); i++ {
		s.index[optionKey{category: s.entries[i].Category, key: s.entries[i].Key}] = i
	}
	return true
}

func (s *Store) markEdited(k optionKey) {
	if len(s.layers) == 0 {
		return
	}
	if s.edited == nil {
		s.edited = make(map[optionKey]struct{})
	}
	s.edited[k] = struct{}{}
}

// Len returns the number of staged options.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Options returns a copy of the staged options in apply order.
func (s *Store) Options() []Option {
	if s == nil || len(s.entries) == 0 {
		return nil
	}
	return append([]Option(nil), s.entries...)
}

// Category returns the options staged for category in apply order.
func (s *Store) Category(category Category) []Option {
	if s == nil {
		return nil
	}
	var out []Option
	for _, opt := range s.entries {
		if opt.Category == category {
			out = append(out, opt)
		}
	}
	return out
}

// Each calls fn for every staged option in apply order, stopping early when fn
// returns false.
func (s *Store) Each(fn func(Option) bool) {
	if s == nil || fn == nil {
		return
	}
	for _, opt := range s.entries {
		if !fn(opt) {
			return
		}
	}
}

// State reports the store lifecycle position.
func (s *Store) State() State {
	if s == nil {
		return StateStaging
	}
	return s.state
}

// Scope returns the scope configured via WithScope.
func (s *Store) Scope() Scope {
	if s == nil {
		return Scope{}
	}
	return s.cfg.scope.clone()
}

// Clone returns an independent copy in the staging state that keeps the
// configuration and layer provenance of s.
func (s *Store) Clone() *Store {
	if s == nil {
		return New()
	}
	clone := &Store{
		entries: append([]Option(nil), s.entries...),
		index:   make(map[optionKey]int, len(s.entries)),
		cfg:     s.cfg.clone(),
		layers:  cloneLayerSnapshots(s.layers),
	}
	for k, v := range s.index {
		clone.index[k] = v
	}
	if len(s.edited) > 0 {
		clone.edited = make(map[optionKey]struct{}, len(s.edited))
		for k := range s.edited {
			clone.edited[k] = struct{}{}
		}
	}
	return clone
}

// WithOptions returns a clone of s with opts applied on top of its
// configuration.
func (s *Store) WithOptions(opts ...StoreOption) *Store {
	clone := s.Clone()
	for _, opt := range opts {
		if opt != nil {
			opt(&clone.cfg)
		}
	}
	return clone
}

// Merge stages every option of other on top of s, keeping s's order for keys
// already present.
func (s *Store) Merge(other *Store) {
	if other == nil {
		return
	}
	for _, opt := range other.entries {
		_ = s.set(opt.Category, opt.Key, opt.Value)
	}
}

// Map returns the staged options as category -> key -> value (string or int64).
func (s *Store) Map() map[string]map[string]any {
	out := map[string]map[string]any{}
	if s == nil {
		return out
	}
	for _, opt := range s.entries {
		name := opt.Category.String()
		bucket, ok := out[name]
		if !ok {
			bucket = map[string]any{}
			out[name] = bucket
		}
		bucket[opt.Key] = opt.Value.Any()
	}
	return out
}

func (s *Store) stagedBinding() map[string]any {
	staged := make(map[string]any, len(categories))
	for _, category := range categories {
		staged[category.String()] = map[string]any{}
	}
	if s == nil {
		return staged
	}
	for _, opt := range s.entries {
		staged[opt.Category.String()].(map[string]any)[opt.Key] = opt.Value.Any()
	}
	return staged
}

// MarshalJSON encodes the store as an ordered array of options.
func (s *Store) MarshalJSON() ([]byte, error) {
	if s == nil || len(s.entries) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(s.entries)
}

// UnmarshalJSON replaces the staged options with the decoded array.
func (s *Store) UnmarshalJSON(data []byte) error {
	var entries []Option
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	s.entries = nil
	s.index = make(map[optionKey]int, len(entries))
	s.layers = nil
	s.edited = nil
	s.state = StateStaging
	for _, opt := range entries {
		if err := s.Set(opt.Category, opt.Key, opt.Value); err != nil {
			return err
		}
	}
	return nil
}
