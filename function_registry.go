package ffopts

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/go-version"
)

// Function represents a callable exposed to rule conditions.
type Function func(args ...any) (any, error)

// FunctionRegistry stores custom functions keyed by name.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions: make(map[string]Function),
	}
}

// NewPlaybackFunctionRegistry returns a registry preloaded with helpers that
// playback rules commonly need:
//
//	version_at_least(version, minimum) compares semantic versions
//	one_of(value, candidates...)       reports membership
func NewPlaybackFunctionRegistry() *FunctionRegistry {
	registry := NewFunctionRegistry()
	_ = registry.Register("version_at_least", versionAtLeast)
	_ = registry.Register("one_of", oneOf)
	return registry
}

// Register stores fn under name guarding against duplicates.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if fn == nil {
		return fmt.Errorf("ffopts: function %q is nil", name)
	}
	if name == "" {
		return fmt.Errorf("ffopts: function name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]Function)
	}
	key := strings.ToLower(name)
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("ffopts: function %q already registered", name)
	}
	r.functions[key] = fn
	return nil
}

// Clone returns a shallow copy of the registry.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{
		functions: make(map[string]Function, len(r.functions)),
	}
	for name, fn := range r.functions {
		clone.functions[name] = fn
	}
	return clone
}

// Call executes the function registered for name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("ffopts: function registry is nil")
	}
	r.mu.RLock()
	fn := r.functions[strings.ToLower(name)]
	r.mu.RUnlock()
	if fn == nil {
		return nil, fmt.Errorf("ffopts: function %q not registered", name)
	}
	return fn(args...)
}

// Names returns registered function names sorted alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithFunctionRegistry configures rule evaluation to use registry.
func WithFunctionRegistry(registry *FunctionRegistry) StoreOption {
	return func(cfg *storeConfig) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithCustomFunction registers fn under name for rule evaluation.
func WithCustomFunction(name string, fn Function) StoreOption {
	return func(cfg *storeConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}

func versionAtLeast(args ...any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("version_at_least: expected 2 arguments, got %d", len(args))
	}
	have, err := version.NewVersion(strings.TrimSpace(fmt.Sprint(args[0])))
	if err != nil {
		return nil, fmt.Errorf("version_at_least: %w", err)
	}
	want, err := version.NewVersion(strings.TrimSpace(fmt.Sprint(args[1])))
	if err != nil {
		return nil, fmt.Errorf("version_at_least: %w", err)
	}
	return have.GreaterThanOrEqual(want), nil
}

func oneOf(args ...any) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("one_of: expected at least 1 argument")
	}
	needle := fmt.Sprint(args[0])
	for _, candidate := range args[1:] {
		if list, ok := candidate.([]any); ok {
			for _, item := range list {
				if fmt.Sprint(item) == needle {
					return true, nil
				}
			}
			continue
		}
		if fmt.Sprint(candidate) == needle {
			return true, nil
		}
	}
	return false, nil
}
