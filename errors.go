package ffopts

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCategory indicates a category outside the five defined values.
	ErrInvalidCategory = errors.New("ffopts: invalid category")
	// ErrEmptyKey indicates an option key was empty.
	ErrEmptyKey = errors.New("ffopts: option key must not be empty")
	// ErrNilEngine indicates Apply received a nil engine handle.
	ErrNilEngine = errors.New("ffopts: engine handle is nil")
	// ErrOptionNotFound indicates a lookup for an unstaged (category, key).
	ErrOptionNotFound = errors.New("ffopts: option not found")
	// ErrUnsupportedValue indicates a value that is neither a string nor an
	// int64.
	ErrUnsupportedValue = errors.New("ffopts: unsupported option value")
)

// EngineAttachError reports a failed engine attachment. When the handle itself
// is unusable Key is empty; otherwise Category, Key and Value identify the
// write the engine rejected.
type EngineAttachError struct {
	Category Category
	Key      string
	Value    Value
	Err      error
}

func (e *EngineAttachError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if !e.HasOption() {
		return fmt.Sprintf("ffopts: attach engine: %v", e.Err)
	}
	return fmt.Sprintf("ffopts: apply %s.%s=%s: %v", e.Category, e.Key, e.Value, e.Err)
}

func (e *EngineAttachError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// HasOption reports whether the error refers to a specific option write.
func (e *EngineAttachError) HasOption() bool {
	return e != nil && e.Key != ""
}

// Path returns "category.key" for option write failures.
func (e *EngineAttachError) Path() string {
	if !e.HasOption() {
		return ""
	}
	return optionPath(e.Category, e.Key)
}

func validateOption(category Category, key string) error {
	if !category.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidCategory, int(category))
	}
	if key == "" {
		return fmt.Errorf("%w: category %s", ErrEmptyKey, category)
	}
	return nil
}
