package ffopts

import (
	"fmt"
	"reflect"
)

// Engine is the attach-time surface of an external decoding engine: a string
// and an integer setter, both scoped by category.
type Engine interface {
	SetString(category Category, key, value string) error
	SetInt(category Category, key string, value int64) error
}

// ReadyChecker is implemented by engines that can tell whether their handle is
// still usable. Apply consults it before writing anything.
type ReadyChecker interface {
	Ready() error
}

// EngineFuncs adapts a pair of functions to Engine. A nil function rejects the
// corresponding writes.
type EngineFuncs struct {
	String func(category Category, key, value string) error
	Int    func(category Category, key string, value int64) error
}

// SetString implements Engine.
func (f EngineFuncs) SetString(category Category, key, value string) error {
	if f.String == nil {
		return fmt.Errorf("ffopts: string options not supported")
	}
	return f.String(category, key, value)
}

// SetInt implements Engine.
func (f EngineFuncs) SetInt(category Category, key string, value int64) error {
	if f.Int == nil {
		return fmt.Errorf("ffopts: integer options not supported")
	}
	return f.Int(category, key, value)
}

func isNilEngine(engine Engine) bool {
	if engine == nil {
		return true
	}
	rv := reflect.ValueOf(engine)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

func engineName(engine Engine) string {
	if engine == nil {
		return "nil"
	}
	if named, ok := engine.(interface{ Name() string }); ok {
		if name := named.Name(); name != "" {
			return name
		}
	}
	return fmt.Sprintf("%T", engine)
}
