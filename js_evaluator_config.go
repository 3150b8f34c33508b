package ffopts

import "time"

// DefaultJSTimeout bounds one JavaScript condition run.
const DefaultJSTimeout = 50 * time.Millisecond

// JSEvaluatorOption configures the goja evaluator compiled in with the js_eval
// build tag. The options exist in every build.
type JSEvaluatorOption func(*jsSettings)

type jsSettings struct {
	cache    ProgramCache
	registry *FunctionRegistry
	timeout  time.Duration
}

// JSWithProgramCache shares compiled scripts through cache.
func JSWithProgramCache(cache ProgramCache) JSEvaluatorOption {
	return func(s *jsSettings) {
		s.cache = cache
	}
}

// JSWithFunctionRegistry exposes the registry functions as globals and
// through call(name, ...args).
func JSWithFunctionRegistry(registry *FunctionRegistry) JSEvaluatorOption {
	return func(s *jsSettings) {
		if registry != nil {
			s.registry = registry.Clone()
		}
	}
}

// JSWithTimeout interrupts a condition still running after d. A zero or
// negative d disables the limit.
func JSWithTimeout(d time.Duration) JSEvaluatorOption {
	return func(s *jsSettings) {
		s.timeout = d
	}
}

func newJSSettings(opts []JSEvaluatorOption) jsSettings {
	settings := jsSettings{timeout: DefaultJSTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(&settings)
		}
	}
	return settings
}
