//go:build !js_eval

package ffopts

import "fmt"

var errJSUnavailable = fmt.Errorf("%w: js evaluator requires the js_eval build tag", ErrNoEvaluator)

// jsUnavailable stands in for the goja evaluator in builds without js_eval.
type jsUnavailable struct{}

func (jsUnavailable) Evaluate(RuleContext, string) (any, error) {
	return nil, errJSUnavailable
}

func (jsUnavailable) Compile(string, ...CompileOption) (CompiledRule, error) {
	return nil, errJSUnavailable
}

// NewJSEvaluator returns an evaluator that fails every call with
// ErrNoEvaluator. Build with -tags js_eval for the goja implementation.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	_ = newJSSettings(opts)
	return jsUnavailable{}
}

func jsEvaluatorAvailable() bool {
	return false
}
