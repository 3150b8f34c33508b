package ffopts

import (
	"errors"
	"fmt"
	"time"
)

var ErrNoEvaluator = errors.New("ffopts: evaluator not configured")

// Evaluate runs expr against the staged options of s. The expression sees the
// staged options under "staged" and the store scope under "scope".
func (s *Store) Evaluate(expr string) (any, error) {
	return s.EvaluateWith(RuleContext{}, expr)
}

// EvaluateWith runs expr using ctx. When ctx.Staged is nil the staged options
// of s are bound; when ctx carries no scope the store scope is used.
func (s *Store) EvaluateWith(ctx RuleContext, expr string) (any, error) {
	if s == nil {
		return nil, fmt.Errorf("ffopts: store is nil")
	}
	if expr == "" {
		return nil, fmt.Errorf("expression must not be empty")
	}
	evaluator, err := resolveEvaluator(&s.cfg)
	if err != nil {
		return nil, err
	}
	if ctx.Staged == nil {
		ctx.Staged = s.stagedBinding()
	}
	ctx = ctx.withDefaultScope(s.cfg.scope).withDefaults()
	start := time.Now()
	value, evalErr := evaluator.Evaluate(ctx, expr)
	duration := time.Since(start)
	evalErr = wrapEvaluationError("", expr, ctx.scopeLabel(), evalErr)
	s.cfg.evaluatorLogger().LogEvaluation(EvaluatorLogEvent{
		Engine:   evaluatorEngineName(evaluator),
		Expr:     expr,
		Scope:    ctx.scopeLabel(),
		Duration: duration,
		Err:      evalErr,
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return value, nil
}

// resolveEvaluator returns the configured evaluator, installing an expr
// evaluator wired to the configured cache and functions when none is set.
func resolveEvaluator(cfg *storeConfig) (Evaluator, error) {
	if cfg == nil {
		return nil, ErrNoEvaluator
	}
	if cfg.evaluator != nil {
		return cfg.evaluator, nil
	}
	var exprOpts []ExprEvaluatorOption
	if cfg.programCache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(cfg.programCache))
	}
	if cfg.functions != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(cfg.functions))
	}
	evaluator := NewExprEvaluator(exprOpts...)
	if evaluator == nil {
		return nil, ErrNoEvaluator
	}
	cfg.evaluator = evaluator
	return evaluator, nil
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*ffopts.exprEvaluator":
		return "expr"
	case "*ffopts.celEvaluator":
		return "cel"
	case "*ffopts.jsEvaluator", "ffopts.jsUnavailable":
		return "js"
	default:
		return "custom"
	}
}

func programCacheKey(engine, expression string, condition bool) string {
	if condition {
		return engine + ":cond:" + expression
	}
	return engine + ":" + expression
}

// EvaluatorByName builds the evaluator registered under name: "expr" (the
// default when name is empty), "cel", or "js" when built with the js_eval tag.
func EvaluatorByName(name string, cache ProgramCache, registry *FunctionRegistry) (Evaluator, error) {
	switch name {
	case "", "expr":
		return NewExprEvaluator(ExprWithProgramCache(cache), ExprWithFunctionRegistry(registry)), nil
	case "cel":
		return NewCELEvaluator(CELWithProgramCache(cache), CELWithFunctionRegistry(registry)), nil
	case "js":
		if !jsEvaluatorAvailable() {
			return nil, fmt.Errorf("%w: js evaluator requires the js_eval build tag", ErrNoEvaluator)
		}
		return NewJSEvaluator(JSWithProgramCache(cache), JSWithFunctionRegistry(registry)), nil
	default:
		return nil, fmt.Errorf("%w: unknown evaluator %q", ErrNoEvaluator, name)
	}
}
