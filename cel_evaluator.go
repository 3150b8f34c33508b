package ffopts

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
)

// CELEvaluatorOption configures the CEL evaluator.
type CELEvaluatorOption func(*celEvaluator)

// CELWithProgramCache wires a ProgramCache into the CEL evaluator.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL evaluator.
// Each registered function is exposed with one and two argument overloads,
// and call(name, [args]) reaches any of them.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(e *celEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

type celProgram struct {
	env     *celgo.Env
	program celgo.Program
}

type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELEvaluator constructs an Evaluator backed by cel-go.
func NewCELEvaluator(opts ...CELEvaluatorOption) Evaluator {
	e := &celEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("cel", fmt.Errorf("expression must not be empty"))
	}
	return e.run(ctx, expression, compileConfig{})
}

// Compile defers type checking to the first evaluation because snapshot
// variables are only known once a context is supplied.
func (e *celEvaluator) Compile(expression string, opts ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("cel", fmt.Errorf("expression must not be empty"))
	}
	cfg := applyCompileOptions(opts)
	env, err := e.buildEnv(nil)
	if err != nil {
		return nil, wrapEvaluatorError("cel", err)
	}
	if _, issues := env.Parse(expression); issues != nil && issues.Err() != nil {
		return nil, wrapEvaluationError("cel", expression, "", issues.Err())
	}
	return &celCompiledRule{
		evaluator:  e,
		expression: expression,
		cfg:        cfg,
	}, nil
}

func (e *celEvaluator) run(ctx RuleContext, expression string, cfg compileConfig) (any, error) {
	ctx = ctx.withDefaults()
	snapshot := snapshotAsMap(ctx.Snapshot)
	program, err := e.loadOrCompile(expression, snapshot, cfg)
	if err != nil {
		return nil, err
	}
	out, _, err := program.program.Eval(e.activation(ctx, snapshot))
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, ctx.scopeLabel(), err)
	}
	return out.Value(), nil
}

func (e *celEvaluator) loadOrCompile(expression string, snapshot map[string]any, cfg compileConfig) (*celProgram, error) {
	key := programCacheKey("cel", expression, cfg.condition) + "|" + strings.Join(snapshotKeys(snapshot), ",")
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if program, ok := cached.(*celProgram); ok {
				return program, nil
			}
		}
	}

	env, err := e.buildEnv(snapshot)
	if err != nil {
		return nil, wrapEvaluatorError("cel", err)
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, wrapEvaluationError("cel", expression, "", issues.Err())
	}
	if cfg.condition {
		out := ast.OutputType()
		if !out.IsExactType(celgo.BoolType) && !out.IsExactType(celgo.DynType) {
			return nil, wrapEvaluationError("cel", expression, "", fmt.Errorf("%w: got %s", ErrConditionNotBool, out))
		}
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, "", err)
	}

	bundle := &celProgram{
		env:     env,
		program: prg,
	}
	if e.cache != nil {
		e.cache.Set(key, bundle)
	}
	return bundle, nil
}

var celReserved = map[string]struct{}{
	"now": {}, "args": {}, "metadata": {}, "staged": {}, "scope": {},
}

func (e *celEvaluator) buildEnv(snapshot map[string]any) (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("args", celgo.DynType),
		celgo.Variable("metadata", celgo.DynType),
		celgo.Variable("staged", celgo.DynType),
		celgo.Variable("scope", celgo.DynType),
	}
	if e.registry != nil {
		opts = append(opts, celgo.Function("call",
			celgo.Overload("call_string_list",
				[]*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)},
				celgo.DynType,
				celgo.BinaryBinding(e.callBinding),
			),
		))
		for _, name := range e.registry.Names() {
			opts = append(opts, e.functionDecl(name))
		}
	}
	for _, key := range snapshotKeys(snapshot) {
		if _, reserved := celReserved[key]; reserved {
			continue
		}
		opts = append(opts, celgo.Variable(key, celgo.DynType))
	}
	return celgo.NewEnv(opts...)
}

func (e *celEvaluator) functionDecl(name string) celgo.EnvOption {
	return celgo.Function(name,
		celgo.Overload(name+"_dyn",
			[]*celgo.Type{celgo.DynType},
			celgo.DynType,
			celgo.UnaryBinding(func(arg ref.Val) ref.Val {
				return e.invoke(name, arg)
			}),
		),
		celgo.Overload(name+"_dyn_dyn",
			[]*celgo.Type{celgo.DynType, celgo.DynType},
			celgo.DynType,
			celgo.BinaryBinding(func(lhs, rhs ref.Val) ref.Val {
				return e.invoke(name, lhs, rhs)
			}),
		),
	)
}

func (e *celEvaluator) activation(ctx RuleContext, snapshot map[string]any) map[string]any {
	activation := make(map[string]any, len(snapshot)+5)
	for key, value := range snapshot {
		activation[key] = value
	}
	activation["now"] = ctx.timestamp()
	activation["args"] = ctx.Args
	activation["metadata"] = ctx.Metadata
	activation["staged"] = ctx.Staged
	scope := ctx.scopeBinding()
	if scope == nil {
		scope = map[string]any{}
	}
	activation["scope"] = scope
	return activation
}

type celCompiledRule struct {
	evaluator  *celEvaluator
	expression string
	cfg        compileConfig
}

func (r *celCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	if r.evaluator == nil {
		return nil, wrapEvaluatorError("cel", fmt.Errorf("compiled rule missing evaluator"))
	}
	return r.evaluator.run(ctx, r.expression, r.cfg)
}

func snapshotAsMap(value any) map[string]any {
	if m, ok := value.(map[string]any); ok && m != nil {
		return m
	}
	return map[string]any{}
}

func snapshotKeys(snapshot map[string]any) []string {
	keys := make([]string, 0, len(snapshot))
	for key := range snapshot {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (e *celEvaluator) callBinding(name, arguments ref.Val) ref.Val {
	fn, ok := name.Value().(string)
	if !ok {
		return types.NewErr("ffopts: call name must be string")
	}
	list, ok := arguments.(traits.Lister)
	if !ok {
		return types.NewErr("ffopts: call arguments must be a list")
	}
	var args []ref.Val
	for it := list.Iterator(); it.HasNext() == types.True; {
		args = append(args, it.Next())
	}
	return e.invoke(fn, args...)
}

func (e *celEvaluator) invoke(name string, values ...ref.Val) ref.Val {
	if e.registry == nil {
		return types.NewErr("ffopts: function registry not configured")
	}
	args := make([]any, 0, len(values))
	for _, val := range values {
		args = append(args, celNative(val))
	}
	result, err := e.registry.Call(name, args...)
	if err != nil {
		return types.NewErr("%s", err.Error())
	}
	if result == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(result)
}

func celNative(val ref.Val) any {
	if _, ok := val.(traits.Lister); ok {
		if native, err := val.ConvertToNative(reflect.TypeOf([]any{})); err == nil {
			return native
		}
	}
	if _, ok := val.(traits.Mapper); ok {
		if native, err := val.ConvertToNative(reflect.TypeOf(map[string]any{})); err == nil {
			return native
		}
	}
	return val.Value()
}
