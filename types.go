package ffopts

import (
	"time"

	"github.com/goliatone/go-ffoptions/pkg/activity"
)

// Option is one staged engine setting.
type Option struct {
	Category Category `json:"category"`
	Key      string   `json:"key"`
	Value    Value    `json:"value"`
}

// Path returns the dotted "category.key" form used in traces and schemas.
func (o Option) Path() string {
	return optionPath(o.Category, o.Key)
}

func optionPath(category Category, key string) string {
	return category.String() + "." + key
}

type optionKey struct {
	category Category
	key      string
}

// State is the lifecycle position of a Store.
type State int

const (
	// StateStaging holds options that have not reached an engine yet.
	StateStaging State = iota
	// StateApplied marks a store that completed at least one Apply.
	StateApplied
)

func (s State) String() string {
	switch s {
	case StateStaging:
		return "staging"
	case StateApplied:
		return "applied"
	default:
		return "unknown"
	}
}

// Store stages options for an external engine. A Store is not safe for
// concurrent use; callers sharing one across goroutines must serialise access.
type Store struct {
	entries []Option
	index   map[optionKey]int
	state   State

	cfg    storeConfig
	layers []layerSnapshot
	// edited marks keys changed after Stack.Merge; their layer provenance
	// no longer explains the staged value.
	edited map[optionKey]struct{}
}

// SchemaFormat identifies the representation a schema document encodes.
type SchemaFormat string

const (
	// SchemaFormatDescriptors represents the flattened field descriptors.
	SchemaFormatDescriptors SchemaFormat = "descriptors"
	// SchemaFormatOpenAPI represents OpenAPI-compatible JSON Schema documents.
	SchemaFormatOpenAPI SchemaFormat = "openapi"
)

// SchemaDocument encapsulates a generated schema output alongside its format
// identifier. Implementations must ensure Document is JSON-serialisable.
type SchemaDocument struct {
	Format   SchemaFormat
	Document any
	Scopes   []SchemaScope
}

// SchemaScope describes a single scope entry included in a schema document.
type SchemaScope struct {
	Name       string         `json:"name"`
	Label      string         `json:"label,omitempty"`
	Priority   int            `json:"priority"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	SnapshotID string         `json:"snapshot_id,omitempty"`
}

// SchemaGenerator transforms a store into a schema document. All
// implementations MUST be safe for concurrent use and handle a nil store by
// returning an empty schema document.
type SchemaGenerator interface {
	Generate(store *Store) (SchemaDocument, error)
}

// RuleContext carries inputs needed when evaluating a rule condition.
type RuleContext struct {
	Snapshot  any
	Now       *time.Time
	Args      map[string]any
	Metadata  map[string]any
	Scope     Scope
	ScopeName string

	// Staged exposes options staged so far as category -> key -> value. It is
	// filled by Ruleset.Stage before each condition runs.
	Staged map[string]any
}

func (ctx RuleContext) withDefaultNow() RuleContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx RuleContext) withDefaultMaps() RuleContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	if ctx.Staged == nil {
		ctx.Staged = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) withDefaults() RuleContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

func (ctx RuleContext) withDefaultScope(scope Scope) RuleContext {
	if ctx.Scope.isZero() && !scope.isZero() {
		ctx.Scope = scope.clone()
	}
	if ctx.ScopeName == "" && ctx.Scope.Name != "" {
		ctx.ScopeName = ctx.Scope.Name
	}
	return ctx
}

func (ctx RuleContext) scopeLabel() string {
	if ctx.Scope.Name != "" {
		return ctx.Scope.Name
	}
	if ctx.ScopeName != "" {
		return ctx.ScopeName
	}
	return "unknown"
}

func (ctx RuleContext) scopeBinding() map[string]any {
	if binding := scopeToBinding(ctx.Scope); binding != nil {
		return binding
	}
	if ctx.ScopeName == "" {
		return nil
	}
	return map[string]any{"name": ctx.ScopeName}
}

// Evaluator executes rule conditions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct {
	condition bool
}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

// AsCondition asks the evaluator to reject, at compile time where the engine
// can tell, expressions that do not produce a boolean.
func AsCondition() CompileOption {
	return compileOptionFunc(func(cfg *compileConfig) {
		cfg.condition = true
	})
}

func applyCompileOptions(opts []CompileOption) compileConfig {
	cfg := compileConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt.applyCompileOption(&cfg)
		}
	}
	return cfg
}

// StoreOption configures a Store, Ruleset or merged Stack result.
type StoreOption func(*storeConfig)

type storeConfig struct {
	evaluator       Evaluator
	programCache    ProgramCache
	functions       *FunctionRegistry
	evalLogger      EvaluatorLogger
	applyLogger     ApplyLogger
	schemaGenerator SchemaGenerator
	scope           Scope
	scopeSchema     bool
	activityHooks   activity.Hooks
}

func applyStoreOptions(opts []StoreOption) storeConfig {
	cfg := storeConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func (cfg storeConfig) clone() storeConfig {
	out := cfg
	out.scope = cfg.scope.clone()
	out.activityHooks = cloneActivityHooks(cfg.activityHooks)
	return out
}

func (cfg storeConfig) evaluatorLogger() EvaluatorLogger {
	if cfg.evalLogger != nil {
		return cfg.evalLogger
	}
	return noopEvaluatorLogger{}
}

func (cfg storeConfig) applyLog() ApplyLogger {
	if cfg.applyLogger != nil {
		return cfg.applyLogger
	}
	return noopApplyLogger{}
}

// WithEvaluator configures the evaluator used for rule conditions.
func WithEvaluator(e Evaluator) StoreOption {
	return func(cfg *storeConfig) {
		cfg.evaluator = e
	}
}

// WithSchemaGenerator configures a custom schema generator implementation.
func WithSchemaGenerator(generator SchemaGenerator) StoreOption {
	return func(cfg *storeConfig) {
		cfg.schemaGenerator = generator
	}
}

// WithScope configures the scope metadata attached to the store, its rule
// contexts and its activity events.
func WithScope(scope Scope) StoreOption {
	return func(cfg *storeConfig) {
		cfg.scope = scope.clone()
	}
}

// WithScopeSchema toggles inclusion of scope metadata within generated schemas.
func WithScopeSchema(include bool) StoreOption {
	return func(cfg *storeConfig) {
		cfg.scopeSchema = include
	}
}

func scopeToBinding(scope Scope) map[string]any {
	if scope.isZero() {
		return nil
	}
	binding := map[string]any{
		"name":     scope.Name,
		"label":    scope.Label,
		"priority": scope.Priority,
	}
	if len(scope.Metadata) > 0 {
		binding["metadata"] = copyMetadata(scope.Metadata)
	}
	return binding
}
