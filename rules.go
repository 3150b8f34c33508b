package ffopts

import (
	"fmt"
	"time"
)

// Rule stages Value under (Category, Key) when the When condition holds. An
// empty When always matches.
type Rule struct {
	Name     string   `json:"name,omitempty"`
	When     string   `json:"when,omitempty"`
	Category Category `json:"category"`
	Key      string   `json:"key"`
	Value    Value    `json:"value"`
}

// Path returns "category.key" for the option the rule stages.
func (r Rule) Path() string {
	return optionPath(r.Category, r.Key)
}

func (r Rule) label(i int) string {
	if r.Name != "" {
		return r.Name
	}
	return fmt.Sprintf("#%d %s", i, r.Path())
}

// Ruleset is an ordered list of rules whose conditions were compiled once.
type Ruleset struct {
	rules    []Rule
	compiled []CompiledRule
	cfg      storeConfig
}

// NewRuleset validates every rule and compiles its condition with the
// configured evaluator (expr by default). Conditions that can be proven
// non-boolean at compile time are rejected.
func NewRuleset(rules []Rule, opts ...StoreOption) (*Ruleset, error) {
	rs := &Ruleset{
		rules:    append([]Rule(nil), rules...),
		compiled: make([]CompiledRule, len(rules)),
		cfg:      applyStoreOptions(opts),
	}
	var evaluator Evaluator
	for i, rule := range rs.rules {
		if err := validateOption(rule.Category, rule.Key); err != nil {
			return nil, fmt.Errorf("ffopts: rule %s: %w", rule.label(i), err)
		}
		if !rule.Value.Valid() {
			return nil, fmt.Errorf("ffopts: rule %s: %w", rule.label(i), ErrUnsupportedValue)
		}
		if rule.When == "" {
			continue
		}
		if evaluator == nil {
			var err error
			evaluator, err = resolveEvaluator(&rs.cfg)
			if err != nil {
				return nil, err
			}
		}
		compiled, err := evaluator.Compile(rule.When, AsCondition())
		if err != nil {
			return nil, ruleError(evaluatorEngineName(evaluator), rule.label(i), rule.When, "", err)
		}
		rs.compiled[i] = compiled
	}
	return rs, nil
}

// Rules returns a copy of the rules in evaluation order.
func (rs *Ruleset) Rules() []Rule {
	if rs == nil {
		return nil
	}
	return append([]Rule(nil), rs.rules...)
}

// Len returns the number of rules.
func (rs *Ruleset) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rules)
}

// Stage evaluates the rules in order and stages every match into store. Each
// condition sees the options staged so far under "staged", including those
// staged by earlier rules. The matched rules are returned. Evaluation stops at
// the first failing condition; rules matched before it stay staged.
func (rs *Ruleset) Stage(store *Store, ctx RuleContext) ([]Rule, error) {
	if store == nil {
		return nil, fmt.Errorf("ffopts: store is nil")
	}
	if rs == nil || len(rs.rules) == 0 {
		return nil, nil
	}
	scope := rs.cfg.scope
	if scope.isZero() {
		scope = store.cfg.scope
	}
	ctx = ctx.withDefaultScope(scope).withDefaults()
	engine := evaluatorEngineName(rs.cfg.evaluator)
	logger := rs.cfg.evaluatorLogger()

	var matched []Rule
	for i, rule := range rs.rules {
		ok := true
		if compiled := rs.compiled[i]; compiled != nil {
			ctx.Staged = store.stagedBinding()
			start := time.Now()
			result, err := compiled.Evaluate(ctx)
			duration := time.Since(start)
			if err == nil {
				var isBool bool
				ok, isBool = result.(bool)
				if !isBool {
					err = fmt.Errorf("%w: got %T", ErrConditionNotBool, result)
				}
			}
			if err != nil {
				err = ruleError(engine, rule.label(i), rule.When, ctx.scopeLabel(), err)
			}
			logger.LogEvaluation(EvaluatorLogEvent{
				Engine:   engine,
				Rule:     rule.label(i),
				Expr:     rule.When,
				Scope:    ctx.scopeLabel(),
				Matched:  err == nil && ok,
				Duration: duration,
				Err:      err,
			})
			if err != nil {
				return matched, err
			}
		}
		if !ok {
			continue
		}
		if err := store.set(rule.Category, rule.Key, rule.Value); err != nil {
			return matched, err
		}
		matched = append(matched, rule)
	}
	return matched, nil
}

func ruleError(engine, rule, expr, scope string, err error) error {
	wrapped := wrapEvaluationError(engine, expr, scope, err)
	if evalErr, ok := wrapped.(*EvaluationError); ok && evalErr.Rule == "" {
		evalErr.Rule = rule
	}
	return wrapped
}
