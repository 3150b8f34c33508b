package ffopts

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConditionNotBool indicates a rule condition produced a non-boolean result.
var ErrConditionNotBool = errors.New("ffopts: rule condition must evaluate to bool")

// EvaluationError reports a failed compile or run of a rule condition or of
// an ad hoc Store.Evaluate expression.
type EvaluationError struct {
	Engine string
	Rule   string
	Expr   string
	Scope  string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "ffopts: %s evaluator", e.Engine)
	if e.Rule != "" {
		fmt.Fprintf(&b, " rule=%q", e.Rule)
	}
	if e.Expr == "" {
		b.WriteString(" expr=<empty>")
	} else {
		fmt.Fprintf(&b, " expr=%q", e.Expr)
	}
	if e.Scope != "" {
		fmt.Fprintf(&b, " scope=%s", e.Scope)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// wrapEvaluatorError prefixes engine setup failures that carry no expression.
func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) || strings.HasPrefix(err.Error(), "ffopts:") {
		return err
	}
	return fmt.Errorf("ffopts: %s evaluator: %w", engine, err)
}

// wrapEvaluationError returns err as an *EvaluationError. When err already
// holds one, its empty fields are filled in and it is returned unchanged
// otherwise.
func wrapEvaluationError(engine, expr, scope string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		return &EvaluationError{Engine: engine, Expr: expr, Scope: scope, Err: err}
	}
	fill := func(field *string, value string) {
		if *field == "" {
			*field = value
		}
	}
	fill(&evalErr.Engine, engine)
	fill(&evalErr.Expr, expr)
	fill(&evalErr.Scope, scope)
	return evalErr
}
