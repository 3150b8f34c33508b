package ffopts

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapEvaluationErrorCreatesMetadata(t *testing.T) {
	base := errors.New("boom")
	err := wrapEvaluationError("expr", "live && missing", "device:ipad", base)

	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %T", err)
	}
	if evalErr.Engine != "expr" {
		t.Fatalf("expected engine expr, got %q", evalErr.Engine)
	}
	if evalErr.Expr != "live && missing" {
		t.Fatalf("expected expression metadata, got %q", evalErr.Expr)
	}
	if evalErr.Scope != "device:ipad" {
		t.Fatalf("expected scope metadata, got %q", evalErr.Scope)
	}
	if !errors.Is(evalErr.Err, base) {
		t.Fatalf("wrapped error should unwrap to base error")
	}
}

func TestWrapEvaluationErrorAugmentsExisting(t *testing.T) {
	base := errors.New("compile failure")
	existing := &EvaluationError{
		Engine: "expr",
		Rule:   "hw-decode",
		Err:    base,
	}

	err := wrapEvaluationError("cel", "platform == 'ios'", "stream:42", existing)
	if !errors.Is(err, base) {
		t.Fatalf("expected base error to unwrap")
	}
	if existing.Engine != "expr" {
		t.Fatalf("existing engine should not be overwritten, got %q", existing.Engine)
	}
	if existing.Expr != "platform == 'ios'" {
		t.Fatalf("expression should be filled, got %q", existing.Expr)
	}
	if existing.Scope != "stream:42" {
		t.Fatalf("scope should be filled, got %q", existing.Scope)
	}
	if !strings.Contains(existing.Error(), `rule="hw-decode"`) {
		t.Fatalf("expected rule name in message, got %q", existing.Error())
	}
}

func TestWrapEvaluatorErrorKeepsPrefixedErrors(t *testing.T) {
	prefixed := errors.New("ffopts: already described")
	if got := wrapEvaluatorError("expr", prefixed); got != prefixed {
		t.Fatalf("expected prefixed error returned as-is, got %v", got)
	}
	plain := errors.New("plain")
	got := wrapEvaluatorError("cel", plain)
	if !errors.Is(got, plain) || !strings.HasPrefix(got.Error(), "ffopts: cel evaluator:") {
		t.Fatalf("expected wrapped error, got %v", got)
	}
}
