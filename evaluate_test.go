package ffopts

import (
	"errors"
	"testing"
)

func TestStoreEvaluateSeesStagedOptions(t *testing.T) {
	for _, engine := range []string{"expr", "cel"} {
		t.Run(engine, func(t *testing.T) {
			evaluator, err := EvaluatorByName(engine, NewMapProgramCache(), nil)
			if err != nil {
				t.Fatalf("evaluator: %v", err)
			}
			store := New(
				WithEvaluator(evaluator),
				WithScope(NewScope("device", ScopePriorityDevice)),
			)
			_ = store.SetPlayerInt("framedrop", 0)
			_ = store.SetFormatString("user-agent", "probe")

			got, err := store.Evaluate(`staged.player.framedrop == 0 && staged.format["user-agent"] == "probe" && scope.name == "device"`)
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if got != true {
				t.Fatalf("expected true, got %v", got)
			}
		})
	}
}

func TestStoreEvaluateWrapsErrors(t *testing.T) {
	var logged []EvaluatorLogEvent
	store := New(WithEvaluatorLogger(EvaluatorLoggerFunc(func(event EvaluatorLogEvent) {
		logged = append(logged, event)
	})))

	_, err := store.Evaluate("staged.player.(")
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) || evalErr.Engine != "expr" {
		t.Fatalf("expected expr EvaluationError, got %v", err)
	}
	if len(logged) != 1 || logged[0].Err == nil {
		t.Fatalf("expected one logged failure, got %+v", logged)
	}

	if _, err := store.Evaluate(""); err == nil {
		t.Fatalf("empty expression should fail")
	}
}

func TestEvaluatorByNameUnknown(t *testing.T) {
	if _, err := EvaluatorByName("lua", nil, nil); !errors.Is(err, ErrNoEvaluator) {
		t.Fatalf("expected ErrNoEvaluator, got %v", err)
	}
}
