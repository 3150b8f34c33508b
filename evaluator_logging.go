package ffopts

import "time"

// EvaluatorLogEvent describes a rule condition evaluation for logging.
type EvaluatorLogEvent struct {
	Engine   string
	Rule     string
	Expr     string
	Scope    string
	Matched  bool
	Duration time.Duration
	Err      error
}

// EvaluatorLogger records evaluator events.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}

// WithEvaluatorLogger attaches an evaluator logger.
func WithEvaluatorLogger(logger EvaluatorLogger) StoreOption {
	return func(cfg *storeConfig) {
		if logger == nil {
			cfg.evalLogger = noopEvaluatorLogger{}
			return
		}
		cfg.evalLogger = logger
	}
}

// ApplyLogEvent describes one Apply call. Failed is set when the engine
// rejected a specific option; HookErr carries activity hook failures, which
// never change the Apply result.
type ApplyLogEvent struct {
	Engine   string
	Scope    string
	Staged   int
	Written  int
	Failed   *Option
	Duration time.Duration
	Err      error
	HookErr  error
}

// ApplyLogger records Apply events.
type ApplyLogger interface {
	LogApply(ApplyLogEvent)
}

// ApplyLoggerFunc adapts a function to ApplyLogger.
type ApplyLoggerFunc func(ApplyLogEvent)

// LogApply implements ApplyLogger.
func (f ApplyLoggerFunc) LogApply(event ApplyLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopApplyLogger struct{}

func (noopApplyLogger) LogApply(ApplyLogEvent) {}

// WithApplyLogger attaches an apply logger.
func WithApplyLogger(logger ApplyLogger) StoreOption {
	return func(cfg *storeConfig) {
		if logger == nil {
			cfg.applyLogger = noopApplyLogger{}
			return
		}
		cfg.applyLogger = logger
	}
}
