package ffopts

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-ffoptions/pkg/activity"
)

// Apply writes every staged option to engine in staged order. A nil or
// unready engine fails before any write. The first write the engine rejects
// aborts the remaining writes; writes that already landed are not rolled back.
// The staged options are never modified, so a failed store can be applied
// again to a fresh handle.
func (s *Store) Apply(engine Engine) error {
	return s.ApplyContext(context.Background(), engine)
}

// ApplyContext behaves like Apply and forwards ctx to the configured activity
// hooks. The writes themselves are not cancellable.
func (s *Store) ApplyContext(ctx context.Context, engine Engine) error {
	if s == nil {
		return fmt.Errorf("ffopts: store is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	written, err := s.write(engine)
	duration := time.Since(start)
	if err == nil {
		s.state = StateApplied
	}

	event := ApplyLogEvent{
		Engine:   engineName(engine),
		Scope:    s.cfg.scope.Name,
		Staged:   len(s.entries),
		Written:  written,
		Duration: duration,
		Err:      err,
	}
	if attachErr, ok := err.(*EngineAttachError); ok && attachErr.HasOption() {
		failed := Option{Category: attachErr.Category, Key: attachErr.Key, Value: attachErr.Value}
		event.Failed = &failed
	}
	event.HookErr = s.emitApply(ctx, event)
	s.cfg.applyLog().LogApply(event)
	return err
}

func (s *Store) write(engine Engine) (int, error) {
	if isNilEngine(engine) {
		return 0, &EngineAttachError{Err: ErrNilEngine}
	}
	if checker, ok := engine.(ReadyChecker); ok {
		if err := checker.Ready(); err != nil {
			return 0, &EngineAttachError{Err: err}
		}
	}
	for i, opt := range s.entries {
		var err error
		switch opt.Value.Kind {
		case KindInt:
			err = engine.SetInt(opt.Category, opt.Key, opt.Value.Int)
		case KindString:
			err = engine.SetString(opt.Category, opt.Key, opt.Value.Str)
		default:
			err = fmt.Errorf("%w: kind %d", ErrUnsupportedValue, opt.Value.Kind)
		}
		if err != nil {
			return i, &EngineAttachError{
				Category: opt.Category,
				Key:      opt.Key,
				Value:    opt.Value,
				Err:      err,
			}
		}
	}
	return len(s.entries), nil
}

func (s *Store) emitApply(ctx context.Context, event ApplyLogEvent) error {
	emitter := activity.NewEmitter(s.cfg.activityHooks, activity.Config{Enabled: true})
	if !emitter.Enabled() {
		return nil
	}
	input := activity.OptionsEventInput{
		Scope: activity.ScopeContext{
			Name:     s.cfg.scope.Name,
			Label:    s.cfg.scope.Label,
			Priority: s.cfg.scope.Priority,
			Metadata: copyMetadata(s.cfg.scope.Metadata),
		},
		Metadata: map[string]any{
			"engine":  event.Engine,
			"staged":  event.Staged,
			"written": event.Written,
		},
	}
	if event.Err == nil {
		return emitter.Emit(ctx, activity.BuildOptionsAppliedEvent(input))
	}
	input.Metadata["error"] = event.Err.Error()
	if event.Failed != nil {
		input.Path = event.Failed.Path()
		input.NewValue = event.Failed.Value.Any()
	}
	return emitter.Emit(ctx, activity.BuildOptionsApplyFailedEvent(input))
}
