package activity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNormalizeEventTrimsClonesAndDefaults(t *testing.T) {
	meta := map[string]any{"engine": "recorder"}
	evt := Event{
		Verb:       " options.applied ",
		ActorID:    " actor ",
		UserID:     " user ",
		TenantID:   " tenant ",
		ObjectType: " ffoptions ",
		ObjectID:   " live ",
		Channel:    " player ",
		Metadata:   meta,
	}

	got := NormalizeEvent(evt)

	if got.Verb != "options.applied" || got.ObjectType != "ffoptions" || got.ObjectID != "live" {
		t.Fatalf("unexpected normalized fields: %+v", got)
	}
	if got.ActorID != "actor" || got.UserID != "user" || got.TenantID != "tenant" || got.Channel != "player" {
		t.Fatalf("unexpected trimming: %+v", got)
	}
	if got.OccurredAt.IsZero() {
		t.Fatalf("expected OccurredAt to be set")
	}
	got.Metadata["engine"] = "changed"
	if evt.Metadata["engine"] != "recorder" {
		t.Fatalf("expected original metadata untouched: %+v", evt.Metadata)
	}
}

func TestHooksNotifyDropsIncompleteEvents(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{capture}
	if err := hooks.Notify(context.Background(), Event{Verb: VerbOptionsApplied}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if n := len(capture.Events()); n != 0 {
		t.Fatalf("expected no events captured, got %d", n)
	}
}

func TestHooksNotifyFanOutAndJoinErrors(t *testing.T) {
	capture := &CaptureHook{}
	boom1 := errors.New("boom1")
	boom2 := errors.New("boom2")
	var ctxSeen bool
	hooks := Hooks{
		HookFunc(func(ctx context.Context, event Event) error {
			ctxSeen = ctx != nil
			return nil
		}),
		capture,
		HookFunc(func(context.Context, Event) error { return boom1 }),
		nil,
		HookFunc(func(context.Context, Event) error { return boom2 }),
	}

	//nolint:staticcheck // a nil context falls back to Background
	err := hooks.Notify(nil, Event{Verb: VerbOptionsUpdated, ObjectType: ObjectOptions, ObjectID: "1"})
	if !errors.Is(err, boom1) || !errors.Is(err, boom2) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if !ctxSeen {
		t.Fatalf("expected context fallback to be non-nil")
	}
	if n := len(capture.Events()); n != 1 {
		t.Fatalf("expected event to be captured once, got %d", n)
	}
}

func TestEmitterDisabledAndEnabled(t *testing.T) {
	capture := &CaptureHook{}
	event := Event{Verb: VerbOptionsApplied, ObjectType: ObjectOptions, ObjectID: "1"}

	disabled := NewEmitter(Hooks{capture}, Config{Enabled: false})
	if disabled.Enabled() {
		t.Fatalf("expected emitter to be disabled")
	}
	if err := disabled.Emit(context.Background(), event); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if n := len(capture.Events()); n != 0 {
		t.Fatalf("expected no events captured when disabled, got %d", n)
	}

	if NewEmitter(Hooks{nil}, Config{Enabled: true}).Enabled() {
		t.Fatalf("expected emitter without usable hooks to be disabled")
	}

	enabled := NewEmitter(Hooks{capture}, Config{Enabled: true})
	if err := enabled.Emit(context.Background(), event); err != nil {
		t.Fatalf("emit: %v", err)
	}
	events := capture.Events()
	if len(events) != 1 {
		t.Fatalf("expected one event captured, got %d", len(events))
	}
	if events[0].Channel != DefaultChannel {
		t.Fatalf("expected default channel applied, got %q", events[0].Channel)
	}
}

func TestEmitterPreservesExplicitChannel(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true, Channel: "default"})
	when := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	err := emitter.Emit(context.Background(), Event{
		Verb:       VerbOptionsApplied,
		ObjectType: ObjectOptions,
		ObjectID:   "1",
		Channel:    "custom",
		OccurredAt: when,
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	events := capture.Events()
	if events[0].Channel != "custom" {
		t.Fatalf("expected explicit channel preserved, got %q", events[0].Channel)
	}
	if !events[0].OccurredAt.Equal(when) {
		t.Fatalf("expected occurred_at preserved, got %v", events[0].OccurredAt)
	}
}

func TestEmitterMergesDefaultMetadata(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{
		Enabled:  true,
		Metadata: map[string]any{"source": "resolver", "domain": "default"},
	})

	err := emitter.Emit(context.Background(), Event{
		Verb:       VerbOptionsUpdated,
		ObjectType: ObjectOptions,
		ObjectID:   "device/ipad",
		Metadata:   map[string]any{"domain": "playback"},
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	meta := capture.Events()[0].Metadata
	if meta["source"] != "resolver" || meta["domain"] != "playback" {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
}

func TestHooksNotifyTagsHookPosition(t *testing.T) {
	boom := errors.New("boom")
	hooks := Hooks{&CaptureHook{}, HookFunc(func(context.Context, Event) error { return boom })}
	err := hooks.Notify(context.Background(), Event{Verb: VerbOptionsApplied, ObjectType: ObjectOptions, ObjectID: "x"})
	if !errors.Is(err, boom) || err.Error() != "activity: hook 1: boom" {
		t.Fatalf("unexpected error: %v", err)
	}
}
