package ffopts

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResolveWithTraceReturnsLayerProvenance(t *testing.T) {
	system := NewLayer(NewScope("system", ScopePrioritySystem),
		storeOf(t, intOpt(CategoryCodec, "skip_frame", 0), intOpt(CategoryFormat, "timeout", 30000000)),
		WithSnapshotID("system/1"))
	device := NewLayer(NewScope("device", ScopePriorityDevice),
		storeOf(t, intOpt(CategoryCodec, "skip_frame", 8)),
		WithSnapshotID("device/5"))

	stack, err := NewStack(system, device)
	if err != nil {
		t.Fatalf("stack: %v", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	value, trace, err := merged.ResolveWithTrace(CategoryCodec, "skip_frame")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if value != IntValue(8) {
		t.Fatalf("expected device value, got %+v", value)
	}
	if trace.Path != "codec.skip_frame" || len(trace.Layers) != 2 {
		t.Fatalf("unexpected trace: %+v", trace)
	}
	winner, ok := trace.Winner()
	if !ok || winner.Scope.Name != "device" || winner.SnapshotID != "device/5" {
		t.Fatalf("unexpected winner: %+v", winner)
	}
	if second := trace.Layers[1]; !second.Found || second.Value != int64(0) {
		t.Fatalf("system provenance should carry its shadowed value, got %+v", second)
	}

	_, trace, err = merged.ResolveWithTrace(CategoryFormat, "timeout")
	if err != nil {
		t.Fatalf("resolve timeout: %v", err)
	}
	if trace.Layers[0].Found || !trace.Layers[1].Found {
		t.Fatalf("only system should carry timeout: %+v", trace.Layers)
	}
}

func TestResolveWithTraceMissingOption(t *testing.T) {
	merged, err := SystemTenantDeviceStreamUser(New(), nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	_, trace, err := merged.ResolveWithTrace(CategorySwr, "resampler")
	if !errors.Is(err, ErrOptionNotFound) {
		t.Fatalf("expected ErrOptionNotFound, got %v", err)
	}
	if len(trace.Layers) != 5 {
		t.Fatalf("trace should still list every layer, got %d", len(trace.Layers))
	}
	if _, ok := trace.Winner(); ok {
		t.Fatalf("no layer should win")
	}
}

func TestResolveWithTracePlainStore(t *testing.T) {
	store := New(WithScope(NewScope("stream", ScopePriorityStream)))
	_ = store.SetFormatString("rtsp_transport", "tcp")

	_, trace, err := store.ResolveWithTrace(CategoryFormat, "rtsp_transport")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(trace.Layers) != 1 || trace.Layers[0].Scope.Name != "stream" || trace.Layers[0].Value != "tcp" {
		t.Fatalf("unexpected single-layer trace: %+v", trace)
	}
}

func TestResolveWithTraceAfterPostMergeEdits(t *testing.T) {
	system := NewLayer(NewScope("system", ScopePrioritySystem),
		storeOf(t, intOpt(CategoryPlayer, "framedrop", 1), intOpt(CategoryFormat, "timeout", 30000000)),
		WithSnapshotID("system/1"))
	stack, err := NewStack(system)
	if err != nil {
		t.Fatalf("stack: %v", err)
	}
	merged, err := stack.Merge(WithScope(NewScope("session", ScopePriorityUser)))
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	if err := merged.SetPlayerInt("framedrop", 5); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, trace, err := merged.ResolveWithTrace(CategoryPlayer, "framedrop")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	winner, ok := trace.Winner()
	if !ok || len(trace.Layers) != 1 || winner.Scope.Name != "session" {
		t.Fatalf("edited key should trace to the store scope: %+v", trace)
	}
	if winner.Value != value.Any() || value != IntValue(5) {
		t.Fatalf("trace disagrees with Get: value %+v, winner %+v", value, winner)
	}

	merged.Delete(CategoryFormat, "timeout")
	_, trace, err = merged.ResolveWithTrace(CategoryFormat, "timeout")
	if !errors.Is(err, ErrOptionNotFound) {
		t.Fatalf("expected ErrOptionNotFound, got %v", err)
	}
	if _, ok := trace.Winner(); ok {
		t.Fatalf("deleted key should have no winner: %+v", trace)
	}

	clone := merged.Clone()
	_, trace, _ = clone.ResolveWithTrace(CategoryPlayer, "framedrop")
	if len(trace.Layers) != 1 {
		t.Fatalf("clone should keep edit marks: %+v", trace)
	}
}

func TestTraceJSONRoundTrip(t *testing.T) {
	trace := Trace{
		Path: "player.framedrop",
		Layers: []Provenance{
			{Scope: NewScope("user", ScopePriorityUser), Path: "player.framedrop", Value: "5", Found: true},
			{Scope: NewScope("system", ScopePrioritySystem), Path: "player.framedrop"},
		},
	}
	payload, err := trace.ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	decoded, err := TraceFromJSON(payload)
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	if diff := cmp.Diff(trace, decoded); diff != "" {
		t.Fatalf("trace mismatch (-want +got):\n%s", diff)
	}
}
