package usersink_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-ffoptions/pkg/activity"
	"github.com/goliatone/go-ffoptions/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	userID := uuid.New()

	event := activity.BuildOptionsAppliedEvent(activity.OptionsEventInput{
		ActorID:    actorID.String(),
		UserID:     userID.String(),
		TenantID:   "acme",
		ObjectID:   "player-1",
		Channel:    "player",
		Metadata:   map[string]any{"engine": "recorder", "written": 3},
		OccurredAt: now,
	})

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected one record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID || record.UserID != userID {
		t.Fatalf("uuid identifiers not preserved: %+v", record)
	}
	if record.TenantID != uuid.NewSHA1(usersink.Namespace, []byte("tenant:acme")) {
		t.Fatalf("expected name-based tenant uuid, got %s", record.TenantID)
	}
	if record.Data["tenant_ref"] != "acme" {
		t.Fatalf("expected original tenant kept in data, got %+v", record.Data)
	}
	if record.Verb != activity.VerbOptionsApplied || record.ObjectType != activity.ObjectOptions || record.ObjectID != "player-1" {
		t.Fatalf("unexpected record identity: %+v", record)
	}
	if record.Channel != "player" || !record.OccurredAt.Equal(now) {
		t.Fatalf("unexpected channel/time: %+v", record)
	}
	if record.Data["engine"] != "recorder" || record.Data["written"] != 3 {
		t.Fatalf("metadata not forwarded: %+v", record.Data)
	}
	if _, ok := event.Metadata["tenant_ref"]; ok {
		t.Fatalf("event metadata must not be mutated")
	}
}

func TestHookNotifySkipsIncompleteEventsAndNilSink(t *testing.T) {
	sink := &recordingSink{}
	if err := (usersink.Hook{Sink: sink}).Notify(context.Background(), activity.Event{Verb: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.records) != 0 {
		t.Fatalf("expected incomplete event to be skipped")
	}
	if err := (usersink.Hook{}).Notify(context.Background(), activity.BuildOptionsAppliedEvent(activity.OptionsEventInput{})); err != nil {
		t.Fatalf("nil sink should be a no-op, got %v", err)
	}
}

func TestHookNotifyReturnsSinkError(t *testing.T) {
	sentinel := errors.New("sink down")
	hook := usersink.Hook{Sink: &recordingSink{err: sentinel}}
	err := hook.Notify(context.Background(), activity.BuildOptionsUpdatedEvent(activity.OptionsEventInput{}))
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sink error, got %v", err)
	}
}
