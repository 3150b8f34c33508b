// Package usersink forwards option lifecycle events to a go-users activity
// sink.
package usersink

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-ffoptions/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Namespace seeds the name-based UUIDs derived for identifiers that are not
// UUIDs themselves (tenant slugs, device ids, ...).
var Namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/goliatone/go-ffoptions"))

// Hook adapts activity events to a go-users ActivitySink.
type Hook struct {
	Sink usertypes.ActivitySink
}

// Notify maps the event into an ActivityRecord and forwards it to the sink.
// Identifiers that do not parse as UUIDs are mapped to stable name-based
// UUIDs and the original value is kept in Data under "<field>_ref".
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}

	normalized := activity.NormalizeEvent(event)
	if normalized.Verb == "" || normalized.ObjectType == "" || normalized.ObjectID == "" {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	data := cloneMap(normalized.Metadata)
	record := usertypes.ActivityRecord{
		ActorID:    resolveID("actor", normalized.ActorID, &data),
		UserID:     resolveID("user", normalized.UserID, &data),
		TenantID:   resolveID("tenant", normalized.TenantID, &data),
		Verb:       normalized.Verb,
		ObjectType: normalized.ObjectType,
		ObjectID:   normalized.ObjectID,
		Channel:    normalized.Channel,
		OccurredAt: normalized.OccurredAt,
	}
	record.Data = data
	if record.OccurredAt.IsZero() {
		record.OccurredAt = time.Now()
	}

	return h.Sink.Log(ctx, record)
}

func resolveID(field, input string, data *map[string]any) uuid.UUID {
	value := strings.TrimSpace(input)
	if value == "" {
		return uuid.Nil
	}
	if id, err := uuid.Parse(value); err == nil {
		return id
	}
	if *data == nil {
		*data = map[string]any{}
	}
	(*data)[field+"_ref"] = value
	return uuid.NewSHA1(Namespace, []byte(field+":"+value))
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
