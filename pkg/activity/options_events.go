package activity

import (
	"strings"
	"time"
)

// Verbs emitted for option lifecycle events.
const (
	VerbOptionsApplied      = "options.applied"
	VerbOptionsApplyFailed  = "options.apply_failed"
	VerbOptionsUpdated      = "options.updated"
	VerbOptionsLayerApplied = "options.layer.applied"
)

// Object types carried by option lifecycle events.
const (
	ObjectOptions      = "ffoptions"
	ObjectOptionsLayer = "ffoptions.layer"
)

// ScopeContext captures the scope an option set belongs to.
type ScopeContext struct {
	Name       string
	Label      string
	Priority   int
	Metadata   map[string]any
	SnapshotID string
}

// OptionsEventInput describes the common fields of option lifecycle events.
type OptionsEventInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	ObjectID   string
	Channel    string
	Metadata   map[string]any
	Path       string
	OldValue   any
	NewValue   any
	Scope      ScopeContext
	OccurredAt time.Time
}

// BuildOptionsAppliedEvent describes a store fully written to an engine.
func BuildOptionsAppliedEvent(input OptionsEventInput) Event {
	return buildOptionsEvent(VerbOptionsApplied, ObjectOptions, input)
}

// BuildOptionsApplyFailedEvent describes an aborted apply. Path and NewValue
// identify the rejected option when the engine refused a write.
func BuildOptionsApplyFailedEvent(input OptionsEventInput) Event {
	return buildOptionsEvent(VerbOptionsApplyFailed, ObjectOptions, input)
}

// BuildOptionsUpdatedEvent describes a persisted option snapshot change.
func BuildOptionsUpdatedEvent(input OptionsEventInput) Event {
	return buildOptionsEvent(VerbOptionsUpdated, ObjectOptions, input)
}

// BuildOptionsLayerAppliedEvent describes a scoped layer merged into a store.
func BuildOptionsLayerAppliedEvent(input OptionsEventInput) Event {
	return buildOptionsEvent(VerbOptionsLayerApplied, ObjectOptionsLayer, input)
}

func buildOptionsEvent(verb, objectType string, input OptionsEventInput) Event {
	metadata := cloneMap(input.Metadata)
	set := func(key string, value any) {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[key] = value
	}
	if input.Path != "" {
		set("path", input.Path)
	}
	if input.Scope.Name != "" {
		set("scope_name", input.Scope.Name)
		set("scope_priority", input.Scope.Priority)
		if input.Scope.Label != "" {
			set("scope_label", input.Scope.Label)
		}
		if len(input.Scope.Metadata) > 0 {
			set("scope_metadata", cloneMap(input.Scope.Metadata))
		}
	}
	if input.Scope.SnapshotID != "" {
		set("snapshot_id", input.Scope.SnapshotID)
	}
	if input.OldValue != nil {
		set("old_value", input.OldValue)
	}
	if input.NewValue != nil {
		set("new_value", input.NewValue)
	}

	objectID := strings.TrimSpace(input.ObjectID)
	if objectID == "" {
		objectID = strings.TrimSpace(input.Scope.SnapshotID)
	}
	if objectID == "" {
		objectID = strings.TrimSpace(input.Scope.Name)
	}
	if objectID == "" {
		objectID = objectType
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
