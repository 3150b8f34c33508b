package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	ffopts "github.com/goliatone/go-ffoptions"
)

var ErrETagMismatch = errors.New("state: etag mismatch")

// ErrStoreRequired is returned by Resolver methods when no Store is set.
var ErrStoreRequired = errors.New("state: store is required")

// Ref identifies one persisted snapshot for one options domain.
type Ref struct {
	Domain string
	Scope  ffopts.Scope
}

// Meta is storage-owned metadata used for trace, audit and concurrency
// control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads and saves one snapshot for a single scope reference. Save
// returns the metadata actually stored; implementations assign a fresh ETag
// on every save and a SnapshotID when the caller leaves it empty.
//
// SaveIf saves only when the stored ETag still equals expected. An empty
// expected means no snapshot may exist yet. A lost race returns an error
// wrapping ErrETagMismatch and leaves the stored snapshot untouched.
type Store interface {
	Load(ctx context.Context, ref Ref) (snapshot *ffopts.Store, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, snapshot *ffopts.Store, meta Meta) (Meta, error)
	SaveIf(ctx context.Context, ref Ref, expected string, snapshot *ffopts.Store, meta Meta) (Meta, error)
}

// Mutator edits a loaded snapshot in place.
type Mutator func(*ffopts.Store) error

var scopedNames = map[string]struct{}{
	"tenant": {},
	"device": {},
	"stream": {},
	"user":   {},
}

// Identifier returns the canonical storage key for r.
func (r Ref) Identifier() (string, error) {
	if r.Domain == "" {
		return "", fmt.Errorf("state: domain is required")
	}
	if r.Scope.Name == "system" {
		return fmt.Sprintf("system/%s", r.Domain), nil
	}
	if _, ok := scopedNames[r.Scope.Name]; !ok {
		return "", fmt.Errorf("unsupported scope name %q", r.Scope.Name)
	}
	metadataKey := r.Scope.Name + "_id"
	id, ok := r.Scope.Metadata[metadataKey].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("missing metadata key %q for scope %q", metadataKey, r.Scope.Name)
	}
	return fmt.Sprintf("%s/%s/%s", r.Scope.Name, id, r.Domain), nil
}

// ScopeRef builds the scope for name with the recommended priority and the
// "<name>_id" metadata entry set to id. The system scope ignores id.
func ScopeRef(name, id string) (ffopts.Scope, error) {
	switch name {
	case "system":
		return ffopts.NewScope(name, ffopts.ScopePrioritySystem, ffopts.WithScopeLabel("System Defaults")), nil
	case "tenant":
		return scopeWithID(name, "Tenant", ffopts.ScopePriorityTenant, id)
	case "device":
		return scopeWithID(name, "Device Profile", ffopts.ScopePriorityDevice, id)
	case "stream":
		return scopeWithID(name, "Stream", ffopts.ScopePriorityStream, id)
	case "user":
		return scopeWithID(name, "User", ffopts.ScopePriorityUser, id)
	default:
		return ffopts.Scope{}, fmt.Errorf("unsupported scope name %q", name)
	}
}

// ParseScopeRef parses the "name:id" form used by the CLI and HTTP API, e.g.
// "tenant:acme". "system" needs no id.
func ParseScopeRef(raw string) (ffopts.Scope, error) {
	name, id, _ := strings.Cut(strings.TrimSpace(raw), ":")
	return ScopeRef(name, id)
}

func scopeWithID(name, label string, priority int, id string) (ffopts.Scope, error) {
	if id == "" {
		return ffopts.Scope{}, fmt.Errorf("scope %q requires an id", name)
	}
	return ffopts.NewScope(name, priority,
		ffopts.WithScopeLabel(label),
		ffopts.WithScopeMetadata(map[string]any{name + "_id": id}),
	), nil
}

func etagConflict(key, expected, current string) error {
	return fmt.Errorf("%w: %s: expected %q, got %q", ErrETagMismatch, key, expected, current)
}

// stampMeta prepares meta for storage.
func stampMeta(meta Meta, now time.Time) Meta {
	out := cloneMeta(meta)
	if out.SnapshotID == "" {
		out.SnapshotID = uuid.NewString()
	}
	out.ETag = uuid.NewString()
	if out.UpdatedAt.IsZero() {
		out.UpdatedAt = now.UTC()
	}
	return out
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.SnapshotID != "" {
		out.SnapshotID = override.SnapshotID
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}

func cloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra == nil {
		return out
	}
	out.Extra = make(map[string]string, len(meta.Extra))
	for k, v := range meta.Extra {
		out.Extra[k] = v
	}
	return out
}
