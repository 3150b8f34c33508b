package state

import (
	"context"
	"fmt"

	ffopts "github.com/goliatone/go-ffoptions"
	"github.com/goliatone/go-ffoptions/pkg/activity"
)

// Resolver loads scoped snapshots and merges them into a single store.
type Resolver struct {
	Store Store
	// Hooks receive options.layer.applied for every loaded layer and
	// options.updated after Mutate saves.
	Hooks activity.Hooks
	// Options configure every store the resolver returns.
	Options []ffopts.StoreOption
}

// Resolve merges the snapshots stored for scopes. Scopes without a snapshot
// are skipped; at least one must exist.
func (r Resolver) Resolve(ctx context.Context, domain string, scopes ...ffopts.Scope) (*ffopts.Store, error) {
	if r.Store == nil {
		return nil, ErrStoreRequired
	}
	if domain == "" {
		return nil, fmt.Errorf("state: domain is required")
	}
	if len(scopes) == 0 {
		return nil, fmt.Errorf("state: at least one scope is required")
	}

	layers, err := r.loadLayers(ctx, domain, scopes)
	if err != nil {
		return nil, err
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("state: no layers found for domain %q", domain)
	}
	return r.merge(layers)
}

// ResolveWithDefaults behaves like Resolve with defaults as the weakest
// layer, so it succeeds even when no scope has a snapshot. A nil defaults
// store means ffopts.DefaultOptions().
func (r Resolver) ResolveWithDefaults(ctx context.Context, domain string, defaults *ffopts.Store, scopes ...ffopts.Scope) (*ffopts.Store, error) {
	if r.Store == nil {
		return nil, ErrStoreRequired
	}
	if domain == "" {
		return nil, fmt.Errorf("state: domain is required")
	}
	if defaults == nil {
		defaults = ffopts.DefaultOptions()
	}

	prioritySet := make(map[int]struct{}, len(scopes)+1)
	minPriority := 0
	if len(scopes) > 0 {
		minPriority = scopes[0].Priority
	}
	for _, scope := range scopes {
		if scope.Name == "defaults" {
			return nil, fmt.Errorf("state: scope name %q is reserved", "defaults")
		}
		prioritySet[scope.Priority] = struct{}{}
		if scope.Priority < minPriority {
			minPriority = scope.Priority
		}
	}

	defaultsPriority := 0
	if len(scopes) > 0 {
		defaultsPriority = minPriority - 1
		for {
			if _, ok := prioritySet[defaultsPriority]; !ok {
				break
			}
			defaultsPriority--
		}
	}

	layers, err := r.loadLayers(ctx, domain, scopes)
	if err != nil {
		return nil, err
	}
	defaultsScope := ffopts.NewScope("defaults", defaultsPriority, ffopts.WithScopeLabel("Defaults"))
	layers = append(layers, ffopts.NewLayer(defaultsScope, defaults))
	return r.merge(layers)
}

// Mutate loads the snapshot for ref (an empty store when none exists), checks
// meta.ETag against the stored one, applies fn and saves the result only if
// the stored ETag is still the one loaded. Concurrent writers that lose the
// race get ErrETagMismatch. The returned store holds only the saved layer.
func (r Resolver) Mutate(ctx context.Context, ref Ref, meta Meta, fn Mutator) (*ffopts.Store, Meta, error) {
	if r.Store == nil {
		return nil, Meta{}, ErrStoreRequired
	}
	if ref.Domain == "" {
		return nil, Meta{}, fmt.Errorf("state: domain is required")
	}
	if ref.Scope.Name == "" {
		return nil, Meta{}, fmt.Errorf("state: scope name is required")
	}
	if fn == nil {
		return nil, Meta{}, fmt.Errorf("state: mutator is required")
	}

	snapshot, loadedMeta, ok, err := r.Store.Load(ctx, ref)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("state: load %q for scope %q: %w", ref.Domain, ref.Scope.Name, err)
	}
	if !ok || snapshot == nil {
		snapshot = ffopts.New()
		loadedMeta = Meta{}
	}

	if meta.ETag != "" && meta.ETag != loadedMeta.ETag {
		return nil, loadedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loadedMeta.ETag)
	}

	before := snapshot.Map()
	if err := fn(snapshot); err != nil {
		return nil, loadedMeta, err
	}

	// A saved snapshot is a new version: it never reuses the loaded id.
	saveMeta := mergeMeta(Meta{Extra: loadedMeta.Extra}, meta)
	savedMeta, err := r.Store.SaveIf(ctx, ref, loadedMeta.ETag, snapshot, saveMeta)
	if err != nil {
		return nil, loadedMeta, fmt.Errorf("state: save %q for scope %q: %w", ref.Domain, ref.Scope.Name, err)
	}

	layer := ffopts.NewLayer(ref.Scope, snapshot, ffopts.WithSnapshotID(savedMeta.SnapshotID))
	merged, err := r.merge([]ffopts.Layer{layer})
	if err != nil {
		return nil, loadedMeta, err
	}

	_ = r.emit(ctx, activity.BuildOptionsUpdatedEvent(activity.OptionsEventInput{
		Scope:    scopeContext(ref.Scope, savedMeta.SnapshotID),
		OldValue: before,
		NewValue: snapshot.Map(),
		Metadata: map[string]any{"domain": ref.Domain, "etag": savedMeta.ETag},
	}))
	return merged, savedMeta, nil
}

func (r Resolver) loadLayers(ctx context.Context, domain string, scopes []ffopts.Scope) ([]ffopts.Layer, error) {
	layers := make([]ffopts.Layer, 0, len(scopes)+1)
	for _, scope := range scopes {
		snapshot, meta, ok, err := r.Store.Load(ctx, Ref{Domain: domain, Scope: scope})
		if err != nil {
			return nil, fmt.Errorf("state: load %q for scope %q: %w", domain, scope.Name, err)
		}
		if !ok {
			continue
		}
		layers = append(layers, ffopts.NewLayer(scope, snapshot, ffopts.WithSnapshotID(meta.SnapshotID)))
		_ = r.emit(ctx, activity.BuildOptionsLayerAppliedEvent(activity.OptionsEventInput{
			Scope:    scopeContext(scope, meta.SnapshotID),
			Metadata: map[string]any{"domain": domain, "options": snapshot.Len()},
		}))
	}
	return layers, nil
}

func (r Resolver) merge(layers []ffopts.Layer) (*ffopts.Store, error) {
	stack, err := ffopts.NewStack(layers...)
	if err != nil {
		return nil, fmt.Errorf("state: stack: %w", err)
	}
	opts := append([]ffopts.StoreOption{ffopts.WithScopeSchema(true)}, r.Options...)
	return stack.Merge(opts...)
}

func (r Resolver) emit(ctx context.Context, event activity.Event) error {
	if !r.Hooks.Enabled() {
		return nil
	}
	emitter := activity.NewEmitter(r.Hooks, activity.Config{
		Enabled:  true,
		Metadata: map[string]any{"source": "state.resolver"},
	})
	return emitter.Emit(ctx, event)
}

func scopeContext(scope ffopts.Scope, snapshotID string) activity.ScopeContext {
	return activity.ScopeContext{
		Name:       scope.Name,
		Label:      scope.Label,
		Priority:   scope.Priority,
		Metadata:   scope.Metadata,
		SnapshotID: snapshotID,
	}
}
