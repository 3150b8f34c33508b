package state_test

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	ffopts "github.com/goliatone/go-ffoptions"
	"github.com/goliatone/go-ffoptions/pkg/activity"
	"github.com/goliatone/go-ffoptions/pkg/state"
)

const playerCategory = ffopts.CategoryPlayer

func newSnapshot(t *testing.T, player map[string]int64) *ffopts.Store {
	t.Helper()
	keys := make([]string, 0, len(player))
	for key := range player {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	store := ffopts.New()
	for _, key := range keys {
		require.NoError(t, store.SetPlayerInt(key, player[key]))
	}
	return store
}

func seed(t *testing.T, store state.Store, domain string, scope ffopts.Scope, player map[string]int64) state.Meta {
	t.Helper()
	meta, err := store.Save(context.Background(), state.Ref{Domain: domain, Scope: scope}, newSnapshot(t, player), state.Meta{})
	require.NoError(t, err)
	return meta
}

func TestResolverResolveMergesScopes(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	system := mustScope(t, "system", "")
	device := mustScope(t, "device", "tv-1")
	user := mustScope(t, "user", "u1")

	seed(t, store, "live", system, map[string]int64{"max-fps": 30, "framedrop": 0})
	deviceMeta := seed(t, store, "live", device, map[string]int64{"max-fps": 60})

	capture := &activity.CaptureHook{}
	resolver := state.Resolver{Store: store, Hooks: activity.Hooks{capture}}
	merged, err := resolver.Resolve(ctx, "live", user, device, system)
	require.NoError(t, err)

	value, trace, err := merged.ResolveWithTrace(playerCategory, "max-fps")
	require.NoError(t, err)
	require.Equal(t, int64(60), value.Int)
	winner, ok := trace.Winner()
	require.True(t, ok)
	require.Equal(t, "device", winner.Scope.Name)
	require.Equal(t, deviceMeta.SnapshotID, winner.SnapshotID)

	framedrop, ok := merged.Get(playerCategory, "framedrop")
	require.True(t, ok)
	require.Equal(t, int64(0), framedrop.Int)

	doc, err := merged.Schema()
	require.NoError(t, err)
	require.Len(t, doc.Scopes, 2)
	require.Equal(t, []string{activity.VerbOptionsLayerApplied, activity.VerbOptionsLayerApplied}, capture.Verbs())
}

func TestResolverResolveRequiresALayer(t *testing.T) {
	resolver := state.Resolver{Store: state.NewMemoryStore()}
	_, err := resolver.Resolve(context.Background(), "live", mustScope(t, "user", "u1"))
	require.ErrorContains(t, err, "no layers found")

	_, err = state.Resolver{}.Resolve(context.Background(), "live")
	require.ErrorIs(t, err, state.ErrStoreRequired)
}

func TestResolverResolveWithDefaults(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	user := mustScope(t, "user", "u1")
	seed(t, store, "live", user, map[string]int64{"max-fps": 24})

	merged, err := state.Resolver{Store: store}.ResolveWithDefaults(ctx, "live", nil, user, mustScope(t, "tenant", "acme"))
	require.NoError(t, err)

	defaults := ffopts.DefaultOptions()
	require.Equal(t, defaults.Len(), merged.Len())
	value, _ := merged.Get(playerCategory, "max-fps")
	require.Equal(t, int64(24), value.Int)
	for i, opt := range merged.Options() {
		require.Equal(t, defaults.Options()[i].Path(), opt.Path(), "defaults fix the apply order")
	}

	scopes := merged.LayerScopes()
	require.Equal(t, "defaults", scopes[len(scopes)-1].Name)
	require.Less(t, scopes[len(scopes)-1].Priority, ffopts.ScopePriorityTenant)

	_, err = state.Resolver{Store: store}.ResolveWithDefaults(ctx, "live", nil, ffopts.NewScope("defaults", 1))
	require.ErrorContains(t, err, "reserved")
}

func TestResolverMutate(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	capture := &activity.CaptureHook{}
	resolver := state.Resolver{Store: store, Hooks: activity.Hooks{capture}}
	ref := state.Ref{Domain: "live", Scope: mustScope(t, "stream", "cam-3")}

	created, meta, err := resolver.Mutate(ctx, ref, state.Meta{}, func(s *ffopts.Store) error {
		return s.SetFormatString("rtsp_transport", "tcp")
	})
	require.NoError(t, err)
	require.Equal(t, 1, created.Len())
	require.NotEmpty(t, meta.ETag)

	_, _, err = resolver.Mutate(ctx, ref, state.Meta{ETag: "stale"}, func(*ffopts.Store) error { return nil })
	require.ErrorIs(t, err, state.ErrETagMismatch)

	updated, next, err := resolver.Mutate(ctx, ref, state.Meta{ETag: meta.ETag}, func(s *ffopts.Store) error {
		return s.SetFormatInt("stimeout", 5000000)
	})
	require.NoError(t, err)
	require.Equal(t, 2, updated.Len())
	require.NotEqual(t, meta.ETag, next.ETag)
	require.NotEqual(t, meta.SnapshotID, next.SnapshotID)

	_, trace, err := updated.ResolveWithTrace(ffopts.CategoryFormat, "stimeout")
	require.NoError(t, err)
	require.Equal(t, next.SnapshotID, trace.Layers[0].SnapshotID)

	sentinel := errors.New("refuse")
	_, _, err = resolver.Mutate(ctx, ref, state.Meta{}, func(*ffopts.Store) error { return sentinel })
	require.ErrorIs(t, err, sentinel)

	require.Equal(t, []string{activity.VerbOptionsUpdated, activity.VerbOptionsUpdated}, capture.Verbs())
}
