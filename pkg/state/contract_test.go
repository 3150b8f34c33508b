package state_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	ffopts "github.com/goliatone/go-ffoptions"
	"github.com/goliatone/go-ffoptions/pkg/state"
)

func mustScope(t *testing.T, name, id string) ffopts.Scope {
	t.Helper()
	scope, err := state.ScopeRef(name, id)
	require.NoError(t, err)
	return scope
}

func optionsOf(t *testing.T, store *ffopts.Store) []ffopts.Option {
	t.Helper()
	require.NotNil(t, store)
	return store.Options()
}

// runStoreContract exercises the behaviour every Store implementation shares.
func runStoreContract(t *testing.T, store state.Store) {
	t.Helper()
	ctx := context.Background()
	ref := state.Ref{Domain: "live", Scope: mustScope(t, "device", "ipad-7")}

	t.Run("missing snapshot", func(t *testing.T) {
		snapshot, meta, ok, err := store.Load(ctx, state.Ref{Domain: "absent", Scope: mustScope(t, "user", "u1")})
		require.NoError(t, err)
		require.False(t, ok)
		require.Nil(t, snapshot)
		require.Equal(t, state.Meta{}, meta)
	})

	t.Run("save and load keep order and types", func(t *testing.T) {
		snapshot := ffopts.New()
		require.NoError(t, snapshot.SetCodecInt("skip_loop_filter", int64(ffopts.DiscardAll)))
		require.NoError(t, snapshot.SetPlayerString("overlay-format", "fcc-i420"))
		require.NoError(t, snapshot.SetFormatInt("timeout", 30000000))

		saved, err := store.Save(ctx, ref, snapshot, state.Meta{Extra: map[string]string{"author": "ops"}})
		require.NoError(t, err)
		require.NotEmpty(t, saved.SnapshotID)
		require.NotEmpty(t, saved.ETag)
		require.False(t, saved.UpdatedAt.IsZero())

		loaded, meta, ok, err := store.Load(ctx, ref)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, snapshot.Options(), optionsOf(t, loaded))
		require.Equal(t, saved.SnapshotID, meta.SnapshotID)
		require.Equal(t, saved.ETag, meta.ETag)
		require.Equal(t, "ops", meta.Extra["author"])
	})

	t.Run("save overwrites and rotates etag", func(t *testing.T) {
		_, first, _, err := store.Load(ctx, ref)
		require.NoError(t, err)

		snapshot := ffopts.New()
		require.NoError(t, snapshot.SetPlayerInt("max-fps", 60))
		saved, err := store.Save(ctx, ref, snapshot, state.Meta{SnapshotID: "snap-explicit"})
		require.NoError(t, err)
		require.Equal(t, "snap-explicit", saved.SnapshotID)
		require.NotEqual(t, first.ETag, saved.ETag)

		loaded, _, ok, err := store.Load(ctx, ref)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, snapshot.Options(), optionsOf(t, loaded))
	})

	t.Run("invalid ref", func(t *testing.T) {
		_, _, _, err := store.Load(ctx, state.Ref{Domain: "live", Scope: ffopts.NewScope("device", 300)})
		require.Error(t, err)
		_, err = store.Save(ctx, state.Ref{Scope: mustScope(t, "system", "")}, ffopts.New(), state.Meta{})
		require.Error(t, err)
	})
	t.Run("save if honours expected etag", func(t *testing.T) {
		condRef := state.Ref{Domain: "conditional", Scope: mustScope(t, "tenant", "acme")}
		first := ffopts.New()
		require.NoError(t, first.SetPlayerInt("max-fps", 30))

		created, err := store.SaveIf(ctx, condRef, "", first, state.Meta{})
		require.NoError(t, err)

		_, err = store.SaveIf(ctx, condRef, "", first, state.Meta{})
		require.ErrorIs(t, err, state.ErrETagMismatch)

		second := ffopts.New()
		require.NoError(t, second.SetPlayerInt("max-fps", 60))
		_, err = store.SaveIf(ctx, condRef, "stale", second, state.Meta{})
		require.ErrorIs(t, err, state.ErrETagMismatch)

		loaded, meta, ok, err := store.Load(ctx, condRef)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, created.ETag, meta.ETag)
		require.Equal(t, first.Options(), optionsOf(t, loaded))

		updated, err := store.SaveIf(ctx, condRef, created.ETag, second, state.Meta{})
		require.NoError(t, err)
		require.NotEqual(t, created.ETag, updated.ETag)
	})

	t.Run("concurrent mutate keeps one writer", func(t *testing.T) {
		raceRef := state.Ref{Domain: "race", Scope: mustScope(t, "stream", "cam-1")}
		seeded, err := store.Save(ctx, raceRef, ffopts.New(), state.Meta{})
		require.NoError(t, err)

		const writers = 2
		gate := &loadBarrier{Store: store}
		gate.wg.Add(writers)
		resolver := state.Resolver{Store: gate}

		errs := make([]error, writers)
		var done sync.WaitGroup
		for i := 0; i < writers; i++ {
			done.Add(1)
			go func(i int) {
				defer done.Done()
				_, _, errs[i] = resolver.Mutate(ctx, raceRef, state.Meta{ETag: seeded.ETag}, func(s *ffopts.Store) error {
					return s.SetPlayerInt("max-fps", int64(24*(i+1)))
				})
			}(i)
		}
		done.Wait()

		var won, lost int
		for _, err := range errs {
			switch {
			case err == nil:
				won++
			case errors.Is(err, state.ErrETagMismatch):
				lost++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		require.Equal(t, 1, won)
		require.Equal(t, 1, lost)

		loaded, _, ok, err := store.Load(ctx, raceRef)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, 1, loaded.Len())
	})
}

// loadBarrier holds every Load until all expected callers have loaded, so
// their saves race on the same ETag.
type loadBarrier struct {
	state.Store
	wg sync.WaitGroup
}

func (b *loadBarrier) Load(ctx context.Context, ref state.Ref) (*ffopts.Store, state.Meta, bool, error) {
	snapshot, meta, ok, err := b.Store.Load(ctx, ref)
	b.wg.Done()
	b.wg.Wait()
	return snapshot, meta, ok, err
}
