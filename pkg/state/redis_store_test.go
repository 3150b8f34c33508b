package state_test

import (
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-ffoptions/pkg/state"
)

func TestRedisStoreContract(t *testing.T) {
	addr := os.Getenv("FFOPTS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("FFOPTS_TEST_REDIS_ADDR not set")
	}
	store, err := state.NewRedisStore(state.RedisConfig{
		Address: addr,
		Prefix:  "ffopts-test-" + uuid.NewString(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	runStoreContract(t, store)
}
