// Package tests holds reusable contract suites for ports implementations.
package tests

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id string, version uint64) *domain.FlowRecord {
	return &domain.FlowRecord{
		ID:        id,
		Name:      "flow " + id,
		Owner:     "ops",
		Version:   version,
		Document:  json.RawMessage(`{"nodes":[],"edges":[]}`),
		UpdatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

// FlowStoreContractTest verifies that a store complies with ports.FlowStore.
// The store must start empty.
func FlowStoreContractTest(t *testing.T, store ports.FlowStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("Save and Load", func(t *testing.T) {
		rec := record("contract-a", 3)
		require.NoError(t, store.Save(ctx, rec))

		loaded, err := store.Load(ctx, "contract-a")
		require.NoError(t, err)
		assert.Equal(t, rec.ID, loaded.ID)
		assert.Equal(t, rec.Name, loaded.Name)
		assert.Equal(t, rec.Owner, loaded.Owner)
		assert.Equal(t, rec.Version, loaded.Version)
		assert.JSONEq(t, string(rec.Document), string(loaded.Document))
		assert.True(t, rec.UpdatedAt.Equal(loaded.UpdatedAt))
	})

	t.Run("Save Replaces", func(t *testing.T) {
		rec := record("contract-b", 1)
		require.NoError(t, store.Save(ctx, rec))
		rec.Version = 2
		rec.Document = json.RawMessage(`{"nodes":[],"edges":[],"start":"x"}`)
		require.NoError(t, store.Save(ctx, rec))

		loaded, err := store.Load(ctx, "contract-b")
		require.NoError(t, err)
		assert.Equal(t, uint64(2), loaded.Version)
		assert.Contains(t, string(loaded.Document), `"start"`)
	})

	t.Run("Load Returns Copy", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, record("contract-c", 1)))
		loaded, err := store.Load(ctx, "contract-c")
		require.NoError(t, err)
		loaded.Name = "mutated"
		loaded.Document[0] = ' '

		again, err := store.Load(ctx, "contract-c")
		require.NoError(t, err)
		assert.Equal(t, "flow contract-c", again.Name)
		assert.Equal(t, byte('{'), again.Document[0])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "contract-missing")
		assert.ErrorIs(t, err, domain.ErrFlowNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, record("contract-d", 1)))
		require.NoError(t, store.Delete(ctx, "contract-d"))
		_, err := store.Load(ctx, "contract-d")
		assert.ErrorIs(t, err, domain.ErrFlowNotFound)

		assert.NoError(t, store.Delete(ctx, "contract-d"), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, record("contract-z", 1)))
		require.NoError(t, store.Save(ctx, record("contract-e", 1)))

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, "contract-z")
		assert.Contains(t, ids, "contract-e")
		assert.NotContains(t, ids, "contract-d")
		assert.IsIncreasing(t, ids)
	})

	t.Run("Concurrent Saves", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(v uint64) {
				defer wg.Done()
				assert.NoError(t, store.Save(ctx, record("contract-f", v)))
			}(uint64(i))
		}
		wg.Wait()
		_, err := store.Load(ctx, "contract-f")
		assert.NoError(t, err)
	})
}

// LockerContractTest verifies mutual exclusion of a ports.DistributedLocker.
func LockerContractTest(t *testing.T, locker ports.DistributedLocker) {
	t.Helper()
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "flow-1", 5*time.Second)
	require.NoError(t, err)

	blocked, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(blocked, "flow-1", 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	other, err := locker.Lock(ctx, "flow-2", 5*time.Second)
	require.NoError(t, err, "different keys do not contend")
	require.NoError(t, other(ctx))

	require.NoError(t, unlock(ctx))
	again, err := locker.Lock(ctx, "flow-1", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}
