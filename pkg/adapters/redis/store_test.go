package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/ivrflow/pkg/adapters/redis"
	"github.com/aretw0/ivrflow/pkg/domain"
	contract "github.com/aretw0/ivrflow/pkg/ports/tests"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	contract.FlowStoreContractTest(t, redis.NewFromClient(client))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.FlowRecord{ID: "scratch", Document: []byte(`{}`)}))
	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, "scratch")

	mr.FastForward(2 * time.Second)
	_, err = store.Load(ctx, "scratch")
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)

	// The index is pruned against wall-clock time, which miniredis cannot fast-forward.
	time.Sleep(1200 * time.Millisecond)
	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.FlowRecord{ID: "main", Document: []byte(`{}`)}))
	assert.True(t, mr.Exists("custom:app:main"))
	assert.True(t, mr.Exists("custom:app:index"))
}
