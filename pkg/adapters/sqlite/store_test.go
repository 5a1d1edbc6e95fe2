package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/ivrflow/pkg/adapters/sqlite"
	"github.com/aretw0/ivrflow/pkg/domain"
	contract "github.com/aretw0/ivrflow/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_Contract(t *testing.T) {
	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	contract.FlowStoreContractTest(t, store)
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flows.db")
	ctx := context.Background()

	store, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, &domain.FlowRecord{ID: "main", Name: "Main", Version: 4, Document: []byte(`{"nodes":[]}`)}))
	require.NoError(t, store.Close())

	store, err = sqlite.Open(path)
	require.NoError(t, err)
	defer store.Close()

	rec, err := store.Load(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, "Main", rec.Name)
	assert.Equal(t, uint64(4), rec.Version)
	assert.JSONEq(t, `{"nodes":[]}`, string(rec.Document))
}
