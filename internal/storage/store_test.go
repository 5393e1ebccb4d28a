package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func runStoreContract(t *testing.T, s Store) {
	ctx := context.Background()
	key := "reports:" + uuid.NewString() + ":1"

	_, ok, err := s.Get(ctx, key)
	require.NoError(t, err)
	require.False(t, ok, "absent key should report ok=false")

	require.NoError(t, s.Set(ctx, key, `[{"id":"a"}]`))
	v, ok, err := s.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `[{"id":"a"}]`, v)

	require.NoError(t, s.Set(ctx, key, `[]`))
	v, ok, err = s.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `[]`, v, "second write should replace the value")

	require.NoError(t, s.Remove(ctx, key))
	_, ok, err = s.Get(ctx, key)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Remove(ctx, key), "removing an absent key is not an error")
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func TestSQLiteStore_InMemory(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer s.Close()

	runStoreContract(t, s)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "token", "abc"))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get(ctx, "token")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "abc", v)
}

func TestSQLiteStore_KeysAreIndependent(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "reports:u1:1", "one"))
	require.NoError(t, s.Set(ctx, "reports:u1:2", "two"))
	require.NoError(t, s.Set(ctx, "reports:u2:1", "three"))

	for key, want := range map[string]string{
		"reports:u1:1": "one",
		"reports:u1:2": "two",
		"reports:u2:1": "three",
	} {
		v, ok, err := s.Get(ctx, key)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, want, v, key)
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDRESS")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDRESS not set")
	}
	s, err := NewRedisStore(context.Background(), addr, "", 0)
	require.NoError(t, err)
	defer s.Close()

	runStoreContract(t, s)
}

func TestCouchStore(t *testing.T) {
	url := os.Getenv("COUCHDB_TEST_URL")
	if url == "" {
		t.Skip("COUCHDB_TEST_URL not set")
	}
	s, err := NewCouchStore(context.Background(), url, "fieldsync_test")
	require.NoError(t, err)
	defer s.Close()

	runStoreContract(t, s)
}
