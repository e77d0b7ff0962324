package store_test

import (
	"context"
	"testing"

	"go-portal/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises the behaviour every backend must share.
func runStoreContract(t *testing.T, s store.Store) {
	ctx := context.Background()

	t.Run("get missing document", func(t *testing.T) {
		_, err := s.Get(ctx, "companies", "nope")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "companies", "acme", map[string]any{
			"name":  "Acme",
			"seats": 12,
			"tags":  []string{"retail", "pilot"},
		}))

		doc, err := s.Get(ctx, "companies", "acme")
		require.NoError(t, err)
		assert.Equal(t, "acme", doc.Key)
		assert.Equal(t, "Acme", doc.Data["name"])
		assert.Equal(t, float64(12), doc.Data["seats"])
		assert.Equal(t, []any{"retail", "pilot"}, doc.Data["tags"])
	})

	t.Run("set replaces instead of merging", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "companies", "acme", map[string]any{"name": "Acme Ltd"}))

		doc, err := s.Get(ctx, "companies", "acme")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"name": "Acme Ltd"}, doc.Data)
	})

	t.Run("create if absent keeps the first write", func(t *testing.T) {
		require.NoError(t, s.CreateIfAbsent(ctx, "users", "a@b.com", map[string]any{"email": "a@b.com", "name": "First"}))

		err := s.CreateIfAbsent(ctx, "users", "a@b.com", map[string]any{"email": "a@b.com", "name": "Second"})
		assert.ErrorIs(t, err, store.ErrAlreadyExists)

		doc, err := s.Get(ctx, "users", "a@b.com")
		require.NoError(t, err)
		assert.Equal(t, "First", doc.Data["name"])
	})

	t.Run("query by field", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "users", "b@b.com", map[string]any{"email": "b@b.com"}))

		docs, err := s.QueryByField(ctx, "users", "email", "b@b.com")
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "b@b.com", docs[0].Key)

		docs, err = s.QueryByField(ctx, "users", "email", "B@b.com")
		require.NoError(t, err)
		assert.Empty(t, docs)

		_, err = s.QueryByField(ctx, "users", "email') OR 1=1 --", "x")
		assert.ErrorIs(t, err, store.ErrInvalidField)
	})

	t.Run("get all is ordered by key", func(t *testing.T) {
		docs, err := s.GetAll(ctx, "users")
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "a@b.com", docs[0].Key)
		assert.Equal(t, "b@b.com", docs[1].Key)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "users", "b@b.com"))
		require.NoError(t, s.Delete(ctx, "users", "b@b.com"))

		_, err := s.Get(ctx, "users", "b@b.com")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, s.Ping(ctx))
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, store.NewMemoryStore())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	require.NoError(t, s.Set(ctx, "companies", "acme", map[string]any{"name": "Acme"}))

	doc, err := s.Get(ctx, "companies", "acme")
	require.NoError(t, err)
	doc.Data["name"] = "mutated"

	again, err := s.Get(ctx, "companies", "acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme", again.Data["name"])
}
