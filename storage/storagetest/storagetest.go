// Package storagetest holds the behaviour suite every storage.Store
// implementation must pass.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/algenord/portal/storage"
)

// Run exercises the common Store contract against s.
func Run(t *testing.T, s storage.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("PutAndGet", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "client-1:jwt_token", []byte("a.b.c")))
		got, err := s.Get(ctx, "client-1:jwt_token")
		require.NoError(t, err)
		assert.Equal(t, []byte("a.b.c"), got)
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := s.Get(ctx, "no-such-key")
		assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "ow", []byte("v1")))
		require.NoError(t, s.Put(ctx, "ow", []byte("v2")))
		got, err := s.Get(ctx, "ow")
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), got)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "del", []byte("x")))
		require.NoError(t, s.Delete(ctx, "del"))
		_, err := s.Get(ctx, "del")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		assert.NoError(t, s.Delete(ctx, "never-existed"))
	})

	t.Run("ReturnedSliceIsACopy", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "copy", []byte("abc")))
		got, err := s.Get(ctx, "copy")
		require.NoError(t, err)
		got[0] = 'X'
		again, err := s.Get(ctx, "copy")
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), again)
	})
}
