package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/algenord/portal/storage"
	"github.com/algenord/portal/storage/storagetest"
)

func TestMemoryStore(t *testing.T) {
	storagetest.Run(t, NewStore())
}

func TestMemoryStoreTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore(WithTTL(time.Minute), WithClock(func() time.Time { return now }))

	require.NoError(t, s.Put(ctx, "redirectAfterLogin", []byte("/admin")))

	got, err := s.Get(ctx, "redirectAfterLogin")
	require.NoError(t, err)
	assert.Equal(t, "/admin", string(got))

	now = now.Add(2 * time.Minute)
	_, err = s.Get(ctx, "redirectAfterLogin")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMemoryStoreExpiryKeepsRewrite(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var (
		s       *Store
		rewrite bool
	)
	// The clock runs between Get's read and its expiry delete, which is
	// where a concurrent Put lands.
	s = NewStore(WithTTL(time.Minute), WithClock(func() time.Time {
		if rewrite {
			rewrite = false
			require.NoError(t, s.Put(ctx, "flash", []byte("fresh")))
		}
		return now
	}))

	require.NoError(t, s.Put(ctx, "flash", []byte("stale")))
	now = now.Add(2 * time.Minute)
	rewrite = true

	got, err := s.Get(ctx, "flash")
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(got))

	got, err = s.Get(ctx, "flash")
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(got))
}

func TestMemoryStoreSweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore(WithTTL(time.Minute), WithClock(func() time.Time { return now }))

	require.NoError(t, s.Put(ctx, "a", []byte("1")))
	require.NoError(t, s.Put(ctx, "b", []byte("2")))
	now = now.Add(30 * time.Second)
	require.NoError(t, s.Put(ctx, "c", []byte("3")))

	now = now.Add(45 * time.Second)
	assert.Equal(t, 2, s.Sweep())

	_, err := s.Get(ctx, "c")
	assert.NoError(t, err)
}
