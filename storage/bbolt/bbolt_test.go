package bbolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/algenord/portal/storage/storagetest"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "portal-test.db")
	s, err := NewStoreFromFile(path, nil)
	require.NoError(t, err)
	return s, path
}

func TestBBoltStore(t *testing.T) {
	s, _ := newTestStore(t)
	defer s.Close()
	storagetest.Run(t, s)
}

func TestBBoltStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStore(t)
	require.NoError(t, s.Put(ctx, "client-9:jwt_token", []byte("h.p.s")))
	require.NoError(t, s.Close())

	reopened, err := NewStoreFromFile(path, nil)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "client-9:jwt_token")
	require.NoError(t, err)
	assert.Equal(t, "h.p.s", string(got))
}
