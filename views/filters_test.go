package views

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/algenord/portal/storage"
	"github.com/algenord/portal/storage/memory"
)

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, error) { return nil, errors.New("disk gone") }
func (failingStore) Put(context.Context, string, []byte) error   { return errors.New("disk gone") }
func (failingStore) Delete(context.Context, string) error        { return errors.New("disk gone") }

func TestFilterStore(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewStore()
	fs := NewFilterStore(mem, nil)

	assert.Equal(t, Filters{}, fs.Load(ctx))

	saved := Filters{WorkType: WorkRoof, CustomerType: CustomerBusiness, SortOrder: SortOldest}
	fs.Save(ctx, saved)
	assert.Equal(t, saved, fs.Load(ctx))

	raw, err := mem.Get(ctx, FiltersKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"workType":"ROOF_CLEANING","customerType":"BUSINESS_CUSTOMER","sortOrder":"asc"}`, string(raw))

	fs.Clear(ctx)
	_, err = mem.Get(ctx, FiltersKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFilterStoreReadsNullFields(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewStore()
	require.NoError(t, mem.Put(ctx, FiltersKey, []byte(`{"workType":null,"customerType":"PRIVATE_CUSTOMER","sortOrder":"desc"}`)))

	f := NewFilterStore(mem, nil).Load(ctx)
	assert.Equal(t, Filters{CustomerType: CustomerPrivate, SortOrder: SortNewest}, f)
}

func TestFilterStoreNeverFails(t *testing.T) {
	ctx := context.Background()

	mem := memory.NewStore()
	require.NoError(t, mem.Put(ctx, FiltersKey, []byte("{not json")))
	assert.Equal(t, Filters{}, NewFilterStore(mem, nil).Load(ctx))

	broken := NewFilterStore(failingStore{}, nil)
	assert.NotPanics(t, func() {
		broken.Save(ctx, Filters{WorkType: WorkRoof})
		broken.Clear(ctx)
		assert.Equal(t, Filters{}, broken.Load(ctx))
	})

	none := NewFilterStore(nil, nil)
	none.Save(ctx, Filters{WorkType: WorkRoof})
	assert.Equal(t, Filters{}, none.Load(ctx))
}

func TestFiltersSortDefault(t *testing.T) {
	assert.Equal(t, SortNewest, Filters{}.Sort())
	assert.Equal(t, SortNewest, Filters{SortOrder: "sideways"}.Sort())
	assert.Equal(t, SortOldest, Filters{SortOrder: SortOldest}.Gateway().Sort)
}
