package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"bakeshop/pkg/catalog"
	"bakeshop/pkg/storage"
)

func newTestStore(t *testing.T) (*Store, *Repository) {
	t.Helper()
	ctx := context.Background()
	db, err := storage.Open(ctx, storage.TypeSQLite, storage.MemoryPath)
	require.NoError(t, err)
	require.NoError(t, storage.EnsureSchema(ctx, db))

	items, err := catalog.Default()
	require.NoError(t, err)

	repo := NewRepository(db)
	store := NewStore(repo, items, zaptest.NewLogger(t))
	t.Cleanup(func() {
		store.Close()
		db.Close()
	})
	return store, repo
}

func TestStoreLifecycle(t *testing.T) {
	store, repo := newTestStore(t)
	ctx := context.Background()

	c, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())

	_, err = store.Add(ctx, "s1", "1")
	require.NoError(t, err)
	c, err = store.Add(ctx, "s1", "1")
	require.NoError(t, err)
	assert.Equal(t, 2, c.ItemQuantity("1"))
	assert.Equal(t, "17.00", c.TotalPrice().StringFixed(2))

	persisted, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, persisted.ItemQuantity("1"))
	assert.Equal(t, "Sourdough Bread", persisted.Lines()[0].Name)

	c, err = store.SetQuantity(ctx, "s1", "1", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, c.ItemQuantity("1"))

	c, err = store.Remove(ctx, "s1", "1")
	require.NoError(t, err)
	assert.Equal(t, 4, c.ItemQuantity("1"))

	require.NoError(t, store.Clear(ctx, "s1"))
	persisted, err = repo.Load(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, persisted.IsEmpty())
}

func TestStoreSessionsAreIsolated(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx, "a", "c1")
	require.NoError(t, err)

	other, err := store.Get(ctx, "b")
	require.NoError(t, err)
	assert.True(t, other.IsEmpty())
}

func TestStoreAddUnknownItem(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Add(context.Background(), "s1", "nope")
	assert.True(t, errors.Is(err, catalog.ErrNotFound))
}

func TestStoreSetQuantityOnAbsentItemDoesNotCreateLine(t *testing.T) {
	store, _ := newTestStore(t)
	c, err := store.SetQuantity(context.Background(), "s1", "1", 3)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestStoreSerializesConcurrentAdds(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Add(ctx, "busy", "k1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	c, err := store.Get(ctx, "busy")
	require.NoError(t, err)
	assert.Equal(t, 20, c.ItemQuantity("k1"))
}

func TestStoreHonorsCanceledContext(t *testing.T) {
	store, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := store.Get(ctx, "s1")
	assert.Error(t, err)
}

func TestStoreCloseStopsGoroutine(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx := context.Background()
	db, err := storage.Open(ctx, storage.TypeSQLite, storage.MemoryPath)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, storage.EnsureSchema(ctx, db))
	items, err := catalog.Default()
	require.NoError(t, err)

	store := NewStore(NewRepository(db), items, nil)
	_, err = store.Add(ctx, "s1", "2")
	require.NoError(t, err)
	store.Close()
}
