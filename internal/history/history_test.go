package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/celerix-dev/celerix-pantry/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore() *schema.UserStore {
	return &schema.UserStore{
		Current: schema.NewAppData([]schema.Product{
			{ID: "P1", Name: "Fish Oil", DefaultPrice: 30, Currency: schema.CurrencyAUD},
		}),
	}
}

func TestCapture_TwiceWithoutMutation(t *testing.T) {
	store := newStore()
	h := New(store)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	first := h.Capture("first", "build-1", now)
	second := h.Capture("second", "build-1", now.Add(time.Minute))

	assert.Equal(t, "v1.0.1", first.VersionTag)
	assert.Equal(t, "v1.0.2", second.VersionTag)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Data, second.Data)
	assert.Equal(t, 2, store.VersionCounter)
	require.Len(t, store.History, 2)
	assert.Equal(t, second.ID, store.History[0].ID, "newest first")
}

func TestCapture_EvictsOldest(t *testing.T) {
	store := newStore()
	h := New(store)
	now := time.Now()

	for i := 1; i <= MaxVersions+1; i++ {
		h.Capture(fmt.Sprintf("snap %d", i), "build-1", now)
	}

	assert.Len(t, store.History, MaxVersions)
	assert.Equal(t, MaxVersions+1, store.VersionCounter)
	assert.Equal(t, "v1.0.11", store.History[0].VersionTag)
	assert.Equal(t, "v1.0.2", store.History[MaxVersions-1].VersionTag)
	_, err := h.Find("v1.0.1")
	assert.ErrorIs(t, err, ErrVersionNotFound)

	next := h.Capture("after eviction", "build-1", now)
	assert.Equal(t, "v1.0.12", next.VersionTag, "counter is never reused")
}

func TestCapture_IsolatedFromLiveData(t *testing.T) {
	store := newStore()
	h := New(store)
	v := h.Capture("before", "build-1", time.Now())

	item := store.Current.Inventory["P1"]
	item.StockQuantity = 9
	store.Current.Inventory["P1"] = item
	store.Current.Transactions = append(store.Current.Transactions, schema.Transaction{ID: "t1"})

	assert.Equal(t, 0, store.History[0].Data.Inventory["P1"].StockQuantity)
	assert.Empty(t, store.History[0].Data.Transactions)
	assert.Equal(t, 0, v.Data.Inventory["P1"].StockQuantity)
}

func TestRestore_NoAliasing(t *testing.T) {
	store := newStore()
	h := New(store)
	v := h.Capture("baseline", "build-1", time.Now())

	item := store.Current.Inventory["P1"]
	item.StockQuantity = 4
	store.Current.Inventory["P1"] = item

	restored := h.Restore(v)
	assert.Equal(t, v.Data, restored)
	assert.Equal(t, v.Data, store.Current)

	item = store.Current.Inventory["P1"]
	item.StockQuantity = 100
	store.Current.Inventory["P1"] = item
	delete(store.Current.Inventory, "P1")

	assert.Equal(t, 0, v.Data.Inventory["P1"].StockQuantity)
	assert.Equal(t, 0, store.History[0].Data.Inventory["P1"].StockQuantity)
}

func TestFind(t *testing.T) {
	store := newStore()
	h := New(store)
	v := h.Capture("one", "build-7", time.Now())

	byTag, err := h.Find(v.VersionTag)
	require.NoError(t, err)
	assert.Equal(t, v.ID, byTag.ID)

	byID, err := h.Find(v.ID)
	require.NoError(t, err)
	assert.Equal(t, "build-7", byID.CodeVersion)

	assert.Len(t, h.List(), 1)
}
