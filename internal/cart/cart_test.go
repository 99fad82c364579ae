package cart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillfinite/skillfinite/internal/api"
	"github.com/skillfinite/skillfinite/internal/cache"
	"github.com/skillfinite/skillfinite/internal/notify"
)

func course(id, price string) api.CourseRef {
	return api.CourseRef{ID: id, Title: "Course " + id, Price: price}
}

func TestTotals_MixedPrices(t *testing.T) {
	store := New(cache.NewMemory(), nil)
	require.NoError(t, store.AddToCart(course("a", "Free")))
	require.NoError(t, store.AddToCart(course("b", "$50")))
	require.NoError(t, store.AddToCart(course("c", "$25")))

	assert.Equal(t, 75, store.TotalPrice())
	assert.Equal(t, 375, store.DiscountedTotal())
	assert.Equal(t, 3, store.CartCount())
}

func TestAddToCart_DuplicateNotifiesOnce(t *testing.T) {
	bus := notify.NewBus()
	var got []notify.Record
	bus.Subscribe(func(r notify.Record) { got = append(got, r) })
	store := New(cache.NewMemory(), bus)

	require.NoError(t, store.AddToCart(api.CourseRef{ID: "k1", Title: "Intro", Price: "$20"}))
	err := store.AddToCart(api.CourseRef{ID: "k1", Title: "Intro", Price: "$20"})

	assert.ErrorIs(t, err, ErrAlreadyInCart)
	assert.Equal(t, 1, store.CartCount())
	require.Len(t, got, 2)
	assert.Equal(t, notify.TypeSuccess, got[0].Type)
	assert.Equal(t, notify.TypeInfo, got[1].Type)
	assert.Equal(t, "Already in cart", got[1].Title)
	assert.Contains(t, got[1].Message, "Intro")
}

func TestAddToCart_RequiresID(t *testing.T) {
	store := New(cache.NewMemory(), nil)
	assert.Error(t, store.AddToCart(api.CourseRef{Title: "no id"}))
	assert.Equal(t, 0, store.CartCount())
}

func TestPersistence_RoundTripsThroughStorage(t *testing.T) {
	stamp := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	storage := cache.NewMemory()
	store := New(storage, nil, WithClock(func() time.Time { return stamp }))
	require.NoError(t, store.AddToCart(course("a", "$10")))
	require.NoError(t, store.AddToCart(course("b", "$5")))
	require.True(t, store.RemoveFromCart("a"))
	require.False(t, store.RemoveFromCart("a"))

	restored := New(storage, nil)
	items := restored.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "b", items[0].Course.ID)
	assert.Equal(t, stamp, items[0].AddedAt)
	assert.True(t, items[0].Selected)
	assert.Equal(t, 1, items[0].Quantity)
}

func TestRestore_CorruptDataIsEmpty(t *testing.T) {
	storage := cache.NewMemory()
	storage.Set(cache.KeyCart, "{broken")
	store := New(storage, nil)
	assert.Equal(t, 0, store.CartCount())
	assert.Nil(t, store.Items())
}

func TestRestore_SkipsItemsWithoutID(t *testing.T) {
	storage := cache.NewMemory()
	storage.Set(cache.KeyCart, `[{"course":{"id":"","price":"$5"}},{"course":{"id":"x","price":"$7"},"quantity":0}]`)
	store := New(storage, nil)
	require.Equal(t, 1, store.CartCount())
	assert.Equal(t, 7, store.TotalPrice())
}

func TestRestore_KeepsOneItemPerCourse(t *testing.T) {
	storage := cache.NewMemory()
	storage.Set(cache.KeyCart, `[{"course":{"id":"k1","price":"$20"}},{"course":{"id":"k1","price":"$20"}},{"course":{"id":" k1 ","price":"$20"}}]`)
	store := New(storage, nil)

	assert.Equal(t, 1, store.CartCount())
	assert.Equal(t, 20, store.TotalPrice())
	assert.Equal(t, 100, store.DiscountedTotal())
}

func TestRestore_QuantityDoesNotScaleTotals(t *testing.T) {
	storage := cache.NewMemory()
	storage.Set(cache.KeyCart, `[{"course":{"id":"k1","price":"$20"},"quantity":3,"selected":true}]`)
	store := New(storage, nil)

	items := store.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, 20, store.TotalPrice())
	assert.Equal(t, 20, store.SelectedTotal())
}

func TestClearCart(t *testing.T) {
	storage := cache.NewMemory()
	store := New(storage, nil)
	require.NoError(t, store.AddToCart(course("a", "$10")))
	store.ClearCart()

	assert.False(t, store.IsInCart("a"))
	raw, ok := storage.Get(cache.KeyCart)
	require.True(t, ok)
	assert.Equal(t, "[]", raw)
}

func TestSelection(t *testing.T) {
	store := New(cache.NewMemory(), nil)
	require.NoError(t, store.AddToCart(course("a", "$10")))
	require.NoError(t, store.AddToCart(course("b", "$30")))

	assert.Equal(t, 40, store.SelectedTotal())
	require.True(t, store.ToggleSelected("b"))
	assert.Equal(t, 10, store.SelectedTotal())
	assert.Equal(t, 40, store.TotalPrice())
	assert.False(t, store.ToggleSelected("missing"))
}

func TestParsePrice(t *testing.T) {
	cases := map[string]int{
		"Free":   0,
		"free":   0,
		"$123":   123,
		"$1,299": 1299,
		"":       0,
		"N/A":    0,
		" $20 ":  20,
		"USD 45": 45,
		"$19.99": 1999,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParsePrice(in), in)
	}
}
