package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(start time.Time) (*time.Time, func() time.Time) {
	now := start
	return &now, func() time.Time { return now }
}

func TestFetchCachesWithinWindow(t *testing.T) {
	c := NewCache()
	now, clock := fixedClock(time.Now())
	c.Now = clock

	calls := 0
	fetch := func(ctx context.Context) (string, error) {
		calls++
		return "v1", nil
	}
	key := ListKey("agreements", struct{}{})

	got, err := Fetch(context.Background(), c, key, time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, "v1", got)

	*now = now.Add(30 * time.Second)
	got, err = Fetch(context.Background(), c, key, time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, "v1", got)
	assert.Equal(t, 1, calls, "second read within the window must not refetch")

	*now = now.Add(31 * time.Second)
	_, err = Fetch(context.Background(), c, key, time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "read past the window must refetch")
}

func TestFetchErrorNotCached(t *testing.T) {
	c := NewCache()
	boom := errors.New("boom")
	calls := 0
	fetch := func(ctx context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, boom
		}
		return 42, nil
	}
	key := DetailKey("agreements", "a1")

	_, err := Fetch(context.Background(), c, key, time.Minute, fetch)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())

	got, err := Fetch(context.Background(), c, key, time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestInvalidateListsMarksAllFiltersStale(t *testing.T) {
	c := NewCache()
	type filter struct {
		Status string `json:"status,omitempty"`
	}
	calls := map[Key]int{}
	fetchFor := func(key Key) func(context.Context) (string, error) {
		return func(ctx context.Context) (string, error) {
			calls[key]++
			return "data", nil
		}
	}

	all := ListKey("agreements", filter{})
	drafts := ListKey("agreements", filter{Status: "draft"})
	detail := DetailKey("agreements", "a1")
	for _, key := range []Key{all, drafts, detail} {
		_, err := Fetch(context.Background(), c, key, time.Hour, fetchFor(key))
		require.NoError(t, err)
	}

	c.InvalidateLists("agreements")

	for _, key := range []Key{all, drafts} {
		_, err := Fetch(context.Background(), c, key, time.Hour, fetchFor(key))
		require.NoError(t, err)
		assert.Equal(t, 2, calls[key], "list slot %s must refetch after invalidation", key)
	}
	_, err := Fetch(context.Background(), c, detail, time.Hour, fetchFor(detail))
	require.NoError(t, err)
	assert.Equal(t, 1, calls[detail], "detail slot must survive list invalidation")
}

func TestInvalidateResourceIncludesDetails(t *testing.T) {
	c := NewCache()
	key := DetailKey("invitations", "i1")
	calls := 0
	fetch := func(ctx context.Context) (string, error) {
		calls++
		return "x", nil
	}
	_, err := Fetch(context.Background(), c, key, time.Hour, fetch)
	require.NoError(t, err)

	c.InvalidateResource("invitations")

	_, err = Fetch(context.Background(), c, key, time.Hour, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestPutInstallsFreshValue(t *testing.T) {
	c := NewCache()
	key := DetailKey("agreements", "a1")
	c.Put(key, "written-through")

	calls := 0
	got, err := Fetch(context.Background(), c, key, time.Minute, func(ctx context.Context) (string, error) {
		calls++
		return "fetched", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "written-through", got)
	assert.Equal(t, 0, calls)
}

func TestEvictDropsSlot(t *testing.T) {
	c := NewCache()
	key := DetailKey("agreements", "a1")
	c.Put(key, 1)
	require.Equal(t, 1, c.Len())

	c.Evict(key)
	_, ok := c.Peek(key)
	assert.False(t, ok)
}

func TestInvalidateAllPurges(t *testing.T) {
	c := NewCache()
	c.Put(ListKey("agreements", struct{}{}), 1)
	c.Put(DetailKey("users", "u1"), 2)
	require.Equal(t, 2, c.Len())

	c.InvalidateAll()
	assert.Equal(t, 0, c.Len())
}

func TestListKeyValueEquality(t *testing.T) {
	type filter struct {
		Status string `json:"status,omitempty"`
		Page   int    `json:"page,omitempty"`
	}
	a := ListKey("agreements", filter{Status: "draft", Page: 2})
	b := ListKey("agreements", filter{Status: "draft", Page: 2})
	other := ListKey("agreements", filter{Status: "approved", Page: 2})
	assert.Equal(t, a, b, "equal filters must address the same slot")
	assert.NotEqual(t, a, other)
}

func TestDetailKeyDistinctFromList(t *testing.T) {
	list := ListKey("agreements", struct{}{})
	detail := DetailKey("agreements", "list")
	assert.NotEqual(t, list, detail)
}
