// internal/infrastructure/persistence/redis_storage/vote_cache/service_test.go
package vote_cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewService(client, 30*time.Second), mr
}

func TestSetManyGetMany_RoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetMany(ctx, []Entry{
		{ClipID: "clip-1", VoteCount: 5, WeightedScore: 7.5},
		{ClipID: "clip-2", VoteCount: 2, WeightedScore: 2},
	}))

	got, err := c.GetMany(ctx, []string{"clip-1", "clip-2", "clip-3"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, Entry{ClipID: "clip-1", VoteCount: 5, WeightedScore: 7.5}, got["clip-1"])
	require.Equal(t, Entry{ClipID: "clip-2", VoteCount: 2, WeightedScore: 2}, got["clip-2"])
}

func TestGetMany_PartialPairIsFullMiss(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "clip-1", 5, 7.5))

	// Один ключ пары истек — клип не должен появиться в результате
	mr.Del("ws:clip-1")

	got, err := c.GetMany(ctx, []string{"clip-1"})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestSet_AppliesTTLToBothKeys(t *testing.T) {
	c, mr := newTestCache(t)

	require.NoError(t, c.Set(context.Background(), "clip-1", 1, 1))

	require.Greater(t, mr.TTL("vc:clip-1"), time.Duration(0))
	require.Greater(t, mr.TTL("ws:clip-1"), time.Duration(0))

	// Обе половины пары истекают вместе
	mr.FastForward(31 * time.Second)
	require.False(t, mr.Exists("vc:clip-1"))
	require.False(t, mr.Exists("ws:clip-1"))
}

func TestInvalidate_RemovesBothKeys(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "clip-1", 5, 7.5))
	require.NoError(t, c.Invalidate(ctx, "clip-1"))

	require.False(t, mr.Exists("vc:clip-1"))
	require.False(t, mr.Exists("ws:clip-1"))
}

func TestGetMany_EmptyInput(t *testing.T) {
	c, _ := newTestCache(t)

	got, err := c.GetMany(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, got)
}
