// internal/infrastructure/persistence/redis_storage/leaderboard/service_test.go
package leaderboard

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, legacy bool) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewService(client, legacy, 48*time.Hour), mr
}

func TestClipKey_Schemes(t *testing.T) {
	namespaced, _ := newTestStore(t, false)
	require.Equal(t, "leaderboard:clips:season-1:3", namespaced.ClipKey("season-1", 3))

	legacy, _ := newTestStore(t, true)
	require.Equal(t, "leaderboard:clips:3", legacy.ClipKey("season-1", 3))
}

func TestGetTopAndGetRank_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t, false)
	ctx := context.Background()

	require.NoError(t, s.UpdateClipScore(ctx, "s1", "a", 1, 10))
	require.NoError(t, s.UpdateClipScore(ctx, "s1", "b", 1, 30))
	require.NoError(t, s.UpdateClipScore(ctx, "s1", "c", 1, 20))

	key := s.ClipKey("s1", 1)

	top, err := s.GetTop(ctx, key, 2, 0)
	require.NoError(t, err)
	require.Equal(t, int64(3), top.Total)
	require.Equal(t, []Entry{{Member: "b", Score: 30}, {Member: "c", Score: 20}}, top.Entries)

	// Страница со смещением
	page, err := s.GetTop(ctx, key, 2, 2)
	require.NoError(t, err)
	require.Equal(t, []Entry{{Member: "a", Score: 10}}, page.Entries)

	rank, ok, err := s.GetRank(ctx, key, "a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(3), rank)

	_, ok, err = s.GetRank(ctx, key, "missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGetTop_EmptyBoardIsNotAnError(t *testing.T) {
	s, _ := newTestStore(t, false)

	top, err := s.GetTop(context.Background(), s.ClipKey("s1", 9), 10, 0)
	require.NoError(t, err)
	require.Empty(t, top.Entries)
	require.Zero(t, top.Total)
}

func TestUpdateClipScore_AbsoluteAndIdempotent(t *testing.T) {
	s, _ := newTestStore(t, false)
	ctx := context.Background()

	require.NoError(t, s.UpdateClipScore(ctx, "s1", "a", 1, 5))
	require.NoError(t, s.UpdateClipScore(ctx, "s1", "a", 1, 5))

	top, err := s.GetTop(ctx, s.ClipKey("s1", 1), 10, 0)
	require.NoError(t, err)
	require.Equal(t, []Entry{{Member: "a", Score: 5}}, top.Entries)
}

func TestUpdateVoterScore_IncrementsBothSetsWithDailyTTL(t *testing.T) {
	s, mr := newTestStore(t, false)
	ctx := context.Background()

	require.NoError(t, s.UpdateVoterScore(ctx, "voter-1", 1))
	require.NoError(t, s.UpdateVoterScore(ctx, "voter-1", 3))

	top, err := s.GetTop(ctx, KeyVotersAll, 10, 0)
	require.NoError(t, err)
	require.Equal(t, []Entry{{Member: "voter-1", Score: 4}}, top.Entries)

	dailyKey := s.DailyVoterKey(time.Now())
	daily, err := s.GetTop(ctx, dailyKey, 10, 0)
	require.NoError(t, err)
	require.Equal(t, []Entry{{Member: "voter-1", Score: 4}}, daily.Entries)

	// Дневной сет истекает сам, all-time живет вечно
	require.Greater(t, mr.TTL(dailyKey), time.Duration(0))
	require.Zero(t, mr.TTL(KeyVotersAll))
}

func TestUpdateCreatorScore_Accumulates(t *testing.T) {
	s, _ := newTestStore(t, false)
	ctx := context.Background()

	require.NoError(t, s.UpdateCreatorScore(ctx, "creator-1", 1))
	require.NoError(t, s.UpdateCreatorScore(ctx, "creator-1", 1))

	rank, ok, err := s.GetRank(ctx, KeyCreatorsAll, "creator-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(1), rank)
}

func TestBatchUpdateClipScores_OverwritesDrift(t *testing.T) {
	s, _ := newTestStore(t, false)
	ctx := context.Background()

	// Накопленный дрейф инкрементов
	require.NoError(t, s.UpdateClipScore(ctx, "s1", "a", 1, 99))

	require.NoError(t, s.BatchUpdateClipScores(ctx, "s1", 1, []Entry{
		{Member: "a", Score: 10},
		{Member: "b", Score: 20},
	}))

	top, err := s.GetTop(ctx, s.ClipKey("s1", 1), 10, 0)
	require.NoError(t, err)
	require.Equal(t, []Entry{{Member: "b", Score: 20}, {Member: "a", Score: 10}}, top.Entries)
}

func TestClearSlot_RemovesWholeBoard(t *testing.T) {
	s, mr := newTestStore(t, false)
	ctx := context.Background()

	require.NoError(t, s.UpdateClipScore(ctx, "s1", "a", 1, 5))
	require.NoError(t, s.ClearSlot(ctx, "s1", 1))

	require.False(t, mr.Exists(s.ClipKey("s1", 1)))
}
