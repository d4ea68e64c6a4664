// internal/reconciliation/service_test.go
package reconciliation

import (
	"context"
	"testing"
	"time"

	"clip-vote-platform/internal/infrastructure/persistence/postgres/models"
	"clip-vote-platform/internal/infrastructure/persistence/redis_storage/leaderboard"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

type stubVoteRepo struct {
	slots    []models.SlotScores
	voters   []models.MemberScore
	creators []models.MemberScore
}

func (s *stubVoteRepo) RecordVote(context.Context, string, string, string, string) (bool, error) {
	return false, nil
}

func (s *stubVoteRepo) RevokeVote(context.Context, string, string) (bool, error) {
	return false, nil
}

func (s *stubVoteRepo) GetClipTotals(_ context.Context, clipID string) (*models.ClipTotals, error) {
	return &models.ClipTotals{ClipID: clipID}, nil
}

func (s *stubVoteRepo) GetManyClipTotals(context.Context, []string) ([]models.ClipTotals, error) {
	return nil, nil
}

func (s *stubVoteRepo) GetSlotClipScores(context.Context) ([]models.SlotScores, error) {
	return s.slots, nil
}

func (s *stubVoteRepo) GetVoterTotals(context.Context) ([]models.MemberScore, error) {
	return s.voters, nil
}

func (s *stubVoteRepo) GetCreatorTotals(context.Context) ([]models.MemberScore, error) {
	return s.creators, nil
}

func TestRun_OverwritesDriftedScoresFromDatabase(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	boards := leaderboard.NewService(client, false, 48*time.Hour)
	ctx := context.Background()

	// Дрейф: Redis разошелся с системой записи
	require.NoError(t, boards.UpdateClipScore(ctx, "s1", "clip-1", 1, 99))
	require.NoError(t, boards.UpdateVoterScore(ctx, "voter-1", 99))
	require.NoError(t, boards.UpdateCreatorScore(ctx, "creator-1", 99))

	repo := &stubVoteRepo{
		slots: []models.SlotScores{
			{
				SeasonID:     "s1",
				SlotPosition: 1,
				Scores: []models.MemberScore{
					{Member: "clip-1", Score: 10},
					{Member: "clip-2", Score: 20},
				},
			},
		},
		voters:   []models.MemberScore{{Member: "voter-1", Score: 4}},
		creators: []models.MemberScore{{Member: "creator-1", Score: 7}},
	}

	svc := NewService(repo, boards)
	require.NoError(t, svc.Run(ctx))

	top, err := boards.GetTop(ctx, boards.ClipKey("s1", 1), 10, 0)
	require.NoError(t, err)
	require.Equal(t, []leaderboard.Entry{
		{Member: "clip-2", Score: 20},
		{Member: "clip-1", Score: 10},
	}, top.Entries)

	voters, err := boards.GetTop(ctx, leaderboard.KeyVotersAll, 10, 0)
	require.NoError(t, err)
	require.Equal(t, []leaderboard.Entry{{Member: "voter-1", Score: 4}}, voters.Entries)

	creators, err := boards.GetTop(ctx, leaderboard.KeyCreatorsAll, 10, 0)
	require.NoError(t, err)
	require.Equal(t, []leaderboard.Entry{{Member: "creator-1", Score: 7}}, creators.Entries)
}

func TestRun_EmptyDatabaseIsNoop(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	boards := leaderboard.NewService(client, false, 48*time.Hour)
	svc := NewService(&stubVoteRepo{}, boards)

	require.NoError(t, svc.Run(context.Background()))
}
