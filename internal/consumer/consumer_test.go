// internal/consumer/consumer_test.go
package consumer

import (
	"context"
	"errors"
	"testing"
	"time"

	"clip-vote-platform/internal/infrastructure/lock"
	"clip-vote-platform/internal/infrastructure/persistence/postgres/models"
	"clip-vote-platform/internal/infrastructure/persistence/redis_storage/event_queue"
	"clip-vote-platform/internal/infrastructure/persistence/redis_storage/leaderboard"
	"clip-vote-platform/internal/infrastructure/persistence/redis_storage/vote_cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

type recordedVote struct {
	eventID  string
	clipID   string
	voterKey string
	voteType string
}

type stubVoteRepo struct {
	recorded []recordedVote
	revoked  []string
	totals   map[string]*models.ClipTotals
}

func (s *stubVoteRepo) RecordVote(_ context.Context, eventID, clipID, voterKey, voteType string) (bool, error) {
	for _, v := range s.recorded {
		if v.eventID == eventID {
			return false, nil
		}
	}
	s.recorded = append(s.recorded, recordedVote{eventID, clipID, voterKey, voteType})
	return true, nil
}

func (s *stubVoteRepo) RevokeVote(_ context.Context, clipID, _ string) (bool, error) {
	s.revoked = append(s.revoked, clipID)
	return true, nil
}

func (s *stubVoteRepo) GetClipTotals(_ context.Context, clipID string) (*models.ClipTotals, error) {
	if t, ok := s.totals[clipID]; ok {
		return t, nil
	}
	return &models.ClipTotals{ClipID: clipID}, nil
}

func (s *stubVoteRepo) GetManyClipTotals(context.Context, []string) ([]models.ClipTotals, error) {
	return nil, nil
}

func (s *stubVoteRepo) GetSlotClipScores(context.Context) ([]models.SlotScores, error) {
	return nil, nil
}

func (s *stubVoteRepo) GetVoterTotals(context.Context) ([]models.MemberScore, error) {
	return nil, nil
}

func (s *stubVoteRepo) GetCreatorTotals(context.Context) ([]models.MemberScore, error) {
	return nil, nil
}

type commentCall struct {
	op        string
	commentID string
	actorKey  string
}

type stubCommentRepo struct {
	calls []commentCall
}

func (s *stubCommentRepo) CreateComment(_ context.Context, _, commentID, _, _, authorKey, _ string) (bool, error) {
	s.calls = append(s.calls, commentCall{"create", commentID, authorKey})
	return true, nil
}

func (s *stubCommentRepo) LikeComment(_ context.Context, _, commentID, actorKey string) (bool, error) {
	s.calls = append(s.calls, commentCall{"like", commentID, actorKey})
	return true, nil
}

func (s *stubCommentRepo) UnlikeComment(_ context.Context, commentID, actorKey string) (bool, error) {
	s.calls = append(s.calls, commentCall{"unlike", commentID, actorKey})
	return true, nil
}

func (s *stubCommentRepo) DeleteComment(_ context.Context, commentID string) (bool, error) {
	s.calls = append(s.calls, commentCall{"delete", commentID, ""})
	return true, nil
}

func (s *stubCommentRepo) FindByID(context.Context, string) (*models.Comment, error) {
	return nil, nil
}

type voteFixture struct {
	mr     *miniredis.Miniredis
	client *redis.Client
	queue  *event_queue.Service
	repo   *stubVoteRepo
	boards *leaderboard.Service
	cache  *vote_cache.Service
	cons   *VoteConsumer
}

func newVoteFixture(t *testing.T) *voteFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	queue := event_queue.NewService(client, "vote_queue", 0)
	repo := &stubVoteRepo{totals: map[string]*models.ClipTotals{}}
	boards := leaderboard.NewService(client, false, 48*time.Hour)
	cache := vote_cache.NewService(client, 30*time.Second)
	lease := lock.NewLease(client, "vote_queue", 30*time.Second)

	return &voteFixture{
		mr:     mr,
		client: client,
		queue:  queue,
		repo:   repo,
		boards: boards,
		cache:  cache,
		cons:   NewVoteConsumer(queue, lease, repo, boards, cache, 50),
	}
}

func voteEvent(action string) *event_queue.Event {
	return event_queue.NewEvent("clip-1", "voter-1", action, map[string]interface{}{
		"seasonId":     "s1",
		"slotPosition": float64(2),
		"creatorKey":   "creator-1",
	})
}

func TestVoteConsumer_AppliesVoteEndToEnd(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()

	f.repo.totals["clip-1"] = &models.ClipTotals{ClipID: "clip-1", VoteCount: 1, WeightedScore: 1}
	require.NoError(t, f.queue.Push(ctx, voteEvent(event_queue.ActionVote)))

	require.NoError(t, f.cons.RunOnce(ctx))

	// БД получила голос
	require.Len(t, f.repo.recorded, 1)
	require.Equal(t, "clip-1", f.repo.recorded[0].clipID)
	require.Equal(t, models.VoteTypeRegular, f.repo.recorded[0].voteType)

	// Очередь пуста: батч подтвержден
	health, err := f.queue.Health(ctx)
	require.NoError(t, err)
	require.Zero(t, health.PendingCount)
	require.Zero(t, health.ProcessingCount)

	// Проекции обновлены
	top, err := f.boards.GetTop(ctx, f.boards.ClipKey("s1", 2), 10, 0)
	require.NoError(t, err)
	require.Equal(t, []leaderboard.Entry{{Member: "clip-1", Score: 1}}, top.Entries)

	rank, ok, err := f.boards.GetRank(ctx, leaderboard.KeyVotersAll, "voter-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(1), rank)

	rank, ok, err = f.boards.GetRank(ctx, leaderboard.KeyCreatorsAll, "creator-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(1), rank)

	cached, err := f.cache.GetMany(ctx, []string{"clip-1"})
	require.NoError(t, err)
	require.Equal(t, vote_cache.Entry{ClipID: "clip-1", VoteCount: 1, WeightedScore: 1}, cached["clip-1"])
}

func TestVoteConsumer_BoostVoteUsesBoostWeight(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()

	require.NoError(t, f.queue.Push(ctx, voteEvent(event_queue.ActionBoostVote)))
	require.NoError(t, f.cons.RunOnce(ctx))

	require.Len(t, f.repo.recorded, 1)
	require.Equal(t, models.VoteTypeBoost, f.repo.recorded[0].voteType)

	top, err := f.boards.GetTop(ctx, leaderboard.KeyVotersAll, 10, 0)
	require.NoError(t, err)
	require.Equal(t, []leaderboard.Entry{{Member: "voter-1", Score: models.BoostVoteWeight}}, top.Entries)
}

func TestVoteConsumer_UnvoteInvalidatesCache(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()

	require.NoError(t, f.cache.Set(ctx, "clip-1", 5, 5))
	require.NoError(t, f.queue.Push(ctx, voteEvent(event_queue.ActionUnvote)))

	require.NoError(t, f.cons.RunOnce(ctx))

	require.Equal(t, []string{"clip-1"}, f.repo.revoked)

	// Отзыв виден немедленно, не после истечения TTL
	cached, err := f.cache.GetMany(ctx, []string{"clip-1"})
	require.NoError(t, err)
	require.Empty(t, cached)
}

func TestVoteConsumer_FailedEventGoesToDeadLetterOthersSurvive(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()

	require.NoError(t, f.queue.Push(ctx, voteEvent("totally-unknown")))
	require.NoError(t, f.queue.Push(ctx, voteEvent(event_queue.ActionVote)))

	require.NoError(t, f.cons.RunOnce(ctx))

	// Хорошее событие обработано, плохое в dead_letter, очередь не встала
	require.Len(t, f.repo.recorded, 1)

	health, err := f.queue.Health(ctx)
	require.NoError(t, err)
	require.Zero(t, health.PendingCount)
	require.Zero(t, health.ProcessingCount)
	require.Equal(t, int64(1), health.DeadLetterCount)
}

func TestVoteConsumer_SkipsTickWhenLeaseHeldElsewhere(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()

	require.NoError(t, f.queue.Push(ctx, voteEvent(event_queue.ActionVote)))

	other := lock.NewLease(f.client, "vote_queue", 30*time.Second)
	ok, err := other.TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	defer other.Release(ctx)

	require.NoError(t, f.cons.RunOnce(ctx))

	// Тик пропущен: событие осталось нетронутым
	require.Empty(t, f.repo.recorded)
	health, err := f.queue.Health(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), health.PendingCount)
}

func TestVoteConsumer_RecoversOrphansBeforeBatch(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()

	// Предыдущий запуск упал, не подтвердив батч
	require.NoError(t, f.queue.Push(ctx, voteEvent(event_queue.ActionVote)))
	_, err := f.queue.PopBatch(ctx, 10)
	require.NoError(t, err)

	require.NoError(t, f.cons.RunOnce(ctx))

	// Сирота восстановлена и обработана тем же тиком
	require.Len(t, f.repo.recorded, 1)
	health, err := f.queue.Health(ctx)
	require.NoError(t, err)
	require.Zero(t, health.PendingCount)
	require.Zero(t, health.ProcessingCount)
}

type flakyDeadLetterQueue struct {
	event_queue.EventQueue
	failMoves bool
}

func (q *flakyDeadLetterQueue) MoveToDeadLetter(ctx context.Context, ev *event_queue.Event, errMsg string, attempts int) error {
	if q.failMoves {
		return errors.New("redis timeout")
	}
	return q.EventQueue.MoveToDeadLetter(ctx, ev, errMsg, attempts)
}

func TestVoteConsumer_BatchNotAckedWhenDeadLetterMoveFails(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	inner := event_queue.NewService(client, "vote_queue", 0)
	queue := &flakyDeadLetterQueue{EventQueue: inner, failMoves: true}
	repo := &stubVoteRepo{totals: map[string]*models.ClipTotals{}}
	boards := leaderboard.NewService(client, false, 48*time.Hour)
	cache := vote_cache.NewService(client, 30*time.Second)
	lease := lock.NewLease(client, "vote_queue", 30*time.Second)
	cons := NewVoteConsumer(queue, lease, repo, boards, cache, 50)
	ctx := context.Background()

	require.NoError(t, inner.Push(ctx, voteEvent("totally-unknown")))

	require.NoError(t, cons.RunOnce(ctx))

	// Перенос в dead_letter не удался — батч остается в processing,
	// событие не исчезает ни из одного сегмента
	health, err := inner.Health(ctx)
	require.NoError(t, err)
	require.Zero(t, health.PendingCount)
	require.Equal(t, int64(1), health.ProcessingCount)
	require.Zero(t, health.DeadLetterCount)

	// Следующий тик возвращает сироту и доводит ее до dead_letter
	queue.failMoves = false
	require.NoError(t, cons.RunOnce(ctx))

	health, err = inner.Health(ctx)
	require.NoError(t, err)
	require.Zero(t, health.PendingCount)
	require.Zero(t, health.ProcessingCount)
	require.Equal(t, int64(1), health.DeadLetterCount)
}

func TestCommentConsumer_FullScenario(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	queue := event_queue.NewService(client, "comment_queue", 0)
	repo := &stubCommentRepo{}
	lease := lock.NewLease(client, "comment_queue", 30*time.Second)
	cons := NewCommentConsumer(queue, lease, repo, 50)
	ctx := context.Background()

	create := event_queue.NewEvent("clip-1", "author-1", event_queue.ActionCreate, map[string]interface{}{
		"commentId": "comment-1",
		"body":      "nice clip",
	})
	like := event_queue.NewEvent("comment-1", "fan-1", event_queue.ActionLike, nil)
	unlike := event_queue.NewEvent("comment-1", "fan-1", event_queue.ActionUnlike, nil)
	del := event_queue.NewEvent("comment-1", "author-1", event_queue.ActionDelete, nil)

	for _, ev := range []*event_queue.Event{create, like, unlike, del} {
		require.NoError(t, queue.Push(ctx, ev))
	}

	require.NoError(t, cons.RunOnce(ctx))

	require.Equal(t, []commentCall{
		{"create", "comment-1", "author-1"},
		{"like", "comment-1", "fan-1"},
		{"unlike", "comment-1", "fan-1"},
		{"delete", "comment-1", ""},
	}, repo.calls)

	health, err := queue.Health(ctx)
	require.NoError(t, err)
	require.Zero(t, health.PendingCount)
	require.Zero(t, health.ProcessingCount)
	require.Zero(t, health.DeadLetterCount)
}

func TestCommentConsumer_CreateWithoutCommentIDDeadLetters(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	queue := event_queue.NewService(client, "comment_queue", 0)
	repo := &stubCommentRepo{}
	lease := lock.NewLease(client, "comment_queue", 30*time.Second)
	cons := NewCommentConsumer(queue, lease, repo, 50)
	ctx := context.Background()

	bad := event_queue.NewEvent("clip-1", "author-1", event_queue.ActionCreate, nil)
	require.NoError(t, queue.Push(ctx, bad))

	require.NoError(t, cons.RunOnce(ctx))

	require.Empty(t, repo.calls)
	health, err := queue.Health(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), health.DeadLetterCount)
}
