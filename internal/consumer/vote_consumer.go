// internal/consumer/vote_consumer.go
package consumer

import (
	"context"
	"fmt"

	"clip-vote-platform/internal/infrastructure/lock"
	"clip-vote-platform/internal/infrastructure/persistence/postgres/models"
	"clip-vote-platform/internal/infrastructure/persistence/postgres/repository/vote"
	"clip-vote-platform/internal/infrastructure/persistence/redis_storage/event_queue"
	"clip-vote-platform/internal/infrastructure/persistence/redis_storage/leaderboard"
	"clip-vote-platform/internal/infrastructure/persistence/redis_storage/vote_cache"
)

// VoteConsumer обрабатывает события голосования: сначала идемпотентная
// запись в БД (система записи), затем обновление производных структур —
// лидербордов и кэша счетчиков. Порядок важен: упавшее обновление
// проекции исправит сверка, упавшую запись в БД не исправит ничто.
type VoteConsumer struct {
	*Consumer
	votes  vote.VoteRepository
	boards leaderboard.Store
	cache  vote_cache.Cache
}

// NewVoteConsumer создает потребителя очереди голосов
func NewVoteConsumer(
	queue event_queue.EventQueue,
	lease *lock.Lease,
	votes vote.VoteRepository,
	boards leaderboard.Store,
	cache vote_cache.Cache,
	batchSize int64,
) *VoteConsumer {
	vc := &VoteConsumer{
		votes:  votes,
		boards: boards,
		cache:  cache,
	}
	vc.Consumer = NewConsumer(queue, lease, vc.handleEvent, batchSize)
	return vc
}

func (vc *VoteConsumer) handleEvent(ctx context.Context, event *event_queue.Event) error {
	switch event.Action {
	case event_queue.ActionVote:
		return vc.applyVote(ctx, event, models.VoteTypeRegular)
	case event_queue.ActionBoostVote:
		return vc.applyVote(ctx, event, models.VoteTypeBoost)
	case event_queue.ActionUnvote:
		return vc.revokeVote(ctx, event)
	default:
		return fmt.Errorf("unknown vote action: %q", event.Action)
	}
}

func (vc *VoteConsumer) applyVote(ctx context.Context, event *event_queue.Event, voteType string) error {
	clipID := event.SubjectID

	applied, err := vc.votes.RecordVote(ctx, event.EventID, clipID, event.ActorKey, voteType)
	if err != nil {
		return err
	}

	// Счет клипа пишется абсолютным значением из БД: повторная доставка
	// того же события (applied == false) просто перезапишет тот же счет
	totals, err := vc.votes.GetClipTotals(ctx, clipID)
	if err != nil {
		return err
	}

	seasonID := event.DataString("seasonId")
	slotPosition := event.DataInt("slotPosition")

	if err := vc.boards.UpdateClipScore(ctx, seasonID, clipID, slotPosition, totals.WeightedScore); err != nil {
		return err
	}

	// Инкрементальные счета — только при фактически примененном голосе
	if applied {
		weight := models.VoteWeight(voteType)
		if err := vc.boards.UpdateVoterScore(ctx, event.ActorKey, weight); err != nil {
			return err
		}
		if creatorKey := event.DataString("creatorKey"); creatorKey != "" {
			if err := vc.boards.UpdateCreatorScore(ctx, creatorKey, weight); err != nil {
				return err
			}
		}
	}

	return vc.cache.Set(ctx, clipID, totals.VoteCount, totals.WeightedScore)
}

func (vc *VoteConsumer) revokeVote(ctx context.Context, event *event_queue.Event) error {
	clipID := event.SubjectID

	// Результат отзыва не важен для дальнейших шагов: повторная доставка
	// вернет false, а проекции ниже все равно абсолютные
	if _, err := vc.votes.RevokeVote(ctx, clipID, event.ActorKey); err != nil {
		return err
	}

	totals, err := vc.votes.GetClipTotals(ctx, clipID)
	if err != nil {
		return err
	}

	seasonID := event.DataString("seasonId")
	slotPosition := event.DataInt("slotPosition")

	if err := vc.boards.UpdateClipScore(ctx, seasonID, clipID, slotPosition, totals.WeightedScore); err != nil {
		return err
	}

	// Инкременты голосующего и автора не откатываются здесь — их
	// выровняет пакетная сверка с БД. Кэш инвалидируется немедленно:
	// отзыв должен быть виден до истечения TTL.
	return vc.cache.Invalidate(ctx, clipID)
}
