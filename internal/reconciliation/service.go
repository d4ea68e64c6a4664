// internal/reconciliation/service.go
package reconciliation

import (
	"context"
	"fmt"

	"clip-vote-platform/internal/infrastructure/persistence/postgres/models"
	"clip-vote-platform/internal/infrastructure/persistence/postgres/repository/vote"
	"clip-vote-platform/internal/infrastructure/persistence/redis_storage/leaderboard"
	"clip-vote-platform/pkg/logger"
)

// Service — пакетная сверка производных структур Redis с системой
// записи. Запускается планировщиком по интервалу и абсолютно
// перезаписывает счета авторитетными агрегатами из БД: инкременты,
// потерянные на упавших записях и выброшенных событиях, перестают
// накапливаться дольше одного интервала сверки.
type Service struct {
	votes  vote.VoteRepository
	boards leaderboard.Store
}

// NewService создает сервис сверки
func NewService(votes vote.VoteRepository, boards leaderboard.Store) *Service {
	return &Service{votes: votes, boards: boards}
}

// Run выполняет полный проход сверки. Ошибка одной секции не
// прерывает остальные: частично сошедшееся состояние лучше полностью
// устаревшего.
func (s *Service) Run(ctx context.Context) error {
	logger.Info("[Reconciliation] 🔄 Запуск сверки лидербордов с БД...")

	var firstErr error
	record := func(section string, err error) {
		if err == nil {
			return
		}
		logger.Error("[Reconciliation] ❌ Сверка %s: %v", section, err)
		if firstErr == nil {
			firstErr = fmt.Errorf("reconcile %s: %w", section, err)
		}
	}

	record("clips", s.SyncClipLeaderboards(ctx))
	record("voters", s.SyncVoterLeaderboard(ctx))
	record("creators", s.SyncCreatorLeaderboard(ctx))

	if firstErr == nil {
		logger.Info("[Reconciliation] ✅ Сверка завершена")
	}
	return firstErr
}

// SyncClipLeaderboards перезаписывает лидерборды клипов по слотам
func (s *Service) SyncClipLeaderboards(ctx context.Context) error {
	slots, err := s.votes.GetSlotClipScores(ctx)
	if err != nil {
		return err
	}

	for _, slot := range slots {
		entries := toEntries(slot.Scores)
		if err := s.boards.BatchUpdateClipScores(ctx, slot.SeasonID, slot.SlotPosition, entries); err != nil {
			return err
		}
	}

	logger.Debug("[Reconciliation] Клипы: %d слотов сверено", len(slots))
	return nil
}

// SyncVoterLeaderboard перезаписывает all-time лидерборд голосующих
func (s *Service) SyncVoterLeaderboard(ctx context.Context) error {
	totals, err := s.votes.GetVoterTotals(ctx)
	if err != nil {
		return err
	}

	return s.boards.BatchUpdateVoterScores(ctx, toEntries(totals))
}

// SyncCreatorLeaderboard перезаписывает all-time лидерборд авторов
func (s *Service) SyncCreatorLeaderboard(ctx context.Context) error {
	totals, err := s.votes.GetCreatorTotals(ctx)
	if err != nil {
		return err
	}

	return s.boards.BatchUpdateCreatorScores(ctx, toEntries(totals))
}

func toEntries(scores []models.MemberScore) []leaderboard.Entry {
	entries := make([]leaderboard.Entry, 0, len(scores))
	for _, sc := range scores {
		entries = append(entries, leaderboard.Entry{Member: sc.Member, Score: sc.Score})
	}
	return entries
}
