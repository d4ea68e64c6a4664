// internal/infrastructure/persistence/redis_storage/leaderboard/service.go
package leaderboard

import (
	"context"
	"time"

	storage "clip-vote-platform/internal/infrastructure/persistence/redis_storage"

	"github.com/go-redis/redis/v8"
)

// Service реализует Store поверх Redis sorted sets
type Service struct {
	client        *redis.Client
	legacyKeys    bool
	dailyVoterTTL time.Duration
}

// NewService создает хранилище лидербордов.
// dailyVoterTTL выбирается с запасом (48h), чтобы пережить расхождение
// часовых поясов между процессом-продюсером и потребителями.
func NewService(client *redis.Client, legacyKeys bool, dailyVoterTTL time.Duration) *Service {
	if dailyVoterTTL <= 0 {
		dailyVoterTTL = 48 * time.Hour
	}
	return &Service{
		client:        client,
		legacyKeys:    legacyKeys,
		dailyVoterTTL: dailyVoterTTL,
	}
}

// ClipKey возвращает ключ лидерборда клипов по выбранной схеме
func (s *Service) ClipKey(seasonID string, slotPosition int) string {
	return ClipBoardKey{
		SeasonID:     seasonID,
		SlotPosition: slotPosition,
		Legacy:       s.legacyKeys,
	}.String()
}

// DailyVoterKey возвращает ключ дневного лидерборда голосующих
func (s *Service) DailyVoterKey(t time.Time) string {
	return "leaderboard:voters:daily:" + t.UTC().Format("2006-01-02")
}

// UpdateClipScore абсолютно выставляет взвешенный счет клипа
func (s *Service) UpdateClipScore(ctx context.Context, seasonID, clipID string, slotPosition int, weightedScore float64) error {
	if s.client == nil {
		return storage.ErrRedisNotReady
	}

	key := s.ClipKey(seasonID, slotPosition)
	return s.client.ZAdd(ctx, key, &redis.Z{Score: weightedScore, Member: clipID}).Err()
}

// UpdateVoterScore инкрементирует счет голосующего в all-time и дневном сетах
func (s *Service) UpdateVoterScore(ctx context.Context, voterKey string, increment float64) error {
	if s.client == nil {
		return storage.ErrRedisNotReady
	}

	dailyKey := s.DailyVoterKey(time.Now())

	pipe := s.client.Pipeline()
	pipe.ZIncrBy(ctx, KeyVotersAll, increment, voterKey)
	pipe.ZIncrBy(ctx, dailyKey, increment, voterKey)
	pipe.Expire(ctx, dailyKey, s.dailyVoterTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// UpdateCreatorScore инкрементирует all-time счет автора
func (s *Service) UpdateCreatorScore(ctx context.Context, creatorKey string, increment float64) error {
	if s.client == nil {
		return storage.ErrRedisNotReady
	}

	return s.client.ZIncrBy(ctx, KeyCreatorsAll, increment, creatorKey).Err()
}

// GetTop возвращает страницу рейтинга по убыванию счета
func (s *Service) GetTop(ctx context.Context, key string, limit, offset int64) (*TopResult, error) {
	if s.client == nil {
		return nil, storage.ErrRedisNotReady
	}
	if limit <= 0 {
		return nil, storage.ErrInvalidLimit
	}

	pipe := s.client.Pipeline()
	rangeCmd := pipe.ZRevRangeWithScores(ctx, key, offset, offset+limit-1)
	cardCmd := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	zs := rangeCmd.Val()
	result := &TopResult{
		Entries: make([]Entry, 0, len(zs)),
		Total:   cardCmd.Val(),
	}

	for _, z := range zs {
		member, _ := z.Member.(string)
		result.Entries = append(result.Entries, Entry{Member: member, Score: z.Score})
	}

	return result, nil
}

// GetRank возвращает 1-индексированный ранг участника по убыванию счета
func (s *Service) GetRank(ctx context.Context, key, member string) (int64, bool, error) {
	if s.client == nil {
		return 0, false, storage.ErrRedisNotReady
	}

	rank, err := s.client.ZRevRank(ctx, key, member).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	return rank + 1, true, nil
}

// ClearSlot удаляет лидерборд слота целиком
func (s *Service) ClearSlot(ctx context.Context, seasonID string, slotPosition int) error {
	if s.client == nil {
		return storage.ErrRedisNotReady
	}

	return s.client.Del(ctx, s.ClipKey(seasonID, slotPosition)).Err()
}

// BatchUpdateClipScores перезаписывает счета клипов слота одним pipeline
func (s *Service) BatchUpdateClipScores(ctx context.Context, seasonID string, slotPosition int, entries []Entry) error {
	return s.batchAbsoluteSet(ctx, s.ClipKey(seasonID, slotPosition), entries)
}

// BatchUpdateVoterScores перезаписывает all-time счета голосующих
func (s *Service) BatchUpdateVoterScores(ctx context.Context, entries []Entry) error {
	return s.batchAbsoluteSet(ctx, KeyVotersAll, entries)
}

// BatchUpdateCreatorScores перезаписывает all-time счета авторов
func (s *Service) BatchUpdateCreatorScores(ctx context.Context, entries []Entry) error {
	return s.batchAbsoluteSet(ctx, KeyCreatorsAll, entries)
}

// batchAbsoluteSet — корректирующая перезапись: инкременты могли
// потеряться на упавшей записи или выброшенном событии, абсолютная
// перезапись из БД ограничивает накопленный дрейф интервалом сверки
func (s *Service) batchAbsoluteSet(ctx context.Context, key string, entries []Entry) error {
	if s.client == nil {
		return storage.ErrRedisNotReady
	}
	if len(entries) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, e := range entries {
		pipe.ZAdd(ctx, key, &redis.Z{Score: e.Score, Member: e.Member})
	}
	_, err := pipe.Exec(ctx)
	return err
}
