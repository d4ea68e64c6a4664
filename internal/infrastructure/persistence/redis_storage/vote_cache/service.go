// internal/infrastructure/persistence/redis_storage/vote_cache/service.go
package vote_cache

import (
	"context"
	"strconv"
	"time"

	storage "clip-vote-platform/internal/infrastructure/persistence/redis_storage"

	"github.com/go-redis/redis/v8"
)

// Service реализует Cache поверх обычных ключей Redis с TTL
type Service struct {
	client *redis.Client
	ttl    time.Duration
}

// NewService создает кэш с заданной TTL
func NewService(client *redis.Client, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Service{client: client, ttl: ttl}
}

// GetMany возвращает записи только для клипов с обоими ключами
func (s *Service) GetMany(ctx context.Context, clipIDs []string) (map[string]Entry, error) {
	if s.client == nil {
		return nil, storage.ErrRedisNotReady
	}
	if len(clipIDs) == 0 {
		return map[string]Entry{}, nil
	}

	// Один MGET на обе группы ключей: count-ключи первой половиной,
	// score-ключи второй
	keys := make([]string, 0, len(clipIDs)*2)
	for _, id := range clipIDs {
		keys = append(keys, countKey(id))
	}
	for _, id := range clipIDs {
		keys = append(keys, scoreKey(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	result := make(map[string]Entry, len(clipIDs))
	n := len(clipIDs)
	for i, id := range clipIDs {
		countRaw, ok1 := values[i].(string)
		scoreRaw, ok2 := values[n+i].(string)
		if !ok1 || !ok2 {
			// Один из ключей истек — полный промах, никогда не отдаем
			// частично устаревшую пару
			continue
		}

		count, err1 := strconv.ParseInt(countRaw, 10, 64)
		score, err2 := strconv.ParseFloat(scoreRaw, 64)
		if err1 != nil || err2 != nil {
			continue
		}

		result[id] = Entry{ClipID: id, VoteCount: count, WeightedScore: score}
	}

	return result, nil
}

// Set записывает пару счетчиков одного клипа
func (s *Service) Set(ctx context.Context, clipID string, voteCount int64, weightedScore float64) error {
	return s.SetMany(ctx, []Entry{{ClipID: clipID, VoteCount: voteCount, WeightedScore: weightedScore}})
}

// SetMany записывает пары нескольких клипов одним pipeline
func (s *Service) SetMany(ctx context.Context, entries []Entry) error {
	if s.client == nil {
		return storage.ErrRedisNotReady
	}
	if len(entries) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, e := range entries {
		pipe.Set(ctx, countKey(e.ClipID), strconv.FormatInt(e.VoteCount, 10), s.ttl)
		pipe.Set(ctx, scoreKey(e.ClipID), strconv.FormatFloat(e.WeightedScore, 'f', -1, 64), s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Invalidate немедленно удаляет оба ключа клипа
func (s *Service) Invalidate(ctx context.Context, clipID string) error {
	if s.client == nil {
		return storage.ErrRedisNotReady
	}

	return s.client.Del(ctx, countKey(clipID), scoreKey(clipID)).Err()
}
