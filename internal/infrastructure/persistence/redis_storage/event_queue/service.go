// internal/infrastructure/persistence/redis_storage/event_queue/service.go
package event_queue

import (
	"context"
	"sync"
	"time"

	storage "clip-vote-platform/internal/infrastructure/persistence/redis_storage"
	"clip-vote-platform/internal/monitoring"
	"clip-vote-platform/pkg/logger"

	"github.com/go-redis/redis/v8"
	json "github.com/goccy/go-json"
)

// tombstone — маркер для позиционного удаления из списка (LSET + LREM).
// Не может совпасть с сериализованным событием: события всегда JSON-объекты.
const tombstone = "__tombstone__"

// popBatchScript атомарно переносит до ARGV[1] старейших записей
// из main (KEYS[1]) в processing (KEYS[2]).
//
// Наивная последовательность "прочитать диапазон, обрезать, дописать"
// небезопасна: Push, попавший между чтением и LTRIM, молча теряется,
// когда обрезка пересчитывает границы по уже неактуальному диапазону.
var popBatchScript = redis.NewScript(`
local items = redis.call('LRANGE', KEYS[1], 0, tonumber(ARGV[1]) - 1)
if #items == 0 then
	return items
end
redis.call('LTRIM', KEYS[1], #items, -1)
for i = 1, #items do
	redis.call('RPUSH', KEYS[2], items[i])
end
return items
`)

// deadLetterScript удаляет запись processing (KEYS[1]) по индексу ARGV[1]
// через tombstone (ARGV[4]), кладет запись об отказе ARGV[2] в dead_letter
// (KEYS[2]) и обрезает его до ARGV[3] записей, вытесняя старейшие.
var deadLetterScript = redis.NewScript(`
redis.call('LSET', KEYS[1], tonumber(ARGV[1]), ARGV[4])
redis.call('LREM', KEYS[1], 1, ARGV[4])
redis.call('RPUSH', KEYS[2], ARGV[2])
redis.call('LTRIM', KEYS[2], -tonumber(ARGV[3]), -1)
return redis.call('LLEN', KEYS[2])
`)

// recoverOrphansScript возвращает все записи из processing (KEYS[1])
// в начало main (KEYS[2]) с сохранением исходного порядка
var recoverOrphansScript = redis.NewScript(`
local moved = 0
while true do
	local item = redis.call('RPOPLPUSH', KEYS[1], KEYS[2])
	if not item then
		break
	end
	moved = moved + 1
end
return moved
`)

// claimedItem — запись processing-сегмента, захваченная текущим батчом.
// Нераспарсиваемые записи тоже занимают позицию: без них позиционное
// удаление съехало бы.
type claimedItem struct {
	event   *Event
	removed bool
}

// Service реализует EventQueue поверх Redis-списков
type Service struct {
	client *redis.Client
	name   string
	keys   Keys
	dlqCap int64

	// состояние текущего батча; корректно только при единственном
	// активном потребителе
	mu      sync.Mutex
	claimed []*claimedItem
}

// NewService создает очередь с заданным префиксом ключей
func NewService(client *redis.Client, prefix string, deadLetterCap int64) *Service {
	if deadLetterCap <= 0 {
		deadLetterCap = 1000
	}
	return &Service{
		client: client,
		name:   prefix,
		keys:   KeysForPrefix(prefix),
		dlqCap: deadLetterCap,
	}
}

// Name возвращает имя очереди
func (s *Service) Name() string {
	return s.name
}

// Keys возвращает ключи Redis очереди
func (s *Service) Keys() Keys {
	return s.keys
}

// Push добавляет событие в хвост основного сегмента
func (s *Service) Push(ctx context.Context, event *Event) error {
	if s.client == nil {
		return storage.ErrRedisNotReady
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return s.client.RPush(ctx, s.keys.Main, string(data)).Err()
}

// PopBatch атомарно захватывает до maxCount старейших событий
func (s *Service) PopBatch(ctx context.Context, maxCount int64) ([]*Event, error) {
	if s.client == nil {
		return nil, storage.ErrRedisNotReady
	}
	if maxCount <= 0 {
		return nil, storage.ErrInvalidLimit
	}

	res, err := popBatchScript.Run(ctx, s.client,
		[]string{s.keys.Main, s.keys.Processing}, maxCount).Result()
	if err != nil {
		return nil, err
	}

	rawItems, _ := res.([]interface{})

	s.mu.Lock()
	defer s.mu.Unlock()

	s.claimed = make([]*claimedItem, 0, len(rawItems))
	events := make([]*Event, 0, len(rawItems))

	for _, item := range rawItems {
		raw, _ := item.(string)

		var ev Event
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			// Битая запись: логируем и отбрасываем. Позицию в processing
			// она занимает до подтверждения батча.
			logger.Warn("⚠️ [%s] Нераспарсиваемое событие отброшено: %v", s.name, err)
			monitoring.EventsDropped.WithLabelValues(s.name).Inc()
			s.claimed = append(s.claimed, &claimedItem{})
			continue
		}

		s.claimed = append(s.claimed, &claimedItem{event: &ev})
		events = append(events, &ev)
	}

	return events, nil
}

// Acknowledge подтверждает батч: processing очищается целиком.
// Ровно один потребитель активен и батчи не коммитятся частично,
// поэтому позиционное/цельносегментное удаление корректно и не страдает
// от нестабильности повторной сериализации.
func (s *Service) Acknowledge(ctx context.Context, batch []*Event) error {
	if s.client == nil {
		return storage.ErrRedisNotReady
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.keys.Processing)
	pipe.Set(ctx, s.keys.LastProcessed, time.Now().UTC().Format(time.RFC3339), 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.claimed = nil
	s.mu.Unlock()

	monitoring.EventsProcessed.WithLabelValues(s.name).Add(float64(len(batch)))
	return nil
}

// MoveToDeadLetter переносит одно событие из processing в dead_letter
func (s *Service) MoveToDeadLetter(ctx context.Context, event *Event, errMsg string, attempts int) error {
	if s.client == nil {
		return storage.ErrRedisNotReady
	}

	s.mu.Lock()
	index := -1
	var item *claimedItem
	pos := 0
	for _, c := range s.claimed {
		if c.removed {
			continue
		}
		if c.event == event {
			index = pos
			item = c
			break
		}
		pos++
	}
	s.mu.Unlock()

	if index < 0 {
		return storage.ErrEventNotClaimed
	}

	now := time.Now().UTC()
	entry := DeadLetterEntry{
		Event:         event,
		Error:         errMsg,
		Attempts:      attempts,
		FirstFailedAt: now,
		LastFailedAt:  now,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	_, err = deadLetterScript.Run(ctx, s.client,
		[]string{s.keys.Processing, s.keys.DeadLetter},
		index, string(data), s.dlqCap, tombstone).Result()
	if err != nil {
		return err
	}

	s.mu.Lock()
	item.removed = true
	s.mu.Unlock()

	monitoring.EventsDeadLettered.WithLabelValues(s.name).Inc()
	return nil
}

// RecoverOrphans возвращает застрявшие в processing события в начало main.
// Вызывается при старте потребителя (до PopBatch). Повторный вызов без
// промежуточного PopBatch возвращает 0 и не меняет main.
func (s *Service) RecoverOrphans(ctx context.Context) (int64, error) {
	if s.client == nil {
		return 0, storage.ErrRedisNotReady
	}

	res, err := recoverOrphansScript.Run(ctx, s.client,
		[]string{s.keys.Processing, s.keys.Main}).Int64()
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.claimed = nil
	s.mu.Unlock()

	if res > 0 {
		logger.Info("♻️ [%s] Возвращено %d осиротевших событий в очередь", s.name, res)
		monitoring.OrphansRecovered.WithLabelValues(s.name).Add(float64(res))
	}

	return res, nil
}

// Health возвращает длины сегментов и время последнего батча
func (s *Service) Health(ctx context.Context) (*Health, error) {
	if s.client == nil {
		return nil, storage.ErrRedisNotReady
	}

	pipe := s.client.Pipeline()
	pendingCmd := pipe.LLen(ctx, s.keys.Main)
	processingCmd := pipe.LLen(ctx, s.keys.Processing)
	deadLetterCmd := pipe.LLen(ctx, s.keys.DeadLetter)
	lastCmd := pipe.Get(ctx, s.keys.LastProcessed)

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	health := &Health{
		PendingCount:    pendingCmd.Val(),
		ProcessingCount: processingCmd.Val(),
		DeadLetterCount: deadLetterCmd.Val(),
	}

	if raw, err := lastCmd.Result(); err == nil {
		if ts, parseErr := time.Parse(time.RFC3339, raw); parseErr == nil {
			health.LastProcessedAt = &ts
		}
	}

	monitoring.QueueDepth.WithLabelValues(s.name, "main").Set(float64(health.PendingCount))
	monitoring.QueueDepth.WithLabelValues(s.name, "processing").Set(float64(health.ProcessingCount))
	monitoring.QueueDepth.WithLabelValues(s.name, "dead_letter").Set(float64(health.DeadLetterCount))

	return health, nil
}
