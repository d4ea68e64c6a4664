// internal/infrastructure/persistence/redis_storage/vote_cache/interface.go
package vote_cache

import "context"

// Cache — короткоживущий read-through кэш счетчиков голосов:
// (voteCount, weightedScore) на клип, два независимо истекающих ключа
// с общей TTL-политикой.
//
// TTL выбрана короткой: пропущенная инвалидация самоизлечивается
// за десятки секунд, без исчерпывающей инвалидации на каждом пути записи.
type Cache interface {
	// GetMany возвращает записи только для тех клипов, у которых
	// присутствуют ОБА ключа — частично устаревшая пара не отдается
	// никогда. Недоступность хранилища — ошибка, а не пустая мапа.
	GetMany(ctx context.Context, clipIDs []string) (map[string]Entry, error)

	// Set записывает пару счетчиков одного клипа
	Set(ctx context.Context, clipID string, voteCount int64, weightedScore float64) error

	// SetMany записывает пары нескольких клипов одним pipeline
	SetMany(ctx context.Context, entries []Entry) error

	// Invalidate немедленно удаляет оба ключа клипа — для операций,
	// которым нельзя ждать истечения TTL (например, отзыв голоса)
	Invalidate(ctx context.Context, clipID string) error
}
