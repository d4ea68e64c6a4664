// internal/infrastructure/persistence/redis_storage/leaderboard/interface.go
package leaderboard

import (
	"context"
	"time"
)

// Store — отсортированные проекции рейтингов поверх Redis sorted sets.
//
// Рейтинги клипов пишутся абсолютным значением (повтор того же счета —
// no-op), рейтинги голосующих и авторов накапливаются инкрементами.
// Потерянные инкременты исправляет периодическая пакетная сверка
// (BatchUpdate*) с авторитетными данными из БД.
type Store interface {
	// UpdateClipScore абсолютно выставляет взвешенный счет клипа
	// в рамках слота сезона. Идемпотентна.
	UpdateClipScore(ctx context.Context, seasonID, clipID string, slotPosition int, weightedScore float64) error

	// UpdateVoterScore инкрементирует счет голосующего в all-time
	// и в сегодняшнем дневном сете (TTL обновляется при каждой записи)
	UpdateVoterScore(ctx context.Context, voterKey string, increment float64) error

	// UpdateCreatorScore инкрементирует all-time счет автора клипов
	UpdateCreatorScore(ctx context.Context, creatorKey string, increment float64) error

	// GetTop возвращает limit пар (member, score) начиная с offset
	// по убыванию счета, плюс общую мощность сета.
	// При недоступности хранилища возвращается ошибка, а не пустой
	// результат: пусто = "данных точно нет", ошибка = "спроси БД".
	GetTop(ctx context.Context, key string, limit, offset int64) (*TopResult, error)

	// GetRank возвращает ранг участника (1 = лучший) по убыванию счета.
	// (0, false) — участника в сете нет.
	GetRank(ctx context.Context, key, member string) (int64, bool, error)

	// ClearSlot целиком удаляет лидерборд слота — вызывается при закрытии
	// слота голосования, чтобы старые счета не всплыли под
	// переиспользованной позицией
	ClearSlot(ctx context.Context, seasonID string, slotPosition int) error

	// BatchUpdateClipScores абсолютно перезаписывает счета клипов слота
	// авторитетными значениями из БД одним pipeline
	BatchUpdateClipScores(ctx context.Context, seasonID string, slotPosition int, entries []Entry) error

	// BatchUpdateVoterScores перезаписывает all-time счета голосующих
	BatchUpdateVoterScores(ctx context.Context, entries []Entry) error

	// BatchUpdateCreatorScores перезаписывает all-time счета авторов
	BatchUpdateCreatorScores(ctx context.Context, entries []Entry) error

	// ClipKey возвращает ключ лидерборда клипов по выбранной схеме
	ClipKey(seasonID string, slotPosition int) string

	// DailyVoterKey возвращает ключ дневного лидерборда голосующих
	DailyVoterKey(t time.Time) string
}
