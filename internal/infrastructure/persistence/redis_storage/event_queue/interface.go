// internal/infrastructure/persistence/redis_storage/event_queue/interface.go
package event_queue

import "context"

// EventQueue — упорядоченная durable-очередь событий поверх Redis-списков
// с гарантией доставки at-least-once.
//
// Жизненный цикл события моделируется сегментом, в котором лежит его
// сериализованная форма: main (ожидает) → processing (захвачено текущим
// запуском потребителя) → удалено (подтверждено) либо dead_letter.
//
// Все операции, кроме Push, корректны ТОЛЬКО при единственном активном
// потребителе (внешняя аренда, см. пакет lock): подтверждение целым
// сегментом и возврат сирот при двух конкурирующих потребителях
// переставали бы быть безопасными.
type EventQueue interface {
	// Push добавляет событие в хвост основного сегмента.
	// Никогда не блокируется на обработке ниже по конвейеру.
	// Уникальность не проверяется — дубликаты отсекаются при записи
	// в БД по eventId.
	Push(ctx context.Context, event *Event) error

	// PopBatch атомарно (Lua-скриптом) переносит до maxCount самых старых
	// событий из main в processing и возвращает их в порядке постановки.
	// Нераспарсиваемые записи логируются и отбрасываются.
	PopBatch(ctx context.Context, maxCount int64) ([]*Event, error)

	// Acknowledge подтверждает полностью обработанный батч: processing
	// очищается целиком (а не поэлементным сравнением — повторная
	// сериализация может переупорядочить поля и молча не совпасть
	// с исходной строкой).
	Acknowledge(ctx context.Context, batch []*Event) error

	// MoveToDeadLetter удаляет одно событие из processing по позиции
	// (не по равенству значений) и кладет запись об отказе в dead_letter,
	// обрезая его до лимита.
	MoveToDeadLetter(ctx context.Context, event *Event, errMsg string, attempts int) error

	// RecoverOrphans возвращает все события, застрявшие в processing
	// после падения потребителя, обратно в начало main.
	// Возвращает количество восстановленных событий.
	RecoverOrphans(ctx context.Context) (int64, error)

	// Health возвращает длины трех сегментов и время последнего
	// успешно подтвержденного батча.
	Health(ctx context.Context) (*Health, error)

	// Name возвращает имя очереди (префикс ключей)
	Name() string
}
