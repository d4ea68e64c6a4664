// internal/consumer/consumer.go
package consumer

import (
	"context"

	"clip-vote-platform/internal/infrastructure/lock"
	"clip-vote-platform/internal/infrastructure/persistence/redis_storage/event_queue"
	"clip-vote-platform/pkg/logger"
)

// Handler обрабатывает одно событие батча
type Handler func(ctx context.Context, event *event_queue.Event) error

// Consumer — единственный активный потребитель одной очереди.
//
// Каждый тик: захват аренды → возврат сирот → батч → по-событийная
// обработка → подтверждение всего батча. Ошибка одного события не
// блокирует очередь: событие уходит в dead_letter, обработка
// продолжается со следующего.
type Consumer struct {
	queue     event_queue.EventQueue
	lease     *lock.Lease
	handler   Handler
	batchSize int64
}

// NewConsumer создает потребителя очереди
func NewConsumer(queue event_queue.EventQueue, lease *lock.Lease, handler Handler, batchSize int64) *Consumer {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Consumer{
		queue:     queue,
		lease:     lease,
		handler:   handler,
		batchSize: batchSize,
	}
}

// RunOnce выполняет один цикл потребления. Вызывается планировщиком.
// Если аренда у другого процесса — тик молча пропускается.
func (c *Consumer) RunOnce(ctx context.Context) error {
	acquired, err := c.lease.TryAcquire(ctx)
	if err != nil {
		return err
	}
	if !acquired {
		return nil
	}
	defer func() {
		if err := c.lease.Release(context.Background()); err != nil && err != lock.ErrNotHeld {
			logger.Warn("[Consumer:%s] ⚠️ Не удалось освободить аренду: %v", c.queue.Name(), err)
		}
	}()

	// Сироты предыдущего упавшего запуска возвращаются в начало main
	// ДО чтения батча — порядок постановки сохраняется
	recovered, err := c.queue.RecoverOrphans(ctx)
	if err != nil {
		return err
	}
	if recovered > 0 {
		logger.Info("[Consumer:%s] ♻️ Восстановлено %d событий из processing", c.queue.Name(), recovered)
	}

	batch, err := c.queue.PopBatch(ctx, c.batchSize)
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	failed := 0
	dlqFailed := false
	for _, event := range batch {
		if err := c.handler(ctx, event); err != nil {
			failed++
			logger.Error("[Consumer:%s] ❌ Событие %s (%s): %v",
				c.queue.Name(), event.EventID, event.Action, err)
			if dlqErr := c.queue.MoveToDeadLetter(ctx, event, err.Error(), 1); dlqErr != nil {
				dlqFailed = true
				logger.Error("[Consumer:%s] ❌ Не удалось переместить %s в dead_letter: %v",
					c.queue.Name(), event.EventID, dlqErr)
			}
		}
	}

	if dlqFailed {
		// Подтверждать нельзя: DEL processing стер бы событие, которое не
		// попало ни в dead_letter, ни обратно в main. Оставляем батч в
		// processing — следующий тик вернет его сиротами, повторная
		// обработка идемпотентна по event_id.
		logger.Warn("[Consumer:%s] Батч не подтвержден: перенос в dead_letter не удался, повтор на следующем тике",
			c.queue.Name())
		return nil
	}

	if err := c.queue.Acknowledge(ctx, batch); err != nil {
		return err
	}

	if failed > 0 {
		logger.Warn("[Consumer:%s] Батч подтвержден: %d обработано, %d в dead_letter",
			c.queue.Name(), len(batch)-failed, failed)
	} else {
		logger.Debug("[Consumer:%s] Батч подтвержден: %d событий", c.queue.Name(), len(batch))
	}

	return nil
}
