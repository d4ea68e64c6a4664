// internal/infrastructure/lock/lease.go
package lock

import (
	"context"
	"time"

	"clip-vote-platform/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Ошибки аренды
var (
	ErrLockNotReady = LockError{"Redis не готов"}
	ErrNotHeld      = LockError{"аренда не принадлежит этому процессу"}
)

// LockError — ошибка слоя блокировок
type LockError struct {
	Message string
}

func (e LockError) Error() string {
	return e.Message
}

// Продление и освобождение проверяют токен: истекшая и перехваченная
// другим процессом аренда не должна быть затронута бывшим владельцем
var renewScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return 0`)

var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0`)

// Lease — аренда единственного активного потребителя очереди.
//
// Инвариант единственного потребителя держится на SET NX PX: пока
// аренда жива, второй процесс не пройдет TryAcquire и пропустит тик.
// Упавший владелец не освобождает ничего — аренда истекает сама.
type Lease struct {
	client *redis.Client
	key    string
	token  string
	ttl    time.Duration

	heartbeatCancel context.CancelFunc
	heartbeatDone   chan struct{}
}

// NewLease создает аренду с ключом lease:<name>
func NewLease(client *redis.Client, name string, ttl time.Duration) *Lease {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Lease{
		client: client,
		key:    "lease:" + name,
		ttl:    ttl,
	}
}

// TryAcquire пытается захватить аренду без ожидания.
// false без ошибки — аренда у другого процесса, тик нужно пропустить.
func (l *Lease) TryAcquire(ctx context.Context) (bool, error) {
	if l.client == nil {
		return false, ErrLockNotReady
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	l.token = token
	l.startHeartbeat()
	return true, nil
}

// Release освобождает аренду, если она все еще наша
func (l *Lease) Release(ctx context.Context) error {
	if l.client == nil {
		return ErrLockNotReady
	}

	l.stopHeartbeat()

	res, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Int64()
	l.token = ""
	if err != nil {
		return err
	}
	if res == 0 {
		return ErrNotHeld
	}

	return nil
}

// startHeartbeat продлевает аренду каждую треть TTL, пока она наша
func (l *Lease) startHeartbeat() {
	ctx, cancel := context.WithCancel(context.Background())
	l.heartbeatCancel = cancel
	l.heartbeatDone = make(chan struct{})

	go func() {
		defer close(l.heartbeatDone)

		ticker := time.NewTicker(l.ttl / 3)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				res, err := renewScript.Run(ctx, l.client, []string{l.key}, l.token, l.ttl.Milliseconds()).Int64()
				if err != nil && err != context.Canceled {
					logger.Warn("[Lease] ⚠️ Не удалось продлить аренду %s: %v", l.key, err)
					continue
				}
				if res == 0 {
					// Аренда истекла и перехвачена — продлевать больше нечего
					logger.Warn("[Lease] ⚠️ Аренда %s потеряна, heartbeat остановлен", l.key)
					return
				}
			}
		}
	}()
}

func (l *Lease) stopHeartbeat() {
	if l.heartbeatCancel == nil {
		return
	}
	l.heartbeatCancel()
	<-l.heartbeatDone
	l.heartbeatCancel = nil
	l.heartbeatDone = nil
}
