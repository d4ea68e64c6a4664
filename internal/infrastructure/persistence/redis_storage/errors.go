// internal/infrastructure/persistence/redis_storage/errors.go
package redis_storage

// Ошибки хранилища.
// ErrRedisNotReady — явный сигнал "хранилище недоступно": вызывающая сторона
// обязана уйти на прямой путь к БД, а не трактовать его как пустой результат.
var (
	ErrRedisNotReady   = StorageError{"Redis не готов"}
	ErrEventNotClaimed = StorageError{"событие не принадлежит текущему батчу"}
	ErrInvalidLimit    = StorageError{"неверный лимит"}
)

// StorageError ошибка хранилища
type StorageError struct {
	Message string
}

func (e StorageError) Error() string {
	return e.Message
}
