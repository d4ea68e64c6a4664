// internal/infrastructure/persistence/redis_storage/event_queue/structs.go
package event_queue

import (
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Действия над комментариями
const (
	ActionCreate = "create"
	ActionLike   = "like"
	ActionUnlike = "unlike"
	ActionDelete = "delete"
)

// Типы голосов
const (
	ActionVote      = "vote"
	ActionBoostVote = "boost_vote"
	ActionUnvote    = "unvote"
)

// Event — одно действие пользователя, ожидающее durable-обработки.
// Создается продюсером при Push, читается потребителем без изменений;
// состояние моделируется сегментом, а не мутацией полей.
type Event struct {
	EventID   string                 `json:"eventId"`
	SubjectID string                 `json:"subjectId"`
	ActorKey  string                 `json:"actorKey"`
	Action    string                 `json:"action"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewEvent создает событие с новым eventId.
// eventId назначается на стороне продюсера и используется для
// идемпотентной записи в БД при повторной доставке.
func NewEvent(subjectID, actorKey, action string, data map[string]interface{}) *Event {
	return &Event{
		EventID:   uuid.NewString(),
		SubjectID: subjectID,
		ActorKey:  actorKey,
		Action:    action,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// UnmarshalJSON принимает как subjectId, так и историческое поле clipId.
// alias встраивается по значению: указатель на неэкспортируемый
// встроенный тип декодер не заполняет.
func (e *Event) UnmarshalJSON(b []byte) error {
	type alias Event
	var aux struct {
		alias
		ClipID string `json:"clipId"`
	}

	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	*e = Event(aux.alias)
	if e.SubjectID == "" {
		e.SubjectID = aux.ClipID
	}
	return nil
}

// DataString возвращает строковое поле из payload события
func (e *Event) DataString(key string) string {
	if e.Data == nil {
		return ""
	}
	if v, ok := e.Data[key].(string); ok {
		return v
	}
	return ""
}

// DataFloat возвращает числовое поле из payload события
func (e *Event) DataFloat(key string) float64 {
	if e.Data == nil {
		return 0
	}
	if v, ok := e.Data[key].(float64); ok {
		return v
	}
	return 0
}

// DataInt возвращает целочисленное поле из payload события.
// JSON-числа приходят как float64.
func (e *Event) DataInt(key string) int {
	return int(e.DataFloat(key))
}

// DeadLetterEntry — событие с метаданными терминального отказа
type DeadLetterEntry struct {
	Event         *Event    `json:"event"`
	Error         string    `json:"error"`
	Attempts      int       `json:"attempts"`
	FirstFailedAt time.Time `json:"firstFailedAt"`
	LastFailedAt  time.Time `json:"lastFailedAt"`
}

// Health — снимок состояния очереди для алертинга
// (pendingCount растет при устаревшем lastProcessedAt = обработка встала)
type Health struct {
	PendingCount    int64      `json:"pendingCount"`
	ProcessingCount int64      `json:"processingCount"`
	DeadLetterCount int64      `json:"deadLetterCount"`
	LastProcessedAt *time.Time `json:"lastProcessedAt"`
}

// Keys — ключи Redis одной очереди
type Keys struct {
	Main          string // ожидающие события
	Processing    string // захваченные текущим запуском потребителя
	DeadLetter    string // исчерпавшие попытки
	LastProcessed string // время последнего подтвержденного батча
}

// KeysForPrefix строит ключи по префиксу очереди
func KeysForPrefix(prefix string) Keys {
	return Keys{
		Main:          prefix,
		Processing:    prefix + ":processing",
		DeadLetter:    prefix + ":dead_letter",
		LastProcessed: prefix + ":last_processed_at",
	}
}
