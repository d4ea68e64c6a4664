// internal/infrastructure/persistence/redis_storage/leaderboard/structs.go
package leaderboard

import "fmt"

// Постоянные ключи лидербордов
const (
	KeyVotersAll   = "leaderboard:voters:all"
	KeyCreatorsAll = "leaderboard:creators:all"
)

// Entry — пара (участник, счет) отсортированного сета
type Entry struct {
	Member string  `json:"member"`
	Score  float64 `json:"score"`
}

// TopResult — страница рейтинга плюс общая мощность сета
type TopResult struct {
	Entries []Entry `json:"entries"`
	Total   int64   `json:"total"`
}

// ClipBoardKey — схема ключа лидерборда клипов.
//
// Namespaced (по умолчанию): ключ включает seasonId — изолирует
// параллельно идущие жанровые соревнования. Legacy: ключ только по
// позиции слота, для развертываний с одним жанром. Вариант выбирается
// флагом конфигурации и разворачивается в строку в одном месте.
type ClipBoardKey struct {
	SeasonID     string
	SlotPosition int
	Legacy       bool
}

// String возвращает ключ Redis
func (k ClipBoardKey) String() string {
	if k.Legacy {
		return fmt.Sprintf("leaderboard:clips:%d", k.SlotPosition)
	}
	return fmt.Sprintf("leaderboard:clips:%s:%d", k.SeasonID, k.SlotPosition)
}
