// internal/infrastructure/persistence/redis_storage/vote_cache/structs.go
package vote_cache

// Префиксы ключей кэша
const (
	countPrefix = "vc:" // счетчик голосов
	scorePrefix = "ws:" // взвешенный счет
)

// Entry — кэшированные счетчики одного клипа
type Entry struct {
	ClipID        string  `json:"clipId"`
	VoteCount     int64   `json:"voteCount"`
	WeightedScore float64 `json:"weightedScore"`
}

func countKey(clipID string) string { return countPrefix + clipID }
func scoreKey(clipID string) string { return scorePrefix + clipID }
