// internal/infrastructure/persistence/postgres/models/vote.go
package models

import (
	"database/sql"
	"time"
)

// Типы голосов и их веса в итоговом счете клипа
const (
	VoteTypeRegular = "regular"
	VoteTypeBoost   = "boost"

	RegularVoteWeight = 1.0
	BoostVoteWeight   = 3.0
)

// Vote голос пользователя за клип. event_id уникален — повторная
// доставка того же события очереди не создает второй голос.
type Vote struct {
	ID         int64        `db:"id" json:"id"`
	EventID    string       `db:"event_id" json:"eventId"`
	ClipID     string       `db:"clip_id" json:"clipId"`
	VoterKey   string       `db:"voter_key" json:"voterKey"`
	VoteType   string       `db:"vote_type" json:"voteType"`
	Weight     float64      `db:"weight" json:"weight"`
	CreatedAt  time.Time    `db:"created_at" json:"createdAt"`
	RevokedAt  sql.NullTime `db:"revoked_at" json:"revokedAt,omitempty"`
}

// VoteWeight возвращает вес голоса по типу
func VoteWeight(voteType string) float64 {
	if voteType == VoteTypeBoost {
		return BoostVoteWeight
	}
	return RegularVoteWeight
}

// ClipTotals агрегированные счетчики одного клипа
type ClipTotals struct {
	ClipID        string  `db:"clip_id" json:"clipId"`
	VoteCount     int64   `db:"vote_count" json:"voteCount"`
	WeightedScore float64 `db:"weighted_score" json:"weightedScore"`
}

// MemberScore агрегированный счет участника для сверки лидербордов
type MemberScore struct {
	Member string  `db:"member" json:"member"`
	Score  float64 `db:"score" json:"score"`
}

// SlotScores счета клипов одного слота сезона
type SlotScores struct {
	SeasonID     string        `json:"seasonId"`
	SlotPosition int           `json:"slotPosition"`
	Scores       []MemberScore `json:"scores"`
}
