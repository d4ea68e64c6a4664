// internal/infrastructure/persistence/postgres/models/clip.go
package models

import "time"

// Clip участвующий в голосовании клип
type Clip struct {
	ID           string    `db:"id" json:"id"`
	SeasonID     string    `db:"season_id" json:"seasonId"`
	SlotPosition int       `db:"slot_position" json:"slotPosition"`
	CreatorKey   string    `db:"creator_key" json:"creatorKey"`
	Title        string    `db:"title" json:"title"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}
