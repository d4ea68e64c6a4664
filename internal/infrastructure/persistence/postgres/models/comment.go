// internal/infrastructure/persistence/postgres/models/comment.go
package models

import (
	"database/sql"
	"time"
)

// Comment комментарий к клипу. Удаление мягкое: счетчики и лайки
// сохраняются для сверки.
type Comment struct {
	ID        string         `db:"id" json:"id"`
	EventID   string         `db:"event_id" json:"eventId"`
	ClipID    string         `db:"clip_id" json:"clipId"`
	ParentID  sql.NullString `db:"parent_id" json:"parentId,omitempty"`
	AuthorKey string         `db:"author_key" json:"authorKey"`
	Body      string         `db:"body" json:"body"`
	LikeCount int64          `db:"like_count" json:"likeCount"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
	DeletedAt sql.NullTime   `db:"deleted_at" json:"deletedAt,omitempty"`
}

// CommentLike лайк комментария, уникален по (comment_id, actor_key)
type CommentLike struct {
	ID        int64     `db:"id" json:"id"`
	EventID   string    `db:"event_id" json:"eventId"`
	CommentID string    `db:"comment_id" json:"commentId"`
	ActorKey  string    `db:"actor_key" json:"actorKey"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
