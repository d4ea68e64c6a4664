// internal/infrastructure/persistence/postgres/repository/comment/repository.go
package comment

import (
	"context"
	"database/sql"
	"fmt"

	"clip-vote-platform/internal/infrastructure/persistence/postgres/models"

	"github.com/jmoiron/sqlx"
)

// CommentRepository интерфейс для работы с комментариями
type CommentRepository interface {
	CreateComment(ctx context.Context, eventID, commentID, clipID, parentID, authorKey, body string) (bool, error)
	LikeComment(ctx context.Context, eventID, commentID, actorKey string) (bool, error)
	UnlikeComment(ctx context.Context, commentID, actorKey string) (bool, error)
	DeleteComment(ctx context.Context, commentID string) (bool, error)
	FindByID(ctx context.Context, commentID string) (*models.Comment, error)
}

// CommentRepositoryImpl реализация репозитория комментариев
type CommentRepositoryImpl struct {
	db *sqlx.DB
}

// NewCommentRepository создает новый репозиторий комментариев
func NewCommentRepository(db *sqlx.DB) *CommentRepositoryImpl {
	return &CommentRepositoryImpl{db: db}
}

// CreateComment создает комментарий (parentID пустой — корневой).
// false без ошибки — событие уже применено (повторная доставка).
func (r *CommentRepositoryImpl) CreateComment(ctx context.Context, eventID, commentID, clipID, parentID, authorKey, body string) (bool, error) {
	query := `
    INSERT INTO comments (id, event_id, clip_id, parent_id, author_key, body)
    VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
    ON CONFLICT (event_id) DO NOTHING
    `

	res, err := r.db.ExecContext(ctx, query, commentID, eventID, clipID, parentID, authorKey, body)
	if err != nil {
		return false, fmt.Errorf("failed to create comment: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

// LikeComment ставит лайк. Идемпотентен и по event_id, и по паре
// (comment_id, actor_key): счетчик инкрементируется только при
// фактической вставке.
func (r *CommentRepositoryImpl) LikeComment(ctx context.Context, eventID, commentID, actorKey string) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
    INSERT INTO comment_likes (event_id, comment_id, actor_key)
    VALUES ($1, $2, $3)
    ON CONFLICT DO NOTHING
    `, eventID, commentID, actorKey)
	if err != nil {
		return false, fmt.Errorf("failed to like comment: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE comments SET like_count = like_count + 1 WHERE id = $1", commentID); err != nil {
		return false, fmt.Errorf("failed to increment like count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return true, nil
}

// UnlikeComment снимает лайк. false — лайка не было
func (r *CommentRepositoryImpl) UnlikeComment(ctx context.Context, commentID, actorKey string) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"DELETE FROM comment_likes WHERE comment_id = $1 AND actor_key = $2", commentID, actorKey)
	if err != nil {
		return false, fmt.Errorf("failed to unlike comment: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE comments SET like_count = GREATEST(like_count - 1, 0) WHERE id = $1", commentID); err != nil {
		return false, fmt.Errorf("failed to decrement like count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return true, nil
}

// DeleteComment мягко удаляет комментарий. false — уже удален или не существует
func (r *CommentRepositoryImpl) DeleteComment(ctx context.Context, commentID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE comments SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL", commentID)
	if err != nil {
		return false, fmt.Errorf("failed to delete comment: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

// FindByID возвращает комментарий по id, nil — не найден
func (r *CommentRepositoryImpl) FindByID(ctx context.Context, commentID string) (*models.Comment, error) {
	var c models.Comment
	err := r.db.GetContext(ctx, &c, `
    SELECT id, event_id, clip_id, parent_id, author_key, body, like_count, created_at, deleted_at
    FROM comments
    WHERE id = $1
    `, commentID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}

	return &c, nil
}
