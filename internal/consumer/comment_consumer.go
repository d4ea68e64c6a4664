// internal/consumer/comment_consumer.go
package consumer

import (
	"context"
	"fmt"

	"clip-vote-platform/internal/infrastructure/lock"
	"clip-vote-platform/internal/infrastructure/persistence/postgres/repository/comment"
	"clip-vote-platform/internal/infrastructure/persistence/redis_storage/event_queue"
)

// CommentConsumer обрабатывает события комментариев. Все операции
// идемпотентны на уровне БД, повторная доставка события безвредна.
type CommentConsumer struct {
	*Consumer
	comments comment.CommentRepository
}

// NewCommentConsumer создает потребителя очереди комментариев
func NewCommentConsumer(
	queue event_queue.EventQueue,
	lease *lock.Lease,
	comments comment.CommentRepository,
	batchSize int64,
) *CommentConsumer {
	cc := &CommentConsumer{comments: comments}
	cc.Consumer = NewConsumer(queue, lease, cc.handleEvent, batchSize)
	return cc
}

func (cc *CommentConsumer) handleEvent(ctx context.Context, event *event_queue.Event) error {
	switch event.Action {
	case event_queue.ActionCreate:
		commentID := event.DataString("commentId")
		body := event.DataString("body")
		if commentID == "" {
			return fmt.Errorf("create event %s has no commentId", event.EventID)
		}
		_, err := cc.comments.CreateComment(ctx, event.EventID, commentID, event.SubjectID,
			event.DataString("parentId"), event.ActorKey, body)
		return err

	case event_queue.ActionLike:
		_, err := cc.comments.LikeComment(ctx, event.EventID, event.SubjectID, event.ActorKey)
		return err

	case event_queue.ActionUnlike:
		_, err := cc.comments.UnlikeComment(ctx, event.SubjectID, event.ActorKey)
		return err

	case event_queue.ActionDelete:
		_, err := cc.comments.DeleteComment(ctx, event.SubjectID)
		return err

	default:
		return fmt.Errorf("unknown comment action: %q", event.Action)
	}
}
