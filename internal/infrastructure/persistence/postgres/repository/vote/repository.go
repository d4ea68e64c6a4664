// internal/infrastructure/persistence/postgres/repository/vote/repository.go
package vote

import (
	"context"
	"database/sql"
	"fmt"

	"clip-vote-platform/internal/infrastructure/persistence/postgres/models"

	"github.com/jmoiron/sqlx"
)

// VoteRepository интерфейс для работы с голосами
type VoteRepository interface {
	RecordVote(ctx context.Context, eventID, clipID, voterKey, voteType string) (bool, error)
	RevokeVote(ctx context.Context, clipID, voterKey string) (bool, error)
	GetClipTotals(ctx context.Context, clipID string) (*models.ClipTotals, error)
	GetManyClipTotals(ctx context.Context, clipIDs []string) ([]models.ClipTotals, error)
	GetSlotClipScores(ctx context.Context) ([]models.SlotScores, error)
	GetVoterTotals(ctx context.Context) ([]models.MemberScore, error)
	GetCreatorTotals(ctx context.Context) ([]models.MemberScore, error)
}

// VoteRepositoryImpl реализация репозитория голосов
type VoteRepositoryImpl struct {
	db *sqlx.DB
}

// NewVoteRepository создает новый репозиторий голосов
func NewVoteRepository(db *sqlx.DB) *VoteRepositoryImpl {
	return &VoteRepositoryImpl{db: db}
}

// RecordVote записывает голос. Возвращает false без ошибки, если
// событие с таким event_id уже применено — повторная доставка из
// очереди не должна накручивать счетчики.
func (r *VoteRepositoryImpl) RecordVote(ctx context.Context, eventID, clipID, voterKey, voteType string) (bool, error) {
	query := `
    INSERT INTO votes (event_id, clip_id, voter_key, vote_type, weight)
    VALUES ($1, $2, $3, $4, $5)
    ON CONFLICT (event_id) DO NOTHING
    `

	res, err := r.db.ExecContext(ctx, query,
		eventID, clipID, voterKey, voteType, models.VoteWeight(voteType))
	if err != nil {
		return false, fmt.Errorf("failed to record vote: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

// RevokeVote помечает последний активный голос пользователя за клип
// отозванным. Возвращает false, если отзывать нечего (голос уже
// отозван или никогда не существовал).
func (r *VoteRepositoryImpl) RevokeVote(ctx context.Context, clipID, voterKey string) (bool, error) {
	query := `
    UPDATE votes
    SET revoked_at = NOW()
    WHERE id = (
        SELECT id FROM votes
        WHERE clip_id = $1 AND voter_key = $2 AND revoked_at IS NULL
        ORDER BY created_at DESC
        LIMIT 1
    )
    `

	res, err := r.db.ExecContext(ctx, query, clipID, voterKey)
	if err != nil {
		return false, fmt.Errorf("failed to revoke vote: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

// GetClipTotals возвращает счетчики клипа из системы записи.
// Клип без голосов — нулевые счетчики, не ошибка.
func (r *VoteRepositoryImpl) GetClipTotals(ctx context.Context, clipID string) (*models.ClipTotals, error) {
	query := `
    SELECT
        $1::text AS clip_id,
        COUNT(*) AS vote_count,
        COALESCE(SUM(weight), 0) AS weighted_score
    FROM votes
    WHERE clip_id = $1 AND revoked_at IS NULL
    `

	var totals models.ClipTotals
	if err := r.db.GetContext(ctx, &totals, query, clipID); err != nil {
		if err == sql.ErrNoRows {
			return &models.ClipTotals{ClipID: clipID}, nil
		}
		return nil, fmt.Errorf("failed to get clip totals: %w", err)
	}

	return &totals, nil
}

// GetManyClipTotals возвращает счетчики нескольких клипов одним запросом
func (r *VoteRepositoryImpl) GetManyClipTotals(ctx context.Context, clipIDs []string) ([]models.ClipTotals, error) {
	if len(clipIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
    SELECT
        clip_id,
        COUNT(*) AS vote_count,
        COALESCE(SUM(weight), 0) AS weighted_score
    FROM votes
    WHERE clip_id IN (?) AND revoked_at IS NULL
    GROUP BY clip_id
    `, clipIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var totals []models.ClipTotals
	if err := r.db.SelectContext(ctx, &totals, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get clip totals: %w", err)
	}

	return totals, nil
}

// GetSlotClipScores возвращает взвешенные счета клипов, сгруппированные
// по (сезон, слот) — материал для сверки лидербордов клипов
func (r *VoteRepositoryImpl) GetSlotClipScores(ctx context.Context) ([]models.SlotScores, error) {
	query := `
    SELECT
        c.season_id,
        c.slot_position,
        c.id AS member,
        COALESCE(SUM(v.weight), 0) AS score
    FROM clips c
    LEFT JOIN votes v ON v.clip_id = c.id AND v.revoked_at IS NULL
    GROUP BY c.season_id, c.slot_position, c.id
    ORDER BY c.season_id, c.slot_position
    `

	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get slot clip scores: %w", err)
	}
	defer rows.Close()

	var result []models.SlotScores
	var current *models.SlotScores

	for rows.Next() {
		var seasonID, member string
		var slotPosition int
		var score float64
		if err := rows.Scan(&seasonID, &slotPosition, &member, &score); err != nil {
			return nil, fmt.Errorf("failed to scan slot clip score: %w", err)
		}

		if current == nil || current.SeasonID != seasonID || current.SlotPosition != slotPosition {
			result = append(result, models.SlotScores{
				SeasonID:     seasonID,
				SlotPosition: slotPosition,
			})
			current = &result[len(result)-1]
		}

		current.Scores = append(current.Scores, models.MemberScore{Member: member, Score: score})
	}

	return result, rows.Err()
}

// GetVoterTotals возвращает all-time счета голосующих
func (r *VoteRepositoryImpl) GetVoterTotals(ctx context.Context) ([]models.MemberScore, error) {
	query := `
    SELECT voter_key AS member, COALESCE(SUM(weight), 0) AS score
    FROM votes
    WHERE revoked_at IS NULL
    GROUP BY voter_key
    `

	var totals []models.MemberScore
	if err := r.db.SelectContext(ctx, &totals, query); err != nil {
		return nil, fmt.Errorf("failed to get voter totals: %w", err)
	}

	return totals, nil
}

// GetCreatorTotals возвращает all-time счета авторов клипов
func (r *VoteRepositoryImpl) GetCreatorTotals(ctx context.Context) ([]models.MemberScore, error) {
	query := `
    SELECT c.creator_key AS member, COALESCE(SUM(v.weight), 0) AS score
    FROM clips c
    LEFT JOIN votes v ON v.clip_id = c.id AND v.revoked_at IS NULL
    GROUP BY c.creator_key
    `

	var totals []models.MemberScore
	if err := r.db.SelectContext(ctx, &totals, query); err != nil {
		return nil, fmt.Errorf("failed to get creator totals: %w", err)
	}

	return totals, nil
}
