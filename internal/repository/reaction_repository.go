package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"mosaicboard/internal/models"
)

type ReactionRepositoryImpl struct {
	db *sqlx.DB
}

func NewReactionRepository(db *sqlx.DB) *ReactionRepositoryImpl {
	return &ReactionRepositoryImpl{db: db}
}

// Add records the reaction once per (card, user, reaction). It reports
// false, without error, when the same triple is already stored.
func (r *ReactionRepositoryImpl) Add(ctx context.Context, reaction *models.Reaction) (bool, error) {
	if reaction.TimeCreated == 0 {
		reaction.TimeCreated = time.Now().Unix()
	}

	query := `
		INSERT INTO reactions (card_id, user_id, reaction, timecreated)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (card_id, user_id, reaction) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query,
		reaction.CardID, reaction.UserID, reaction.Reaction, reaction.TimeCreated)
	if err != nil {
		return false, fmt.Errorf("failed to add reaction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check inserted rows: %w", err)
	}

	return rowsAffected > 0, nil
}

// Remove deletes the exact (card, user, reaction) triple. Removing a
// reaction that does not exist is not an error.
func (r *ReactionRepositoryImpl) Remove(ctx context.Context, cardID, userID int64, reaction string) error {
	query := `DELETE FROM reactions WHERE card_id = $1 AND user_id = $2 AND reaction = $3`

	if _, err := r.db.ExecContext(ctx, query, cardID, userID, reaction); err != nil {
		return fmt.Errorf("failed to remove reaction: %w", err)
	}

	return nil
}

func (r *ReactionRepositoryImpl) ListByCards(ctx context.Context, cardIDs []int64) ([]models.Reaction, error) {
	reactions := []models.Reaction{}
	if len(cardIDs) == 0 {
		return reactions, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, card_id, user_id, reaction, timecreated
		FROM reactions
		WHERE card_id IN (?)
		ORDER BY timecreated ASC, id ASC
	`, cardIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build reactions query: %w", err)
	}

	if err := r.db.SelectContext(ctx, &reactions, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list reactions: %w", err)
	}

	return reactions, nil
}
