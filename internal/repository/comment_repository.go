package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"mosaicboard/internal/models"
)

type CommentRepositoryImpl struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) *CommentRepositoryImpl {
	return &CommentRepositoryImpl{db: db}
}

const (
	pqForeignKeyViolation = "23503"
	commentParentFK       = "comments_parent_id_fkey"
)

// Add inserts the comment. The parent is not required to sit on the same
// card; an unknown parent is a ValidationError.
func (r *CommentRepositoryImpl) Add(ctx context.Context, comment *models.Comment) error {
	now := time.Now().Unix()
	comment.TimeCreated = now
	comment.TimeModified = now

	query := `
		INSERT INTO comments (card_id, user_id, parent_id, comment, timecreated, timemodified)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.QueryRowxContext(ctx, query,
		comment.CardID, comment.UserID, comment.ParentID, comment.Comment,
		comment.TimeCreated, comment.TimeModified,
	).Scan(&comment.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
			if pqErr.Constraint == commentParentFK {
				return &models.ValidationError{Field: "parentid", Message: "parent comment does not exist"}
			}
			return models.NotFoundError("card", comment.CardID)
		}
		return fmt.Errorf("failed to add comment: %w", err)
	}

	return nil
}

func (r *CommentRepositoryImpl) ListByCard(ctx context.Context, cardID int64) ([]models.Comment, error) {
	query := `
		SELECT id, card_id, user_id, parent_id, comment, timecreated, timemodified
		FROM comments
		WHERE card_id = $1
		ORDER BY timecreated ASC, id ASC
	`

	comments := []models.Comment{}
	if err := r.db.SelectContext(ctx, &comments, query, cardID); err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return comments, nil
}

// CountByCards returns comment counts keyed by card id. Cards without
// comments are absent from the map.
func (r *CommentRepositoryImpl) CountByCards(ctx context.Context, cardIDs []int64) (map[int64]int, error) {
	counts := make(map[int64]int, len(cardIDs))
	if len(cardIDs) == 0 {
		return counts, nil
	}

	query, args, err := sqlx.In(`
		SELECT card_id, COUNT(*) AS total
		FROM comments
		WHERE card_id IN (?)
		GROUP BY card_id
	`, cardIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build comment count query: %w", err)
	}

	var rows []struct {
		CardID int64 `db:"card_id"`
		Total  int   `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to count comments: %w", err)
	}

	for _, row := range rows {
		counts[row.CardID] = row.Total
	}

	return counts, nil
}
