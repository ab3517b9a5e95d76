package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"mosaicboard/internal/models"
)

type CardRepositoryImpl struct {
	db *sqlx.DB
}

func NewCardRepository(db *sqlx.DB) *CardRepositoryImpl {
	return &CardRepositoryImpl{db: db}
}

// Create inserts an active card. The board row is share-locked for the
// duration so the insert cannot race a board deletion, and a section, when
// given, must belong to the same board.
func (r *CardRepositoryImpl) Create(ctx context.Context, card *models.Card) error {
	if card.Type == "" {
		card.Type = models.CardTypeText
	}

	now := time.Now().Unix()
	card.Status = models.CardStatusActive
	card.TimeCreated = now
	card.TimeModified = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var boardID int64
	err = tx.GetContext(ctx, &boardID, `SELECT id FROM boards WHERE id = $1 FOR SHARE`, card.BoardID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.NotFoundError("board", card.BoardID)
		}
		return fmt.Errorf("failed to lock board: %w", err)
	}

	if card.SectionID != nil {
		if err := checkSectionBoard(ctx, tx, *card.SectionID, card.BoardID); err != nil {
			return err
		}
	}

	query := `
		INSERT INTO cards
		(board_id, user_id, section_id, type, title, content, media_data, position_data, style_data,
		 status, anonymous, timecreated, timemodified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`

	err = tx.QueryRowxContext(ctx, query,
		card.BoardID, card.UserID, card.SectionID, card.Type, card.Title, card.Content,
		card.MediaData, card.PositionData, card.StyleData,
		card.Status, card.Anonymous, card.TimeCreated, card.TimeModified,
	).Scan(&card.ID)
	if err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit card creation: %w", err)
	}

	return nil
}

func checkSectionBoard(ctx context.Context, q sqlx.QueryerContext, sectionID, boardID int64) error {
	var sectionBoardID int64
	err := sqlx.GetContext(ctx, q, &sectionBoardID, `SELECT board_id FROM sections WHERE id = $1`, sectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.ValidationError{Field: "section_id", Message: "section does not exist"}
		}
		return fmt.Errorf("failed to get section: %w", err)
	}

	if sectionBoardID != boardID {
		return &models.ValidationError{Field: "section_id", Message: "section belongs to another board"}
	}

	return nil
}

func (r *CardRepositoryImpl) GetByID(ctx context.Context, cardID int64) (*models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1`

	var card models.Card
	err := r.db.GetContext(ctx, &card, query, cardID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NotFoundError("card", cardID)
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}

	return &card, nil
}

// Update writes only the fields set in fields and bumps timemodified. On
// success the same fields are applied to card.
func (r *CardRepositoryImpl) Update(ctx context.Context, card *models.Card, fields models.CardUpdate) error {
	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if fields.Title != nil {
		set("title", *fields.Title)
	}
	if fields.Content != nil {
		set("content", *fields.Content)
	}
	if fields.Type != nil {
		set("type", *fields.Type)
	}
	if fields.SectionID != nil {
		set("section_id", *fields.SectionID)
	}
	if fields.MediaData != nil {
		set("media_data", *fields.MediaData)
	}
	if fields.PositionData != nil {
		set("position_data", *fields.PositionData)
	}
	if fields.StyleData != nil {
		set("style_data", *fields.StyleData)
	}

	now := time.Now().Unix()
	set("timemodified", now)

	args = append(args, card.ID)
	query := fmt.Sprintf(`UPDATE cards SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update card: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}

	if rowsAffected == 0 {
		return models.NotFoundError("card", card.ID)
	}

	applyCardUpdate(card, fields)
	card.TimeModified = now
	return nil
}

func applyCardUpdate(card *models.Card, fields models.CardUpdate) {
	if fields.Title != nil {
		card.Title = *fields.Title
	}
	if fields.Content != nil {
		card.Content = *fields.Content
	}
	if fields.Type != nil {
		card.Type = *fields.Type
	}
	if fields.SectionID != nil {
		sectionID := *fields.SectionID
		card.SectionID = &sectionID
	}
	if fields.MediaData != nil {
		media := *fields.MediaData
		card.MediaData = &media
	}
	if fields.PositionData != nil {
		position := *fields.PositionData
		card.PositionData = &position
	}
	if fields.StyleData != nil {
		style := *fields.StyleData
		card.StyleData = &style
	}
}

// Delete soft-deletes the card by flipping its status, or with hard set
// removes the card together with its reactions and comments.
func (r *CardRepositoryImpl) Delete(ctx context.Context, card *models.Card, hard bool) error {
	if hard {
		return r.purge(ctx, card.ID)
	}

	now := time.Now().Unix()
	result, err := r.db.ExecContext(ctx,
		`UPDATE cards SET status = $1, timemodified = $2 WHERE id = $3`,
		models.CardStatusDeleted, now, card.ID)
	if err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}

	if rowsAffected == 0 {
		return models.NotFoundError("card", card.ID)
	}

	card.Status = models.CardStatusDeleted
	card.TimeModified = now
	return nil
}

func (r *CardRepositoryImpl) purge(ctx context.Context, cardID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reactions WHERE card_id = $1`, cardID); err != nil {
		return fmt.Errorf("failed to delete card reactions: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE card_id = $1`, cardID); err != nil {
		return fmt.Errorf("failed to delete card comments: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE id = $1`, cardID)
	if err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}

	if rowsAffected == 0 {
		return models.NotFoundError("card", cardID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit card deletion: %w", err)
	}

	return nil
}

// ListByAuthor returns a user's active cards on a board, newest first.
func (r *CardRepositoryImpl) ListByAuthor(ctx context.Context, boardID, userID int64) ([]models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards
		WHERE board_id = $1 AND user_id = $2 AND status = $3
		ORDER BY timecreated DESC, id DESC`

	cards := []models.Card{}
	if err := r.db.SelectContext(ctx, &cards, query, boardID, userID, models.CardStatusActive); err != nil {
		return nil, fmt.Errorf("failed to list cards by author: %w", err)
	}

	return cards, nil
}
