package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"mosaicboard/internal/models"
)

const boardColumns = `id, course_id, cm_id, context_id, name, intro, intro_format, layout,
	theme_config, settings, timecreated, timemodified`

const cardColumns = `id, board_id, user_id, section_id, type, title, content, media_data,
	position_data, style_data, status, anonymous, timecreated, timemodified`

type BoardRepositoryImpl struct {
	db *sqlx.DB
}

func NewBoardRepository(db *sqlx.DB) *BoardRepositoryImpl {
	return &BoardRepositoryImpl{db: db}
}

// Create provisions a new board. Layout defaults to wall.
func (r *BoardRepositoryImpl) Create(ctx context.Context, board *models.Board) error {
	if board.Layout == "" {
		board.Layout = models.LayoutWall
	}

	now := time.Now().Unix()
	board.TimeCreated = now
	board.TimeModified = now

	query := `
		INSERT INTO boards
		(course_id, cm_id, context_id, name, intro, intro_format, layout, theme_config, settings, timecreated, timemodified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	err := r.db.QueryRowxContext(ctx, query,
		board.CourseID, board.CmID, board.ContextID, board.Name, board.Intro, board.IntroFormat,
		board.Layout, board.ThemeConfig, board.Settings, board.TimeCreated, board.TimeModified,
	).Scan(&board.ID)
	if err != nil {
		return fmt.Errorf("failed to create board: %w", err)
	}

	return nil
}

// Update writes the board's name, intro and layout and bumps timemodified.
func (r *BoardRepositoryImpl) Update(ctx context.Context, board *models.Board) error {
	now := time.Now().Unix()

	result, err := r.db.ExecContext(ctx,
		`UPDATE boards SET name = $1, intro = $2, layout = $3, timemodified = $4 WHERE id = $5`,
		board.Name, board.Intro, board.Layout, now, board.ID)
	if err != nil {
		return fmt.Errorf("failed to update board: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}

	if rowsAffected == 0 {
		return models.NotFoundError("board", board.ID)
	}

	board.TimeModified = now
	return nil
}

func (r *BoardRepositoryImpl) GetByID(ctx context.Context, boardID int64) (*models.Board, error) {
	query := `SELECT ` + boardColumns + ` FROM boards WHERE id = $1`

	var board models.Board
	err := r.db.GetContext(ctx, &board, query, boardID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NotFoundError("board", boardID)
		}
		return nil, fmt.Errorf("failed to get board: %w", err)
	}

	return &board, nil
}

// ListCards returns the board's cards oldest first. activeOnly drops
// soft-deleted cards.
func (r *BoardRepositoryImpl) ListCards(ctx context.Context, boardID int64, activeOnly bool) ([]models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE board_id = $1`
	args := []any{boardID}

	if activeOnly {
		query += ` AND status = $2`
		args = append(args, models.CardStatusActive)
	}
	query += ` ORDER BY timecreated ASC, id ASC`

	cards := []models.Card{}
	if err := r.db.SelectContext(ctx, &cards, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}

	return cards, nil
}

func (r *BoardRepositoryImpl) ListSections(ctx context.Context, boardID int64) ([]models.Section, error) {
	query := `
		SELECT id, board_id, name, color, position, timecreated
		FROM sections
		WHERE board_id = $1
		ORDER BY position ASC, id ASC
	`

	sections := []models.Section{}
	if err := r.db.SelectContext(ctx, &sections, query, boardID); err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}

	return sections, nil
}

func (r *BoardRepositoryImpl) UpdateSettings(ctx context.Context, board *models.Board, settings string) error {
	now, err := r.updateBlob(ctx, "settings", board.ID, settings)
	if err != nil {
		return err
	}

	board.Settings = &settings
	board.TimeModified = now
	return nil
}

func (r *BoardRepositoryImpl) UpdateThemeConfig(ctx context.Context, board *models.Board, themeConfig string) error {
	now, err := r.updateBlob(ctx, "theme_config", board.ID, themeConfig)
	if err != nil {
		return err
	}

	board.ThemeConfig = &themeConfig
	board.TimeModified = now
	return nil
}

// updateBlob overwrites one of the board's JSON blobs. column is never user input.
func (r *BoardRepositoryImpl) updateBlob(ctx context.Context, column string, boardID int64, value string) (int64, error) {
	now := time.Now().Unix()
	query := fmt.Sprintf(`UPDATE boards SET %s = $1, timemodified = $2 WHERE id = $3`, column)

	result, err := r.db.ExecContext(ctx, query, value, now, boardID)
	if err != nil {
		return 0, fmt.Errorf("failed to update board %s: %w", column, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check updated rows: %w", err)
	}

	if rowsAffected == 0 {
		return 0, models.NotFoundError("board", boardID)
	}

	return now, nil
}

// Delete removes the board with every card, reaction, comment, section and
// role assignment belonging to it in one transaction. The board row is
// locked first so a concurrent card insert either finishes before or sees
// the board gone.
func (r *BoardRepositoryImpl) Delete(ctx context.Context, boardID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var contextID int64
	err = tx.GetContext(ctx, &contextID, `SELECT context_id FROM boards WHERE id = $1 FOR UPDATE`, boardID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.NotFoundError("board", boardID)
		}
		return fmt.Errorf("failed to lock board: %w", err)
	}

	statements := []string{
		`DELETE FROM reactions WHERE card_id IN (SELECT id FROM cards WHERE board_id = $1)`,
		`DELETE FROM comments WHERE card_id IN (SELECT id FROM cards WHERE board_id = $1)`,
		`DELETE FROM cards WHERE board_id = $1`,
		`DELETE FROM sections WHERE board_id = $1`,
		`DELETE FROM boards WHERE id = $1`,
	}

	for _, statement := range statements {
		if _, err := tx.ExecContext(ctx, statement, boardID); err != nil {
			return fmt.Errorf("failed to delete board: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM board_roles WHERE context_id = $1`, contextID); err != nil {
		return fmt.Errorf("failed to delete board roles: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit board deletion: %w", err)
	}

	return nil
}
