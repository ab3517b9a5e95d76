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

type SectionRepositoryImpl struct {
	db *sqlx.DB
}

func NewSectionRepository(db *sqlx.DB) *SectionRepositoryImpl {
	return &SectionRepositoryImpl{db: db}
}

func (r *SectionRepositoryImpl) Create(ctx context.Context, section *models.Section) error {
	section.TimeCreated = time.Now().Unix()

	query := `
		INSERT INTO sections (board_id, name, color, position, timecreated)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.QueryRowxContext(ctx, query,
		section.BoardID, section.Name, section.Color, section.Position, section.TimeCreated,
	).Scan(&section.ID)
	if err != nil {
		return fmt.Errorf("failed to create section: %w", err)
	}

	return nil
}

func (r *SectionRepositoryImpl) GetByID(ctx context.Context, sectionID int64) (*models.Section, error) {
	query := `SELECT id, board_id, name, color, position, timecreated FROM sections WHERE id = $1`

	var section models.Section
	err := r.db.GetContext(ctx, &section, query, sectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NotFoundError("section", sectionID)
		}
		return nil, fmt.Errorf("failed to get section: %w", err)
	}

	return &section, nil
}
