package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"mosaicboard/internal/models"
)

type BoardRepository interface {
	Create(ctx context.Context, board *models.Board) error
	GetByID(ctx context.Context, boardID int64) (*models.Board, error)
	Update(ctx context.Context, board *models.Board) error
	ListCards(ctx context.Context, boardID int64, activeOnly bool) ([]models.Card, error)
	ListSections(ctx context.Context, boardID int64) ([]models.Section, error)
	UpdateSettings(ctx context.Context, board *models.Board, settings string) error
	UpdateThemeConfig(ctx context.Context, board *models.Board, themeConfig string) error
	Delete(ctx context.Context, boardID int64) error
}

type CardRepository interface {
	Create(ctx context.Context, card *models.Card) error
	GetByID(ctx context.Context, cardID int64) (*models.Card, error)
	Update(ctx context.Context, card *models.Card, fields models.CardUpdate) error
	Delete(ctx context.Context, card *models.Card, hard bool) error
	ListByAuthor(ctx context.Context, boardID, userID int64) ([]models.Card, error)
}

type SectionRepository interface {
	Create(ctx context.Context, section *models.Section) error
	GetByID(ctx context.Context, sectionID int64) (*models.Section, error)
}

type ReactionRepository interface {
	Add(ctx context.Context, reaction *models.Reaction) (bool, error)
	Remove(ctx context.Context, cardID, userID int64, reaction string) error
	ListByCards(ctx context.Context, cardIDs []int64) ([]models.Reaction, error)
}

type CommentRepository interface {
	Add(ctx context.Context, comment *models.Comment) error
	ListByCard(ctx context.Context, cardID int64) ([]models.Comment, error)
	CountByCards(ctx context.Context, cardIDs []int64) (map[int64]int, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, userID int64) (*models.User, error)
	GetByIDs(ctx context.Context, userIDs []int64) ([]models.User, error)
}

type RoleRepository interface {
	GetRole(ctx context.Context, contextID, userID int64) (models.Role, error)
	Assign(ctx context.Context, contextID, userID int64, role models.Role) error
}

type TablesRepository interface {
	CountTablesDB(ctx context.Context) (int, error)
}

type Repository struct {
	Board    BoardRepository
	Card     CardRepository
	Section  SectionRepository
	Reaction ReactionRepository
	Comment  CommentRepository
	User     UserRepository
	Role     RoleRepository
	Tables   TablesRepository
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{
		Board:    NewBoardRepository(db),
		Card:     NewCardRepository(db),
		Section:  NewSectionRepository(db),
		Reaction: NewReactionRepository(db),
		Comment:  NewCommentRepository(db),
		User:     NewUserRepository(db),
		Role:     NewRoleRepository(db),
		Tables:   NewTablesRepository(db),
	}
}
