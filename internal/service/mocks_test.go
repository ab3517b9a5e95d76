package service

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"mosaicboard/internal/models"
	"mosaicboard/internal/repository"
)

type MockBoardRepository struct {
	mock.Mock
}

func (m *MockBoardRepository) Create(ctx context.Context, board *models.Board) error {
	args := m.Called(ctx, board)
	return args.Error(0)
}

func (m *MockBoardRepository) GetByID(ctx context.Context, boardID int64) (*models.Board, error) {
	args := m.Called(ctx, boardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Board), args.Error(1)
}

func (m *MockBoardRepository) Update(ctx context.Context, board *models.Board) error {
	args := m.Called(ctx, board)
	if args.Error(0) == nil {
		board.TimeModified++
	}
	return args.Error(0)
}

func (m *MockBoardRepository) ListCards(ctx context.Context, boardID int64, activeOnly bool) ([]models.Card, error) {
	args := m.Called(ctx, boardID, activeOnly)
	return args.Get(0).([]models.Card), args.Error(1)
}

func (m *MockBoardRepository) ListSections(ctx context.Context, boardID int64) ([]models.Section, error) {
	args := m.Called(ctx, boardID)
	return args.Get(0).([]models.Section), args.Error(1)
}

func (m *MockBoardRepository) UpdateSettings(ctx context.Context, board *models.Board, settings string) error {
	args := m.Called(ctx, board, settings)
	if args.Error(0) == nil {
		board.Settings = &settings
	}
	return args.Error(0)
}

func (m *MockBoardRepository) UpdateThemeConfig(ctx context.Context, board *models.Board, themeConfig string) error {
	args := m.Called(ctx, board, themeConfig)
	if args.Error(0) == nil {
		board.ThemeConfig = &themeConfig
	}
	return args.Error(0)
}

func (m *MockBoardRepository) Delete(ctx context.Context, boardID int64) error {
	args := m.Called(ctx, boardID)
	return args.Error(0)
}

type MockCardRepository struct {
	mock.Mock
}

func (m *MockCardRepository) Create(ctx context.Context, card *models.Card) error {
	args := m.Called(ctx, card)
	if args.Error(0) == nil {
		card.ID = 100
		card.Status = models.CardStatusActive
		card.TimeCreated = 1700000000
		card.TimeModified = 1700000000
		if card.Type == "" {
			card.Type = models.CardTypeText
		}
	}
	return args.Error(0)
}

func (m *MockCardRepository) GetByID(ctx context.Context, cardID int64) (*models.Card, error) {
	args := m.Called(ctx, cardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Card), args.Error(1)
}

func (m *MockCardRepository) Update(ctx context.Context, card *models.Card, fields models.CardUpdate) error {
	args := m.Called(ctx, card, fields)
	if args.Error(0) == nil {
		if fields.Title != nil {
			card.Title = *fields.Title
		}
		if fields.Content != nil {
			card.Content = *fields.Content
		}
		if fields.Type != nil {
			card.Type = *fields.Type
		}
		if fields.MediaData != nil {
			card.MediaData = fields.MediaData
		}
		card.TimeModified++
	}
	return args.Error(0)
}

func (m *MockCardRepository) Delete(ctx context.Context, card *models.Card, hard bool) error {
	args := m.Called(ctx, card, hard)
	if args.Error(0) == nil && !hard {
		card.Status = models.CardStatusDeleted
	}
	return args.Error(0)
}

func (m *MockCardRepository) ListByAuthor(ctx context.Context, boardID, userID int64) ([]models.Card, error) {
	args := m.Called(ctx, boardID, userID)
	return args.Get(0).([]models.Card), args.Error(1)
}

type MockSectionRepository struct {
	mock.Mock
}

func (m *MockSectionRepository) Create(ctx context.Context, section *models.Section) error {
	args := m.Called(ctx, section)
	if args.Error(0) == nil {
		section.ID = 7
	}
	return args.Error(0)
}

func (m *MockSectionRepository) GetByID(ctx context.Context, sectionID int64) (*models.Section, error) {
	args := m.Called(ctx, sectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Section), args.Error(1)
}

type MockReactionRepository struct {
	mock.Mock
}

func (m *MockReactionRepository) Add(ctx context.Context, reaction *models.Reaction) (bool, error) {
	args := m.Called(ctx, reaction)
	return args.Bool(0), args.Error(1)
}

func (m *MockReactionRepository) Remove(ctx context.Context, cardID, userID int64, reaction string) error {
	args := m.Called(ctx, cardID, userID, reaction)
	return args.Error(0)
}

func (m *MockReactionRepository) ListByCards(ctx context.Context, cardIDs []int64) ([]models.Reaction, error) {
	args := m.Called(ctx, cardIDs)
	return args.Get(0).([]models.Reaction), args.Error(1)
}

type MockCommentRepository struct {
	mock.Mock
}

func (m *MockCommentRepository) Add(ctx context.Context, comment *models.Comment) error {
	args := m.Called(ctx, comment)
	if args.Error(0) == nil {
		comment.ID = 55
	}
	return args.Error(0)
}

func (m *MockCommentRepository) ListByCard(ctx context.Context, cardID int64) ([]models.Comment, error) {
	args := m.Called(ctx, cardID)
	return args.Get(0).([]models.Comment), args.Error(1)
}

func (m *MockCommentRepository) CountByCards(ctx context.Context, cardIDs []int64) (map[int64]int, error) {
	args := m.Called(ctx, cardIDs)
	return args.Get(0).(map[int64]int), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByIDs(ctx context.Context, userIDs []int64) ([]models.User, error) {
	args := m.Called(ctx, userIDs)
	return args.Get(0).([]models.User), args.Error(1)
}

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) UploadCardMedia(ctx context.Context, cardID int64, fileName, contentType string, file io.Reader, size int64) (*models.MediaData, error) {
	args := m.Called(ctx, cardID, fileName, contentType, file, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MediaData), args.Error(1)
}

func (m *MockStorage) DeleteObject(ctx context.Context, objectName string) error {
	args := m.Called(ctx, objectName)
	return args.Error(0)
}

// grants maps a user id to the capabilities held in every context.
type grants map[int64][]models.Capability

func (g grants) HasCapability(_ context.Context, _ int64, capability models.Capability, userID int64) (bool, error) {
	for _, granted := range g[userID] {
		if granted == capability {
			return true, nil
		}
	}
	return false, nil
}

type recordingEmitter struct {
	events []models.Event
}

func (e *recordingEmitter) Emit(_ context.Context, event models.Event) {
	e.events = append(e.events, event)
}

func (e *recordingEmitter) names() []string {
	names := make([]string, 0, len(e.events))
	for _, event := range e.events {
		names = append(names, event.Name)
	}
	return names
}

type repoMocks struct {
	board    *MockBoardRepository
	card     *MockCardRepository
	section  *MockSectionRepository
	reaction *MockReactionRepository
	comment  *MockCommentRepository
	user     *MockUserRepository
}

func newRepoMocks() (*repoMocks, *repository.Repository) {
	mocks := &repoMocks{
		board:    new(MockBoardRepository),
		card:     new(MockCardRepository),
		section:  new(MockSectionRepository),
		reaction: new(MockReactionRepository),
		comment:  new(MockCommentRepository),
		user:     new(MockUserRepository),
	}

	return mocks, &repository.Repository{
		Board:    mocks.board,
		Card:     mocks.card,
		Section:  mocks.section,
		Reaction: mocks.reaction,
		Comment:  mocks.comment,
		User:     mocks.user,
	}
}

const (
	authorID    int64 = 5
	otherUserID int64 = 6
	moderatorID int64 = 9
	guestUserID int64 = 11
)

var studentCaps = []models.Capability{
	models.CapView, models.CapPost, models.CapEditOwnPost, models.CapDeleteOwnPost,
}

var teacherCaps = []models.Capability{
	models.CapView, models.CapPost, models.CapEditOwnPost, models.CapDeleteOwnPost,
	models.CapModerate, models.CapManage,
}

func testGrants() grants {
	return grants{
		authorID:    studentCaps,
		otherUserID: studentCaps,
		moderatorID: teacherCaps,
		guestUserID: {models.CapView},
	}
}

func testBoard() *models.Board {
	return &models.Board{ID: 1, CourseID: 2, CmID: 3, ContextID: 30, Name: "Ideas", Layout: models.LayoutWall}
}

func testCard() *models.Card {
	return &models.Card{
		ID: 10, BoardID: 1, UserID: authorID, Type: models.CardTypeText,
		Title: "Original", Content: "Body", Status: models.CardStatusActive,
		TimeCreated: 1700000000, TimeModified: 1700000000,
	}
}
