package test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/mock"

	"mosaicboard/internal/config"
	handlers "mosaicboard/internal/handler"
	"mosaicboard/internal/models"
	"mosaicboard/internal/service"
	"mosaicboard/internal/session"
)

type MockBoardService struct {
	mock.Mock
}

func (m *MockBoardService) GetBoard(ctx context.Context, boardID, userID int64) (*service.BoardData, error) {
	args := m.Called(ctx, boardID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BoardData), args.Error(1)
}

func (m *MockBoardService) ViewBoard(ctx context.Context, boardID, userID int64) (*service.BoardPage, error) {
	args := m.Called(ctx, boardID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BoardPage), args.Error(1)
}

func (m *MockBoardService) ViewConfig(ctx context.Context, boardID, userID int64) (*service.BoardPage, error) {
	args := m.Called(ctx, boardID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BoardPage), args.Error(1)
}

func (m *MockBoardService) UpdateSettings(ctx context.Context, boardID, userID int64, settings json.RawMessage) (*service.BoardRecord, error) {
	args := m.Called(ctx, boardID, userID, settings)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BoardRecord), args.Error(1)
}

func (m *MockBoardService) UpdateThemeConfig(ctx context.Context, boardID, userID int64, themeConfig json.RawMessage) (*service.BoardRecord, error) {
	args := m.Called(ctx, boardID, userID, themeConfig)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BoardRecord), args.Error(1)
}

func (m *MockBoardService) CreateSection(ctx context.Context, userID int64, req service.CreateSectionRequest) (*models.Section, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Section), args.Error(1)
}

func (m *MockBoardService) UserOutline(ctx context.Context, boardID, targetUserID, userID int64) (*service.UserOutline, error) {
	args := m.Called(ctx, boardID, targetUserID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UserOutline), args.Error(1)
}

func (m *MockBoardService) CreateBoard(ctx context.Context, board *models.Board) error {
	args := m.Called(ctx, board)
	return args.Error(0)
}

func (m *MockBoardService) UpdateBoard(ctx context.Context, boardID int64, fields models.BoardUpdate) (*models.Board, error) {
	args := m.Called(ctx, boardID, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Board), args.Error(1)
}

func (m *MockBoardService) DeleteBoard(ctx context.Context, boardID int64) error {
	args := m.Called(ctx, boardID)
	return args.Error(0)
}

type MockCardService struct {
	mock.Mock
}

func (m *MockCardService) Create(ctx context.Context, userID int64, req service.CreateCardRequest) (*models.Card, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Card), args.Error(1)
}

func (m *MockCardService) Update(ctx context.Context, userID int64, req service.UpdateCardRequest) (*models.Card, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Card), args.Error(1)
}

func (m *MockCardService) Delete(ctx context.Context, userID, cardID int64) (*models.Card, error) {
	args := m.Called(ctx, userID, cardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Card), args.Error(1)
}

func (m *MockCardService) Purge(ctx context.Context, userID, cardID int64) error {
	args := m.Called(ctx, userID, cardID)
	return args.Error(0)
}

func (m *MockCardService) AddReaction(ctx context.Context, userID, cardID int64, reaction string) (bool, error) {
	args := m.Called(ctx, userID, cardID, reaction)
	return args.Bool(0), args.Error(1)
}

func (m *MockCardService) RemoveReaction(ctx context.Context, userID, cardID int64, reaction string) error {
	args := m.Called(ctx, userID, cardID, reaction)
	return args.Error(0)
}

func (m *MockCardService) AddComment(ctx context.Context, userID int64, req service.AddCommentRequest) (*models.Comment, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comment), args.Error(1)
}

func (m *MockCardService) ListComments(ctx context.Context, userID, cardID int64) ([]models.Comment, error) {
	args := m.Called(ctx, userID, cardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Comment), args.Error(1)
}

func (m *MockCardService) UploadMedia(ctx context.Context, userID, cardID int64, fileName, contentType string, file io.Reader, size int64) (*models.MediaData, error) {
	args := m.Called(ctx, userID, cardID, fileName, contentType, file, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MediaData), args.Error(1)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) IssueToken(userID int64) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) UserIDFromToken(tokenString string) (int64, error) {
	args := m.Called(tokenString)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAuthService) IssueSesskey(userID int64) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) VerifySesskey(sesskey string, userID int64) error {
	args := m.Called(sesskey, userID)
	return args.Error(0)
}

type MockTablesService struct {
	mock.Mock
}

func (m *MockTablesService) Health(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type testServices struct {
	board  *MockBoardService
	card   *MockCardService
	auth   *MockAuthService
	tables *MockTablesService
}

func newTestHandlers() (*handlers.Handlers, *testServices) {
	mocks := &testServices{
		board:  new(MockBoardService),
		card:   new(MockCardService),
		auth:   new(MockAuthService),
		tables: new(MockTablesService),
	}

	svc := &service.Service{
		Board:  mocks.board,
		Card:   mocks.card,
		Auth:   mocks.auth,
		Tables: mocks.tables,
	}

	return handlers.NewHandlers(svc, testConfig(), nil), mocks
}

func (m *testServices) assertExpectations(t mock.TestingT) {
	m.board.AssertExpectations(t)
	m.card.AssertExpectations(t)
	m.auth.AssertExpectations(t)
	m.tables.AssertExpectations(t)
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecretKey:        "test-secret",
		AccessTokenDuration: time.Hour,
		SesskeyDuration:     time.Hour,
		MaxUploadSize:       1024,
		SiteRoot:            "https://lms.example.com",
		LoaderURL:           "/static/mosaic/loader.js",
	}
}

// withRequest attaches route variables and, when userID is set, the acting user.
func withRequest(req *http.Request, userID int64, vars map[string]string) *http.Request {
	if userID > 0 {
		req = req.WithContext(session.WithUser(req.Context(), userID))
	}
	return mux.SetURLVars(req, vars)
}

func int64Ptr(v int64) *int64 {
	return &v
}

func stringPtr(v string) *string {
	return &v
}
