package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"mosaicboard/internal/access"
	"mosaicboard/internal/config"
	"mosaicboard/internal/models"
	"mosaicboard/internal/repository"
	"mosaicboard/internal/storage"
)

type BoardService interface {
	GetBoard(ctx context.Context, boardID, userID int64) (*BoardData, error)
	ViewBoard(ctx context.Context, boardID, userID int64) (*BoardPage, error)
	ViewConfig(ctx context.Context, boardID, userID int64) (*BoardPage, error)
	UpdateSettings(ctx context.Context, boardID, userID int64, settings json.RawMessage) (*BoardRecord, error)
	UpdateThemeConfig(ctx context.Context, boardID, userID int64, themeConfig json.RawMessage) (*BoardRecord, error)
	CreateSection(ctx context.Context, userID int64, req CreateSectionRequest) (*models.Section, error)
	UserOutline(ctx context.Context, boardID, targetUserID, userID int64) (*UserOutline, error)
	CreateBoard(ctx context.Context, board *models.Board) error
	UpdateBoard(ctx context.Context, boardID int64, fields models.BoardUpdate) (*models.Board, error)
	DeleteBoard(ctx context.Context, boardID int64) error
}

// BoardRecord is the board as the client sees it. Unset blobs read as "{}".
type BoardRecord struct {
	ID           int64         `json:"id"`
	Course       int64         `json:"course"`
	Name         string        `json:"name"`
	Intro        string        `json:"intro"`
	IntroFormat  int           `json:"introformat"`
	Layout       models.Layout `json:"layout"`
	ThemeConfig  string        `json:"theme_config"`
	Settings     string        `json:"settings"`
	TimeCreated  int64         `json:"timecreated"`
	TimeModified int64         `json:"timemodified"`
}

func newBoardRecord(board *models.Board) BoardRecord {
	return BoardRecord{
		ID:           board.ID,
		Course:       board.CourseID,
		Name:         board.Name,
		Intro:        board.Intro,
		IntroFormat:  board.IntroFormat,
		Layout:       board.Layout,
		ThemeConfig:  board.ThemeConfigJSON(),
		Settings:     board.SettingsJSON(),
		TimeCreated:  board.TimeCreated,
		TimeModified: board.TimeModified,
	}
}

// BoardCard is an active card with its reactions, comment count and
// author. User is nil for anonymous cards.
type BoardCard struct {
	models.Card
	Reactions    []models.Reaction  `json:"reactions"`
	CommentCount int                `json:"commentcount"`
	User         *models.PublicUser `json:"user"`
}

type CurrentUser struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullname"`
}

type BoardData struct {
	Board       BoardRecord        `json:"board"`
	Cards       []BoardCard        `json:"cards"`
	Sections    []models.Section   `json:"sections"`
	Permissions models.Permissions `json:"permissions"`
	CurrentUser CurrentUser        `json:"currentuser"`
}

// ViewConfig is handed to the client application at page load.
type ViewConfig struct {
	BoardID     int64              `json:"boardid"`
	CmID        int64              `json:"cmid"`
	ContextID   int64              `json:"contextid"`
	CourseID    int64              `json:"courseid"`
	Layout      models.Layout      `json:"layout"`
	Permissions models.Permissions `json:"permissions"`
	WWWRoot     string             `json:"wwwroot"`
	Sesskey     string             `json:"sesskey"`
}

type BoardPage struct {
	Board  *models.Board
	Config ViewConfig
}

type UserOutline struct {
	UserID     int64         `json:"userid"`
	PostCount  int           `json:"postcount"`
	LastPosted int64         `json:"lastposted"`
	Cards      []models.Card `json:"cards"`
}

type boardService struct {
	boardRepo    repository.BoardRepository
	cardRepo     repository.CardRepository
	sectionRepo  repository.SectionRepository
	reactionRepo repository.ReactionRepository
	commentRepo  repository.CommentRepository
	userRepo     repository.UserRepository
	checker      access.Checker
	auth         AuthService
	storage      storage.Storage
	events       EventEmitter
	cfg          *config.Config
}

func NewBoardService(rep *repository.Repository, checker access.Checker, auth AuthService, storage storage.Storage, events EventEmitter, cfg *config.Config) BoardService {
	return &boardService{
		boardRepo:    rep.Board,
		cardRepo:     rep.Card,
		sectionRepo:  rep.Section,
		reactionRepo: rep.Reaction,
		commentRepo:  rep.Comment,
		userRepo:     rep.User,
		checker:      checker,
		auth:         auth,
		storage:      storage,
		events:       events,
		cfg:          cfg,
	}
}

func (s *boardService) GetBoard(ctx context.Context, boardID, userID int64) (*BoardData, error) {
	board, err := s.boardRepo.GetByID(ctx, boardID)
	if err != nil {
		return nil, err
	}

	if err := access.Require(ctx, s.checker, board.ContextID, userID, models.CapView, msgCannotView); err != nil {
		return nil, err
	}

	cards, err := s.boardRepo.ListCards(ctx, board.ID, true)
	if err != nil {
		return nil, err
	}

	cardIDs := make([]int64, 0, len(cards))
	userIDs := []int64{userID}
	for _, card := range cards {
		cardIDs = append(cardIDs, card.ID)
		if !card.Anonymous {
			userIDs = append(userIDs, card.UserID)
		}
	}

	reactions, err := s.reactionRepo.ListByCards(ctx, cardIDs)
	if err != nil {
		return nil, err
	}
	reactionsByCard := make(map[int64][]models.Reaction, len(cards))
	for _, reaction := range reactions {
		reactionsByCard[reaction.CardID] = append(reactionsByCard[reaction.CardID], reaction)
	}

	commentCounts, err := s.commentRepo.CountByCards(ctx, cardIDs)
	if err != nil {
		return nil, err
	}

	users, err := s.userRepo.GetByIDs(ctx, uniqueIDs(userIDs))
	if err != nil {
		return nil, err
	}
	usersByID := make(map[int64]*models.User, len(users))
	for i := range users {
		usersByID[users[i].ID] = &users[i]
	}

	boardCards := make([]BoardCard, 0, len(cards))
	for _, card := range cards {
		boardCard := BoardCard{
			Card:         card,
			Reactions:    reactionsByCard[card.ID],
			CommentCount: commentCounts[card.ID],
		}
		if boardCard.Reactions == nil {
			boardCard.Reactions = []models.Reaction{}
		}
		if author, ok := usersByID[card.UserID]; ok && !card.Anonymous {
			boardCard.User = author.Public()
		}
		boardCards = append(boardCards, boardCard)
	}

	sections, err := s.boardRepo.ListSections(ctx, board.ID)
	if err != nil {
		return nil, err
	}

	permissions, err := access.Grants(ctx, s.checker, board.ContextID, userID)
	if err != nil {
		return nil, err
	}

	current := CurrentUser{ID: userID}
	if user, ok := usersByID[userID]; ok {
		current.FullName = user.FullName()
	}

	return &BoardData{
		Board:       newBoardRecord(board),
		Cards:       boardCards,
		Sections:    sections,
		Permissions: permissions,
		CurrentUser: current,
	}, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}

// ViewBoard builds the page configuration and records the view.
func (s *boardService) ViewBoard(ctx context.Context, boardID, userID int64) (*BoardPage, error) {
	page, err := s.ViewConfig(ctx, boardID, userID)
	if err != nil {
		return nil, err
	}

	s.events.Emit(ctx, models.Event{
		Name:      models.EventCourseModuleViewed,
		ObjectID:  page.Board.ID,
		ContextID: page.Board.ContextID,
		UserID:    userID,
		Other:     map[string]any{"cmid": page.Board.CmID, "courseid": page.Board.CourseID},
	})

	return page, nil
}

func (s *boardService) ViewConfig(ctx context.Context, boardID, userID int64) (*BoardPage, error) {
	board, err := s.boardRepo.GetByID(ctx, boardID)
	if err != nil {
		return nil, err
	}

	if err := access.Require(ctx, s.checker, board.ContextID, userID, models.CapView, msgCannotView); err != nil {
		return nil, err
	}

	permissions, err := access.Grants(ctx, s.checker, board.ContextID, userID)
	if err != nil {
		return nil, err
	}

	sesskey, err := s.auth.IssueSesskey(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue sesskey: %w", err)
	}

	return &BoardPage{
		Board: board,
		Config: ViewConfig{
			BoardID:     board.ID,
			CmID:        board.CmID,
			ContextID:   board.ContextID,
			CourseID:    board.CourseID,
			Layout:      board.Layout,
			Permissions: permissions,
			WWWRoot:     s.cfg.SiteRoot,
			Sesskey:     sesskey,
		},
	}, nil
}

func (s *boardService) UpdateSettings(ctx context.Context, boardID, userID int64, settings json.RawMessage) (*BoardRecord, error) {
	return s.updateBlob(ctx, boardID, userID, "settings", settings, s.boardRepo.UpdateSettings)
}

func (s *boardService) UpdateThemeConfig(ctx context.Context, boardID, userID int64, themeConfig json.RawMessage) (*BoardRecord, error) {
	return s.updateBlob(ctx, boardID, userID, "theme_config", themeConfig, s.boardRepo.UpdateThemeConfig)
}

type blobWriter func(ctx context.Context, board *models.Board, value string) error

func (s *boardService) updateBlob(ctx context.Context, boardID, userID int64, field string, raw json.RawMessage, write blobWriter) (*BoardRecord, error) {
	board, err := s.boardRepo.GetByID(ctx, boardID)
	if err != nil {
		return nil, err
	}

	if err := access.Require(ctx, s.checker, board.ContextID, userID, models.CapManage, msgCannotManage); err != nil {
		return nil, err
	}

	value := blob(raw)
	if value == nil || !json.Valid([]byte(*value)) || (*value)[0] != '{' {
		return nil, &models.ValidationError{Field: field, Message: "must be a JSON object"}
	}

	if err := write(ctx, board, *value); err != nil {
		return nil, err
	}

	s.events.Emit(ctx, boardEvent(models.EventBoardUpdated, board.ID, board, userID, map[string]any{"field": field}))

	record := newBoardRecord(board)
	return &record, nil
}

func (s *boardService) CreateSection(ctx context.Context, userID int64, req CreateSectionRequest) (*models.Section, error) {
	board, err := s.boardRepo.GetByID(ctx, req.BoardID)
	if err != nil {
		return nil, err
	}

	if err := access.Require(ctx, s.checker, board.ContextID, userID, models.CapManage, msgCannotManage); err != nil {
		return nil, err
	}

	section := &models.Section{
		BoardID:  board.ID,
		Name:     req.Name,
		Color:    req.Color,
		Position: req.Position,
	}
	if err := s.sectionRepo.Create(ctx, section); err != nil {
		return nil, err
	}

	s.events.Emit(ctx, boardEvent(models.EventSectionCreated, section.ID, board, userID, nil))

	return section, nil
}

// UserOutline summarises a user's activity on the board. Users may always
// look at their own outline; other users' outlines need manage.
func (s *boardService) UserOutline(ctx context.Context, boardID, targetUserID, userID int64) (*UserOutline, error) {
	board, err := s.boardRepo.GetByID(ctx, boardID)
	if err != nil {
		return nil, err
	}

	capability, message := models.CapManage, msgCannotManage
	if targetUserID == userID {
		capability, message = models.CapView, msgCannotView
	}
	if err := access.Require(ctx, s.checker, board.ContextID, userID, capability, message); err != nil {
		return nil, err
	}

	cards, err := s.cardRepo.ListByAuthor(ctx, board.ID, targetUserID)
	if err != nil {
		return nil, err
	}

	outline := &UserOutline{
		UserID:    targetUserID,
		PostCount: len(cards),
		Cards:     cards,
	}
	if len(cards) > 0 {
		outline.LastPosted = cards[0].TimeCreated
	}

	return outline, nil
}

func (s *boardService) CreateBoard(ctx context.Context, board *models.Board) error {
	if board.Layout == "" {
		board.Layout = models.LayoutWall
	}
	if err := validateBoard(board); err != nil {
		return err
	}

	return s.boardRepo.Create(ctx, board)
}

// UpdateBoard changes the name, intro or layout of an existing board.
func (s *boardService) UpdateBoard(ctx context.Context, boardID int64, fields models.BoardUpdate) (*models.Board, error) {
	board, err := s.boardRepo.GetByID(ctx, boardID)
	if err != nil {
		return nil, err
	}

	updated := *board
	if fields.Name != nil {
		updated.Name = *fields.Name
	}
	if fields.Intro != nil {
		updated.Intro = *fields.Intro
	}
	if fields.Layout != nil {
		updated.Layout = *fields.Layout
	}

	if err := validateBoard(&updated); err != nil {
		return nil, err
	}

	if err := s.boardRepo.Update(ctx, &updated); err != nil {
		return nil, err
	}

	return &updated, nil
}

func validateBoard(board *models.Board) error {
	if !board.Layout.Valid() {
		return &models.ValidationError{Field: "layout", Message: fmt.Sprintf("unknown layout %q", board.Layout)}
	}
	if board.Name == "" {
		return &models.ValidationError{Field: "name", Message: "is required"}
	}
	return nil
}

// DeleteBoard removes the board and everything on it. Media objects are
// removed after the rows are gone; a failure there only leaves an orphan
// object behind and is logged.
func (s *boardService) DeleteBoard(ctx context.Context, boardID int64) error {
	cards, err := s.boardRepo.ListCards(ctx, boardID, false)
	if err != nil {
		return err
	}

	if err := s.boardRepo.Delete(ctx, boardID); err != nil {
		return err
	}

	for _, card := range cards {
		removeMedia(ctx, s.storage, &card)
	}

	return nil
}

func removeMedia(ctx context.Context, store storage.Storage, card *models.Card) {
	media := card.Media()
	if store == nil || media == nil || media.ObjectName == "" {
		return
	}

	if err := store.DeleteObject(ctx, media.ObjectName); err != nil {
		zap.L().Warn("failed to remove card media",
			zap.Int64("cardid", card.ID),
			zap.String("object", media.ObjectName),
			zap.Error(err),
		)
	}
}
