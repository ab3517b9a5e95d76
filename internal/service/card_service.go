package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"mosaicboard/internal/access"
	"mosaicboard/internal/models"
	"mosaicboard/internal/repository"
	"mosaicboard/internal/storage"
)

var ErrStorageDisabled = errors.New("media storage is not configured")

type CardService interface {
	Create(ctx context.Context, userID int64, req CreateCardRequest) (*models.Card, error)
	Update(ctx context.Context, userID int64, req UpdateCardRequest) (*models.Card, error)
	Delete(ctx context.Context, userID, cardID int64) (*models.Card, error)
	Purge(ctx context.Context, userID, cardID int64) error
	AddReaction(ctx context.Context, userID, cardID int64, reaction string) (bool, error)
	RemoveReaction(ctx context.Context, userID, cardID int64, reaction string) error
	AddComment(ctx context.Context, userID int64, req AddCommentRequest) (*models.Comment, error)
	ListComments(ctx context.Context, userID, cardID int64) ([]models.Comment, error)
	UploadMedia(ctx context.Context, userID, cardID int64, fileName, contentType string, file io.Reader, size int64) (*models.MediaData, error)
}

type cardService struct {
	boardRepo    repository.BoardRepository
	cardRepo     repository.CardRepository
	sectionRepo  repository.SectionRepository
	reactionRepo repository.ReactionRepository
	commentRepo  repository.CommentRepository
	checker      access.Checker
	storage      storage.Storage
	events       EventEmitter
}

func NewCardService(rep *repository.Repository, checker access.Checker, storage storage.Storage, events EventEmitter) CardService {
	return &cardService{
		boardRepo:    rep.Board,
		cardRepo:     rep.Card,
		sectionRepo:  rep.Section,
		reactionRepo: rep.Reaction,
		commentRepo:  rep.Comment,
		checker:      checker,
		storage:      storage,
		events:       events,
	}
}

func (s *cardService) Create(ctx context.Context, userID int64, req CreateCardRequest) (*models.Card, error) {
	board, err := s.boardRepo.GetByID(ctx, req.BoardID)
	if err != nil {
		return nil, err
	}

	if err := access.Require(ctx, s.checker, board.ContextID, userID, models.CapPost, msgCannotPost); err != nil {
		return nil, err
	}

	card := &models.Card{
		BoardID:      board.ID,
		UserID:       userID,
		SectionID:    req.SectionID,
		Type:         req.Type,
		Title:        req.Title,
		Content:      req.Content,
		MediaData:    blob(req.MediaData),
		PositionData: blob(req.PositionData),
		StyleData:    blob(req.StyleData),
		Anonymous:    req.Anonymous,
	}
	if err := s.cardRepo.Create(ctx, card); err != nil {
		return nil, err
	}

	s.events.Emit(ctx, boardEvent(models.EventCardCreated, card.ID, board, userID, nil))

	return card, nil
}

func (s *cardService) Update(ctx context.Context, userID int64, req UpdateCardRequest) (*models.Card, error) {
	card, board, err := s.load(ctx, req.CardID)
	if err != nil {
		return nil, err
	}

	ok, err := access.CanEdit(ctx, s.checker, board, card, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, denied(models.CapEditOwnPost, msgCannotEdit)
	}

	if req.SectionID != nil {
		if err := s.checkSection(ctx, *req.SectionID, board.ID); err != nil {
			return nil, err
		}
	}

	fields := models.CardUpdate{
		Title:        req.Title,
		Content:      req.Content,
		Type:         req.Type,
		SectionID:    req.SectionID,
		PositionData: blob(req.PositionData),
		StyleData:    blob(req.StyleData),
	}
	if err := s.cardRepo.Update(ctx, card, fields); err != nil {
		return nil, err
	}

	s.events.Emit(ctx, boardEvent(models.EventCardUpdated, card.ID, board, userID, nil))

	return card, nil
}

func (s *cardService) checkSection(ctx context.Context, sectionID, boardID int64) error {
	section, err := s.sectionRepo.GetByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return &models.ValidationError{Field: "section_id", Message: "section does not exist"}
		}
		return err
	}
	if section.BoardID != boardID {
		return &models.ValidationError{Field: "section_id", Message: "section belongs to another board"}
	}
	return nil
}

// Delete soft-deletes the card.
func (s *cardService) Delete(ctx context.Context, userID, cardID int64) (*models.Card, error) {
	card, board, err := s.load(ctx, cardID)
	if err != nil {
		return nil, err
	}

	ok, err := access.CanDelete(ctx, s.checker, board, card, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, denied(models.CapDeleteOwnPost, msgCannotDelete)
	}

	if err := s.cardRepo.Delete(ctx, card, false); err != nil {
		return nil, err
	}

	s.events.Emit(ctx, boardEvent(models.EventCardDeleted, card.ID, board, userID, nil))

	return card, nil
}

// Purge removes the card with its reactions, comments and media. Only
// moderators may purge, soft-deleted cards included.
func (s *cardService) Purge(ctx context.Context, userID, cardID int64) error {
	card, board, err := s.load(ctx, cardID)
	if err != nil {
		return err
	}

	if err := access.Require(ctx, s.checker, board.ContextID, userID, models.CapModerate, msgCannotModerate); err != nil {
		return err
	}

	if err := s.cardRepo.Delete(ctx, card, true); err != nil {
		return err
	}

	removeMedia(ctx, s.storage, card)

	s.events.Emit(ctx, boardEvent(models.EventCardPurged, card.ID, board, userID, nil))

	return nil
}

// AddReaction reports whether a new reaction was stored. Repeating the
// same reaction is not an error and emits nothing.
func (s *cardService) AddReaction(ctx context.Context, userID, cardID int64, reaction string) (bool, error) {
	card, board, err := s.loadActive(ctx, cardID)
	if err != nil {
		return false, err
	}

	if err := access.Require(ctx, s.checker, board.ContextID, userID, models.CapPost, msgCannotPost); err != nil {
		return false, err
	}

	added, err := s.reactionRepo.Add(ctx, &models.Reaction{CardID: card.ID, UserID: userID, Reaction: reaction})
	if err != nil {
		return false, err
	}

	if added {
		s.events.Emit(ctx, boardEvent(models.EventReactionAdded, card.ID, board, userID,
			map[string]any{"reaction": reaction}))
	}

	return added, nil
}

func (s *cardService) RemoveReaction(ctx context.Context, userID, cardID int64, reaction string) error {
	card, board, err := s.loadActive(ctx, cardID)
	if err != nil {
		return err
	}

	if err := access.Require(ctx, s.checker, board.ContextID, userID, models.CapPost, msgCannotPost); err != nil {
		return err
	}

	if err := s.reactionRepo.Remove(ctx, card.ID, userID, reaction); err != nil {
		return err
	}

	s.events.Emit(ctx, boardEvent(models.EventReactionRemoved, card.ID, board, userID,
		map[string]any{"reaction": reaction}))

	return nil
}

// AddComment stores a comment. parentid is not checked against the card.
func (s *cardService) AddComment(ctx context.Context, userID int64, req AddCommentRequest) (*models.Comment, error) {
	card, board, err := s.loadActive(ctx, req.CardID)
	if err != nil {
		return nil, err
	}

	if err := access.Require(ctx, s.checker, board.ContextID, userID, models.CapPost, msgCannotPost); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		CardID:   card.ID,
		UserID:   userID,
		ParentID: req.ParentID,
		Comment:  req.Comment,
	}
	if err := s.commentRepo.Add(ctx, comment); err != nil {
		return nil, err
	}

	s.events.Emit(ctx, boardEvent(models.EventCommentCreated, comment.ID, board, userID,
		map[string]any{"cardid": card.ID}))

	return comment, nil
}

func (s *cardService) ListComments(ctx context.Context, userID, cardID int64) ([]models.Comment, error) {
	card, board, err := s.loadActive(ctx, cardID)
	if err != nil {
		return nil, err
	}

	if err := access.Require(ctx, s.checker, board.ContextID, userID, models.CapView, msgCannotView); err != nil {
		return nil, err
	}

	return s.commentRepo.ListByCard(ctx, card.ID)
}

// UploadMedia stores the file and records it as the card's media_data. The
// previous object, if any, is removed once the card points at the new one.
func (s *cardService) UploadMedia(ctx context.Context, userID, cardID int64, fileName, contentType string, file io.Reader, size int64) (*models.MediaData, error) {
	card, board, err := s.loadActive(ctx, cardID)
	if err != nil {
		return nil, err
	}

	ok, err := access.CanEdit(ctx, s.checker, board, card, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, denied(models.CapEditOwnPost, msgCannotEdit)
	}

	if s.storage == nil {
		return nil, ErrStorageDisabled
	}

	previous := *card

	media, err := s.storage.UploadCardMedia(ctx, card.ID, fileName, contentType, file, size)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(media)
	if err != nil {
		return nil, fmt.Errorf("failed to encode media: %w", err)
	}
	mediaData := string(encoded)

	if err := s.cardRepo.Update(ctx, card, models.CardUpdate{MediaData: &mediaData}); err != nil {
		removeMedia(ctx, s.storage, &models.Card{ID: card.ID, MediaData: &mediaData})
		return nil, err
	}

	removeMedia(ctx, s.storage, &previous)

	s.events.Emit(ctx, boardEvent(models.EventCardUpdated, card.ID, board, userID,
		map[string]any{"media": media.ObjectName}))

	return media, nil
}

func (s *cardService) load(ctx context.Context, cardID int64) (*models.Card, *models.Board, error) {
	card, err := s.cardRepo.GetByID(ctx, cardID)
	if err != nil {
		return nil, nil, err
	}

	board, err := s.boardRepo.GetByID(ctx, card.BoardID)
	if err != nil {
		return nil, nil, err
	}

	return card, board, nil
}

// loadActive treats soft-deleted cards as missing.
func (s *cardService) loadActive(ctx context.Context, cardID int64) (*models.Card, *models.Board, error) {
	card, board, err := s.load(ctx, cardID)
	if err != nil {
		return nil, nil, err
	}
	if !card.Active() {
		return nil, nil, models.NotFoundError("card", cardID)
	}
	return card, board, nil
}
