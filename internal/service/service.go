package service

import (
	"context"

	"mosaicboard/internal/access"
	"mosaicboard/internal/config"
	"mosaicboard/internal/models"
	"mosaicboard/internal/repository"
	"mosaicboard/internal/storage"
)

// User-facing messages for denied capabilities.
const (
	msgCannotView     = "You do not have permission to view this board."
	msgCannotPost     = "You do not have permission to post on this board."
	msgCannotEdit     = "You do not have permission to edit this card."
	msgCannotDelete   = "You do not have permission to delete this card."
	msgCannotManage   = "You do not have permission to manage this board."
	msgCannotModerate = "You do not have permission to moderate this board."
)

// EventEmitter receives events once the mutation behind them has committed.
type EventEmitter interface {
	Emit(ctx context.Context, event models.Event)
}

type Service struct {
	Board  BoardService
	Card   CardService
	Auth   AuthService
	Tables TablesService
}

func NewService(rep *repository.Repository, cfg *config.Config, storage storage.Storage, checker access.Checker, emitter EventEmitter, pinger Pinger) *Service {
	auth := NewAuthService(cfg)

	return &Service{
		Board:  NewBoardService(rep, checker, auth, storage, emitter, cfg),
		Card:   NewCardService(rep, checker, storage, emitter),
		Auth:   auth,
		Tables: NewTablesService(rep.Tables, pinger),
	}
}

func denied(capability models.Capability, message string) error {
	return &models.PermissionError{Capability: capability, Message: message}
}

func boardEvent(name string, objectID int64, board *models.Board, userID int64, other map[string]any) models.Event {
	if other == nil {
		other = map[string]any{}
	}
	other["boardid"] = board.ID

	return models.Event{
		Name:      name,
		ObjectID:  objectID,
		ContextID: board.ContextID,
		UserID:    userID,
		Other:     other,
	}
}
