package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"mosaicboard/internal/service"
)

func (h *Handlers) GetBoard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	boardID, err := pathID(r, "boardid")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	data, err := h.BoardService.GetBoard(r.Context(), boardID, userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, data, http.StatusOK)
}

func (h *Handlers) BoardConfig(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	boardID, err := pathID(r, "boardid")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	page, err := h.BoardService.ViewConfig(r.Context(), boardID, userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, page.Config, http.StatusOK)
}

func (h *Handlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	h.updateBoardBlob(w, r, h.BoardService.UpdateSettings)
}

func (h *Handlers) UpdateTheme(w http.ResponseWriter, r *http.Request) {
	h.updateBoardBlob(w, r, h.BoardService.UpdateThemeConfig)
}

type blobUpdater func(ctx context.Context, boardID, userID int64, raw json.RawMessage) (*service.BoardRecord, error)

func (h *Handlers) updateBoardBlob(w http.ResponseWriter, r *http.Request, update blobUpdater) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	boardID, err := pathID(r, "boardid")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var raw json.RawMessage
	if err := decodeJSON(r, &raw); err != nil {
		writeServiceError(w, r, err)
		return
	}

	record, err := update(r.Context(), boardID, userID, raw)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, record, http.StatusOK)
}

func (h *Handlers) CreateSection(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	boardID, err := pathID(r, "boardid")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	req := service.CreateSectionRequest{BoardID: boardID}
	if err := h.bind(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	section, err := h.BoardService.CreateSection(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, section, http.StatusCreated)
}

func (h *Handlers) UserOutline(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	boardID, err := pathID(r, "boardid")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	targetUserID, err := pathID(r, "userid")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	outline, err := h.BoardService.UserOutline(r.Context(), boardID, targetUserID, userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, outline, http.StatusOK)
}
