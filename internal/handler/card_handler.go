package handlers

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"

	"mosaicboard/internal/models"
	"mosaicboard/internal/service"
)

type CardResponse struct {
	Success bool         `json:"success"`
	Card    *models.Card `json:"card"`
}

type UpdatedCard struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	Type         string `json:"type"`
	TimeModified int64  `json:"timemodified"`
}

type UpdateCardResponse struct {
	Success bool        `json:"success"`
	Card    UpdatedCard `json:"card"`
}

type CardIDResponse struct {
	Success bool  `json:"success"`
	CardID  int64 `json:"cardid"`
}

type ReactionResponse struct {
	Success bool `json:"success"`
	Added   bool `json:"added"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type CommentResponse struct {
	Success bool            `json:"success"`
	Comment *models.Comment `json:"comment"`
}

type CommentsResponse struct {
	Comments []models.Comment `json:"comments"`
}

type MediaResponse struct {
	Success bool              `json:"success"`
	Media   *models.MediaData `json:"media"`
}

func (h *Handlers) CreateCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	boardID, err := pathID(r, "boardid")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	req := service.CreateCardRequest{BoardID: boardID}
	if err := h.bind(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	card, err := h.CardService.Create(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, CardResponse{Success: true, Card: card}, http.StatusCreated)
}

func (h *Handlers) UpdateCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	cardID, err := pathID(r, "cardid")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	req := service.UpdateCardRequest{CardID: cardID}
	if err := h.bind(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	card, err := h.CardService.Update(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, UpdateCardResponse{
		Success: true,
		Card: UpdatedCard{
			ID:           card.ID,
			Title:        card.Title,
			Content:      card.Content,
			Type:         card.Type,
			TimeModified: card.TimeModified,
		},
	}, http.StatusOK)
}

func (h *Handlers) DeleteCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	cardID, err := pathID(r, "cardid")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	card, err := h.CardService.Delete(r.Context(), userID, cardID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, CardIDResponse{Success: true, CardID: card.ID}, http.StatusOK)
}

func (h *Handlers) PurgeCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	cardID, err := pathID(r, "cardid")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := h.CardService.Purge(r.Context(), userID, cardID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, CardIDResponse{Success: true, CardID: cardID}, http.StatusOK)
}

func (h *Handlers) AddReaction(w http.ResponseWriter, r *http.Request) {
	userID, cardID, reaction, ok := h.reactionRequest(w, r)
	if !ok {
		return
	}

	added, err := h.CardService.AddReaction(r.Context(), userID, cardID, reaction)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, ReactionResponse{Success: true, Added: added}, http.StatusOK)
}

func (h *Handlers) RemoveReaction(w http.ResponseWriter, r *http.Request) {
	userID, cardID, reaction, ok := h.reactionRequest(w, r)
	if !ok {
		return
	}

	if err := h.CardService.RemoveReaction(r.Context(), userID, cardID, reaction); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, SuccessResponse{Success: true}, http.StatusOK)
}

// reactionRequest reads the reaction token from the body, falling back to
// the "reaction" query parameter for clients that send DELETE without one.
func (h *Handlers) reactionRequest(w http.ResponseWriter, r *http.Request) (int64, int64, string, bool) {
	userID, ok := currentUser(w, r)
	if !ok {
		return 0, 0, "", false
	}

	cardID, err := pathID(r, "cardid")
	if err != nil {
		writeServiceError(w, r, err)
		return 0, 0, "", false
	}

	var req service.ReactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return 0, 0, "", false
	}
	if req.Reaction == "" {
		req.Reaction = r.URL.Query().Get("reaction")
	}
	if err := h.Validate.Struct(req); err != nil {
		writeServiceError(w, r, validationError(err))
		return 0, 0, "", false
	}

	return userID, cardID, req.Reaction, true
}

func (h *Handlers) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	cardID, err := pathID(r, "cardid")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	req := service.AddCommentRequest{CardID: cardID}
	if err := h.bind(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	comment, err := h.CardService.AddComment(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, CommentResponse{Success: true, Comment: comment}, http.StatusCreated)
}

func (h *Handlers) ListComments(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	cardID, err := pathID(r, "cardid")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	comments, err := h.CardService.ListComments(r.Context(), userID, cardID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, CommentsResponse{Comments: comments}, http.StatusOK)
}

// UploadMedia stores the multipart "file" field and attaches it to the card.
func (h *Handlers) UploadMedia(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	cardID, err := pathID(r, "cardid")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	maxSize := h.Cfg.MaxUploadSize
	// room for the multipart envelope around the file itself
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+1<<20)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeServiceError(w, r, fileTooLarge(maxSize))
			return
		}
		writeServiceError(w, r, &models.ValidationError{Field: "file", Message: "invalid multipart form"})
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeServiceError(w, r, &models.ValidationError{Field: "file", Message: "required"})
		return
	}
	defer file.Close()

	if header.Size > maxSize {
		writeServiceError(w, r, fileTooLarge(maxSize))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(header.Filename)); byExt != "" {
			contentType = byExt
		}
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	media, err := h.CardService.UploadMedia(r.Context(), userID, cardID, header.Filename, contentType, file, header.Size)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if h.Metrics != nil {
		h.Metrics.RecordMediaUpload(header.Size)
	}

	writeSuccess(w, MediaResponse{Success: true, Media: media}, http.StatusOK)
}

func fileTooLarge(maxSize int64) error {
	return &models.ValidationError{Field: "file", Message: fmt.Sprintf("exceeds the %d byte limit", maxSize)}
}
