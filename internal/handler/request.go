package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"mosaicboard/internal/models"
	"mosaicboard/internal/session"
)

const maxJSONBody = 1 << 20

const msgNotLoggedIn = "You are not logged in."

// pathID reads a positive integer route variable.
func pathID(r *http.Request, name string) (int64, error) {
	raw, ok := mux.Vars(r)[name]
	if !ok {
		return 0, &models.ValidationError{Field: name, Message: "missing"}
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &models.ValidationError{Field: name, Message: "must be a positive integer"}
	}

	return id, nil
}

// currentUser writes a 401 and returns false when the request carries no user.
func currentUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := session.UserID(r.Context())
	if !ok {
		WriteError(w, msgNotLoggedIn, http.StatusUnauthorized, CodeUnauthorized)
		return 0, false
	}
	return userID, true
}

// decodeJSON reads the body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &models.ValidationError{Message: fmt.Sprintf("invalid request body: %v", err)}
	}
	return nil
}

// bind decodes and validates a request body.
func (h *Handlers) bind(r *http.Request, dst any) error {
	if err := decodeJSON(r, dst); err != nil {
		return err
	}
	if err := h.Validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}
