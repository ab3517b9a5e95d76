package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"mosaicboard/internal/models"
	"mosaicboard/internal/service"
)

const (
	CodeInvalidParameter = "invalidparameter"
	CodeNoPermission     = "nopermission"
	CodeNotFound         = "notfound"
	CodeServerError      = "servererror"
	CodeUnauthorized     = "unauthorized"
)

// ErrorResponse is the body of every failed call
type ErrorResponse struct {
	Error     string `json:"error"`
	ErrorCode string `json:"errorcode"`
}

// WriteError sends an error body with the given status
func WriteError(w http.ResponseWriter, message string, statusCode int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message, ErrorCode: code})
}

// writeSuccess sends data as JSON
func writeSuccess(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeServiceError maps service errors onto status codes. Unknown errors
// are logged and reported without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		permErr       *models.PermissionError
		validationErr *models.ValidationError
	)

	switch {
	case errors.As(err, &validationErr):
		WriteError(w, validationErr.Error(), http.StatusBadRequest, CodeInvalidParameter)
	case errors.As(err, &permErr):
		WriteError(w, permErr.Message, http.StatusForbidden, CodeNoPermission)
	case errors.Is(err, models.ErrNotFound):
		WriteError(w, err.Error(), http.StatusNotFound, CodeNotFound)
	case errors.Is(err, service.ErrStorageDisabled):
		WriteError(w, err.Error(), http.StatusServiceUnavailable, CodeServerError)
	default:
		zap.L().Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		WriteError(w, "Internal server error", http.StatusInternalServerError, CodeServerError)
	}
}

// validationError flattens validator errors into one message naming the
// first offending field.
func validationError(err error) *models.ValidationError {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		first := fieldErrs[0]
		message := fmt.Sprintf("failed on %s", first.Tag())
		if first.Param() != "" {
			message = fmt.Sprintf("failed on %s=%s", first.Tag(), first.Param())
		}
		return &models.ValidationError{Field: first.Field(), Message: message}
	}
	return &models.ValidationError{Message: err.Error()}
}
