package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"diligence-tracker/internal/service"
	"diligence-tracker/internal/storage"
)

// Error codes.
const (
	CodeBadRequest           = "BAD_REQUEST"
	CodeValidation           = "VALIDATION"
	CodeNotFound             = "NOT_FOUND"
	CodeConfirmationRequired = "CONFIRMATION_REQUIRED"
	CodeNestedReply          = "NESTED_REPLY"
	CodeNotApproved          = "NOT_APPROVED"
	CodeTooLarge             = "FILE_TOO_LARGE"
	CodeUnsupportedType      = "UNSUPPORTED_TYPE"
	CodeInternal             = "INTERNAL"
)

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorJSON(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// writeError maps service errors to statuses. Validation messages are shown
// as is; anything unexpected is logged and answered with generic text.
func writeError(w http.ResponseWriter, r *http.Request, err error, generic string) {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrEmptySelection):
		writeErrorJSON(w, http.StatusBadRequest, CodeValidation, err.Error())
	case errors.Is(err, service.ErrNestedReply):
		writeErrorJSON(w, http.StatusBadRequest, CodeNestedReply, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeErrorJSON(w, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, service.ErrConfirmationRequired):
		writeErrorJSON(w, http.StatusConflict, CodeConfirmationRequired, "confirm the action and retry")
	case errors.Is(err, service.ErrNotApproved):
		writeErrorJSON(w, http.StatusConflict, CodeNotApproved, "only approved comments can be sent")
	case errors.Is(err, storage.ErrFileTooLarge):
		writeErrorJSON(w, http.StatusRequestEntityTooLarge, CodeTooLarge, "file is too large")
	case errors.Is(err, storage.ErrUnsupportedType):
		writeErrorJSON(w, http.StatusUnsupportedMediaType, CodeUnsupportedType, "file type is not allowed")
	default:
		log.Printf("[error] %s %s: %v", r.Method, r.URL.Path, err)
		writeErrorJSON(w, http.StatusInternalServerError, CodeInternal, generic)
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeErrorJSON(w, http.StatusBadRequest, CodeBadRequest, msg)
}
