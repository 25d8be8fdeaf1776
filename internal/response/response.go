package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fieldserve/parts-service/internal/apperrors"
	"github.com/go-playground/validator/v10"
)

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

type errorBody struct {
	Error string `json:"error"`
}

// Error maps the engine's error taxonomy onto HTTP statuses and renders the
// wrapped message, which already carries ids and shortfall amounts.
func Error(w http.ResponseWriter, err error) {
	JSON(w, StatusOf(err), errorBody{Error: err.Error()})
}

func StatusOf(err error) int {
	var verr validator.ValidationErrors
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrLimitExceeded):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrProtectedRoleViolation):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrInsufficientStock),
		errors.Is(err, apperrors.ErrInvalidTransition),
		errors.Is(err, apperrors.ErrStaleState):
		return http.StatusConflict
	case errors.As(err, &verr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
