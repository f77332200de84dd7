package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wealthapp/backend/internal/apperror"
	"github.com/wealthapp/backend/internal/logger"
	"github.com/wealthapp/backend/internal/service"
)

// ErrorResponse represents a JSON error response body.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// respondJSON writes a JSON response with the given status code.
// It sets the Content-Type header to application/json.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondError writes a JSON error response with the given status code and message.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondAppError writes a JSON error response from an AppError.
// It extracts the status code and message from the error.
func respondAppError(w http.ResponseWriter, err *apperror.AppError) {
	resp := ErrorResponse{
		Error: err.Message,
		Field: err.Field,
	}
	respondJSON(w, err.StatusCode, resp)
}

// respondServiceError maps a service error to its HTTP form. Unexpected
// errors are logged and reported as 500 without detail.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := toAppError(err)
	if appErr.StatusCode >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err.Error(),
		)
	}
	respondAppError(w, appErr)
}

func toAppError(err error) *apperror.AppError {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, service.ErrRecurringNotFound):
		return apperror.NotFound("recurring transaction")
	case errors.Is(err, service.ErrAccountNotFound):
		return apperror.NotFound("account")
	case errors.Is(err, service.ErrTransactionNotFound):
		return apperror.NotFound("transaction")
	case errors.Is(err, service.ErrBudgetNotFound):
		return apperror.NotFound("budget")
	case errors.Is(err, service.ErrGoalNotFound):
		return apperror.NotFound("goal")
	case errors.Is(err, service.ErrUserNotFound):
		return apperror.NotFound("user")
	case errors.Is(err, service.ErrInactiveRule):
		return apperror.Unprocessable(err, "recurring transaction is inactive")
	case errors.Is(err, service.ErrGoalNotActive):
		return apperror.Unprocessable(err, "goal is not in progress")
	case errors.Is(err, service.ErrConcurrentModification), errors.Is(err, service.ErrNotDue):
		return apperror.Conflict("recurring transaction was processed concurrently, try again")
	case errors.Is(err, service.ErrVAPIDNotConfigured):
		return &apperror.AppError{Err: err, Message: "push notifications not configured", StatusCode: http.StatusServiceUnavailable}
	}
	return apperror.Internal(err)
}

// decodeJSON reads the request body into v or writes 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondAppError(w, apperror.BadRequest("invalid request body: "+err.Error()))
		return false
	}
	return true
}

// authenticatedUser returns the caller or writes 401.
func authenticatedUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID := GetUserID(r.Context())
	if userID == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, false
	}
	return userID, true
}

// pathID parses the {id} URL parameter or writes 400.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, key string) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

// parseTransactionType parses a string into a TransactionType pointer.
// Returns nil if the string is empty or invalid.
func parseTransactionType(s string) *string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "income" || s == "expense" {
		return &s
	}
	return nil
}
