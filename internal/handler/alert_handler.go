package handler

import (
	"net/http"

	"github.com/wealthapp/backend/internal/apperror"
)

const (
	defaultAlertLimit = 50
	maxAlertLimit     = 200
)

// AlertHandler lists the alert history of the caller.
type AlertHandler struct {
	service AlertServiceInterface
}

func NewAlertHandler(service AlertServiceInterface) *AlertHandler {
	return &AlertHandler{service: service}
}

func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	limit, err := queryInt(r, "limit")
	if err != nil || limit < 0 {
		respondAppError(w, apperror.ValidationError("limit", "limit must be a non-negative number"))
		return
	}
	if limit == 0 {
		limit = defaultAlertLimit
	}
	if limit > maxAlertLimit {
		limit = maxAlertLimit
	}

	alerts, err := h.service.List(r.Context(), userID, limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, alerts)
}
