package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/wealthapp/backend/internal/model"
	"github.com/wealthapp/backend/internal/service"
)

type RecurringHandler struct {
	recurringService RecurringServiceInterface
	executor         RuleExecutor
}

func NewRecurringHandler(recurringService RecurringServiceInterface, executor RuleExecutor) *RecurringHandler {
	return &RecurringHandler{recurringService: recurringService, executor: executor}
}

func (h *RecurringHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	var input service.CreateRecurringInput
	if !decodeJSON(w, r, &input) {
		return
	}

	rule, err := h.recurringService.Create(r.Context(), userID, input)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, rule)
}

func (h *RecurringHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	items, err := h.recurringService.List(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if items == nil {
		items = []model.RecurringRule{}
	}

	respondJSON(w, http.StatusOK, items)
}

func (h *RecurringHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	rule, err := h.recurringService.Get(r.Context(), userID, id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, rule)
}

func (h *RecurringHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var input service.UpdateRecurringInput
	if !decodeJSON(w, r, &input) {
		return
	}

	rule, err := h.recurringService.Update(r.Context(), userID, id, input)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, rule)
}

func (h *RecurringHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.recurringService.Delete(r.Context(), userID, id); err != nil {
		respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *RecurringHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.recurringService.Pause)
}

func (h *RecurringHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.recurringService.Resume)
}

// Toggle flips the active flag; PATCH /api/recurring/{id}/toggle.
func (h *RecurringHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.recurringService.Toggle)
}

func (h *RecurringHandler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, userID, id uuid.UUID) (*model.RecurringRule, error)) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	rule, err := fn(r.Context(), userID, id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rule)
}

func (h *RecurringHandler) Process(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	result, err := h.executor.ExecuteRuleNow(r.Context(), userID, id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *RecurringHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	items, err := h.recurringService.Upcoming(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, items)
}

// Pending lists manual rules that are due and wait for confirmation.
func (h *RecurringHandler) Pending(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	items, err := h.recurringService.PendingConfirmation(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if items == nil {
		items = []model.RecurringRule{}
	}

	respondJSON(w, http.StatusOK, items)
}
