package handler

import (
	"net/http"

	"github.com/wealthapp/backend/internal/model"
	"github.com/wealthapp/backend/internal/service"
)

// GoalHandler exposes savings goals. Contributions go through the goal
// service so milestone notices fire exactly once.
type GoalHandler struct {
	service GoalServiceInterface
}

func NewGoalHandler(service GoalServiceInterface) *GoalHandler {
	return &GoalHandler{service: service}
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	var input service.CreateGoalInput
	if !decodeJSON(w, r, &input) {
		return
	}

	goal, err := h.service.Create(r.Context(), userID, input)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, goal)
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	goals, err := h.service.List(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if goals == nil {
		goals = []model.Goal{}
	}
	respondJSON(w, http.StatusOK, goals)
}

func (h *GoalHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	goal, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Contribute(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var input service.ContributeInput
	if !decodeJSON(w, r, &input) {
		return
	}

	goal, err := h.service.Contribute(r.Context(), userID, id, input)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
