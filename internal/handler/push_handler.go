package handler

import (
	"net/http"
	"strings"

	"github.com/wealthapp/backend/internal/service"
)

type PushHandler struct {
	service PushServiceInterface
}

func NewPushHandler(service PushServiceInterface) *PushHandler {
	return &PushHandler{service: service}
}

// GetVAPIDPublicKey returns the VAPID public key for push subscription
func (h *PushHandler) GetVAPIDPublicKey(w http.ResponseWriter, r *http.Request) {
	key, err := h.service.PublicKey()
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"publicKey": key})
}

// Subscribe stores the browser's push subscription for the caller.
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	var input service.SubscribeInput
	if !decodeJSON(w, r, &input) {
		return
	}
	if input.UserAgent == "" {
		input.UserAgent = r.UserAgent()
	}

	sub, err := h.service.Subscribe(r.Context(), userID, input)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, sub)
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

// Unsubscribe removes a push subscription
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	var req unsubscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Endpoint) == "" {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "endpoint is required", Field: "endpoint"})
		return
	}

	if err := h.service.Unsubscribe(r.Context(), userID, req.Endpoint); err != nil {
		respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
