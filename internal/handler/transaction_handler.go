// Package handler implements the HTTP handlers for the Wealth App REST API.
// Each handler decodes input, delegates to a service, and formats the response.
package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/wealthapp/backend/internal/apperror"
	"github.com/wealthapp/backend/internal/service"
)

// TransactionHandler handles account and transaction requests. Both go
// through the ledger so balances stay in step with the rows.
type TransactionHandler struct {
	service LedgerServiceInterface
}

func NewTransactionHandler(service LedgerServiceInterface) *TransactionHandler {
	return &TransactionHandler{service: service}
}

// CreateAccount handles POST /api/accounts.
func (h *TransactionHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	var input service.CreateAccountInput
	if !decodeJSON(w, r, &input) {
		return
	}

	account, err := h.service.CreateAccount(r.Context(), userID, input)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, account)
}

// ListAccounts handles GET /api/accounts.
func (h *TransactionHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	accounts, err := h.service.ListAccounts(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, accounts)
}

// GetAccount handles GET /api/accounts/{id}.
func (h *TransactionHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	account, err := h.service.GetAccount(r.Context(), userID, id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, account)
}

// Create handles POST /api/transactions.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	var input service.CreateTransactionInput
	if !decodeJSON(w, r, &input) {
		return
	}
	if input.AccountID == uuid.Nil {
		respondAppError(w, apperror.ValidationError("accountId", "accountId is required"))
		return
	}

	tx, err := h.service.CreateTransaction(r.Context(), userID, input)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, tx)
}

// Get handles GET /api/transactions/{id}.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	tx, err := h.service.GetTransaction(r.Context(), userID, id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tx)
}

// List handles GET /api/transactions with optional accountId, type, month,
// year, limit and offset query parameters.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	input := service.ListTransactionsInput{
		Type: parseTransactionType(q.Get("type")),
	}
	if v := q.Get("accountId"); v != "" {
		accountID, err := uuid.Parse(v)
		if err != nil {
			respondAppError(w, apperror.ValidationError("accountId", "invalid account id"))
			return
		}
		input.AccountID = &accountID
	}

	for key, dst := range map[string]*int{
		"month":  &input.Month,
		"year":   &input.Year,
		"limit":  &input.Limit,
		"offset": &input.Offset,
	} {
		n, err := queryInt(r, key)
		if err != nil || n < 0 {
			respondAppError(w, apperror.ValidationError(key, key+" must be a non-negative number"))
			return
		}
		*dst = n
	}
	if input.Limit == 0 || input.Limit > 500 {
		input.Limit = 100
	}

	txs, err := h.service.ListTransactions(r.Context(), userID, input)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, txs)
}

// Update handles PUT /api/transactions/{id}.
func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var input service.UpdateTransactionInput
	if !decodeJSON(w, r, &input) {
		return
	}

	tx, err := h.service.UpdateTransaction(r.Context(), userID, id, input)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tx)
}

// Delete handles DELETE /api/transactions/{id}.
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteTransaction(r.Context(), userID, id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
