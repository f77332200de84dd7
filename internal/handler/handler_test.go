package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// Helper to create context with userID
func ctxWithUserID(userID uuid.UUID) context.Context {
	return context.WithValue(context.Background(), UserIDKey, userID)
}

// newRequest builds an authenticated request with an optional JSON body and
// {id} route parameter.
func newRequest(method, target string, userID uuid.UUID, id string, body interface{}) *http.Request {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	ctx := ctxWithUserID(userID)
	if id != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", id)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRespondJSON(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		data       interface{}
		expectBody bool
	}{
		{
			name:       "success with data",
			status:     http.StatusOK,
			data:       map[string]string{"message": "success"},
			expectBody: true,
		},
		{
			name:       "created with data",
			status:     http.StatusCreated,
			data:       map[string]int{"id": 123},
			expectBody: true,
		},
		{
			name:       "no content",
			status:     http.StatusNoContent,
			data:       nil,
			expectBody: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			respondJSON(w, tt.status, tt.data)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			if tt.expectBody {
				assert.NotEmpty(t, w.Body.String())
			} else {
				assert.Empty(t, w.Body.String())
			}
		})
	}
}

func TestGetUserID(t *testing.T) {
	userID := uuid.New()
	assert.Equal(t, userID, GetUserID(ctxWithUserID(userID)))
}

func TestGetUserID_NotSet(t *testing.T) {
	assert.Equal(t, uuid.Nil, GetUserID(context.Background()))
}

func TestGetUserID_WrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), UserIDKey, "not-a-uuid")
	assert.Equal(t, uuid.Nil, GetUserID(ctx))
}

func TestPathID(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	w := httptest.NewRecorder()
	got, ok := pathID(w, newRequest(http.MethodGet, "/x", uuid.New(), id.String(), nil))
	assert.True(t, ok)
	assert.Equal(t, id, got)

	w = httptest.NewRecorder()
	_, ok = pathID(w, newRequest(http.MethodGet, "/x", uuid.New(), "not-a-uuid", nil))
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid id", decodeError(t, w).Error)
}

func TestParseTransactionType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "income", *parseTransactionType(" Income "))
	assert.Equal(t, "expense", *parseTransactionType("expense"))
	assert.Nil(t, parseTransactionType(""))
	assert.Nil(t, parseTransactionType("transfer"))
}
