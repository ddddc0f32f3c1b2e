package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"polleria/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDomainError(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedCode    string
		expectedMessage string
	}{
		{
			name:            "Invalid input",
			err:             model.InvalidInput("items are required"),
			expectedStatus:  http.StatusBadRequest,
			expectedCode:    model.ErrCodeInvalidInput,
			expectedMessage: "items are required",
		},
		{
			name:            "Wrapped not found",
			err:             fmt.Errorf("lookup: %w", model.ErrOrderNotFound),
			expectedStatus:  http.StatusNotFound,
			expectedCode:    model.ErrCodeNotFound,
			expectedMessage: "order not found",
		},
		{
			name:            "Provider unavailable hides detail",
			err:             model.ProviderUnavailable("payment provider unavailable", errors.New("dial tcp: timeout")),
			expectedStatus:  http.StatusInternalServerError,
			expectedCode:    model.ErrCodeProviderUnavailable,
			expectedMessage: "internal server error",
		},
		{
			name:            "Persistence failure hides detail",
			err:             model.PersistenceFailure("failed to insert row", errors.New("duplicate key")),
			expectedStatus:  http.StatusInternalServerError,
			expectedCode:    model.ErrCodePersistenceFailure,
			expectedMessage: "internal server error",
		},
		{
			name:            "Forbidden",
			err:             model.ErrForbidden,
			expectedStatus:  http.StatusForbidden,
			expectedCode:    model.ErrCodeForbidden,
			expectedMessage: "access denied",
		},
		{
			name:            "Conflict",
			err:             model.ErrProductInUse,
			expectedStatus:  http.StatusConflict,
			expectedCode:    model.ErrCodeConflict,
			expectedMessage: "product is part of existing orders; mark it unavailable instead",
		},
		{
			name:            "Unauthorised",
			err:             model.ErrUnauthorised,
			expectedStatus:  http.StatusUnauthorized,
			expectedCode:    model.ErrCodeUnauthorised,
			expectedMessage: "authentication required",
		},
		{
			name:            "Unclassified error",
			err:             errors.New("boom"),
			expectedStatus:  http.StatusInternalServerError,
			expectedCode:    model.ErrCodeInternalError,
			expectedMessage: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			writeDomainError(w, tt.err, zerolog.Nop())

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var resp model.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.expectedCode, resp.Error)
			assert.Equal(t, tt.expectedMessage, resp.Message)
		})
	}
}

func TestPathID(t *testing.T) {
	tests := []struct {
		id      string
		want    int64
		wantErr bool
	}{
		{id: "42", want: 42},
		{id: "0", wantErr: true},
		{id: "-3", wantErr: true},
		{id: "abc", wantErr: true},
		{id: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := pathID(newRequest(http.MethodGet, "/x", "", tt.id, nil))
			if tt.wantErr {
				assert.Equal(t, model.ErrCodeInvalidInput, model.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPagination(t *testing.T) {
	limit, offset, err := pagination(httptest.NewRequest(http.MethodGet, "/x?limit=5&offset=10", nil))
	require.NoError(t, err)
	assert.Equal(t, 5, limit)
	assert.Equal(t, 10, offset)

	limit, offset, err = pagination(httptest.NewRequest(http.MethodGet, "/x", nil))
	require.NoError(t, err)
	assert.Zero(t, limit)
	assert.Zero(t, offset)

	_, _, err = pagination(httptest.NewRequest(http.MethodGet, "/x?limit=many", nil))
	assert.Error(t, err)

	_, _, err = pagination(httptest.NewRequest(http.MethodGet, "/x?offset=-", nil))
	assert.Error(t, err)
}

type pingerFunc func() error

func (f pingerFunc) Ping(_ context.Context) error { return f() }

func TestHealthHandler_Check(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		h := NewHealthHandler(pingerFunc(func() error { return nil }), zerolog.Nop())
		w := httptest.NewRecorder()
		h.Check(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"healthy","database":"up"}`, w.Body.String())
	})

	t.Run("database down", func(t *testing.T) {
		h := NewHealthHandler(pingerFunc(func() error { return errors.New("refused") }), zerolog.Nop())
		w := httptest.NewRecorder()
		h.Check(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.JSONEq(t, `{"status":"unhealthy","database":"down"}`, w.Body.String())
	})
}
