package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/lingflow/models"
	"go.uber.org/zap"
)

// MockHistoryStore is a mock implementation of HistoryStore
type MockHistoryStore struct {
	mock.Mock
}

func (m *MockHistoryStore) Recent(ctx context.Context, limit int) ([]*models.HistoryEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.HistoryEntry), args.Error(1)
}

func (m *MockHistoryStore) Clear(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestHandleHistoryList(t *testing.T) {
	t.Run("default limit", func(t *testing.T) {
		store := new(MockHistoryStore)
		handler := NewHistoryHandler(store, zap.NewNop())

		entry := models.NewHistoryEntry(models.HistoryOperationTranslate, "Hello", "Hola", "es", "builtin", "m")
		store.On("Recent", mock.Anything, models.HistoryLimit).Return([]*models.HistoryEntry{entry}, nil)

		w := httptest.NewRecorder()
		handler.HandleList(w, httptest.NewRequest(http.MethodGet, "/api/v1/history", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var response struct {
			Data []models.HistoryEntry `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		require.Len(t, response.Data, 1)
		assert.Equal(t, entry.ID, response.Data[0].ID)
		assert.Equal(t, "Hola", response.Data[0].Result)
		store.AssertExpectations(t)
	})

	t.Run("explicit limit", func(t *testing.T) {
		store := new(MockHistoryStore)
		handler := NewHistoryHandler(store, zap.NewNop())
		store.On("Recent", mock.Anything, 5).Return([]*models.HistoryEntry{}, nil)

		w := httptest.NewRecorder()
		handler.HandleList(w, httptest.NewRequest(http.MethodGet, "/api/v1/history?limit=5", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		store.AssertExpectations(t)
	})

	t.Run("bad limit", func(t *testing.T) {
		for _, raw := range []string{"0", "-3", "ten"} {
			store := new(MockHistoryStore)
			handler := NewHistoryHandler(store, zap.NewNop())

			w := httptest.NewRecorder()
			handler.HandleList(w, httptest.NewRequest(http.MethodGet, "/api/v1/history?limit="+raw, nil))

			assert.Equal(t, http.StatusBadRequest, w.Code, raw)
			store.AssertNotCalled(t, "Recent", mock.Anything, mock.Anything)
		}
	})

	t.Run("store failure", func(t *testing.T) {
		store := new(MockHistoryStore)
		handler := NewHistoryHandler(store, zap.NewNop())
		store.On("Recent", mock.Anything, models.HistoryLimit).Return(nil, errors.New("db down"))

		w := httptest.NewRecorder()
		handler.HandleList(w, httptest.NewRequest(http.MethodGet, "/api/v1/history", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "db down")
	})
}

func TestHandleHistoryClear(t *testing.T) {
	store := new(MockHistoryStore)
	handler := NewHistoryHandler(store, zap.NewNop())
	store.On("Clear", mock.Anything).Return(nil)

	w := httptest.NewRecorder()
	handler.HandleClear(w, httptest.NewRequest(http.MethodDelete, "/api/v1/history", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	store.AssertExpectations(t)
}
