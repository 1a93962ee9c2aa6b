package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/erp/credit/internal/domain/credit"
	"github.com/erp/credit/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusForCategory(t *testing.T) {
	tests := []struct {
		category shared.ErrorCategory
		expected int
	}{
		{shared.CategoryNotFound, http.StatusNotFound},
		{shared.CategoryValidation, http.StatusBadRequest},
		{shared.CategoryConflict, http.StatusConflict},
		{shared.CategoryUnauthorized, http.StatusUnauthorized},
		{shared.CategoryStorage, http.StatusServiceUnavailable},
		{shared.CategoryInternal, http.StatusInternalServerError},
		{shared.ErrorCategory("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			assert.Equal(t, tt.expected, StatusForCategory(tt.category))
		})
	}
}

func TestErrorFromDomain(t *testing.T) {
	t.Run("domain error keeps its code", func(t *testing.T) {
		status, resp := ErrorFromDomain(credit.ErrHoldAlreadyActive, "req-1")

		assert.Equal(t, http.StatusConflict, status)
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "HOLD_ALREADY_ACTIVE", resp.Error.Code)
		assert.Equal(t, "req-1", resp.Error.RequestID)
	})

	t.Run("wrapped domain error", func(t *testing.T) {
		err := fmt.Errorf("apply invoice: %w", shared.NewNotFoundError("credit profile"))
		status, resp := ErrorFromDomain(err, "")

		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "credit profile not found", resp.Error.Message)
	})

	t.Run("storage error hides the cause", func(t *testing.T) {
		err := shared.NewStorageError("save profile", errors.New("dial tcp 10.0.0.5:5432: refused"))
		status, resp := ErrorFromDomain(err, "")

		assert.Equal(t, http.StatusServiceUnavailable, status)
		assert.NotContains(t, resp.Error.Message, "10.0.0.5")
	})

	t.Run("foreign error is opaque", func(t *testing.T) {
		status, resp := ErrorFromDomain(errors.New("nil pointer somewhere"), "req-2")

		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, ErrCodeInternal, resp.Error.Code)
		assert.NotContains(t, resp.Error.Message, "nil pointer")
	})
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]string{"a"}, 41, 2, 20)

	require.NotNil(t, resp.Meta)
	assert.True(t, resp.Success)
	assert.Equal(t, int64(41), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)

	empty := NewSuccessResponseWithMeta(nil, 0, 1, 0)
	assert.Equal(t, 0, empty.Meta.TotalPages)
}

func TestNewValidationErrorResponse_JSON(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "req-3", []ValidationDetail{
		{Field: "reason", Message: "This field is required"},
	})

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, false, decoded["success"])

	errObj := decoded["error"].(map[string]any)
	assert.Equal(t, ErrCodeValidation, errObj["code"])
	assert.Equal(t, "req-3", errObj["request_id"])
	details := errObj["details"].([]any)
	require.Len(t, details, 1)
	assert.Equal(t, "reason", details[0].(map[string]any)["field"])
	_, hasData := decoded["data"]
	assert.False(t, hasData)
}
