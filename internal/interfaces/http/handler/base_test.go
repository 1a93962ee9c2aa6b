package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/credit/internal/domain/shared"
	"github.com/erp/credit/internal/interfaces/http/dto"
	"github.com/erp/credit/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

func newTestContext(method, path string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestBaseHandler_Success(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext("GET", "/")

	h.Success(c, map[string]string{"result": "APPROVED"})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
}

func TestBaseHandler_SuccessWithMeta(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext("GET", "/")

	h.SuccessWithMeta(c, []int{1, 2}, 12, 2, 5)

	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(12), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", shared.NewNotFoundError("credit profile"), http.StatusNotFound, "NOT_FOUND"},
		{"validation", shared.ErrInvalidCurrency, http.StatusBadRequest, "INVALID_CURRENCY"},
		{"conflict", shared.NewConflictError("HOLD_ALREADY_ACTIVE", "held"), http.StatusConflict, "HOLD_ALREADY_ACTIVE"},
		{"unauthorized", shared.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"storage", shared.NewStorageError("save", fmt.Errorf("timeout")), http.StatusServiceUnavailable, "STORAGE_ERROR"},
		{"internal", shared.NewInternalError("ledger gap"), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"foreign", fmt.Errorf("boom"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newTestContext("GET", "/")
			c.Set(middleware.RequestIDKey, "req-7")

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			resp := decodeResponse(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, "req-7", resp.Error.RequestID)
		})
	}
}

func TestBaseHandler_Actor(t *testing.T) {
	h := &BaseHandler{}

	t.Run("absent", func(t *testing.T) {
		c, _ := newTestContext("POST", "/")
		actor, ok := h.actor(c)
		assert.True(t, ok)
		assert.Nil(t, actor)
	})

	t.Run("present", func(t *testing.T) {
		id := uuid.New()
		c, _ := newTestContext("POST", "/")
		c.Request.Header.Set(middleware.ActorIDHeader, id.String())

		actor, ok := h.actor(c)
		require.True(t, ok)
		assert.Equal(t, id, *actor)
	})

	t.Run("malformed", func(t *testing.T) {
		c, w := newTestContext("POST", "/")
		c.Request.Header.Set(middleware.ActorIDHeader, "admin")

		_, ok := h.actor(c)
		assert.False(t, ok)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestBaseHandler_CustomerIDParam(t *testing.T) {
	h := &BaseHandler{}

	c, w := newTestContext("GET", "/")
	c.Params = gin.Params{{Key: "customer_id", Value: "nope"}}

	_, ok := h.customerID(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	id := uuid.New()
	c, _ = newTestContext("GET", "/")
	c.Params = gin.Params{{Key: "customer_id", Value: id.String()}}
	got, ok := h.customerID(c)
	assert.True(t, ok)
	assert.Equal(t, id, got)
}
