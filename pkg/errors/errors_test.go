package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestIsType_SeesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("follow: %w", NewConflictError("already following"))

	assert.True(t, IsType(err, ErrorTypeConflict))
	assert.False(t, IsType(err, ErrorTypeNotFound))
	assert.False(t, IsType(fmt.Errorf("plain"), ErrorTypeConflict))
}

func TestWriteHTTP_AppError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/tweets", nil)

	WriteHTTP(rec, req, NewNotFoundError("tweet t1 not found"), zap.NewNop())

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Error)
	assert.Equal(t, string(ErrorTypeNotFound), resp.Type)
	assert.Equal(t, "tweet t1 not found", resp.Message)
}

func TestWriteHTTP_UnknownErrorIsOpaque(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/tweets", nil)

	WriteHTTP(rec, req, fmt.Errorf("dynamodb: connection reset"), zap.NewNop())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Internal server error", resp.Message)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}
