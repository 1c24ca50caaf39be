package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(t *testing.T, write func(c *gin.Context)) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	write(c)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestSuccess(t *testing.T) {
	w, body := record(t, func(c *gin.Context) { Success(c, http.StatusCreated, gin.H{"id": 1}) })

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]any{"id": float64(1)}, body["data"])
	assert.NotContains(t, body, "error")
}

func TestError(t *testing.T) {
	w, body := record(t, func(c *gin.Context) { Error(c, http.StatusNotFound, "NOT_FOUND", "Contact not found") })

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, body["success"])
	assert.NotContains(t, body, "data")
	assert.Equal(t, map[string]any{"code": "NOT_FOUND", "message": "Contact not found"}, body["error"])
}

func TestValidationFailed(t *testing.T) {
	w, body := record(t, func(c *gin.Context) {
		ValidationFailed(c, "Invalid contact", map[string]string{"email": "email"})
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, CodeValidation, errBody["code"])
	assert.Equal(t, map[string]any{"email": "email"}, errBody["details"])

	_, body = record(t, func(c *gin.Context) { ValidationFailed(c, "Invalid request body", nil) })
	assert.NotContains(t, body["error"], "details")
}

func TestInternal(t *testing.T) {
	w, body := record(t, func(c *gin.Context) { Internal(c) })

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, CodeInternal, body["error"].(map[string]any)["code"])
}
