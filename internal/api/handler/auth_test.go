package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"honestbox/backend/internal/api/handler"
)

func setupAuthRouter(secret []byte) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handler.NewHandler(nil, nil, secret)

	r := gin.New()
	r.GET("/protected", h.AuthRequired(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"moderator_id": c.GetString("moderator_id")})
	})
	return r
}

func TestAuthRequired_AcceptsMintedToken(t *testing.T) {
	// Arrange
	secret := []byte("test-secret")
	token, err := handler.GenerateModeratorToken(secret, "mod-42")
	assert.NoError(t, err)

	r := setupAuthRouter(secret)

	// Act
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mod-42")
}

func TestAuthRequired_RejectsMissingHeader(t *testing.T) {
	r := setupAuthRouter([]byte("test-secret"))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequired_RejectsForeignSignature(t *testing.T) {
	token, err := handler.GenerateModeratorToken([]byte("other-secret"), "mod-42")
	assert.NoError(t, err)

	r := setupAuthRouter([]byte("test-secret"))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequired_RejectsGarbageToken(t *testing.T) {
	r := setupAuthRouter([]byte("test-secret"))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
