package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"honestbox/backend/internal/config"
)

// GenerateModeratorToken mints a bearer token for a moderator. Minting is
// an operator action (cmd/admin); the API only ever validates.
func GenerateModeratorToken(secret []byte, moderatorID string) (string, error) {
	claims := jwt.MapClaims{
		"moderator_id": moderatorID,
		"jti":          uuid.NewString(),
		"exp":          time.Now().Add(config.TokenTTL).Unix(),
		"iss":          config.TokenIssuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// parseModeratorToken validates a token and returns the moderator id.
func parseModeratorToken(secret []byte, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithIssuer(config.TokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("unexpected claims type")
	}
	moderatorID, _ := claims["moderator_id"].(string)
	if moderatorID == "" {
		return "", fmt.Errorf("token has no moderator_id claim")
	}
	return moderatorID, nil
}

// AuthRequired rejects requests without a valid moderator bearer token and
// stores the moderator id on the context for the handlers.
func (h *Handler) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		moderatorID, err := h.moderatorFromRequest(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing token"})
			return
		}
		c.Set("moderator_id", moderatorID)
		c.Next()
	}
}

// moderatorFromRequest extracts and validates the bearer token.
func (h *Handler) moderatorFromRequest(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", fmt.Errorf("authorization header missing")
	}
	return parseModeratorToken(h.JWTSecret, strings.TrimPrefix(authHeader, "Bearer "))
}

// moderatorFrom returns the moderator id stored by AuthRequired.
func moderatorFrom(c *gin.Context) string {
	return c.GetString("moderator_id")
}
