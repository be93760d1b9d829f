package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/jengzang/flight-schedule-go/pkg/response"
)

// UserKey is the context key holding the authenticated subject
const UserKey = "user"

// IssueToken signs an HS256 token for subject valid for ttl
func IssueToken(secret, subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("token subject is required")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies an HS256 token and returns its subject
func ParseToken(secret, tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// Auth requires a valid bearer token and stores its subject under UserKey
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			response.AbortWithError(c, http.StatusUnauthorized, "Missing bearer token")
			return
		}

		subject, err := ParseToken(secret, token)
		if err != nil {
			response.AbortWithError(c, http.StatusUnauthorized, "Invalid token")
			return
		}

		c.Set(UserKey, subject)
		c.Next()
	}
}
