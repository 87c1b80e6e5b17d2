package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/social-platform/social-platform/internal/apperr"
)

const usernameKey = "auth_username"

type JWTConfig struct {
	Secret     string
	ExpireTime time.Duration
}

type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken issues a signed, time-bound token with the username as the
// subject claim. The token carries identity only; services resolve the
// subject back to a user row themselves.
func GenerateToken(username, secret string, expiresIn time.Duration) (string, error) {
	now := time.Now()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates signature and expiry and returns the subject.
func ParseToken(tokenString, secret string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.Unauthenticated("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", apperr.Wrap(apperr.KindUnauthenticated, "invalid or expired token", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", apperr.Unauthenticated("invalid token")
	}
	return claims.Subject, nil
}

// NewJWTAuth rejects requests without a valid Bearer token and stores the
// token subject in the request context.
func NewJWTAuth(cfg *JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header must be a Bearer token"})
			return
		}

		username, err := ParseToken(parts[1], cfg.Secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": apperr.PublicMessage(err)})
			return
		}

		c.Set(usernameKey, username)
		c.Next()
	}
}

// GetUsername returns the authenticated caller's username, or "" when the
// request was not authenticated.
func GetUsername(c *gin.Context) string {
	username, ok := c.Get(usernameKey)
	if !ok {
		return ""
	}
	s, _ := username.(string)
	return s
}
