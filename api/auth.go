package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Domenick1991/vehiclerental/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const callerKey = "caller"

// Claims is the token payload issued by the identity service.
type Claims struct {
	UserID int64       `json:"userId"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware verifies an HS256 bearer token and stores the caller in the
// gin context. Issuing tokens is somebody else's job.
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			abortWithError(c, http.StatusUnauthorized, codeUnauthorized, "Missing or malformed authorization token")
			return
		}

		claims, err := parseToken(strings.TrimSpace(raw), secret)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, codeUnauthorized, "Invalid or expired token")
			return
		}

		c.Set(callerKey, domain.Caller{Role: claims.Role, UserID: claims.UserID})
		c.Next()
	}
}

func parseToken(raw string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims.UserID <= 0 || !claims.Role.IsValid() {
		return nil, errors.New("token lacks a valid role or user id")
	}
	return claims, nil
}

func callerFrom(c *gin.Context) (domain.Caller, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return domain.Caller{}, false
	}
	caller, ok := v.(domain.Caller)
	return caller, ok
}
