package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	AuthTokenKey = "auth_token"
	UserIDKey    = "user_id"
)

// BearerPassthroughMiddleware keeps the caller's Authorization header so it can
// be forwarded to the platform API. Authentication itself is the platform's
// job: the token is never verified here, its claims are only read to tag
// logs and attempt history with a user id.
func BearerPassthroughMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.Next()
			return
		}

		c.Set(AuthTokenKey, authHeader)
		if userID, err := UnverifiedUserID(strings.TrimPrefix(authHeader, "Bearer ")); err == nil {
			c.Set(UserIDKey, userID)
		}
		c.Next()
	}
}

// UnverifiedUserID reads the user id claim ("user_id", "id" or "sub")
// without checking the signature.
func UnverifiedUserID(tokenString string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return "", err
	}
	for _, key := range []string{"user_id", "id", "sub"} {
		switch v := claims[key].(type) {
		case string:
			if v != "" {
				return v, nil
			}
		case float64:
			return fmt.Sprintf("%.0f", v), nil
		}
	}
	return "", fmt.Errorf("token has no user id claim")
}
