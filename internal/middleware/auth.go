package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ReviewerKey is the gin context key holding the authenticated reviewer
// identity. Decisions are attributed to this value.
const ReviewerKey = "reviewer"

// Auth validates a Bearer token signed with the shared HMAC secret. The
// token's subject claim is the reviewer identity; requests without a valid
// subject are rejected, since an unattributed decision is useless in the
// audit log.
func Auth(secret string) gin.HandlerFunc {
	keyFunc := func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString := strings.TrimPrefix(header, "Bearer ")
		if header == "" || tokenString == header {
			unauthorized(c, "Missing bearer token")
			return
		}

		token, err := jwt.Parse(tokenString, keyFunc,
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			unauthorized(c, "Invalid token")
			return
		}

		subject, err := token.Claims.GetSubject()
		if err != nil || subject == "" {
			unauthorized(c, "Token has no subject")
			return
		}

		c.Set(ReviewerKey, subject)
		c.Next()
	}
}

func unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"code":    http.StatusUnauthorized,
		"message": message,
	})
	c.Abort()
}

// Reviewer returns the authenticated reviewer identity set by Auth.
func Reviewer(c *gin.Context) string {
	return c.GetString(ReviewerKey)
}
