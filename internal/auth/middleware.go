package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AccessTokenParam is the query parameter read by FeedAuthRequired.
const AccessTokenParam = "access_token"

// AuthRequired is a Gin middleware that validates JWT from Authorization: Bearer <token>.
func AuthRequired(jwtManager *JWTManager) gin.HandlerFunc {
	return authenticate(jwtManager, false)
}

// FeedAuthRequired also accepts the token in the access_token query parameter
// of a GET request. Only feed routes subscribed to by calendar clients, which
// cannot send headers, should use it.
func FeedAuthRequired(jwtManager *JWTManager) gin.HandlerFunc {
	return authenticate(jwtManager, true)
}

func authenticate(jwtManager *JWTManager, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := tokenFromRequest(c, allowQuery)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing or malformed Authorization header",
			})
			return
		}

		claims, err := jwtManager.ParseAndValidate(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		SetIdentity(c, claims.OwnerID, claims.SessionID)
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context, allowQuery bool) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if allowQuery && c.Request.Method == http.MethodGet {
			if q := c.Query(AccessTokenParam); q != "" {
				return q, true
			}
		}
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
