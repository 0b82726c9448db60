package auth

import "github.com/gin-gonic/gin"

const (
	ownerIDKey   = "ownerID"
	sessionIDKey = "sessionID"
)

// SetIdentity stores the authenticated owner and session on the request.
func SetIdentity(c *gin.Context, ownerID, sessionID string) {
	c.Set(ownerIDKey, ownerID)
	c.Set(sessionIDKey, sessionID)
}

// GetOwnerID returns the authenticated owner's ID or empty string.
func GetOwnerID(c *gin.Context) string {
	return c.GetString(ownerIDKey)
}

// GetSessionID returns the sync session bound to the token or empty string.
func GetSessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}
