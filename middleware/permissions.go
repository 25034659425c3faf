package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AccessContext stores the authenticated caller for handlers and services.
// Event-level rights (host, approved member) are decided by the services.
type AccessContext struct {
	UserID string
	Email  string
}

// IsSelf reports whether userID is the caller.
func (ac AccessContext) IsSelf(userID string) bool {
	return ac.UserID != "" && ac.UserID == userID
}

// GetAccessContext extracts the access context, writing 401 when absent.
func GetAccessContext(c *gin.Context) (AccessContext, bool) {
	raw, exists := c.Get("access_context")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "access context missing"})
		return AccessContext{}, false
	}

	accessContext, ok := raw.(AccessContext)
	if !ok || accessContext.UserID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid access context"})
		return AccessContext{}, false
	}
	return accessContext, true
}
