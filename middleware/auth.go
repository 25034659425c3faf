package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gather-app/gather-backend/internal/auth"
)

// ProfileEnsurer creates the caller's profile row on first sight.
type ProfileEnsurer interface {
	EnsureProfile(ctx context.Context, id auth.Identity) error
}

// AuthMiddleware verifies the bearer token and sets up the access context.
func AuthMiddleware(authSvc auth.Service, profiles ProfileEnsurer) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}

		identity, err := authSvc.Authenticate(c.Request.Context(), tokenStr)
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidToken) {
				log.Printf("❌ token verification failed: %v", err)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		if profiles != nil {
			if err := profiles.EnsureProfile(c.Request.Context(), identity); err != nil {
				log.Printf("❌ ensure profile %s: %v", identity.UserID, err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
				return
			}
		}

		c.Set("user_id", identity.UserID)
		c.Set("identity", identity)
		c.Set("access_context", AccessContext{UserID: identity.UserID, Email: identity.Email})

		c.Next()
	}
}

// bearerToken reads the Authorization header. Websocket upgrades may pass
// the token as ?access_token= since browsers cannot set headers there.
func bearerToken(c *gin.Context) (string, bool) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", false
		}
		return strings.TrimSpace(parts[1]), true
	}
	if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		if tok := c.Query("access_token"); tok != "" {
			return tok, true
		}
	}
	return "", false
}
