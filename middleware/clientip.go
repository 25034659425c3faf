package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// proxy headers checked in order before falling back to RemoteAddr
var clientIPHeaders = []string{"X-Forwarded-For", "X-Real-Ip", "CF-Connecting-IP"}

// ClientIP stores the caller address recorded on audit rows.
func ClientIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("client_ip", resolveClientIP(c))
		c.Next()
	}
}

func resolveClientIP(c *gin.Context) string {
	for _, h := range clientIPHeaders {
		v := c.GetHeader(h)
		if v == "" {
			continue
		}
		// X-Forwarded-For is a list; the first hop is the client.
		first := strings.TrimSpace(strings.Split(v, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}

	ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return ip
}

// GetIPFromContext retrieves IP address from gin context
func GetIPFromContext(c *gin.Context) string {
	if ip, ok := c.Get("client_ip"); ok {
		if s, ok := ip.(string); ok {
			return s
		}
	}
	return resolveClientIP(c)
}
