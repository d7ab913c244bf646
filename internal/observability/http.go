package observability

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// DeviceIDFromRequest reads the client-supplied device identifier.
func DeviceIDFromRequest(c *gin.Context) string {
	return c.GetHeader("X-Device-Id")
}

// RequestIDFromRequest reads the propagated request id, if any.
func RequestIDFromRequest(c *gin.Context) string {
	return c.GetHeader("X-Request-Id")
}

// IPFromRequest resolves the client address, honoring the first hop of
// X-Forwarded-For when a proxy sits in front.
func IPFromRequest(c *gin.Context) string {
	forwarded := c.GetHeader("X-Forwarded-For")
	if forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}

	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err == nil {
		return host
	}
	return c.Request.RemoteAddr
}
