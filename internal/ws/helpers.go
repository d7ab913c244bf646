package ws

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"chattat-service/internal/auth"
)

func newConnID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}

// claimsFromRequest authenticates a websocket handshake. Browsers cannot set
// headers on websocket requests, so a token query parameter is accepted as a
// fallback.
func claimsFromRequest(c *gin.Context, secret string) (*auth.Claims, error) {
	token := ""
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return nil, fmt.Errorf("invalid authorization header")
		}
		token = parts[1]
	} else {
		token = c.Query("token")
	}
	if token == "" {
		return nil, fmt.Errorf("missing token")
	}
	return auth.ParseToken(token, secret)
}
