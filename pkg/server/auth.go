package server

import (
	"crypto/subtle"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/vein-tools/veind/pkg/errdefs"
)

const (
	apiKeyHeader = "X-API-Key"
	apiKeyQuery  = "api_key"
)

// requireAPIKey validates the shared secret from the header or query
// parameter. With no key configured every request passes; the run
// command logs a warning about that at startup.
func (s *Server) requireAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.APIKey == "" {
			c.Next()
			return
		}

		key := c.GetHeader(apiKeyHeader)
		if key == "" {
			key = c.Query(apiKeyQuery)
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(s.cfg.APIKey)) != 1 {
			respondError(c, fmt.Errorf("missing or invalid api key: %w", errdefs.ErrUnauthenticated))
			c.Abort()
			return
		}

		c.Next()
	}
}
