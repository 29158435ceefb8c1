package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"rewards_engine/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const APIKeyHeader = "X-API-Key"

type Authorization struct {
	apiKey string
}

func NewAuthorization(apiKey string) *Authorization {
	return &Authorization{
		apiKey: apiKey,
	}
}

// AdminOnly accepts the key in X-API-Key or as an Authorization bearer token.
// With no key configured every admin request is refused.
func (a *Authorization) AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		if a.apiKey == "" {
			log.Error("admin endpoint called but no admin api key is configured")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access disabled"})
			return
		}

		key := requestKey(c)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if subtle.ConstantTimeCompare([]byte(key), []byte(a.apiKey)) != 1 {
			log.Info("unauthorized access attempt to admin endpoint",
				zap.String("path", c.FullPath()),
				zap.String("client_ip", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}

		c.Set("is_admin", true)
		c.Next()
	}
}

func requestKey(c *gin.Context) string {
	if key := c.GetHeader(APIKeyHeader); key != "" {
		return key
	}

	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}

	return ""
}
