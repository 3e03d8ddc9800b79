package middleware

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ajebo/storefront-api/gateway"
	"github.com/ajebo/storefront-api/logging"
)

const (
	rawBodyKey     = "raw_body"
	maxWebhookBody = 1 << 20
)

// PaystackSignature verifies the HMAC-SHA512 signature Paystack sends with
// every webhook. The verified raw body is available through RawBody.
func PaystackSignature(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
			return
		}

		if !gateway.ValidSignature(secret, body, c.GetHeader(gateway.SignatureHeader)) {
			logging.Ctx(c.Request.Context()).Warn().
				Str("remote_ip", c.ClientIP()).
				Msg("paystack webhook rejected: invalid signature")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}

		c.Set(rawBodyKey, body)
		c.Next()
	}
}

func RawBody(c *gin.Context) []byte {
	if v, ok := c.Get(rawBodyKey); ok {
		if b, ok := v.([]byte); ok {
			return b
		}
	}
	return nil
}
