package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/suPer8Hu/docchat/internal/common"
)

const WebhookSecretHeader = "X-Webhook-Secret"

// WebhookSecret checks the shared secret header against a bcrypt hash. An empty
// hash disables the check.
func WebhookSecret(hash string) gin.HandlerFunc {
	if hash == "" {
		return func(c *gin.Context) { c.Next() }
	}
	hashed := []byte(hash)
	return func(c *gin.Context) {
		secret := c.GetHeader(WebhookSecretHeader)
		if secret == "" || bcrypt.CompareHashAndPassword(hashed, []byte(secret)) != nil {
			common.AbortFail(c, http.StatusUnauthorized, 40102, "invalid webhook secret")
			return
		}
		c.Next()
	}
}
