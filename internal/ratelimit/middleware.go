package ratelimit

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Middleware rejects requests with 429 once the key returned by keyFn has
// exhausted its limits. Requests with an empty key pass through.
func Middleware(rl *RateLimiter, keyFn func(c *gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)
		if key == "" || rl.AllowRequest(key) {
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"message": "Too many listing submissions, please try again later",
			"stats":   rl.GetStats(key),
		})
	}
}
