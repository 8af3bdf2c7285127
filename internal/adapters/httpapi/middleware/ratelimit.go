package middleware

import (
	"math"
	"net/http"
	"strconv"

	"instafeed/internal/ports/ratelimit"

	"github.com/gin-gonic/gin"
)

// GlobalScope is the per-IP limit applied to every request.
const GlobalScope = "global"

// RateLimit checks scope for the caller. Authenticated requests are counted
// per user, anonymous ones per client IP.
func RateLimit(limiter ratelimit.Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := c.GetString(UserIDKey)
		if identity == "" || scope == GlobalScope {
			identity = c.ClientIP()
		}

		d := limiter.Allow(c.Request.Context(), scope, identity)
		c.Header("X-RateLimit-Limit", strconv.FormatInt(d.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
		if !d.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(d.RetryAfter.Seconds()))))
			_ = c.Error(d.Err(scope))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
