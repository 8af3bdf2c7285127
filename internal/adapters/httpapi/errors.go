package httpapi

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"instafeed/internal/core/apperr"

	"github.com/gin-gonic/gin"
)

// writeError maps a use-case error to a status code and an {"error": ...}
// body. The error itself is attached to the context for the access log.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	var rl *apperr.RateLimitError
	if errors.As(err, &rl) {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(rl.RetryAfter.Seconds()))))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
		return
	}
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
		return
	}

	status, msg := statusOf(err)
	c.JSON(status, gin.H{"error": msg})
}

func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest, "invalid input"
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict, "already taken"
	case errors.Is(err, apperr.ErrRateLimited):
		return http.StatusTooManyRequests, "rate limit exceeded"
	case errors.Is(err, apperr.ErrTimeout):
		return http.StatusGatewayTimeout, "request timed out"
	case errors.Is(err, apperr.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "service unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
