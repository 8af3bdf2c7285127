package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"instafeed/internal/ports/ratelimit"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

var secret = []byte("test-secret")

func sign(t *testing.T, key []byte, claims jwt.StandardClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestJWTAuthMiddleware(t *testing.T) {
	t.Parallel()

	valid := sign(t, secret, jwt.StandardClaims{Subject: "user-1", ExpiresAt: time.Now().Add(time.Hour).Unix()})
	expired := sign(t, secret, jwt.StandardClaims{Subject: "user-1", ExpiresAt: time.Now().Add(-time.Hour).Unix()})
	foreign := sign(t, []byte("other"), jwt.StandardClaims{Subject: "user-1"})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + valid, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"no bearer prefix", valid, http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong key", "Bearer " + foreign, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := gin.New()
			r.GET("/me", JWTAuthMiddleware(secret), func(c *gin.Context) {
				c.String(http.StatusOK, c.GetString(UserIDKey))
			})
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, "user-1", w.Body.String())
			}
		})
	}
}

type stubLimiter struct {
	decision ratelimit.Decision
	scope    string
	identity string
}

func (s *stubLimiter) Allow(_ context.Context, scope, identity string) ratelimit.Decision {
	s.scope, s.identity = scope, identity
	return s.decision
}

func TestRateLimit_Headers(t *testing.T) {
	t.Parallel()

	reset := time.Now().Add(90 * time.Second)
	limiter := &stubLimiter{decision: ratelimit.Decision{Allowed: false, Limit: 50, Remaining: 0, ResetAt: reset, RetryAfter: 89500 * time.Millisecond}}

	r := gin.New()
	r.POST("/posts",
		func(c *gin.Context) { c.Set(UserIDKey, "user-1") },
		RateLimit(limiter, "post"),
		func(c *gin.Context) { c.Status(http.StatusCreated) },
	)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/posts", nil))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "50", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "90", w.Header().Get("Retry-After"))
	assert.Equal(t, "post", limiter.scope)
	assert.Equal(t, "user-1", limiter.identity)

	limiter.decision = ratelimit.Decision{Allowed: true, Limit: 50, Remaining: 49, ResetAt: reset}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/posts", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "49", w.Header().Get("X-RateLimit-Remaining"))
}
