package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"veriform/internal/middleware"
)

func rateLimitedRouter(rl *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func hit(r *gin.Engine, ip string) int {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.RemoteAddr = ip + ":12345"
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiter_BlocksAfterBurst(t *testing.T) {
	r := rateLimitedRouter(middleware.NewRateLimiter(1, 2))

	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "10.0.0.1"))
}

func TestRateLimiter_IndependentPerIP(t *testing.T) {
	r := rateLimitedRouter(middleware.NewRateLimiter(1, 1))

	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.2"))
}

func TestRateLimiter_PruneKeepsActiveClients(t *testing.T) {
	rl := middleware.NewRateLimiter(1, 1)
	r := rateLimitedRouter(rl)

	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1"))
	rl.Prune()
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "10.0.0.1"))
}
