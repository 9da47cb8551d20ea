package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestLimiter(perMinute, perHour, perDay int) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(perMinute, perHour, perDay, true)
	rl.now = clock.now
	return rl, clock
}

func TestAllowRequestPerKey(t *testing.T) {
	rl, _ := newTestLimiter(2, 0, 0)

	assert.True(t, rl.AllowRequest("alice"))
	assert.True(t, rl.AllowRequest("alice"))
	assert.False(t, rl.AllowRequest("alice"))

	// other keys have their own windows
	assert.True(t, rl.AllowRequest("bob"))
}

func TestAllowRequestWindowSlides(t *testing.T) {
	rl, clock := newTestLimiter(1, 2, 0)

	assert.True(t, rl.AllowRequest("alice"))
	assert.False(t, rl.AllowRequest("alice"))

	clock.t = clock.t.Add(61 * time.Second)
	assert.True(t, rl.AllowRequest("alice"))

	// hourly limit reached even though the minute window is clear
	clock.t = clock.t.Add(61 * time.Second)
	assert.False(t, rl.AllowRequest("alice"))

	stats := rl.GetStats("alice")
	assert.Equal(t, 2, stats.RequestsLastHour)
	assert.Equal(t, 0, stats.RemainingThisHour)
}

func TestDisabledLimiterAllowsEverything(t *testing.T) {
	rl := NewRateLimiter(1, 1, 1, false)
	for i := 0; i < 5; i++ {
		assert.True(t, rl.AllowRequest("alice"))
	}
	assert.False(t, rl.GetStats("alice").Enabled)
}

func TestPrune(t *testing.T) {
	rl, clock := newTestLimiter(5, 0, 0)
	rl.AllowRequest("alice")
	clock.t = clock.t.Add(12 * time.Hour)
	rl.AllowRequest("bob")

	clock.t = clock.t.Add(13 * time.Hour)
	assert.Equal(t, 1, rl.Prune())
	assert.Equal(t, 1, rl.GetStats("bob").RequestsLastDay)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl, _ := newTestLimiter(1, 0, 0)

	r := gin.New()
	r.POST("/", Middleware(rl, func(c *gin.Context) string { return c.GetHeader("X-User") }), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	do := func(user string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("X-User", user)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusCreated, do("alice"))
	assert.Equal(t, http.StatusTooManyRequests, do("alice"))
	assert.Equal(t, http.StatusCreated, do("bob"))
	assert.Equal(t, http.StatusCreated, do(""))
	assert.Equal(t, http.StatusCreated, do(""))
}
