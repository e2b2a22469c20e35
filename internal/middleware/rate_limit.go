// internal/middleware/rate_limit.go
package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/javajoker/story-txprep/internal/handlers"
	"github.com/javajoker/story-txprep/internal/services"
	"github.com/javajoker/story-txprep/internal/utils"
)

// RateLimiter allows requests per window for each (client, path) pair. Each
// pair gets a token bucket refilled evenly across the window; idle buckets
// expire from the cache.
type RateLimiter struct {
	visitors *cache.Cache
	mtx      sync.Mutex
	rate     rate.Limit
	burst    int
	errs     *handlers.ErrorWriter
}

func NewRateLimiter(requests int, window time.Duration, errs *handlers.ErrorWriter) *RateLimiter {
	idle := 3 * window
	return &RateLimiter{
		visitors: cache.New(idle, window),
		rate:     rate.Every(window / time.Duration(requests)),
		burst:    requests,
		errs:     errs,
	}
}

func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	if v, ok := rl.visitors.Get(key); ok {
		limiter := v.(*rate.Limiter)
		// refresh expiry
		rl.visitors.SetDefault(key, limiter)
		return limiter
	}
	limiter := rate.NewLimiter(rl.rate, rl.burst)
	rl.visitors.SetDefault(key, limiter)
	return limiter
}

// Allow reports whether the request may proceed and, if not, how long the
// caller should wait.
func (rl *RateLimiter) Allow(clientID, path string) (bool, time.Duration) {
	limiter := rl.getVisitor(clientID + "|" + path)
	if limiter.Allow() {
		return true, 0
	}
	r := limiter.Reserve()
	delay := r.Delay()
	r.Cancel()
	return false, delay
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, wait := rl.Allow(utils.GetClientIDFromContext(c), c.FullPath())
		if !ok {
			secs := int(math.Ceil(wait.Seconds()))
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			rl.errs.Write(c, services.NewRateLimitedError(secs))
			return
		}
		c.Next()
	}
}
