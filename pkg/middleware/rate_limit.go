package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inkbloom/inkbloom/internal/apperr"
	"github.com/inkbloom/inkbloom/pkg/metrics"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// idle limiters are dropped after this long
const limiterIdleTTL = 10 * time.Minute

// limiterStore lazily creates one token bucket per key. Entries expire when idle.
type limiterStore struct {
	items *cache.Cache
	rps   float64
	burst int
}

func newLimiterStore(rps float64, burst int) *limiterStore {
	return &limiterStore{items: cache.New(limiterIdleTTL, 2*limiterIdleTTL), rps: rps, burst: burst}
}

func (s *limiterStore) get(key string) *rate.Limiter {
	if v, ok := s.items.Get(key); ok {
		lim := v.(*rate.Limiter)
		s.items.SetDefault(key, lim)
		return lim
	}
	lim := rate.NewLimiter(rate.Limit(s.rps), s.burst)
	if err := s.items.Add(key, lim, cache.DefaultExpiration); err != nil {
		// another request created it first
		if v, ok := s.items.Get(key); ok {
			return v.(*rate.Limiter)
		}
	}
	return lim
}

// clientKey prefers the signed-in user and falls back to the client address.
func clientKey(c *gin.Context) string {
	if sess := sessionFromContext(c); sess.Authenticated() {
		return "user:" + sess.UserID
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

// RateLimitMiddleware returns a Gin middleware enforcing a token-bucket per-key limit.
// rps = allowed events per second, burst = maximum tokens in bucket.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	store := newLimiterStore(rps, burst)
	return func(c *gin.Context) {
		lim := store.get(clientKey(c))
		if !lim.Allow() {
			c.Header("Retry-After", "1")
			metrics.RateLimitRejected.WithLabelValues("memory").Inc()
			AbortError(c, http.StatusTooManyRequests, apperr.MsgTooManyRequests)
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}
