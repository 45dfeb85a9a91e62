package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inkbloom/inkbloom/internal/apperr"
	"github.com/inkbloom/inkbloom/pkg/logger"
	"github.com/inkbloom/inkbloom/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

// fixedWindow INCRs a per-window counter and reports whether it is within limit.
func fixedWindow(ctx context.Context, client *redis.Client, key string, limit int, windowSeconds int) (bool, error) {
	bucket := time.Now().Unix() / int64(windowSeconds)
	redisKey := fmt.Sprintf("%s:%d", key, bucket)

	cnt, err := client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		// set expiration for the bucket
		_ = client.Expire(ctx, redisKey, time.Duration(windowSeconds+1)*time.Second).Err()
	}
	return int(cnt) <= limit, nil
}

func windowSeconds(window time.Duration) int {
	s := int(window.Seconds())
	if s <= 0 {
		s = 1
	}
	return s
}

// RedisRateLimitMiddleware provides a coarse fixed-window Redis-backed limiter
// shared by every process. allowed = floor(rps*windowSeconds)+burst per window.
func RedisRateLimitMiddleware(client *redis.Client, rps float64, burst int, window time.Duration) gin.HandlerFunc {
	if client == nil {
		// fallback to in-memory if no client
		return RateLimitMiddleware(rps, burst)
	}
	ws := windowSeconds(window)
	allowedPerWindow := int(rps*float64(ws)) + burst
	return func(c *gin.Context) {
		ok, err := fixedWindow(c.Request.Context(), client, "rl:"+clientKey(c), allowedPerWindow, ws)
		if err != nil {
			logger.Errorf("rate limit check failed: %v", err)
			AbortError(c, http.StatusInternalServerError, apperr.MsgInternal)
			return
		}
		if !ok {
			c.Header("Retry-After", fmt.Sprintf("%d", ws))
			metrics.RateLimitRejected.WithLabelValues("redis").Inc()
			AbortError(c, http.StatusTooManyRequests, apperr.MsgTooManyRequests)
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("redis").Inc()
		c.Next()
	}
}

// RouteLimit allows limit requests per window for each client address and
// request path, e.g. one view count per post per minute.
func RouteLimit(client *redis.Client, scope string, limit int, window time.Duration) gin.HandlerFunc {
	ws := windowSeconds(window)
	return func(c *gin.Context) {
		if client == nil || limit <= 0 {
			c.Next()
			return
		}
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		key := "rl:" + scope + ":" + ip + ":" + c.Request.URL.Path
		ok, err := fixedWindow(c.Request.Context(), client, key, limit, ws)
		if err != nil {
			logger.Errorf("route limit %s check failed: %v", scope, err)
			AbortError(c, http.StatusInternalServerError, apperr.MsgInternal)
			return
		}
		if !ok {
			c.Header("Retry-After", fmt.Sprintf("%d", ws))
			metrics.RateLimitRejected.WithLabelValues(scope).Inc()
			AbortError(c, http.StatusTooManyRequests, apperr.MsgTooManyRequests)
			return
		}
		metrics.RateLimitAllowed.WithLabelValues(scope).Inc()
		c.Next()
	}
}
