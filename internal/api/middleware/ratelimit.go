package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"taskboard/internal/common"
	"taskboard/internal/platform/logger"

	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window limiter keyed by client IP and backed by
// Redis SETNX/INCR. A nil client or a Redis error lets the request through.
type RateLimiter struct {
	rdb         *redis.Client
	maxRequests int
	window      time.Duration
}

func NewRateLimiter(rdb *redis.Client, maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{rdb: rdb, maxRequests: maxRequests, window: window}
}

// Limit guards a group of routes sharing one counter per client.
// key format: rl:<endpoint>:<window_seconds>:<ip>
func (l *RateLimiter) Limit(endpoint string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l == nil || l.rdb == nil || l.maxRequests <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			val, err := l.hit(r.Context(), l.key(endpoint, r))
			if err != nil {
				logger.Warn("rate limiter unavailable", "endpoint", endpoint, "error", err)
				w.Header().Set("X-RateLimit-Error", "redis-error")
				next.ServeHTTP(w, r)
				return
			}

			if val > int64(l.maxRequests) {
				RLBlocked.WithLabelValues(endpoint).Inc()
				w.Header().Set("Retry-After", strconv.Itoa(int(l.window.Seconds())))
				common.RespondWithError(w, http.StatusTooManyRequests, "Too many requests")
				return
			}
			RLRequests.WithLabelValues(endpoint).Inc()
			next.ServeHTTP(w, r)
		})
	}
}

func (l *RateLimiter) key(endpoint string, r *http.Request) string {
	return "rl:" + endpoint + ":" + strconv.FormatInt(int64(l.window.Seconds()), 10) + ":" + clientIP(r)
}

// hit counts one request. The counter is created with its TTL and then
// incremented in one MULTI, detached from the request context, so a key
// never exists without an expiry.
func (l *RateLimiter) hit(ctx context.Context, key string) (int64, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	var incr *redis.IntCmd
	if _, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, l.window)
		incr = pipe.Incr(ctx, key)
		return nil
	}); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
