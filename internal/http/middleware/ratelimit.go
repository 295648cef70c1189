package middleware

import (
	"fmt"
	"net/http"

	"github.com/go-redis/redis/v8"

	"github.com/devaalay/asset-service/internal/ratelimit"
	"github.com/devaalay/asset-service/internal/utils/response"
)

type RateLimitConfig struct {
	redisClient *redis.Client
	limiters    map[string]*ratelimit.TokenBucket
}

func NewRateLimitConfig(redisClient *redis.Client) *RateLimitConfig {
	config := &RateLimitConfig{
		redisClient: redisClient,
		limiters:    make(map[string]*ratelimit.TokenBucket),
	}

	// Upload endpoints stream up to 100MB to the object store: 10/min.
	config.limiters["upload"] = ratelimit.NewTokenBucket(redisClient, 10, 10)

	// ZIP expansion fans out to many object-store writes: 3/min.
	config.limiters["upload_zip"] = ratelimit.NewTokenBucket(redisClient, 3, 3)

	return config
}

func (rlc *RateLimitConfig) RateLimitMiddleware(action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Auth middleware runs first.
			adminID, ok := GetAdminIDFromContext(r.Context())
			if !ok {
				response.ErrorWithStatus(w, http.StatusUnauthorized, "admin not authenticated")
				return
			}

			limiter, exists := rlc.limiters[action]
			if !exists {
				next.ServeHTTP(w, r)
				return
			}

			allowed, err := limiter.Allow(r.Context(), adminID, action)
			if err != nil {
				response.ErrorWithStatus(w, http.StatusInternalServerError,
					fmt.Sprintf("rate limit check failed: %s", err))
				return
			}

			if !allowed {
				response.ErrorWithStatus(w, http.StatusTooManyRequests,
					fmt.Sprintf("rate limit exceeded for %s", action))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
