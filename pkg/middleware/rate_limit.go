package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jellydator/ttlcache/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type RateLimiterConfig struct {
	RequestsPerSecond int
	Burst             int
	// TTL is how long an idle client keeps its bucket
	TTL time.Duration
}

// RateLimiterMiddleware limits every client IP to a token bucket. Buckets
// live in a ttl cache and are forgotten once a client stays quiet for TTL.
func RateLimiterMiddleware(config RateLimiterConfig) gin.HandlerFunc {
	if config.TTL == 0 {
		config.TTL = 3 * time.Minute
	}
	if config.Burst < config.RequestsPerSecond {
		config.Burst = config.RequestsPerSecond
	}

	visitors := ttlcache.NewCache()
	visitors.SetTTL(config.TTL)
	visitors.SetLoaderFunction(func(string) (any, time.Duration, error) {
		return rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst), config.TTL, nil
	})

	return func(c *gin.Context) {
		v, err := visitors.Get(c.ClientIP())
		if err != nil {
			zap.L().Error("Failed to load rate limiter", zap.Error(err), zap.String("requestID", c.GetString("requestID")))
			c.Next()
			return
		}

		if !v.(*rate.Limiter).Allow() {
			c.String(http.StatusTooManyRequests, "Too many requests")
			c.Abort()
			return
		}

		c.Next()
	}
}
