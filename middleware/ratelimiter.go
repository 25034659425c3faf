package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	ginlimiter "github.com/ulule/limiter/v3/drivers/middleware/gin"
	memory "github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const defaultRate = "100-M"

// RateLimiter limits requests per client IP. Counters live in Redis when a
// client is given so limits hold across replicas, otherwise in memory.
func RateLimiter(formatted string, client *redis.Client) gin.HandlerFunc {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		log.Printf("⚠️ invalid RATE_LIMIT %q, using %s: %v", formatted, defaultRate, err)
		rate = limiter.Rate{Period: 1 * time.Minute, Limit: 100}
	}

	var store limiter.Store
	if client != nil {
		store, err = sredis.NewStoreWithOptions(client, limiter.StoreOptions{
			Prefix:   "gather_limiter",
			MaxRetry: 3,
		})
		if err != nil {
			log.Printf("⚠️ redis limiter store unavailable, falling back to memory: %v", err)
			store = nil
		}
	}
	if store == nil {
		store = memory.NewStore()
	}

	instance := limiter.New(store, rate, limiter.WithClientIPHeader("X-Forwarded-For"))
	return ginlimiter.NewMiddleware(instance)
}
