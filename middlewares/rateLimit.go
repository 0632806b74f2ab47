package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// Idle limiters are evicted so one-off visitors do not accumulate.
const limiterIdleTTL = 10 * time.Minute

type limiterStore struct {
	mu    sync.Mutex
	cache *gocache.Cache
}

func newLimiterStore() *limiterStore {
	return &limiterStore{cache: gocache.New(limiterIdleTTL, limiterIdleTTL)}
}

func (s *limiterStore) get(key string, r rate.Limit, b int) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.cache.Get(key); ok {
		limiter := cached.(*rate.Limiter)
		s.cache.SetDefault(key, limiter)
		return limiter
	}
	limiter := rate.NewLimiter(r, b)
	s.cache.SetDefault(key, limiter)
	return limiter
}

// RateLimitMiddleware allows b requests at once and r per second after that
// for each key returned by keyFunc.
func RateLimitMiddleware(r rate.Limit, b int, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	store := newLimiterStore()
	return func(c *gin.Context) {
		limiter := store.get(keyFunc(c), r, b)

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Please slow down :("})
			return
		}

		c.Next()
	}
}

// ClientIPKey limits per client address.
func ClientIPKey(c *gin.Context) string {
	return c.ClientIP()
}
