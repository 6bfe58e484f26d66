package middleware

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/sushil-kumar-saw/mitra-farm/internal/config"
)

// clientLimiter stores the rate limiter for a specific client.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterMiddleware manages per-client token buckets.
type RateLimiterMiddleware struct {
	clients map[string]*clientLimiter
	mu      sync.Mutex
	rate    rate.Limit
	burst   int
	idle    time.Duration
	stop    chan struct{}
}

// NewRateLimiterMiddleware creates a new RateLimiterMiddleware using the
// bucket size and refill rate from cfg.
func NewRateLimiterMiddleware(cfg *config.Config) *RateLimiterMiddleware {
	rm := &RateLimiterMiddleware{
		clients: make(map[string]*clientLimiter),
		rate:    rate.Limit(cfg.RateLimitRefillRate),
		burst:   cfg.RateLimitBucketSize,
		idle:    30 * time.Minute,
		stop:    make(chan struct{}),
	}
	go rm.cleanupClients(10 * time.Minute)
	return rm
}

// Close stops the cleanup goroutine.
func (rm *RateLimiterMiddleware) Close() {
	close(rm.stop)
}

func (rm *RateLimiterMiddleware) getClientLimiter(identifier string) *rate.Limiter {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	client, exists := rm.clients[identifier]
	if !exists {
		client = &clientLimiter{limiter: rate.NewLimiter(rm.rate, rm.burst)}
		rm.clients[identifier] = client
	}
	client.lastSeen = time.Now()
	return client.limiter
}

// cleanupClients periodically removes clients not seen for rm.idle.
func (rm *RateLimiterMiddleware) cleanupClients(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-rm.stop:
			return
		case <-ticker.C:
		}
		rm.mu.Lock()
		count := 0
		for id, client := range rm.clients {
			if time.Since(client.lastSeen) > rm.idle {
				delete(rm.clients, id)
				count++
			}
		}
		rm.mu.Unlock()
		if count > 0 {
			log.Printf("Rate limiter cleanup removed %d old client entries.", count)
		}
	}
}

// Limit creates the Gin middleware handler. Clients are keyed by IP.
func (rm *RateLimiterMiddleware) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rm.getClientLimiter(c.ClientIP()).Allow() {
			log.Printf("Rate limit exceeded for client %s on %s", c.ClientIP(), c.FullPath())
			abort(c, http.StatusTooManyRequests, "Too many requests, please try again later")
			return
		}
		c.Next()
	}
}
