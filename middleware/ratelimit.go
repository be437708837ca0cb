package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"salonbook/config"
	"salonbook/utils"
)

// clientLimiters maps client IPs to their limiters. Entries idle for longer
// than limiterIdleTTL are pruned on the fly.
type clientLimiters struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const limiterIdleTTL = 10 * time.Minute

var limiters = &clientLimiters{entries: make(map[string]*limiterEntry)}

func (s *clientLimiters) get(ip string, perMinute, burst int) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if len(s.entries) > 1024 {
		for k, e := range s.entries {
			if now.Sub(e.lastSeen) > limiterIdleTTL {
				delete(s.entries, k)
			}
		}
	}

	e, ok := s.entries[ip]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)}
		s.entries[ip] = e
	}
	e.lastSeen = now
	return e.limiter
}

// RateLimitMiddleware limits requests per client IP.
func RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		perMinute := config.AppConfig.RateLimitPerMinute
		burst := config.AppConfig.RateLimitBurst
		if perMinute <= 0 || burst <= 0 {
			c.Next()
			return
		}
		ip := c.ClientIP()
		if !limiters.get(ip, perMinute, burst).Allow() {
			utils.GetLogger().Warn("rate limit exceeded", zap.String("ip", ip))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded. Try again later."})
			return
		}
		c.Next()
	}
}
