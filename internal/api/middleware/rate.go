package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Limiter entries idle longer than this are evicted.
const visitorTTL = 10 * time.Minute

// RateLimit bounds each client IP to rps intent calls per second with
// the given burst. A limited request gets 429 and never reaches the
// session registry.
func RateLimit(rps, burst int) gin.HandlerFunc {
	type visitor struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}

	var (
		mu       sync.Mutex
		visitors = make(map[string]*visitor)
		sweepAt  = time.Now().Add(visitorTTL)
	)

	return func(c *gin.Context) {
		now := time.Now()

		mu.Lock()
		if now.After(sweepAt) {
			for ip, v := range visitors {
				if now.Sub(v.lastSeen) > visitorTTL {
					delete(visitors, ip)
				}
			}
			sweepAt = now.Add(visitorTTL)
		}

		ip := c.ClientIP()
		v, ok := visitors[ip]
		if !ok {
			v = &visitor{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
			visitors[ip] = v
		}
		v.lastSeen = now
		mu.Unlock()

		if !v.limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
