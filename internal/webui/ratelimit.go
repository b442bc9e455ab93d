package webui

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimit allows Requests per Window for each client address.
type RateLimit struct {
	Requests int
	Window   time.Duration
	Message  string
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter keeps one token bucket per client address. The bucket holds
// Requests tokens and refills one every Window/Requests.
type ipLimiter struct {
	cfg RateLimit
	now func() time.Time

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

func newIPLimiter(cfg RateLimit) *ipLimiter {
	if cfg.Requests <= 0 {
		cfg.Requests = 50
	}
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	if cfg.Message == "" {
		cfg.Message = "Troppi messaggi! Riprova fra 15 minuti."
	}
	return &ipLimiter{cfg: cfg, now: time.Now, visitors: make(map[string]*visitor)}
}

func (l *ipLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	v, ok := l.visitors[key]
	if !ok {
		every := l.cfg.Window / time.Duration(l.cfg.Requests)
		v = &visitor{limiter: rate.NewLimiter(rate.Every(every), l.cfg.Requests)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// sweep drops buckets idle for a full window; they would be full again anyway.
func (l *ipLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.cfg.Window {
		return
	}
	l.lastSweep = now
	for k, v := range l.visitors {
		if now.Sub(v.lastSeen) >= l.cfg.Window {
			delete(l.visitors, k)
		}
	}
}

func (l *ipLimiter) middleware(m *metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("RateLimit-Limit", strconv.Itoa(l.cfg.Requests))
		if !l.allow(c.ClientIP()) {
			m.rateLimited.Inc()
			c.Header("Retry-After", strconv.Itoa(int((l.cfg.Window / time.Duration(l.cfg.Requests)).Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": l.cfg.Message, "reply": l.cfg.Message})
			return
		}
		c.Next()
	}
}
