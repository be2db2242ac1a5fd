package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"feedhub/internal/handler/http/pathutil"
	"feedhub/internal/handler/http/respond"
	"feedhub/internal/observability/metrics"
)

// RateLimiter admits requests per client IP with a token bucket. A cache miss
// on the read API fans out to every upstream source, so this bounds how often
// one client can trigger that.
type RateLimiter struct {
	perSecond rate.Limit
	burst     int
	extractor IPExtractor
	idle      time.Duration
	now       func() time.Time

	mu      sync.Mutex
	clients map[string]*client
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter returns a limiter allowing perSecond requests with the given
// burst per client. A nil extractor keys on RemoteAddr.
func NewRateLimiter(perSecond float64, burst int, extractor IPExtractor) *RateLimiter {
	if extractor == nil {
		extractor = RemoteAddrExtractor{}
	}
	return &RateLimiter{
		perSecond: rate.Limit(perSecond),
		burst:     burst,
		extractor: extractor,
		idle:      10 * time.Minute,
		now:       time.Now,
		clients:   make(map[string]*client),
	}
}

// Allow reports whether ip may proceed now, and if not, how long until a
// token is available.
func (rl *RateLimiter) Allow(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	c, ok := rl.clients[ip]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.perSecond, rl.burst)}
		rl.clients[ip] = c
	}
	now := rl.now()
	c.lastSeen = now
	rl.mu.Unlock()

	r := c.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Second
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return false, d
	}
	return true, 0
}

// CleanupExpired forgets clients idle for longer than the idle window.
func (rl *RateLimiter) CleanupExpired() int {
	cutoff := rl.now().Add(-rl.idle)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	removed := 0
	for ip, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, ip)
			removed++
		}
	}
	return removed
}

// Clients returns the number of tracked client IPs.
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Middleware answers 429 with Retry-After once a client's bucket is empty.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, err := rl.extractor.ExtractIP(r)
		if err != nil {
			slog.Warn("rate limiter: IP extraction failed",
				slog.String("remote_addr", r.RemoteAddr),
				slog.Any("error", err))
			next.ServeHTTP(w, r)
			return
		}

		ok, retry := rl.Allow(ip)
		if ok {
			next.ServeHTTP(w, r)
			return
		}

		path := pathutil.NormalizePath(r.URL.Path)
		metrics.RecordRateLimited(path)
		slog.Warn("rate limit exceeded",
			slog.String("ip", ip),
			slog.String("path", path),
			slog.Duration("retry_after", retry))

		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
		respond.JSON(w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
	})
}
