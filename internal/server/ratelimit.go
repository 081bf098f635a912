package server

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"atsscore/internal/config"
	"atsscore/internal/errors"

	"golang.org/x/time/rate"
)

const limiterIdleTimeout = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client key and forgets clients
// idle for longer than limiterIdleTimeout.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     rate.Limit
	burst    int
	rejected atomic.Int64
	done     chan struct{}
	once     sync.Once
	logger   *errors.Logger
}

// NewRateLimiter allows requestsPerMin per client with bursts of up to
// burstCapacity.
func NewRateLimiter(requestsPerMin, burstCapacity int, logger *errors.Logger) *RateLimiter {
	if burstCapacity <= 0 {
		burstCapacity = 1
	}
	if logger == nil {
		logger = errors.Discard()
	}

	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate.Limit(float64(requestsPerMin) / 60.0),
		burst:    burstCapacity,
		done:     make(chan struct{}),
		logger:   logger,
	}
	go rl.evictLoop(limiterIdleTimeout)
	return rl
}

func (rl *RateLimiter) visitor(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

// Reserve takes a token for key. When none is available it returns false and
// how long the client should wait; the token is not consumed.
func (rl *RateLimiter) Reserve(key string) (bool, time.Duration) {
	now := time.Now()
	res := rl.visitor(key, now).ReserveN(now, 1)
	if !res.OK() {
		rl.rejected.Add(1)
		return false, time.Minute
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		rl.rejected.Add(1)
		return false, delay
	}
	return true, 0
}

// GetStats returns current rate limiter statistics
func (rl *RateLimiter) GetStats() map[string]any {
	rl.mu.Lock()
	active := len(rl.visitors)
	rl.mu.Unlock()

	return map[string]any{
		"active_limiters":   active,
		"rate_per_minute":   float64(rl.rate) * 60.0,
		"burst_capacity":    rl.burst,
		"rejected_requests": rl.rejected.Load(),
	}
}

func (rl *RateLimiter) evictLoop(idle time.Duration) {
	ticker := time.NewTicker(idle)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			rl.evictIdle(now.Add(-idle))
		case <-rl.done:
			return
		}
	}
}

// evictIdle drops visitors not seen since cutoff
func (rl *RateLimiter) evictIdle(cutoff time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, key)
		}
	}
	rl.logger.Debug("Evicted idle rate limiters", "remaining_limiters", len(rl.visitors))
}

// Close stops the eviction goroutine. Safe to call more than once.
func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.done) })
}

// rateLimitMiddleware rejects requests over the client's budget with 429 and
// a Retry-After header in whole seconds.
func (s *Server) rateLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	if s.RateLimit == nil || !s.RateLimit.Enabled || s.RateLimiter == nil {
		return func(next http.HandlerFunc) http.HandlerFunc { return next }
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			key := getRateLimitKey(r, s.RateLimit.ByAPIKey, s.RateLimit.ByIP)
			if key == "" {
				next(w, r)
				return
			}

			allowed, wait := s.RateLimiter.Reserve(key)
			if !allowed {
				retryAfter := int(math.Ceil(wait.Seconds()))
				s.Logger.Info("Rate limit exceeded",
					"endpoint", r.URL.Path,
					"client_ip", getClientIP(r),
					"key_type", rateLimitKeyType(r, s.RateLimit),
					"retry_after", retryAfter,
					"request_id", RequestIDFromContext(r.Context()))
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeErrorResponse(w, "Rate limit exceeded", "Too many requests", http.StatusTooManyRequests)
				return
			}

			next(w, r)
		}
	}
}

// getRateLimitKey picks the API key bucket when a credential is sent, else
// the client IP bucket. Credentials are hashed so raw keys never become map
// keys or log fields.
func getRateLimitKey(r *http.Request, byAPIKey, byIP bool) string {
	if byAPIKey {
		if credential := credentialFromRequest(r); credential != "" {
			sum := sha256.Sum256([]byte(credential))
			return "api:" + hex.EncodeToString(sum[:8])
		}
	}
	if byIP {
		return "ip:" + getClientIP(r)
	}
	return ""
}

// rateLimitKeyType names the bucket kind for metrics
func rateLimitKeyType(r *http.Request, cfg *config.RateLimitConfig) string {
	if cfg == nil {
		return "none"
	}
	kind, _, found := strings.Cut(getRateLimitKey(r, cfg.ByAPIKey, cfg.ByIP), ":")
	switch {
	case !found:
		return "none"
	case kind == "api":
		return "api_key"
	default:
		return kind
	}
}

// getClientIP prefers proxy headers, then the connection address
func getClientIP(r *http.Request) string {
	for _, candidate := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if ip := strings.TrimSpace(candidate); net.ParseIP(ip) != nil {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(ip) != nil {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
