package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Togather-Foundation/gather/internal/api/problem"
	"github.com/Togather-Foundation/gather/internal/config"
	"golang.org/x/time/rate"
)

type RateLimitTier string

const (
	TierPublic        RateLimitTier = "public"
	TierAuthenticated RateLimitTier = "authenticated"
	// TierLogin allows a burst of LoginPer15Minutes, refilled evenly over 15 minutes.
	TierLogin RateLimitTier = "login"
)

const (
	limiterTTL             = 15 * time.Minute
	limiterCleanupInterval = 5 * time.Minute
)

// RateLimiter keeps one token bucket per (tier, client).
type RateLimiter struct {
	cfg   config.RateLimitConfig
	env   string
	mu    sync.Mutex
	items map[string]*limiterEntry
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter starts a background sweep of idle buckets; call Stop to end it.
func NewRateLimiter(cfg config.RateLimitConfig, env string) *RateLimiter {
	rl := &RateLimiter{
		cfg:   cfg,
		env:   env,
		items: make(map[string]*limiterEntry),
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Limit applies the given tier. Authenticated callers are keyed by user id,
// everyone else by client IP.
func (rl *RateLimiter) Limit(tier RateLimitTier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r, rl.cfg.TrustedProxyCIDRs)
			if user := CurrentUser(r.Context()); user != nil && tier == TierAuthenticated {
				key = "user:" + user.ID
			}

			limiter := rl.limiter(tier, key)
			if limiter != nil && !limiter.Allow() {
				w.Header().Set("Retry-After", strconv.Itoa(int(rl.retryAfter(tier).Seconds())))
				problem.Write(w, r, http.StatusTooManyRequests, problem.TypeTooManyRequests, "Too many requests", nil, rl.env,
					problem.WithDetail("Request was throttled."))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) limit(tier RateLimitTier) int {
	switch tier {
	case TierLogin:
		return rl.cfg.LoginPer15Minutes
	case TierAuthenticated:
		return rl.cfg.AuthenticatedPerMinute
	default:
		return rl.cfg.PublicPerMinute
	}
}

func (rl *RateLimiter) interval(tier RateLimitTier, limit int) time.Duration {
	if tier == TierLogin {
		return limiterTTL / time.Duration(limit)
	}
	return time.Minute / time.Duration(limit)
}

func (rl *RateLimiter) retryAfter(tier RateLimitTier) time.Duration {
	limit := rl.limit(tier)
	if limit <= 0 {
		return time.Minute
	}
	return max(rl.interval(tier, limit), time.Second)
}

// limiter returns nil when the tier is disabled (limit <= 0).
func (rl *RateLimiter) limiter(tier RateLimitTier, key string) *rate.Limiter {
	limit := rl.limit(tier)
	if limit <= 0 {
		return nil
	}
	lookup := string(tier) + ":" + key

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if entry, ok := rl.items[lookup]; ok {
		entry.lastSeen = now
		return entry.limiter
	}
	limiter := rate.NewLimiter(rate.Every(rl.interval(tier, limit)), limit)
	rl.items[lookup] = &limiterEntry{limiter: limiter, lastSeen: now}
	return limiter
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for key, entry := range rl.items {
		if now.Sub(entry.lastSeen) > limiterTTL {
			delete(rl.items, key)
		}
	}
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// clientKey is the peer IP, or the first X-Forwarded-For / X-Real-IP entry when
// the peer is a trusted proxy.
func clientKey(r *http.Request, trustedProxyCIDRs []string) string {
	remoteIP := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		remoteIP = host
	}

	if isTrustedProxy(remoteIP, trustedProxyCIDRs) {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			first, _, _ := strings.Cut(forwarded, ",")
			return strings.TrimSpace(first)
		}
		if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
			return strings.TrimSpace(realIP)
		}
	}
	return remoteIP
}

func isTrustedProxy(ip string, trustedCIDRs []string) bool {
	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		return false
	}
	for _, cidrStr := range trustedCIDRs {
		_, cidr, err := net.ParseCIDR(cidrStr)
		if err != nil {
			continue
		}
		if cidr.Contains(parsedIP) {
			return true
		}
	}
	return false
}
