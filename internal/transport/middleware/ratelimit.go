package middleware

import (
	"context"
	"hash/fnv"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/frahmantamala/store-auth/internal"
	"github.com/frahmantamala/store-auth/internal/transport"
	"github.com/frahmantamala/store-auth/internal/user"
	"golang.org/x/time/rate"
)

const shardCount = 16

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
}

// RateLimiter keeps one token bucket per client key, spread across
// mutex-guarded shards. Idle entries are dropped by Sweep.
type RateLimiter struct {
	shards   [shardCount]*shard
	limit    rate.Limit
	burst    int
	entryTTL time.Duration
	interval time.Duration
	now      func() time.Time
	base     *transport.BaseHandler
}

func NewRateLimiter(cfg internal.RateLimitConfig, logger *slog.Logger) *RateLimiter {
	ttl := cfg.EntryTTL
	if ttl <= 0 {
		ttl = cfg.Window
	}
	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}

	rl := &RateLimiter{
		limit:    rate.Limit(float64(cfg.MaxRequests) / cfg.Window.Seconds()),
		burst:    cfg.MaxRequests,
		entryTTL: ttl,
		interval: interval,
		now:      time.Now,
		base:     transport.NewBaseHandler(logger),
	}
	for i := range rl.shards {
		rl.shards[i] = &shard{entries: make(map[string]*limiterEntry)}
	}
	return rl
}

func (rl *RateLimiter) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return rl.shards[h.Sum32()%shardCount]
}

// Reserve takes a token for key. When no token is available it returns
// false and how long the client should wait.
func (rl *RateLimiter) Reserve(key string) (allowed bool, remaining int, retryAfter time.Duration) {
	now := rl.now()
	s := rl.shardFor(key)

	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		s.entries[key] = e
	}
	e.lastSeen = now
	s.mu.Unlock()

	r := e.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, 0, rl.entryTTL
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, 0, delay
	}
	return true, int(math.Max(0, math.Floor(e.limiter.TokensAt(now)))), 0
}

// Sweep removes entries idle for longer than the entry TTL and returns how
// many were removed.
func (rl *RateLimiter) Sweep() int {
	cutoff := rl.now().Add(-rl.entryTTL)
	removed := 0
	for _, s := range rl.shards {
		s.mu.Lock()
		for key, e := range s.entries {
			if e.lastSeen.Before(cutoff) {
				delete(s.entries, key)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

// Len is the number of tracked clients.
func (rl *RateLimiter) Len() int {
	n := 0
	for _, s := range rl.shards {
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return n
}

// Run sweeps periodically until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(rl.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rl.Sweep(); n > 0 {
				rl.base.Logger.Debug("rate limiter swept idle clients", "removed", n)
			}
		}
	}
}

// Middleware limits by authenticated user when known, else by client IP.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		allowed, remaining, retryAfter := rl.Reserve(key)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.burst))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			secs := int(math.Ceil(retryAfter.Seconds()))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(rl.now().Add(retryAfter).Unix(), 10))
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			rl.base.Logger.Warn("rate limit exceeded", "key", key, "path", r.URL.Path)
			rl.base.WriteAppError(w, internal.ErrTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	if u, ok := user.FromContext(r.Context()); ok {
		return "user:" + u.ID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
