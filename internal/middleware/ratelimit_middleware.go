package middleware

import (
	"context"
	"sync"
	"time"
)

// DeniedAccessRateLimiter throttles clients that keep hitting the dashboard
// with sessions the guard refuses. Admitted requests are never counted.
type DeniedAccessRateLimiter struct {
	mu       sync.Mutex
	attempts map[string]*attemptInfo
	limit    int
	window   time.Duration
	now      func() time.Time
}

type attemptInfo struct {
	count   int
	firstAt time.Time
}

// NewDeniedAccessRateLimiter allows limit denials per window per IP. The
// cleanup loop stops with ctx.
func NewDeniedAccessRateLimiter(ctx context.Context, limit int, window time.Duration) *DeniedAccessRateLimiter {
	rl := &DeniedAccessRateLimiter{
		attempts: make(map[string]*attemptInfo),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
	go rl.cleanup(ctx)
	return rl
}

// Allow records a denial for ip and reports whether it is within the limit.
func (r *DeniedAccessRateLimiter) Allow(ip string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	info, exists := r.attempts[ip]
	if !exists || now.Sub(info.firstAt) > r.window {
		r.attempts[ip] = &attemptInfo{count: 1, firstAt: now}
		return true
	}

	if info.count >= r.limit {
		return false
	}
	info.count++
	return true
}

func (r *DeniedAccessRateLimiter) cleanup(ctx context.Context) {
	ticker := time.NewTicker(5 * r.window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.mu.Lock()
			now := r.now()
			for ip, info := range r.attempts {
				if now.Sub(info.firstAt) > r.window {
					delete(r.attempts, ip)
				}
			}
			r.mu.Unlock()
		}
	}
}
