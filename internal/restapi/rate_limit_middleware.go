package restapi

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"koox.dev/busrouter/internal/clock"
	"koox.dev/busrouter/internal/models"
)

const (
	rateLimitCleanupInterval = time.Minute
	rateLimitIdleTimeout     = 5 * time.Minute
)

type keyLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware keeps one token bucket per API key. Idle buckets are
// dropped by a background goroutine until Stop is called.
type RateLimitMiddleware struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*keyLimiter

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewRateLimitMiddleware allows requestsPerInterval requests per key in each
// interval. A non-positive count disables limiting.
func NewRateLimitMiddleware(requestsPerInterval int, interval time.Duration) *RateLimitMiddleware {
	m := &RateLimitMiddleware{
		limit:    rate.Inf,
		limiters: make(map[string]*keyLimiter),
		stopChan: make(chan struct{}),
	}
	if requestsPerInterval > 0 && interval > 0 {
		m.limit = rate.Every(interval / time.Duration(requestsPerInterval))
		m.burst = requestsPerInterval
	}

	m.wg.Add(1)
	go m.cleanup()
	return m
}

func (m *RateLimitMiddleware) limiterFor(key string, now time.Time) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.limiters[key]
	if !ok {
		entry = &keyLimiter{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

func (m *RateLimitMiddleware) cleanup() {
	defer m.wg.Done()

	ticker := time.NewTicker(rateLimitCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			for key, entry := range m.limiters {
				if now.Sub(entry.lastSeen) > rateLimitIdleTimeout {
					delete(m.limiters, key)
				}
			}
			m.mu.Unlock()
		}
	}
}

// Handler returns the middleware function.
func (m *RateLimitMiddleware) Handler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.limit == rate.Inf {
				next.ServeHTTP(w, r)
				return
			}

			now := time.Now()
			reservation := m.limiterFor(r.URL.Query().Get("key"), now).ReserveN(now, 1)
			if delay := reservation.DelayFrom(now); delay > 0 {
				reservation.CancelAt(now)
				writeRateLimited(w, delay)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (m *RateLimitMiddleware) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
	})
	m.wg.Wait()
}

func writeRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	seconds := int(math.Ceil(retryAfter.Seconds()))
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	response := models.NewResponseWithClock(http.StatusTooManyRequests, nil, "rate limit exceeded", clock.RealClock{})
	_ = json.NewEncoder(w).Encode(response)
}
