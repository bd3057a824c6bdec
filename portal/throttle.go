package portal

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const (
	loginMaxFailures  = 10
	loginBaseLockout  = time.Minute
	loginMaxLockout   = 15 * time.Minute
	loginAttemptTTL   = time.Hour
	loginThrottlePath = "/login"
)

// loginThrottle tracks failed sign-ins per source IP and locks the source
// out with exponential backoff once loginMaxFailures is reached.
type loginThrottle struct {
	mu       sync.Mutex
	now      func() time.Time
	attempts map[string]*attemptRecord
}

type attemptRecord struct {
	failures    int
	lastFailure time.Time
	lockedUntil time.Time
}

func newLoginThrottle(now func() time.Time) *loginThrottle {
	if now == nil {
		now = time.Now
	}
	return &loginThrottle{now: now, attempts: make(map[string]*attemptRecord)}
}

// check reports whether ip is locked out and for how long.
func (t *loginThrottle) check(ip string) (bool, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.attempts[ip]
	if !ok {
		return false, 0
	}
	now := t.now()
	if now.Sub(rec.lastFailure) > loginAttemptTTL {
		delete(t.attempts, ip)
		return false, 0
	}
	if now.Before(rec.lockedUntil) {
		return true, rec.lockedUntil.Sub(now)
	}
	return false, 0
}

func (t *loginThrottle) recordFailure(ip string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.attempts[ip]
	if !ok {
		rec = &attemptRecord{}
		t.attempts[ip] = rec
	}
	rec.failures++
	rec.lastFailure = t.now()

	if rec.failures >= loginMaxFailures {
		lockout := loginBaseLockout
		for i := 0; i < rec.failures-loginMaxFailures; i++ {
			lockout *= 2
			if lockout > loginMaxLockout {
				lockout = loginMaxLockout
				break
			}
		}
		rec.lockedUntil = rec.lastFailure.Add(lockout)
	}
}

func (t *loginThrottle) recordSuccess(ip string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.attempts, ip)
}

// sweep drops records whose last failure is older than loginAttemptTTL.
func (t *loginThrottle) sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	now := t.now()
	for ip, rec := range t.attempts {
		if now.Sub(rec.lastFailure) > loginAttemptTTL {
			delete(t.attempts, ip)
			n++
		}
	}
	return n
}

// RunSweeper drops stale sign-in failure records every interval until ctx
// is done.
func (s *Server) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.throttle.sweep()
		}
	}
}

func writeThrottled(w http.ResponseWriter, retryAfter time.Duration) {
	secs := int(math.Ceil(retryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	http.Error(w, "too many failed sign-in attempts, try again later", http.StatusTooManyRequests)
}
