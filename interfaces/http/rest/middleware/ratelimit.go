package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	pkgerrors "famorg/pkg/errors"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// idleBucketTTL is how long an untouched client bucket survives a sweep
const idleBucketTTL = time.Hour

// TokenBucketLimiter keeps one token bucket per client key
type TokenBucketLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	every   rate.Limit
	burst   int
	now     func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewTokenBucketLimiter allows burst requests per client and then one request
// every refillRate.
func NewTokenBucketLimiter(burst int, refillRate time.Duration) *TokenBucketLimiter {
	return &TokenBucketLimiter{
		buckets: make(map[string]*bucket),
		every:   rate.Every(refillRate),
		burst:   burst,
		now:     time.Now,
	}
}

// PerMinute builds a limiter admitting n requests per minute with a burst of n.
func PerMinute(n int) *TokenBucketLimiter {
	return NewTokenBucketLimiter(n, time.Minute/time.Duration(n))
}

// WithClock replaces the time source
func (l *TokenBucketLimiter) WithClock(now func() time.Time) *TokenBucketLimiter {
	l.now = now
	return l
}

// Allow takes a token for key. When none is available it reports how long
// the client has to wait for the next one.
func (l *TokenBucketLimiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.every, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, rate.InfDuration
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Reset forgets the bucket for key
func (l *TokenBucketLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// Sweep drops buckets idle for longer than an hour and reports how many remain.
func (l *TokenBucketLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > idleBucketTTL {
			delete(l.buckets, key)
		}
	}
	return len(l.buckets)
}

// RunSweeper sweeps every interval until stop is closed
func (l *TokenBucketLimiter) RunSweeper(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.Sweep()
		case <-stop:
			return
		}
	}
}

// RateLimitWrites rejects mutating requests with 429 once the client's bucket
// is empty. Reads pass untouched. Clients are keyed by remote IP, so it
// belongs after chi's RealIP.
func RateLimitWrites(limiter *TokenBucketLimiter, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			client := clientIP(r)
			if ok, wait := limiter.Allow(client); !ok {
				logger.Warn("Rate limit exceeded",
					zap.String("client", client),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Duration("retryAfter", wait),
				)
				w.Header().Set("Retry-After", retryAfterSeconds(wait))
				errorHandler.Handle(w, r, pkgerrors.NewRateLimitedError(client))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// retryAfterSeconds renders a wait as whole seconds, rounded up, at least 1
func retryAfterSeconds(wait time.Duration) string {
	secs := int64(math.Ceil(wait.Seconds()))
	if secs < 1 || wait == rate.InfDuration {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
