package processor

import (
	"math"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/hostlink-go/internal/core/domain"
	"github.com/yndnr/hostlink-go/pkg/cmap"
)

// limiterIdle is how long a client's limiter survives without requests.
const limiterIdle = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// LimiterRegistry keeps one token bucket per client IP.
type LimiterRegistry struct {
	limiters *cmap.Map[*clientLimiter]
	limit    rate.Limit
	burst    int
	now      func() time.Time
	lastGC   atomic.Int64
}

// NewLimiterRegistry creates a registry allowing perSecond requests per
// client with the given burst. A burst below 1 uses ceil(perSecond).
func NewLimiterRegistry(perSecond float64, burst int) *LimiterRegistry {
	if burst < 1 {
		burst = int(math.Ceil(perSecond))
		if burst < 1 {
			burst = 1
		}
	}
	return &LimiterRegistry{
		limiters: cmap.New[*clientLimiter](),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		now:      time.Now,
	}
}

// Allow reports whether the client may proceed and, if not, how long it
// should wait.
func (l *LimiterRegistry) Allow(client string) (bool, time.Duration) {
	now := l.now()
	l.gc(now)

	cl, _ := l.limiters.LoadOrCompute(client, func() *clientLimiter {
		return &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
	})
	cl.lastSeen.Store(now.UnixNano())

	res := cl.limiter.ReserveN(now, 1)
	if !res.OK() {
		return false, time.Second
	}
	if d := res.DelayFrom(now); d > 0 {
		res.CancelAt(now)
		return false, d
	}
	return true, 0
}

// Len returns the number of tracked clients.
func (l *LimiterRegistry) Len() int {
	return l.limiters.Len()
}

// gc drops idle limiters at most once per limiterIdle.
func (l *LimiterRegistry) gc(now time.Time) {
	last := l.lastGC.Load()
	if now.UnixNano()-last < int64(limiterIdle) || !l.lastGC.CompareAndSwap(last, now.UnixNano()) {
		return
	}
	cutoff := now.Add(-limiterIdle).UnixNano()
	l.limiters.DeleteIf(func(_ string, cl *clientLimiter) bool {
		return cl.lastSeen.Load() < cutoff
	})
}

// RateLimit rejects clients that exceed the registry's rate with
// domain.ErrRateLimited and a Retry-After header.
func RateLimit(reg *LimiterRegistry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait := reg.Allow(clientIP(r))
			if !ok {
				secs := int(math.Ceil(wait.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				fail(w, r, domain.ErrRateLimited.WithDetails("client "+clientIP(r)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
