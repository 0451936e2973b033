package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ichinomiya1038/sample-app/internal/api/httpx"
)

const maxClients = 10000

// limiter keeps one token bucket per client address.
type limiter struct {
	mu      sync.Mutex
	rps     int
	clients map[string]*rate.Limiter
	now     func() time.Time
}

func newLimiter(rps int) *limiter {
	return &limiter{rps: rps, clients: map[string]*rate.Limiter{}, now: time.Now}
}

// reserve takes a token for key. It returns zero when the request may
// proceed, otherwise how long the client has to wait.
func (l *limiter) reserve(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if len(l.clients) >= maxClients {
		l.evictIdle(now)
	}
	lim, ok := l.clients[key]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(l.rps), l.rps)
		l.clients[key] = lim
	}
	res := lim.ReserveN(now, 1)
	if d := res.DelayFrom(now); d > 0 {
		res.CancelAt(now)
		return d
	}
	return 0
}

// evictIdle forgets clients whose bucket is full again; a fresh limiter
// behaves the same.
func (l *limiter) evictIdle(now time.Time) {
	for k, lim := range l.clients {
		if lim.TokensAt(now) >= float64(lim.Burst()) {
			delete(l.clients, k)
		}
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit allows rps requests per second per client address with a
// burst of rps. Zero or negative rps disables limiting.
func RateLimit(rps int) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	l := newLimiter(rps)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if wait := l.reserve(clientKey(r)); wait > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				httpx.WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many requests", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
