package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per identity and forgets identities
// that have been idle for longer than expiration.
type RateLimiter struct {
	limit      rate.Limit
	burst      int
	expiration time.Duration

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// NewRateLimiter allows perSecond requests per identity with the given burst.
func NewRateLimiter(perSecond float64, burst int, expiration time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:      rate.Limit(perSecond),
		burst:      burst,
		expiration: expiration,
		buckets:    make(map[string]*bucket),
		lastSweep:  time.Now(),
	}
}

func (l *RateLimiter) Allow(identity string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > l.expiration {
		for id, b := range l.buckets {
			if now.Sub(b.seen) > l.expiration {
				delete(l.buckets, id)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[identity]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[identity] = b
	}
	b.seen = now
	return b.limiter.AllowN(now, 1)
}

// Len is the number of tracked identities.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// RateLimit throttles requests per actor. Moderators are not limited.
func RateLimit(l *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := GetActorFromContext(r)
			if actor.IsModerator() {
				next.ServeHTTP(w, r)
				return
			}
			if !l.Allow(actorIdentity(r)) {
				http.Error(w, "Rate limit exceeded, try again later", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// actorIdentity keys members by id and anonymous visitors by IP.
func actorIdentity(r *http.Request) string {
	actor := GetActorFromContext(r)
	if actor.IsAnonymous() {
		return "ip_" + actor.IP
	}
	return "actor_" + strconv.FormatInt(actor.Id, 10)
}
