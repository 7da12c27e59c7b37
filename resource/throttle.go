package resource

import (
	"net/http"
	"sync"
	"time"

	restnest "github.com/harvard-lil/restnest"
	"golang.org/x/time/rate"
)

const throttleIdleExpiry = time.Hour

// Throttle rate limits dispatches per client. Clients are keyed by the IP
// the middleware stack resolved, falling back to the connection's remote
// address. Zero value is unusable; construct with NewThrottle.
type Throttle struct {
	mu       sync.Mutex
	clients  map[string]*throttleClient
	limit    rate.Limit
	burst    int
	lastSeen func() time.Time
}

type throttleClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewThrottle returns a Throttle allowing limit events per second with the
// given burst, tracked independently per client.
func NewThrottle(limit rate.Limit, burst int) *Throttle {
	t := &Throttle{
		clients:  make(map[string]*throttleClient),
		limit:    limit,
		burst:    burst,
		lastSeen: time.Now,
	}
	go t.cleanup()

	return t
}

// Allow reports whether the request is within its client's budget.
func (t *Throttle) Allow(r *http.Request) bool {
	key := clientKey(r)

	t.mu.Lock()
	defer t.mu.Unlock()

	client, ok := t.clients[key]
	if !ok {
		client = &throttleClient{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.clients[key] = client
	}
	client.lastSeen = t.lastSeen()

	return client.limiter.Allow()
}

func (t *Throttle) cleanup() {
	for {
		time.Sleep(time.Minute)

		t.mu.Lock()
		for key, client := range t.clients {
			if time.Since(client.lastSeen) > throttleIdleExpiry {
				delete(t.clients, key)
			}
		}
		t.mu.Unlock()
	}
}

func clientKey(r *http.Request) string {
	if ip, ok := r.Context().Value(restnest.IpAddrKey).(string); ok && ip != "" {
		return ip
	}

	return r.RemoteAddr
}
