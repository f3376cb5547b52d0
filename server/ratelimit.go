package server

import (
	"net"
	"sync"

	"github.com/miekg/dns"
	"golang.org/x/time/rate"
)

// RateLimiter wraps a dns.Handler with a per-peer token bucket,
// dropping queries once a peer exceeds qps. Grounded on the teacher's
// config.ClientRateLimit concern, reimplemented against x/time/rate
// instead of a hand-rolled counter since the teacher never wires a
// rate-limiting library itself.
type RateLimiter struct {
	qps  rate.Limit
	burst int
	next dns.Handler

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewRateLimiter returns a RateLimiter allowing qps queries per second
// per peer IP, with a burst equal to qps.
func NewRateLimiter(qps int, next dns.Handler) *RateLimiter {
	return &RateLimiter{
		qps:      rate.Limit(qps),
		burst:    qps,
		next:     next,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (rl *RateLimiter) ServeDNS(w dns.ResponseWriter, r *dns.Msg) {
	host, _, err := net.SplitHostPort(w.RemoteAddr().String())
	if err != nil {
		host = w.RemoteAddr().String()
	}

	if !rl.allow(host) {
		return
	}

	rl.next.ServeDNS(w, r)
}

func (rl *RateLimiter) allow(host string) bool {
	rl.mu.Lock()
	lim, ok := rl.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rl.qps, rl.burst)
		rl.limiters[host] = lim
	}
	rl.mu.Unlock()

	return lim.Allow()
}
