package bus

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/hxrts/aura/ids"
)

// PeerRateLimiter gives each peer its own token bucket, so one noisy or
// malicious peer cannot exhaust another's forwarding budget (§4.6 "budget
// under the per-peer rate limiter").
type PeerRateLimiter struct {
	mu       sync.Mutex
	limiters map[ids.DeviceId]*rate.Limiter

	eventsPerSecond rate.Limit
	burst           int
}

func NewPeerRateLimiter(eventsPerSecond float64, burst int) *PeerRateLimiter {
	return &PeerRateLimiter{
		limiters:        map[ids.DeviceId]*rate.Limiter{},
		eventsPerSecond: rate.Limit(eventsPerSecond),
		burst:           burst,
	}
}

func (p *PeerRateLimiter) limiterFor(peer ids.DeviceId) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.limiters[peer]
	if !ok {
		l = rate.NewLimiter(p.eventsPerSecond, p.burst)
		p.limiters[peer] = l
	}
	return l
}

// Allow reports whether peer has budget to receive one more forward right
// now, consuming a token if so.
func (p *PeerRateLimiter) Allow(peer ids.DeviceId) bool {
	return p.limiterFor(peer).Allow()
}
