package bus

import (
	"context"
	"sync"

	"github.com/hxrts/aura/ids"
)

// Bus is one node's view of the epidemic envelope bus: its friend/guardian
// fan-out set, the pluggable transport, dedup and rate-limit state, and the
// guard chain gating every forward (§4.6).
type Bus struct {
	Transport  Transport
	GuardChain GuardChain
	RateLimit  *PeerRateLimiter
	Dedup      *Dedup

	mu      sync.RWMutex
	friends map[ids.DeviceId]struct{}
}

func New(transport Transport, chain GuardChain) *Bus {
	return &Bus{
		Transport:  transport,
		GuardChain: chain,
		RateLimit:  NewPeerRateLimiter(50, 100),
		Dedup:      NewDedup(),
		friends:    map[ids.DeviceId]struct{}{},
	}
}

// AddFriend adds a peer, friend or guardian alike, to the flooding fan-out
// set; the bus does not otherwise distinguish the two relationship kinds
// (§4.6).
func (b *Bus) AddFriend(peer ids.DeviceId) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.friends[peer] = struct{}{}
}

func (b *Bus) RemoveFriend(peer ids.DeviceId) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.friends, peer)
}

func (b *Bus) fanOutSet() []ids.DeviceId {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]ids.DeviceId, 0, len(b.friends))
	for p := range b.friends {
		out = append(out, p)
	}
	return out
}

// FloodResult reports per-peer outcomes for observability (§6 "metrics
// counters for ... envelope flood fan-out").
type FloodResult struct {
	Forwarded []ids.DeviceId
	Denied    map[ids.DeviceId]error
}

// Flood picks peers that are (a) reachable, (b) within rate-limit budget,
// (c) not the hop the envelope arrived from, and (d) have not already seen
// the fingerprint, then forwards to each with TTL decremented. TTL <= 0
// drops the envelope without forwarding (§4.6).
func (b *Bus) Flood(ctx context.Context, env Envelope, fromPeer ids.DeviceId, excludeFromPeer bool) FloodResult {
	result := FloodResult{Denied: map[ids.DeviceId]error{}}

	if !env.Alive() {
		return result
	}
	if !b.Dedup.MarkAndCheck(env.Fingerprint) {
		return result
	}

	next := env.Decremented()
	if !next.Alive() {
		return result
	}

	for _, peer := range b.fanOutSet() {
		if excludeFromPeer && peer == fromPeer {
			continue
		}
		if !b.Transport.IsPeerReachable(peer) {
			result.Denied[peer] = ErrPeerUnreachable
			continue
		}
		if !b.RateLimit.Allow(peer) {
			result.Denied[peer] = ErrRateLimitExceeded
			continue
		}
		if err := b.ForwardToPeer(ctx, next, peer); err != nil {
			result.Denied[peer] = err
			continue
		}
		result.Forwarded = append(result.Forwarded, peer)
	}
	return result
}

// ForwardToPeer is the unit delivery action, gated by the fixed-order guard
// chain (§4.6, §8 property 12). Any stage's denial aborts the send.
func (b *Bus) ForwardToPeer(ctx context.Context, env Envelope, peer ids.DeviceId) error {
	if err := b.GuardChain.Evaluate(ctx, peer, env); err != nil {
		return err
	}
	data, err := env.Encode()
	if err != nil {
		return err
	}
	if err := b.Transport.SendToPeer(ctx, peer, data); err != nil {
		return ErrSendFailed
	}
	return nil
}

// RunReceiveLoop drains the transport's inbound stream, re-flooding each
// envelope it has not already seen, until ctx is cancelled. Callers
// typically run this in its own cooperative task (§5 suspension point 2).
func (b *Bus) RunReceiveLoop(ctx context.Context) {
	ch := b.Transport.Receive()
	for {
		select {
		case <-ctx.Done():
			return
		case in, ok := <-ch:
			if !ok {
				return
			}
			env, err := DecodeEnvelope(in.Bytes)
			if err != nil {
				continue
			}
			b.Flood(ctx, env, in.From, true)
		}
	}
}
