package bus

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hxrts/aura/ids"
)

// memoryTransport is a fake Transport for exercising Bus/GuardChain/Dedup
// without a real network, mirroring the teacher's in-memory test doubles.
type memoryTransport struct {
	mu        sync.Mutex
	sent      map[ids.DeviceId][][]byte
	reachable map[ids.DeviceId]bool
	inbound   chan Inbound
}

func newMemoryTransport(reachable ...ids.DeviceId) *memoryTransport {
	m := &memoryTransport{
		sent:      map[ids.DeviceId][][]byte{},
		reachable: map[ids.DeviceId]bool{},
		inbound:   make(chan Inbound, 16),
	}
	for _, p := range reachable {
		m.reachable[p] = true
	}
	return m
}

func (m *memoryTransport) SendToPeer(ctx context.Context, peer ids.DeviceId, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.reachable[peer] {
		return ErrPeerUnreachable
	}
	m.sent[peer] = append(m.sent[peer], data)
	return nil
}

func (m *memoryTransport) IsPeerReachable(peer ids.DeviceId) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reachable[peer]
}

func (m *memoryTransport) Broadcast(ctx context.Context, data []byte) error { return nil }

func (m *memoryTransport) ConnectedPeers() []ids.DeviceId {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ids.DeviceId, 0, len(m.reachable))
	for p := range m.reachable {
		out = append(out, p)
	}
	return out
}

func (m *memoryTransport) Receive() <-chan Inbound { return m.inbound }

func allowAllChain() GuardChain { return GuardChain{} }

func TestFloodForwardsOnlyToReachablePeersWithinBudget(t *testing.T) {
	d1, d2, d3 := ids.NewDeviceId(), ids.NewDeviceId(), ids.NewDeviceId()
	transport := newMemoryTransport(d1, d2) // d3 unreachable

	b := New(transport, allowAllChain())
	b.AddFriend(d1)
	b.AddFriend(d2)
	b.AddFriend(d3)

	env := NewEnvelope([]byte("hello"), 5)
	result := b.Flood(context.Background(), env, ids.DeviceId{}, false)

	require.ElementsMatch(t, []ids.DeviceId{d1, d2}, result.Forwarded)
	require.Contains(t, result.Denied, d3)
	require.ErrorIs(t, result.Denied[d3], ErrPeerUnreachable)
}

func TestFloodDropsAtZeroTTL(t *testing.T) {
	d1 := ids.NewDeviceId()
	transport := newMemoryTransport(d1)
	b := New(transport, allowAllChain())
	b.AddFriend(d1)

	env := NewEnvelope([]byte("dead on arrival"), 0)
	result := b.Flood(context.Background(), env, ids.DeviceId{}, false)
	require.Empty(t, result.Forwarded)
}

func TestFloodForwardsEnvelopeAtMostOncePerNode(t *testing.T) {
	d1 := ids.NewDeviceId()
	transport := newMemoryTransport(d1)
	b := New(transport, allowAllChain())
	b.AddFriend(d1)

	env := NewEnvelope([]byte("seen twice"), 5)
	first := b.Flood(context.Background(), env, ids.DeviceId{}, false)
	require.Len(t, first.Forwarded, 1)

	second := b.Flood(context.Background(), env, ids.DeviceId{}, false)
	require.Empty(t, second.Forwarded)
	require.Empty(t, second.Denied)
}

func TestGuardChainStopsAtFirstDenial(t *testing.T) {
	var ranFlow, ranLeakage bool
	chain := GuardChain{
		Authorization: func(ctx context.Context, peer ids.DeviceId, env Envelope) error {
			return errDenied("not authorized")
		},
		FlowControl: func(ctx context.Context, peer ids.DeviceId, env Envelope) error {
			ranFlow = true
			return nil
		},
		LeakageCheck: func(ctx context.Context, peer ids.DeviceId, env Envelope) error {
			ranLeakage = true
			return nil
		},
	}

	before := DenialCounts()[string(StageAuthorization)]

	err := chain.Evaluate(context.Background(), ids.NewDeviceId(), NewEnvelope([]byte("x"), 5))
	require.Error(t, err)
	var denial *Denial
	require.ErrorAs(t, err, &denial)
	require.Equal(t, StageAuthorization, denial.Stage)
	require.False(t, ranFlow)
	require.False(t, ranLeakage)

	require.Equal(t, before+1, DenialCounts()[string(StageAuthorization)])
}

func TestSelectPreferredChoosesQuicOverWebSocketOverTcp(t *testing.T) {
	methods := []TransportMethod{
		{Kind: TransportTcp, Addr: "10.0.0.1", Port: 9000},
		{Kind: TransportWebSocket, URL: "wss://example"},
		{Kind: TransportQuic, Addr: "10.0.0.1", Port: 9001},
	}
	chosen, ok := SelectPreferred(methods)
	require.True(t, ok)
	require.Equal(t, TransportQuic, chosen.Kind)
}

func TestEnvelopeWireRoundTrip(t *testing.T) {
	env := NewEnvelope([]byte("payload"), 7).WithHint(ids.NewDeviceId())
	data, err := env.Encode()
	require.NoError(t, err)

	back, err := DecodeEnvelope(data)
	require.NoError(t, err)
	require.Equal(t, env.Fingerprint, back.Fingerprint)
	require.Equal(t, env.TTL, back.TTL)
	require.True(t, back.HasHint)
}

type errDenied string

func (e errDenied) Error() string { return string(e) }
