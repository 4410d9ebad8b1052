package bus

import (
	"context"
	"errors"

	"github.com/hxrts/aura/ids"
)

// Transport error taxonomy (§6, §7). The bus does not retry: every send
// error is returned to the caller at once (ForwardToPeer reports it as
// ErrSendFailed).
var (
	ErrSendFailed       = errors.New("bus: send failed")
	ErrPeerUnreachable  = errors.New("bus: peer unreachable")
	ErrRateLimitExceeded = errors.New("bus: rate limit exceeded")
	ErrOperationTimeout = errors.New("bus: operation timed out")
)

// Inbound is one received frame: the peer it arrived from and its raw bytes.
type Inbound struct {
	From  ids.DeviceId
	Bytes []byte
}

// Transport is the pluggable delivery abstraction (§4.6): the bus is
// oblivious to whether it is backed by QUIC, WebSocket, or TCP.
type Transport interface {
	SendToPeer(ctx context.Context, peer ids.DeviceId, data []byte) error
	IsPeerReachable(peer ids.DeviceId) bool
	Broadcast(ctx context.Context, data []byte) error
	ConnectedPeers() []ids.DeviceId

	// Receive returns a channel of inbound frames; closed when the
	// transport is torn down.
	Receive() <-chan Inbound
}
