// Package bus implements the Epidemic Envelope Bus (component D): flooding
// over a pluggable transport, a fixed-order guard chain gating delivery,
// per-peer rate limiting, and fingerprint-deduplicated forwarding.
package bus

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/xcrypto"
)

// Envelope is the gossip-layer message unit, identified by its content
// fingerprint (§4.6, §6 wire format): CBOR
// {fingerprint: 32B, ttl: u8, payload: bytes, hint: optional peer_id, signature: 64B}.
type Envelope struct {
	Fingerprint xcrypto.Hash256 `cbor:"1,keyasint"`
	TTL         uint8           `cbor:"2,keyasint"`
	Payload     []byte          `cbor:"3,keyasint"`
	Hint        [16]byte        `cbor:"4,keyasint"`
	HasHint     bool            `cbor:"5,keyasint"`
	Signature   [64]byte        `cbor:"6,keyasint"`
}

// NewEnvelope derives the fingerprint from the payload so that any two
// peers carrying identical content agree on its fingerprint without
// coordination.
func NewEnvelope(payload []byte, ttl uint8) Envelope {
	return Envelope{
		Fingerprint: xcrypto.Sum256(payload),
		TTL:         ttl,
		Payload:     payload,
	}
}

func (e Envelope) WithHint(peer ids.DeviceId) Envelope {
	e.Hint = [16]byte(peer)
	e.HasHint = true
	return e
}

// Decremented returns a copy of e with TTL reduced by one hop. Callers must
// check Alive before forwarding the result.
func (e Envelope) Decremented() Envelope {
	if e.TTL > 0 {
		e.TTL--
	} else {
		e.TTL = 0
	}
	return e
}

func (e Envelope) Alive() bool { return e.TTL > 0 }

func (e Envelope) Encode() ([]byte, error) {
	return cbor.Marshal(e)
}

func DecodeEnvelope(data []byte) (Envelope, error) {
	var e Envelope
	err := cbor.Unmarshal(data, &e)
	return e, err
}

// TransportMethodKind enumerates the interchangeable transports a
// TransportOffer may advertise (§4.6).
type TransportMethodKind uint8

const (
	TransportWebSocket TransportMethodKind = iota + 1
	TransportQuic
	TransportTcp
)

// transportPreference ranks methods QUIC > WebSocket > TCP for
// TransportAnswer selection.
var transportPreference = map[TransportMethodKind]int{
	TransportQuic:      3,
	TransportWebSocket: 2,
	TransportTcp:       1,
}

// TransportMethod is one reachable address a peer advertises.
type TransportMethod struct {
	Kind TransportMethodKind
	URL  string // WebSocket
	Addr string // Quic/Tcp
	Port uint16 // Quic/Tcp
}

// TransportOffer is a specialized envelope payload: flooded until it
// reaches the intended peer, who replies with a TransportAnswer.
type TransportOffer struct {
	FromDevice ids.DeviceId
	ToDevice   ids.DeviceId
	Methods    []TransportMethod
}

// TransportAnswer selects exactly one of the offered methods, preferring
// QUIC over WebSocket over TCP.
type TransportAnswer struct {
	FromDevice ids.DeviceId
	ToDevice   ids.DeviceId
	Selected   TransportMethod
}

// SelectPreferred picks the highest-preference method from a candidate set.
func SelectPreferred(methods []TransportMethod) (TransportMethod, bool) {
	best := -1
	var chosen TransportMethod
	for _, m := range methods {
		if rank := transportPreference[m.Kind]; rank > best {
			best = rank
			chosen = m
		}
	}
	return chosen, best >= 0
}
